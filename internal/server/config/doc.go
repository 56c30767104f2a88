// Package config defines the dirmesh-server configuration.
//
//   - spec.go: ServerConfig and its sections
//   - default.go: default values
//   - verify.go: struct-tag validation plus cross-field rules
//
// Values are loaded by internal/infra/confloader from a YAML file,
// DIRMESH_* environment variables and command-line flags.
package config
