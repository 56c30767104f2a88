// Package config holds the dirmesh-cli settings file (~/.dirmesh/cli.yaml).
//
// The file supplies defaults for the global flags. Flags and DIRMESH_*
// environment variables still take precedence.
package config
