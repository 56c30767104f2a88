// Package main provides the entry point for dirmesh-server.
//
// dirmesh-server serves the directory protocol (register, connect,
// publish and list over NUL-terminated TCP requests) and an optional
// read-only admin HTTP surface.
//
// Usage:
//
//	dirmesh-server [flags]
//	dirmesh-server --config /etc/dirmesh/server.yaml
//
// Configuration comes from defaults, the YAML file, DIRMESH_* environment
// variables and flags, in increasing priority.
package main
