// Package memory provides the directory stores in process memory.
//
// Each store sits on a pkg/cmap sharded map, so single-key operations are
// atomic without a store-wide lock. Nothing survives a restart.
package memory
