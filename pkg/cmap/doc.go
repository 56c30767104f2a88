// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are spread over a power-of-two number of shards with murmur3, each
// shard guarded by its own RWMutex. Every single-key operation (Get, Set,
// SetIfAbsent, Pop, Compute) is atomic with respect to other operations on
// the same key. Range visits shards one at a time, so it is not a
// consistent snapshot across shards.
//
// Usage:
//
//	m := cmap.New[string, domain.Session]()
//	if !m.SetIfAbsent("alice", sess) {
//		// already present
//	}
package cmap
