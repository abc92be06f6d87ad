// Package lstore implements a local, in-memory, single-node shard-record store based
// on the store.IShardStore interface. It provides a thin wrapper around any
// shards.ShardDB implementation. Data is stored entirely in memory and is not
// persisted between process restarts.
//
// Key Features:
//   - Pure in-memory storage without persistence
//   - Direct integration with shards.ShardDB implementations
//   - Feature detection to handle unsupported operations gracefully
//   - Thread-safe operations for concurrent access
//
// Implementation Details:
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     shards.ShardDB implementation supports the requested feature through the
//     SupportsFeature method. Unsupported operations return appropriate error codes
//     rather than failing silently or producing undefined behavior.
//
//   - Composition Architecture: The store follows a composition pattern where the
//     store.DBFactory factory function injects the underlying shards.ShardDB
//     implementation. This allows the store to work with any ShardDB-compatible
//     engine without modification.
//
// Thread Safety:
//
//	All operations in the local store are thread-safe. The underlying shards.ShardDB
//	implementation is expected to provide its own thread safety guarantees for the
//	actual storage operations, in particular the atomicity of Apply.
//
// Usage Example:
//
//	// Create a store with a grove engine backend
//	factory := func() shards.ShardDB { return grove.NewGroveDB(nil) }
//	store := lstore.NewLocalStore(factory)
//
//	// Add a delta to a shard record
//	newValue, err := store.Apply("visits", 3, 1)
//
//	// Read all records of a counter
//	records, err := store.Scan("visits")
//
// Suitable Use Cases:
//
//	The local store is ideal for:
//	- Ephemeral data that doesn't need to survive process restarts
//	- Single-node applications where distributed consensus is not required
//	- Testing and development environments
//	- In-process counters such as request or event tallies
//
// Performance Considerations:
//
//	The local store adds minimal overhead to the underlying shards.ShardDB
//	implementation. The only additional cost is the feature check before each
//	operation, which typically has negligible impact on performance compared to
//	the actual storage operations.
//
// For distributed scenarios requiring consensus across multiple nodes, consider
// using the dstore package instead, which provides a RAFT-based implementation
// of the same interface with strong consistency guarantees.
package lstore
