// Package grove implements a high-performance shard-record engine with
// advanced concurrency control. It provides a complete implementation of the
// shards.ShardDB interface with a focus on thread safety, performance, and
// memory efficiency.
//
// The package focuses on:
//   - Optimized concurrent access through partitioning and lock-free data structures
//   - Atomic per-record read-modify-write without locks
//   - Persistent storage with fuzzy snapshots and efficient binary encoding
//   - Distribution statistics for monitoring and optimization
//
// Key Components:
//
//   - groveImpl: The central engine structure implementing shards.ShardDB. It manages
//     partitions and provides the public API for shard-record operations.
//
//   - Partition: A subdivision of the engine that manages a subset of the
//     counter-name space. Every record of a counter lives in the same partition,
//     selected by a seeded FNV-1a hash of the counter name, so a Scan only has
//     to range over a single partition.
//
//   - RecordKey: The full (counter name, shard index) pair used as map key.
//     Keying on the full pair rather than a derived hash rules out collisions
//     between records of different counters.
//
// Atomicity:
//
// Apply runs its read-modify-write inside the map's per-key Compute, so two
// concurrent Apply calls on the same record always serialize and neither
// update is lost. Operations on different records proceed independently.
//
// Persistence:
//
// Save writes a binary snapshot (magic header, version, hash seed, record
// list) which Load restores into a fresh set of partitions. Save tolerates
// concurrent writers and produces a fuzzy snapshot: records written during
// the save may or may not be included.
package grove
