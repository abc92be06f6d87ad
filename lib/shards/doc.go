// Package shards provides a standardized interface for shard-record engine
// implementations. It defines the ShardDB interface that allows for consistent
// interaction with various storage backends while abstracting implementation
// details.
//
// An engine stores one float64 value per (counter name, shard index) pair.
// Counters spread their total value over several such records so that
// concurrent writers touch different records instead of contending on a
// single hot one.
//
// The package focuses on:
//   - A unified interface for shard-record operations
//   - Atomic per-record read-modify-write (Apply)
//   - Feature discovery through capability flags
//   - Standardized persistence operations
//   - Comprehensive metadata reporting
//
// Key Components:
//
//   - ShardDB Interface: The core interface that all engine implementations must
//     satisfy. It provides methods for write operations (Apply, Put, Delete),
//     query operations (Get, Scan), metadata retrieval (GetInfo),
//     and persistence operations (Save, Load).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows clients to
//     discover supported operations at runtime.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for different engine backends (currently "grove").
//
//   - Store Information: The StoreInfo structure provides standardized
//     reporting on engine state, including record counts, implementation type,
//     and implementation-specific metadata.
//
// Note on Atomicity:
//   - The only atomicity an engine guarantees is per-record: Apply performs its
//     read-modify-write without interleaving with other writers of the same record.
//   - Multi-record operations (such as a counter rebalance issuing several Puts
//     and Deletes) are sequences of independent single-record commands. Callers
//     that need cross-record consistency must provide it themselves.
//
// Note on Scan Ordering:
//   - Scan returns the records of a counter ordered by ascending shard index.
//     Implementations backed by unordered data structures must sort before
//     returning.
//
// Related Packages:
//
// The engines/grove package (github.com/tallykv/tally/lib/shards/engines/grove)
// provides a high-performance implementation of the ShardDB interface using an
// in-memory partitioned architecture with lock-free per-record updates and
// binary persistence capabilities.
//
// The util package (github.com/tallykv/tally/lib/shards/util) provides
// complementary tools for working with ShardDB implementations, including
// hashing helpers and distribution statistics.
//
// The testing package (github.com/tallykv/tally/lib/shards/testing) provides
// standardized tests and benchmarks for engine implementations that satisfy the
// shards.ShardDB interface.
//   - RunShardDBTests: Runs a standardized test suite to validate implementations
//   - RunShardDBBenchmarks: Provides performance benchmarks for comparing implementations
package shards
