// Package testing provides standardised tests and benchmarks for
// engine implementations that satisfy the shards.ShardDB interface.
//
// The package contains:
//   - testing: A comprehensive test suite for validating conformance to the ShardDB interface contract
//   - benchmark: Performance tests for measuring throughput of common engine operations
//
// This package is particularly useful for:
//   - Applications that need to select the most appropriate engine implementation
//     based on performance characteristics
//   - Engine developers implementing the ShardDB interface
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() shards.ShardDB {
//		return NewMyEngine()
//	}
//
//	// Running the standard test suite
//	testing.RunShardDBTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	testing.RunShardDBBenchmarks(b, "MyEngine", factory)
package testing
