// Package server implements the RPC server for the distributed counter system.
// It provides an adapter for handling counter RPC requests, along with the core
// server implementation that manages shards and request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for counter operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible shard configuration with support for local and distributed counters
//   - Dynamic creation of counters based on shard configuration
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a
//     counter.ICounter[string].
//
//   - NewICounterServerAdapter: Factory function creating an adapter for counter
//     operations, translating RPC requests to counter.ICounter method calls.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeLocalICounter},
//	  },
//	  Counter: common.CounterConfig{
//	    ShardCount: 16,
//	    ReadFrom:   1,
//	    Policy:     "integer",
//	  },
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two types of shards, which can be mixed within a single server:
//
//   - ShardTypeLocalICounter: Counters backed by a node-local in-memory store,
//     suitable for single-node deployments or development environments.
//
//   - ShardTypeRemoteICounter: Counters backed by a distributed store using Raft
//     consensus, providing strong consistency across multiple nodes. When using this
//     type, RAFT configuration (RTTMillisecond, SnapshotEntries, CompactionOverhead,
//     DataDir, ReplicaID, and ClusterMembers) must be properly configured.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	Across multiple connections. Each request is processed independently.
//	The Listen method is not thread-safe and should be called only once.
package server
