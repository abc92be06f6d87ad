// Package client implements RPC clients for the distributed counter system.
// It provides an implementation of the counter.ICounter interface that
// communicates with remote servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to counter implementations
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCCounter: Factory function that creates a client implementing the
//     counter.ICounter[string] interface. This client forwards all operations to
//     remote servers via the configured transport layer.
//
// Usage Example:
//
//	// Configure the client
//	util := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:5000"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create counter client
//	cnt, _ := client.NewRPCCounter(1, util, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the counter
//	cnt.Add("page-views", 1)
//	total, _ := cnt.Count("page-views")
//	approx, _ := cnt.EstimateCount("page-views")
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
