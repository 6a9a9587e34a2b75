// Package client implements the RPC client for the document store system.
// It provides a wire-level view of the store facade that communicates with
// remote servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to the document store
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRemoteDocStore: Factory function that creates a client implementing the
//     IRemoteDocStore interface. This client forwards all operations to remote
//     servers via the configured transport layer. Records travel as schema-encoded
//     JSON payloads, so the client does not need the server's schema registry.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:5000"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create store client
//	docs, _ := client.NewRemoteDocStore(config, tcp.NewTCPClientTransport(), serializer.NewJSONSerializer())
//
//	// Use the store
//	id, _ := docs.Save("ticket", "acme", []byte(`{"title":"broken build"}`))
//	rec, found, _ := docs.Get("ticket", "acme", id)
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
