// Package server implements the RPC server for the document store system.
// It provides an adapter for handling RPC requests against the store facade,
// along with the core server implementation that wires configuration, schema
// loading, transport and serialization together.
//
// The package focuses on:
//   - Server-side RPC request handling for document store operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Declarative record types loaded from a YAML schema file
//   - Graceful shutdown that halts writes before draining and closing
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a
//     store.IDocStore.
//
//   - NewDocStoreServerAdapter: Factory function creating an adapter for document
//     store operations, translating RPC requests to store.IDocStore method calls.
//
//   - LoadSchemas: Reads record type declarations from a YAML file and registers
//     them as generic schemas.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  DataDir: "/var/lib/croft",
//	  SchemaFile: "schema.yaml",
//	  Endpoint: "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewJSONSerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Listen method is not thread-safe and should be called only once.
package server
