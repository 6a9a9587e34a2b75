// Package common provides core data structures and utilities shared across
// the RPC layer of the document store. It defines fundamental types,
// configuration structures, and protocol elements used by other packages.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication, with a
//     flexible structure that adapts to different operation types. Records
//     travel as schema-encoded JSON payloads, so the outer serializer
//     (JSON, gob) never needs to know the record types. Includes factory
//     methods for creating various request and response messages.
//
//   - MessageType: Enumeration defining all supported operation types in
//     the system: the document store operations plus control messages.
//
//   - ServerConfig: Configuration for the server, including storage
//     location, schema file, network endpoint and log level.
//
//   - ClientConfig: Configuration for client components, controlling
//     connection parameters, timeouts, and retry behavior.
package common
