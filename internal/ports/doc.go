// Package ports defines the interfaces that connect the application layer to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [BatchSender]: ships a batch of change events to a downstream system
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// HTTP and Kafka clients.
package ports
