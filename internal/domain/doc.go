// Package domain contains the core entities of the batchship agent.
//
// It has no dependencies on infrastructure concerns (file system watching,
// HTTP, Kafka, logging) and holds only plain data and invariants.
//
// # Entities
//
//   - [ChangeEvent]: one observed file system change
//   - [Batch]: an identified group of change events shipped together
package domain
