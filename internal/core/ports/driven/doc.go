// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ResultStore: Result persistence and structured candidate fetch
//   - StatusStore: Workflow statuses
//   - TagStore: Tags and taggings
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EventSink: Lifecycle events. Without it, no events are recorded.
//   - SearchMetrics: Search instrumentation. Without it, nothing is observed.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
