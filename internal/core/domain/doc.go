// Package domain defines the core business entities for resultq.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Result: A tracked finding with a URL, status, tags and JSON metadata
//   - Status: A workflow state a result can be in
//   - Event: A created/updated record emitted on behalf of a task
//   - ResultFilter: The structured (relational) part of a search
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
