package mcp

import (
	"github.com/custodia-labs/resultq/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Search runs result searches and validates metadata queries.
	Search driving.SearchService

	// Results reads single results. Optional; without it the resources
	// report not found.
	Results driving.ResultService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
