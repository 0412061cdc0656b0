// Package mcp provides an MCP (Model Context Protocol) server adapter for resultq.
// It lets AI assistants search results and read their metadata.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
