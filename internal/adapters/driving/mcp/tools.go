package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
	"github.com/custodia-labs/resultq/internal/logger"
)

const defaultPerPage = 10

// SearchInput is the input schema for the search_results tool.
type SearchInput struct {
	MetadataQuery string  `json:"metadata_query,omitempty" jsonschema:"metadata query such as c==1 or a:b!=2"`
	StatusIDs     []int64 `json:"status_ids,omitempty" jsonschema:"keep results in these statuses"`
	TagIDs        []int64 `json:"tag_ids,omitempty" jsonschema:"keep results carrying any of these tags"`
	UserID        *int64  `json:"user_id,omitempty" jsonschema:"keep results owned by this user"`
	URLContains   string  `json:"url_contains,omitempty" jsonschema:"case-insensitive URL substring"`
	TitleContains string  `json:"title_contains,omitempty" jsonschema:"case-insensitive title substring"`
	IncludeClosed bool    `json:"include_closed,omitempty" jsonschema:"include results in closed statuses"`
	Page          int     `json:"page,omitempty" jsonschema:"1-based page number (default 1)"`
	PerPage       int     `json:"per_page,omitempty" jsonschema:"results per page (default 10)"`
}

// SearchOutput is the output schema for the search_results tool.
type SearchOutput struct {
	Results    []ResultOutput `json:"results"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int            `json:"total_pages"`
	Filter     string         `json:"filter"`
}

// ResultOutput represents a single result.
type ResultOutput struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	URL      string         `json:"url"`
	Domain   string         `json:"domain"`
	StatusID *int64         `json:"status_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	// MetadataError explains why a stored document could not be returned.
	MetadataError string `json:"metadata_error,omitempty"`
}

// ParseQueryInput is the input schema for the parse_metadata_query tool.
type ParseQueryInput struct {
	Query string `json:"query" jsonschema:"the metadata query to validate"`
}

// ParseQueryOutput reports whether a query parses, and how.
type ParseQueryOutput struct {
	Valid    bool     `json:"valid"`
	Clauses  []string `json:"clauses,omitempty"`
	Error    string   `json:"error,omitempty"`
	Fragment string   `json:"fragment,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_results",
		Description: "Search results by structured filters and a metadata query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "parse_metadata_query",
		Description: "Validate a metadata query and show its clauses in canonical form",
	}, s.handleParseQuery)
}

// handleSearch handles the search_results tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	perPage := input.PerPage
	if perPage <= 0 {
		perPage = s.perPage
	}

	opts := domain.SearchOptions{
		Filter: domain.ResultFilter{
			StatusIDs:     input.StatusIDs,
			TagIDs:        input.TagIDs,
			UserID:        input.UserID,
			URLContains:   input.URLContains,
			TitleContains: input.TitleContains,
			IncludeClosed: input.IncludeClosed,
		},
		MetadataQuery: input.MetadataQuery,
		Page:          page,
		PageSize:      perPage,
	}
	result, err := s.ports.Search.Search(ctx, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:    make([]ResultOutput, len(result.Results)),
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PageSize,
		TotalPages: result.TotalPages(),
		Filter:     result.Filter.Summary(),
	}
	for i := range result.Results {
		output.Results[i] = newResultOutput(&result.Results[i])
	}

	return nil, output, nil
}

// handleParseQuery handles the parse_metadata_query tool invocation. An
// invalid query is reported in the output, not as a tool error.
func (s *Server) handleParseQuery(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ParseQueryInput,
) (*mcp.CallToolResult, ParseQueryOutput, error) {
	q, err := s.ports.Search.ParseQuery(input.Query)
	if err != nil {
		out := ParseQueryOutput{Error: err.Error()}
		if se, ok := metaquery.AsSyntaxError(err); ok {
			out.Fragment = se.Fragment
		}
		return nil, out, nil
	}

	out := ParseQueryOutput{Valid: true, Clauses: make([]string, len(q))}
	for i, c := range q {
		out.Clauses[i] = c.String()
	}
	return nil, out, nil
}

func newResultOutput(r *domain.Result) ResultOutput {
	out := ResultOutput{
		ID:       r.ID,
		Title:    r.Title,
		URL:      r.URL,
		Domain:   r.Domain,
		StatusID: r.StatusID,
	}
	if r.HasMetadata() {
		doc, err := metaquery.ParseDocument(r.Metadata)
		if err != nil {
			logger.Debug("Result %d has unreadable metadata: %v", r.ID, err)
			out.MetadataError = err.Error()
			return out
		}
		out.Metadata, _ = doc.Interface().(map[string]any)
	}
	return out
}
