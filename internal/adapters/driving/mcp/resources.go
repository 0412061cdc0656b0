package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

// uriScheme is the custom URI scheme for resultq resources.
const uriScheme = "resultq://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "statuses",
		Name:        "statuses",
		Description: "Workflow statuses results can be in",
		MIMEType:    "application/json",
	}, s.handleStatusesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "results/{id}/metadata",
		Name:        "result-metadata",
		Description: "Metadata document of a specific result",
		MIMEType:    "application/json",
	}, s.handleMetadataResource)
}

// handleStatusesResource lists the workflow statuses.
func (s *Server) handleStatusesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Results == nil {
		return jsonContents(req.Params.URI, "[]"), nil
	}

	statuses, err := s.ports.Results.Statuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}

	type statusInfo struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Closed    bool   `json:"closed"`
		IsDefault bool   `json:"is_default"`
	}

	infos := make([]statusInfo, len(statuses))
	for i, st := range statuses {
		infos[i] = statusInfo{ID: st.ID, Name: st.Name, Closed: st.Closed, IsDefault: st.IsDefault}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling statuses: %w", err)
	}
	return jsonContents(req.Params.URI, string(data)), nil
}

// handleMetadataResource returns a result's metadata document. Results
// without metadata read as an empty object.
func (s *Server) handleMetadataResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Results == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id, ok := extractResultID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	r, err := s.ports.Results.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting result: %w", err)
	}

	text := "{}"
	if r.HasMetadata() {
		text = string(r.Metadata)
	}
	return jsonContents(req.Params.URI, text), nil
}

func jsonContents(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractResultID extracts the ID from a URI like resultq://results/{id}/metadata.
func extractResultID(uri string) (int64, bool) {
	const prefix = uriScheme + "results/"
	const suffix = "/metadata"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
