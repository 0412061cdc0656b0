package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by metadata query", func(t *testing.T) {
		f := setupServer(t)
		r1 := f.add(t, "http://a.example/1", `{"a":{"b":"x"},"c":1}`)
		f.add(t, "http://a.example/2", `{"a":{"b":"y"},"c":1}`)
		r3 := f.add(t, "http://a.example/3", `{"a":{"b":"x"},"c":1,"d":true}`)

		_, out, err := f.server.handleSearch(ctx, nil, SearchInput{MetadataQuery: `a:b=="x",c==1`})

		require.NoError(t, err)
		require.Len(t, out.Results, 2)
		assert.Equal(t, r1, out.Results[0].ID)
		assert.Equal(t, r3, out.Results[1].ID)
		assert.Equal(t, 2, out.Total)
		assert.Equal(t, 1, out.Page)
		assert.Equal(t, defaultPerPage, out.PerPage)
		assert.Equal(t, map[string]any{"a": map[string]any{"b": "x"}, "c": int64(1)}, out.Results[0].Metadata)
	})

	t.Run("unreadable stored metadata is reported", func(t *testing.T) {
		f := setupServer(t)
		stored := &domain.Result{URL: "http://a.example/legacy", Metadata: json.RawMessage(`{"score":1e400}`)}
		require.NoError(t, f.store.Save(ctx, stored))

		_, out, err := f.server.handleSearch(ctx, nil, SearchInput{})

		require.NoError(t, err)
		require.Len(t, out.Results, 1)
		assert.Nil(t, out.Results[0].Metadata)
		assert.Contains(t, out.Results[0].MetadataError, "out of range")
	})

	t.Run("pages with configured default", func(t *testing.T) {
		f := setupServer(t)
		f.server.SetPerPage(2)
		for _, u := range []string{"http://p.example/1", "http://p.example/2", "http://p.example/3"} {
			f.add(t, u, "")
		}

		_, out, err := f.server.handleSearch(ctx, nil, SearchInput{Page: 2})

		require.NoError(t, err)
		assert.Len(t, out.Results, 1)
		assert.Equal(t, 3, out.Total)
		assert.Equal(t, 2, out.TotalPages)
	})

	t.Run("structured filter", func(t *testing.T) {
		f := setupServer(t)
		f.add(t, "http://alpha.example/", "")
		beta := f.add(t, "http://beta.example/", "")

		_, out, err := f.server.handleSearch(ctx, nil, SearchInput{URLContains: "beta"})

		require.NoError(t, err)
		require.Len(t, out.Results, 1)
		assert.Equal(t, beta, out.Results[0].ID)
		assert.Contains(t, out.Filter, "url contains")
	})

	t.Run("syntax error is returned", func(t *testing.T) {
		f := setupServer(t)

		_, _, err := f.server.handleSearch(ctx, nil, SearchInput{MetadataQuery: "c~1"})

		require.Error(t, err)
		assert.ErrorIs(t, err, metaquery.ErrSyntax)
	})
}

func TestServer_handleParseQuery(t *testing.T) {
	ctx := context.Background()
	f := setupServer(t)

	tests := []struct {
		name     string
		query    string
		valid    bool
		clauses  int
		fragment string
	}{
		{name: "two clauses", query: `a:b=="x",c==1`, valid: true, clauses: 2},
		{name: "array contains", query: `tags@>["p","q"]`, valid: true, clauses: 1},
		{name: "empty query", query: "", valid: true, clauses: 0},
		{name: "missing operator", query: "c~1", valid: false, fragment: "c~1"},
		{name: "unterminated quote", query: `a=="x`, valid: false, fragment: `"x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := f.server.handleParseQuery(ctx, nil, ParseQueryInput{Query: tt.query})

			require.NoError(t, err)
			assert.Equal(t, tt.valid, out.Valid)
			assert.Len(t, out.Clauses, tt.clauses)
			if !tt.valid {
				assert.NotEmpty(t, out.Error)
				assert.Equal(t, tt.fragment, out.Fragment)
			}
		})
	}
}
