package domain

import (
	"fmt"
	"strings"
)

// DefaultPerPage is the page size used when none is configured.
const DefaultPerPage = 25

// SortField is a column results can be ordered by.
type SortField string

// Sortable columns.
const (
	SortByID        SortField = "id"
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
	SortByTitle     SortField = "title"
)

// IsValid returns true if the sort field is recognised. The empty field is
// valid and means SortByID.
func (f SortField) IsValid() bool {
	switch f {
	case "", SortByID, SortByCreatedAt, SortByUpdatedAt, SortByTitle:
		return true
	default:
		return false
	}
}

// OrDefault returns SortByID for the empty field.
func (f SortField) OrDefault() SortField {
	if f == "" {
		return SortByID
	}
	return f
}

// ResultFilter is the structured part of a search, evaluated by the result
// store. The metadata query engine never looks inside it.
type ResultFilter struct {
	// StatusIDs restricts results to these statuses. Results without a
	// status never match a non-empty StatusIDs.
	StatusIDs []int64

	// IncludeClosed keeps results whose status is closed. By default they are
	// hidden unless StatusIDs names statuses explicitly. Results without a
	// status are always kept.
	IncludeClosed bool

	// TagIDs keeps results carrying at least one of these tags.
	TagIDs []int64

	// UserID restricts results to one owner.
	UserID *int64

	// URLContains is a case-insensitive substring of the URL.
	URLContains string

	// TitleContains is a case-insensitive substring of the title.
	TitleContains string

	// Sort is the ordering column.
	Sort SortField

	// Descending reverses the order.
	Descending bool
}

// SearchOptions configures a result search.
type SearchOptions struct {
	// Filter is the structured filter.
	Filter ResultFilter

	// MetadataQuery is an optional metadata query, e.g. `a:b=="x",c==1`.
	MetadataQuery string

	// Page is the 1-based page number.
	Page int

	// PageSize is the number of results per page.
	PageSize int
}

// FilterDescription echoes what a search actually filtered on.
type FilterDescription struct {
	// Structured is the filter passed to the store.
	Structured ResultFilter

	// MetadataQuery is the raw metadata query as supplied.
	MetadataQuery string

	// Clauses are the parsed metadata clauses in canonical form.
	Clauses []string
}

// Summary renders the description on one line.
func (d FilterDescription) Summary() string {
	var parts []string
	f := d.Structured
	if len(f.StatusIDs) > 0 {
		parts = append(parts, fmt.Sprintf("status in %v", f.StatusIDs))
	}
	if f.IncludeClosed {
		parts = append(parts, "including closed")
	}
	if len(f.TagIDs) > 0 {
		parts = append(parts, fmt.Sprintf("tags %v", f.TagIDs))
	}
	if f.UserID != nil {
		parts = append(parts, fmt.Sprintf("user %d", *f.UserID))
	}
	if f.URLContains != "" {
		parts = append(parts, fmt.Sprintf("url contains %q", f.URLContains))
	}
	if f.TitleContains != "" {
		parts = append(parts, fmt.Sprintf("title contains %q", f.TitleContains))
	}
	if len(d.Clauses) > 0 {
		parts = append(parts, "metadata "+strings.Join(d.Clauses, ","))
	}
	if len(parts) == 0 {
		return "all open results"
	}
	return strings.Join(parts, "; ")
}

// SearchPage is one window of search results.
type SearchPage struct {
	// Results are the results on this page, in store order.
	Results []Result

	// Total is the number of matches across all pages.
	Total int

	// Page is the 1-based page number.
	Page int

	// PageSize is the requested page size.
	PageSize int

	// Filter describes the effective filter.
	Filter FilterDescription
}

// TotalPages returns the number of pages needed for Total results.
func (p *SearchPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// HasMore reports whether pages follow this one.
func (p *SearchPage) HasMore() bool {
	return p.Page > 0 && p.Page < p.TotalPages()
}
