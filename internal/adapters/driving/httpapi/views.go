package httpapi

import (
	"encoding/json"
	"time"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

type resultView struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Domain    string          `json:"domain"`
	StatusID  *int64          `json:"status_id"`
	UserID    *int64          `json:"user_id"`
	Content   string          `json:"content,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newResultView(r *domain.Result) resultView {
	v := resultView{
		ID:        r.ID,
		Title:     r.Title,
		URL:       r.URL,
		Domain:    r.Domain,
		StatusID:  r.StatusID,
		UserID:    r.UserID,
		Content:   r.Content,
		Tags:      r.Tags,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	// Stored metadata may be malformed; only embed it when it is valid JSON.
	if r.HasMetadata() && json.Valid(r.Metadata) {
		v.Metadata = r.Metadata
	}
	return v
}

type filterView struct {
	Summary       string   `json:"summary"`
	MetadataQuery string   `json:"metadata_query,omitempty"`
	Clauses       []string `json:"clauses,omitempty"`
}

type pageView struct {
	Results    []resultView `json:"results"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
	HasMore    bool         `json:"has_more"`
	Filter     filterView   `json:"filter"`
}

func newPageView(p *domain.SearchPage) pageView {
	results := make([]resultView, len(p.Results))
	for i := range p.Results {
		results[i] = newResultView(&p.Results[i])
	}
	return pageView{
		Results:    results,
		Total:      p.Total,
		Page:       p.Page,
		PerPage:    p.PageSize,
		TotalPages: p.TotalPages(),
		HasMore:    p.HasMore(),
		Filter: filterView{
			Summary:       p.Filter.Summary(),
			MetadataQuery: p.Filter.MetadataQuery,
			Clauses:       p.Filter.Clauses,
		},
	}
}
