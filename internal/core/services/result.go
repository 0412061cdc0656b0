package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
	"github.com/custodia-labs/resultq/internal/core/ports/driving"
	"github.com/custodia-labs/resultq/internal/logger"
)

// Ensure ResultService implements the interface.
var _ driving.ResultService = (*ResultService)(nil)

// csvHeader is the column order of ExportCSV.
var csvHeader = []string{
	"id", "title", "url", "status_id", "created_at", "updated_at",
	"domain", "user_id", "content", "metadata",
}

// validColumnNames are the result columns exposed to callers. Only id,
// created_at, updated_at and title are sort keys; see domain.SortField.
var validColumnNames = []string{
	"id", "title", "url", "status_id", "created_at", "updated_at", "domain", "user_id",
}

// ResultService manages results, their tags and their status.
type ResultService struct {
	resultStore driven.ResultStore
	statusStore driven.StatusStore
	tagStore    driven.TagStore
	events      driven.EventSink
}

// NewResultService creates a new result service.
// The events parameter is optional (can be nil).
func NewResultService(
	resultStore driven.ResultStore,
	statusStore driven.StatusStore,
	tagStore driven.TagStore,
	events driven.EventSink,
) *ResultService {
	return &ResultService{
		resultStore: resultStore,
		statusStore: statusStore,
		tagStore:    tagStore,
		events:      events,
	}
}

// Create validates and stores a new result.
func (s *ResultService) Create(ctx context.Context, r *domain.Result, taskID string) error {
	if s.resultStore == nil {
		return domain.ErrStoreUnavailable
	}
	if r.ID != 0 {
		return fmt.Errorf("%w: new result already has id %d", domain.ErrInvalidInput, r.ID)
	}
	if err := s.prepare(ctx, r); err != nil {
		return err
	}
	if err := s.resultStore.Save(ctx, r); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if err := s.finish(ctx, r, taskID, domain.EventCreated); err != nil {
		// Undo the insert so a retry does not hit ErrAlreadyExists.
		if derr := s.resultStore.Delete(ctx, r.ID); derr != nil {
			logger.Warn("Rolling back result %d: %v", r.ID, derr)
		}
		r.ID = 0
		return err
	}
	logger.Debug("Created result %d (%s)", r.ID, r.URL)
	return nil
}

// Update validates and stores an existing result.
func (s *ResultService) Update(ctx context.Context, r *domain.Result, taskID string) error {
	if s.resultStore == nil {
		return domain.ErrStoreUnavailable
	}
	if r.ID == 0 {
		return fmt.Errorf("%w: result id required", domain.ErrInvalidInput)
	}
	prev, err := s.resultStore.Get(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("get result %d: %w", r.ID, err)
	}
	var prevTags []string
	tagsChanged := s.tagStore != nil && r.Tags != nil
	if tagsChanged {
		if prevTags, err = s.tagStore.ResultTags(ctx, r.ID); err != nil {
			return fmt.Errorf("get tags: %w", err)
		}
	}
	if err := s.prepare(ctx, r); err != nil {
		return err
	}
	if err := s.resultStore.Save(ctx, r); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if err := s.finish(ctx, r, taskID, domain.EventUpdated); err != nil {
		s.restore(ctx, prev, prevTags, tagsChanged)
		return err
	}
	logger.Debug("Updated result %d", r.ID)
	return nil
}

// finish writes the tags and the task event that follow a saved result.
func (s *ResultService) finish(ctx context.Context, r *domain.Result, taskID string, action domain.EventAction) error {
	if err := s.saveTags(ctx, r); err != nil {
		return err
	}
	return s.record(ctx, r.ID, taskID, action)
}

// restore puts back the stored state of a result whose update failed
// half way.
func (s *ResultService) restore(ctx context.Context, prev *domain.Result, tags []string, tagsChanged bool) {
	if err := s.resultStore.Save(ctx, prev); err != nil {
		logger.Warn("Rolling back result %d: %v", prev.ID, err)
	}
	if !tagsChanged {
		return
	}
	if tags == nil {
		tags = []string{}
	}
	if err := s.tagStore.SetResultTags(ctx, prev.ID, tags); err != nil {
		logger.Warn("Rolling back tags of result %d: %v", prev.ID, err)
	}
}

// prepare validates a result and fills derived fields.
func (s *ResultService) prepare(ctx context.Context, r *domain.Result) error {
	host, err := validateURL(r.URL)
	if err != nil {
		return err
	}
	if r.Domain == "" {
		r.Domain = host
	}

	existing, err := s.resultStore.GetByURL(ctx, r.URL)
	switch {
	case err == nil && existing.ID != r.ID:
		return fmt.Errorf("%w: url %s is already tracked by result %d", domain.ErrAlreadyExists, r.URL, existing.ID)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("check url: %w", err)
	}

	if r.HasMetadata() {
		if _, err := metaquery.ParseDocument(r.Metadata); err != nil {
			return fmt.Errorf("%w: metadata: %w", domain.ErrInvalidInput, err)
		}
	}

	if r.StatusID == nil {
		if err := s.assignDefaultStatus(ctx, r); err != nil {
			return err
		}
	} else if s.statusStore != nil {
		if _, err := s.statusStore.Get(ctx, *r.StatusID); err != nil {
			return fmt.Errorf("%w: unknown status %d", domain.ErrInvalidInput, *r.StatusID)
		}
	}
	return nil
}

// validateURL requires an absolute http or https URL and returns its host.
func validateURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: url %q is not an absolute http(s) url", domain.ErrInvalidInput, raw)
	}
	return u.Hostname(), nil
}

func (s *ResultService) assignDefaultStatus(ctx context.Context, r *domain.Result) error {
	if s.statusStore == nil {
		return nil
	}
	status, err := s.statusStore.Default(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoDefaultStatus) {
			logger.Warn("No default status configured, leaving result unassigned")
			return nil
		}
		return fmt.Errorf("default status: %w", err)
	}
	id := status.ID
	r.StatusID = &id
	return nil
}

func (s *ResultService) saveTags(ctx context.Context, r *domain.Result) error {
	if s.tagStore == nil || r.Tags == nil {
		return nil
	}
	if err := s.tagStore.SetResultTags(ctx, r.ID, r.Tags); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

func (s *ResultService) record(ctx context.Context, resultID int64, taskID string, action domain.EventAction) error {
	if s.events == nil || taskID == "" {
		return nil
	}
	event := &domain.Event{TaskID: taskID, ResultID: resultID, Action: action}
	if err := s.events.Record(ctx, event); err != nil {
		return fmt.Errorf("record %s event: %w", action, err)
	}
	return nil
}

// Get retrieves a result by ID, tags included.
func (s *ResultService) Get(ctx context.Context, id int64) (*domain.Result, error) {
	if s.resultStore == nil {
		return nil, domain.ErrStoreUnavailable
	}
	r, err := s.resultStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.tagStore != nil {
		tags, err := s.tagStore.ResultTags(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get tags: %w", err)
		}
		r.Tags = tags
	}
	return r, nil
}

// Delete removes a result.
func (s *ResultService) Delete(ctx context.Context, id int64) error {
	if s.resultStore == nil {
		return domain.ErrStoreUnavailable
	}
	if _, err := s.resultStore.Get(ctx, id); err != nil {
		return err
	}
	return s.resultStore.Delete(ctx, id)
}

// TraverseMetadata resolves path in the result's metadata. The match is keyed
// by the last path segment; several matches are collected into one array.
func (s *ResultService) TraverseMetadata(ctx context.Context, id int64, path []string) (map[string]any, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, seg := range path {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty path segment", domain.ErrInvalidInput)
		}
	}
	doc, err := metaquery.ParseDocument(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("result %d: %w", id, err)
	}

	found := metaquery.Traverse(doc, metaquery.KeyPath(path))
	out := make(map[string]any, len(found))
	for k, v := range found {
		out[k] = v.Interface()
	}
	return out, nil
}

// SetTagList replaces a result's tags from a comma-separated list.
func (s *ResultService) SetTagList(ctx context.Context, id int64, list string) error {
	if s.tagStore == nil {
		return domain.ErrNotImplemented
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	names := domain.ParseTagList(list)
	if err := s.tagStore.SetResultTags(ctx, id, names); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// TagList returns a result's tags as a comma-separated list.
func (s *ResultService) TagList(ctx context.Context, id int64) (string, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return domain.FormatTagList(r.Tags), nil
}

// SetStatus assigns the default status when the result has none.
func (s *ResultService) SetStatus(ctx context.Context, id int64) (*domain.Status, error) {
	if s.statusStore == nil {
		return nil, domain.ErrNotImplemented
	}
	r, err := s.resultStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.StatusID != nil {
		return s.statusStore.Get(ctx, *r.StatusID)
	}

	status, err := s.statusStore.Default(ctx)
	if err != nil {
		return nil, err
	}
	statusID := status.ID
	r.StatusID = &statusID
	if err := s.resultStore.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}
	return status, nil
}

// Statuses lists the workflow statuses.
func (s *ResultService) Statuses(ctx context.Context) ([]domain.Status, error) {
	if s.statusStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.statusStore.List(ctx)
}

// Tags lists the known tags.
func (s *ResultService) Tags(ctx context.Context) ([]domain.Tag, error) {
	if s.tagStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.tagStore.List(ctx)
}

// ExportCSV writes every result passing the filter to w as CSV.
func (s *ResultService) ExportCSV(ctx context.Context, w io.Writer, filter domain.ResultFilter) error {
	if s.resultStore == nil {
		return domain.ErrStoreUnavailable
	}
	results, err := s.resultStore.FetchCandidates(ctx, filter)
	if err != nil {
		return fmt.Errorf("fetch results: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range results {
		if err := cw.Write(csvRecord(&results[i])); err != nil {
			return fmt.Errorf("write result %d: %w", results[i].ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	logger.Debug("Exported %d result(s) as CSV", len(results))
	return nil
}

func csvRecord(r *domain.Result) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Title,
		r.URL,
		formatOptionalID(r.StatusID),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
		r.Domain,
		formatOptionalID(r.UserID),
		r.Content,
		string(r.Metadata),
	}
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// ValidColumnNames returns the columns results can be filtered and sorted on.
func (s *ResultService) ValidColumnNames() []string {
	return append([]string(nil), validColumnNames...)
}
