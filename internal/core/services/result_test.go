package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resultq/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
)

type resultFixture struct {
	service  *ResultService
	results  *memory.ResultStore
	statuses *memory.StatusStore
	tags     *memory.TagStore
	events   *memory.EventSink
}

func setupResultService(t *testing.T) *resultFixture {
	t.Helper()
	statuses := memory.NewStatusStore()
	tags := memory.NewTagStore()
	results := memory.NewResultStore(statuses, tags)
	events := memory.NewEventSink()
	return &resultFixture{
		service:  NewResultService(results, statuses, tags, events),
		results:  results,
		statuses: statuses,
		tags:     tags,
		events:   events,
	}
}

func (f *resultFixture) create(t *testing.T, r domain.Result) *domain.Result {
	t.Helper()
	require.NoError(t, f.service.Create(context.Background(), &r, ""))
	return &r
}

func TestResultService_Create_DerivesDomainAndDefaultStatus(t *testing.T) {
	f := setupResultService(t)

	r := f.create(t, domain.Result{URL: "http://www.foo.com/path?q=1"})

	assert.NotZero(t, r.ID)
	assert.Equal(t, "www.foo.com", r.Domain)
	require.NotNil(t, r.StatusID)
	assert.Equal(t, domain.StatusNewID, *r.StatusID)
}

func TestResultService_Create_KeepsExplicitDomain(t *testing.T) {
	f := setupResultService(t)

	r := f.create(t, domain.Result{URL: "https://www.foo.com", Domain: "foo.com"})

	assert.Equal(t, "foo.com", r.Domain)
}

func TestResultService_Create_ValidatesURL(t *testing.T) {
	f := setupResultService(t)

	for _, raw := range []string{"", "   ", "blah/www.foo.com", "ftp://foo.com", "http://"} {
		err := f.service.Create(context.Background(), &domain.Result{URL: raw}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "url %q", raw)
	}
}

func TestResultService_Create_RejectsDuplicateURL(t *testing.T) {
	f := setupResultService(t)
	f.create(t, domain.Result{URL: "http://www.foo.com"})

	err := f.service.Create(context.Background(), &domain.Result{URL: "http://www.foo.com"}, "")

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestResultService_Create_RejectsMalformedMetadata(t *testing.T) {
	f := setupResultService(t)

	err := f.service.Create(context.Background(), &domain.Result{
		URL:      "http://www.foo.com",
		Metadata: []byte(`{"a":`),
	}, "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, err, metaquery.ErrMalformedDocument)
}

func TestResultService_Create_RejectsUnknownStatus(t *testing.T) {
	f := setupResultService(t)
	status := int64(99)

	err := f.service.Create(context.Background(), &domain.Result{URL: "http://www.foo.com", StatusID: &status}, "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResultService_Create_RejectsPresetID(t *testing.T) {
	f := setupResultService(t)

	err := f.service.Create(context.Background(), &domain.Result{ID: 5, URL: "http://www.foo.com"}, "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResultService_Create_RecordsEvent(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()

	r := &domain.Result{URL: "http://www.foo.com"}
	require.NoError(t, f.service.Create(ctx, r, "task-1"))

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "task-1", events[0].TaskID)
	assert.Equal(t, r.ID, events[0].ResultID)
	assert.Equal(t, domain.EventCreated, events[0].Action)
}

func TestResultService_Create_NoTaskNoEvent(t *testing.T) {
	f := setupResultService(t)

	f.create(t, domain.Result{URL: "http://www.foo.com"})

	assert.Empty(t, f.events.Events())
}

func TestResultService_Update(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	r := f.create(t, domain.Result{URL: "http://www.foo.com", Title: "old"})

	r.Title = "new"
	require.NoError(t, f.service.Update(ctx, r, "task-2"))

	got, err := f.service.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventUpdated, events[0].Action)
	assert.Equal(t, "task-2", events[0].TaskID)
}

type failingEventSink struct{}

func (failingEventSink) Record(context.Context, *domain.Event) error {
	return errors.New("event log full")
}

type failingTagStore struct {
	*memory.TagStore
}

func (failingTagStore) SetResultTags(context.Context, int64, []string) error {
	return errors.New("tag table locked")
}

func TestResultService_Create_RollsBackWhenEventFails(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	svc := NewResultService(f.results, f.statuses, f.tags, failingEventSink{})

	r := &domain.Result{URL: "http://www.foo.com", Tags: []string{"x"}}
	err := svc.Create(ctx, r, "task-1")

	require.Error(t, err)
	assert.Zero(t, r.ID)
	_, err = f.results.GetByURL(ctx, "http://www.foo.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	retry := &domain.Result{URL: "http://www.foo.com"}
	require.NoError(t, f.service.Create(ctx, retry, "task-1"))
	assert.NotZero(t, retry.ID)
}

func TestResultService_Create_RollsBackWhenTagsFail(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	svc := NewResultService(f.results, f.statuses, failingTagStore{f.tags}, f.events)

	err := svc.Create(ctx, &domain.Result{URL: "http://www.foo.com", Tags: []string{"x"}}, "task-1")

	require.Error(t, err)
	_, err = f.results.GetByURL(ctx, "http://www.foo.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.events.Events())
}

func TestResultService_Update_RestoresOnFailure(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	r := f.create(t, domain.Result{URL: "http://www.foo.com", Title: "old", Tags: []string{"a"}})
	svc := NewResultService(f.results, f.statuses, f.tags, failingEventSink{})

	changed := *r
	changed.Title = "new"
	changed.Tags = []string{"b"}
	require.Error(t, svc.Update(ctx, &changed, "task-2"))

	got, err := f.service.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", got.Title)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestResultService_Update_SameURLAllowed(t *testing.T) {
	f := setupResultService(t)
	r := f.create(t, domain.Result{URL: "http://www.foo.com"})

	assert.NoError(t, f.service.Update(context.Background(), r, ""))
}

func TestResultService_Update_Errors(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	f.create(t, domain.Result{URL: "http://a.example"})
	b := f.create(t, domain.Result{URL: "http://b.example"})

	assert.ErrorIs(t, f.service.Update(ctx, &domain.Result{URL: "http://c.example"}, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.service.Update(ctx, &domain.Result{ID: 99, URL: "http://c.example"}, ""), domain.ErrNotFound)

	b.URL = "http://a.example"
	assert.ErrorIs(t, f.service.Update(ctx, b, ""), domain.ErrAlreadyExists)
}

func TestResultService_Delete(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	r := f.create(t, domain.Result{URL: "http://www.foo.com"})

	require.NoError(t, f.service.Delete(ctx, r.ID))

	_, err := f.service.Get(ctx, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.service.Delete(ctx, r.ID), domain.ErrNotFound)
}

func TestResultService_TraverseMetadata(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	r := f.create(t, domain.Result{
		URL:      "http://www.foo.com",
		Metadata: []byte(`{"array_test":["1","2"],"ports":[{"n":80},{"n":443}]}`),
	})

	got, err := f.service.TraverseMetadata(ctx, r.ID, []string{"array_test"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"array_test": []any{"1", "2"}}, got)

	got, err = f.service.TraverseMetadata(ctx, r.ID, []string{"ports", "n"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": []any{int64(80), int64(443)}}, got)

	got, err = f.service.TraverseMetadata(ctx, r.ID, []string{"missing"})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.service.TraverseMetadata(ctx, r.ID, []string{"a", ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.TraverseMetadata(ctx, 999, []string{"a"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResultService_TagList(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	r := f.create(t, domain.Result{URL: "http://www.foo.com"})

	require.NoError(t, f.service.SetTagList(ctx, r.ID, "Foo"))
	list, err := f.service.TagList(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Foo", list)

	require.NoError(t, f.service.SetTagList(ctx, r.ID, " xss, sqli ,xss"))
	list, err = f.service.TagList(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "xss, sqli", list)

	tags, err := f.service.Tags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 3)

	assert.ErrorIs(t, f.service.SetTagList(ctx, 999, "x"), domain.ErrNotFound)
}

func TestResultService_Create_WithTags(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()

	r := f.create(t, domain.Result{URL: "http://www.foo.com", Tags: []string{"a", "b"}})

	got, err := f.service.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
}

func TestResultService_SetStatus(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()

	// Stored without going through Create so no default is applied.
	r := &domain.Result{URL: "https://github.com/org/repo"}
	require.NoError(t, f.results.Save(ctx, r))
	require.Nil(t, r.StatusID)

	status, err := f.service.SetStatus(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNewID, status.ID)

	got, err := f.service.Get(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StatusID)
	assert.Equal(t, int64(1), *got.StatusID)
}

func TestResultService_SetStatus_KeepsExisting(t *testing.T) {
	f := setupResultService(t)
	closed := domain.StatusClosedID
	r := f.create(t, domain.Result{URL: "http://www.foo.com", StatusID: &closed})

	status, err := f.service.SetStatus(context.Background(), r.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosedID, status.ID)
}

func TestResultService_SetStatus_NoDefault(t *testing.T) {
	statuses := memory.NewStatusStore(domain.Status{ID: 1, Name: "Open"})
	results := memory.NewResultStore(statuses, nil)
	service := NewResultService(results, statuses, nil, nil)
	ctx := context.Background()

	r := &domain.Result{URL: "http://www.foo.com"}
	require.NoError(t, service.Create(ctx, r, ""))
	assert.Nil(t, r.StatusID)

	_, err := service.SetStatus(ctx, r.ID)
	assert.ErrorIs(t, err, domain.ErrNoDefaultStatus)
}

func TestResultService_ExportCSV(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	f.create(t, domain.Result{URL: "http://a.example", Title: "A, with comma", Metadata: []byte(`{"k":"v"}`)})
	closed := domain.StatusClosedID
	f.create(t, domain.Result{URL: "http://b.example", StatusID: &closed})

	var buf bytes.Buffer
	require.NoError(t, f.service.ExportCSV(ctx, &buf, domain.ResultFilter{}))

	assert.Contains(t, buf.String(), "id,title,url,status_id,created_at,updated_at,domain,user_id,content,metadata")

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "closed result is hidden by the default filter")
	row := records[1]
	assert.Equal(t, "1", row[0])
	assert.Equal(t, "A, with comma", row[1])
	assert.Equal(t, "http://a.example", row[2])
	assert.Equal(t, "1", row[3])
	assert.Equal(t, "a.example", row[6])
	assert.Equal(t, "", row[7])
	assert.Equal(t, `{"k":"v"}`, row[9])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestResultService_ExportCSV_WriteError(t *testing.T) {
	f := setupResultService(t)
	f.create(t, domain.Result{URL: "http://a.example"})

	err := f.service.ExportCSV(context.Background(), failingWriter{}, domain.ResultFilter{})

	assert.Error(t, err)
}

func TestResultService_ValidColumnNames(t *testing.T) {
	f := setupResultService(t)

	names := f.service.ValidColumnNames()
	assert.Equal(t, []string{"id", "title", "url", "status_id", "created_at", "updated_at", "domain", "user_id"}, names)

	names[0] = "mutated"
	assert.Equal(t, "id", f.service.ValidColumnNames()[0])

	// Sort keys are a subset of the columns.
	for _, field := range []domain.SortField{domain.SortByID, domain.SortByCreatedAt, domain.SortByUpdatedAt, domain.SortByTitle} {
		assert.Contains(t, f.service.ValidColumnNames(), string(field))
	}
	assert.False(t, domain.SortField("url").IsValid())
}

func TestResultService_NoStore(t *testing.T) {
	service := NewResultService(nil, nil, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, service.Create(ctx, &domain.Result{URL: "http://a.example"}, ""), domain.ErrStoreUnavailable)
	_, err := service.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	_, err = service.SetStatus(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}
