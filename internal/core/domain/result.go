package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Result is a tracked finding: a URL plus the structured attributes users
// filter on and a free-form JSON metadata document written by analyzers.
type Result struct {
	// ID is the unique identifier, assigned by the store on first save.
	ID int64

	// Title is the human-readable title.
	Title string

	// URL is the location of the finding. Required and unique.
	URL string

	// Domain is the URL host, derived from URL when empty.
	Domain string

	// StatusID links to the result's Status. Nil when unassigned.
	StatusID *int64

	// UserID is the owning user. Nil when unowned.
	UserID *int64

	// Content is free text attached to the result.
	Content string

	// Metadata is the raw JSON metadata document. It may be empty.
	Metadata json.RawMessage

	// Tags are the tag names attached to the result, in order.
	Tags []string

	// CreatedAt is when the result was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the result was last stored.
	UpdatedAt time.Time
}

// HasMetadata reports whether a metadata document has been written.
func (r *Result) HasMetadata() bool {
	return len(strings.TrimSpace(string(r.Metadata))) > 0
}

// Status is a workflow state.
type Status struct {
	ID int64

	Name string

	// Closed statuses are hidden from searches unless asked for.
	Closed bool

	// IsDefault marks the status assigned to results that have none.
	IsDefault bool
}

// Seeded status IDs.
const (
	StatusNewID     int64 = 1
	StatusTriagedID int64 = 2
	StatusClosedID  int64 = 3
)

// DefaultStatuses returns the statuses a new store starts with.
func DefaultStatuses() []Status {
	return []Status{
		{ID: StatusNewID, Name: "New", IsDefault: true},
		{ID: StatusTriagedID, Name: "Triaged"},
		{ID: StatusClosedID, Name: "Closed", Closed: true},
	}
}

// Tag is a label that can be attached to many results.
type Tag struct {
	ID   int64
	Name string
}

// tagListSeparator splits a tag list written as text.
const tagListSeparator = ","

// ParseTagList splits "a, b,c" into trimmed, de-duplicated names in order.
func ParseTagList(s string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, part := range strings.Split(s, tagListSeparator) {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// FormatTagList joins tag names for display.
func FormatTagList(names []string) string {
	return strings.Join(names, tagListSeparator+" ")
}

// EventAction is what happened to a result.
type EventAction string

// Event actions.
const (
	EventCreated EventAction = "created"
	EventUpdated EventAction = "updated"
)

// Event records that a task created or updated a result.
type Event struct {
	// ID is a UUID assigned when the event is recorded.
	ID string

	// TaskID identifies the task on whose behalf the change was made.
	TaskID string

	ResultID int64

	Action EventAction

	CreatedAt time.Time
}
