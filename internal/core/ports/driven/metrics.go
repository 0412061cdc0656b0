package driven

import "time"

// Search outcomes reported to SearchMetrics.
const (
	SearchOutcomeOK          = "ok"
	SearchOutcomeSyntaxError = "syntax_error"
	SearchOutcomeError       = "error"
)

// SearchMetrics observes the search pipeline.
// Optional: services fall back to a no-op when none is set.
type SearchMetrics interface {
	// ObserveSearch records one search and how long it took.
	ObserveSearch(outcome string, d time.Duration)

	// AddCandidatesEvaluated counts documents run through the metadata stage.
	AddCandidatesEvaluated(n int)

	// AddMalformedDocuments counts documents excluded because they did not parse.
	AddMalformedDocuments(n int)
}
