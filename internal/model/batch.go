package model

import "github.com/google/uuid"

// BatchRun is the outcome of one bulk submission: an ordered sequence of
// terminal item results. Result order always matches submission order even
// when completion order differs, so callers can correlate positionally.
type BatchRun struct {
	ID        string       `json:"id"`
	Total     int          `json:"total"`
	Completed int          `json:"completed"`
	Results   []ItemResult `json:"results"`
}

// NewBatchRun allocates a run for n items.
func NewBatchRun(n int) *BatchRun {
	return &BatchRun{
		ID:      uuid.NewString(),
		Total:   n,
		Results: make([]ItemResult, n),
	}
}

// ProgressFunc observes batch progress. Invoked exactly once per item after
// it reaches a terminal outcome (success or isolated failure), strictly in
// completion-count order.
type ProgressFunc func(completed, total int)
