package domain

import "context"

// LoadCounters is the pair of historical-load figures the fairness weight
// (spec.md §4.3 objective, "1 + last2w_load") is computed from.
type LoadCounters struct {
	CurrentLoad int
	Last2wLoad  int
}

// LoadRepository resolves current_load/last2w_load per interviewer id before
// a request reaches the Normalizer. It is an upstream collaborator at the
// core's boundary (spec.md §1 "described only where they cross the core's
// interface"); the core itself only ever sees plain ints on Interviewer.
type LoadRepository interface {
	LoadCounters(ctx context.Context, interviewerIDs []string) (map[string]LoadCounters, error)
}
