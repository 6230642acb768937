package domain

import (
	"context"
	"time"
)

// BusyIntervalProvider resolves BusyInterval rows for interviewers from
// their connected calendars, expanding recurrence rules, instead of
// requiring the caller to flatten them by hand. Optional upstream
// collaborator, same boundary as LoadRepository (spec.md §1).
type BusyIntervalProvider interface {
	BusyIntervals(ctx context.Context, interviewerIDs []string, from, to time.Time) ([]RawBusy, error)
}
