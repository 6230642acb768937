package domain

import "time"

// SeatRole is the set of interviewers eligible to fill one role at one seat
// of one stage, derived globally by Interviewer.Mode (spec.md §9 "Interviewer
// pool derivation" — pools are shared across seats within a stage, not
// customized per seat).
type SeatRole struct {
	StageIndex int
	SeatID     string
	Role       Role
	Candidates []string // interviewer IDs, in request insertion order (NormalizedProblem.InterviewerOrder)
}

// NormalizedProblem is the typed, validated output of the Input Normalizer.
// Nothing in it mutates after normalize() returns; the solver's decision
// variables are tracked separately.
type NormalizedProblem struct {
	// Epoch is the earliest availability window start, the wall-clock
	// instant that every StartMinute/EndMinute offset is measured from; the
	// Ranker/Formatter uses it to render event times back to ISO (spec.md §6).
	Epoch time.Time

	Stages       []Stage
	Interviewers map[string]Interviewer
	// InterviewerOrder preserves insertion order from the request, needed for
	// Phase-2's stable pool iteration (spec.md §4.5 "stable order").
	InterviewerOrder []string

	Windows       []AvailabilityWindow
	BusyIntervals map[string][]BusyInterval // by interviewer id, sorted by start

	// TrainedSeatRoles holds only the roles that carry constraints at Phase 1:
	// the spec's Open Question (§9) is resolved so that only `trained` becomes
	// a decision variable; shadow/reverse_shadow pools are exposed through
	// ModePool for the Phase-2 Enricher to consume directly without ever
	// entering the model.
	TrainedSeatRoles []SeatRole

	// ModePool lists interviewer IDs for a mode, in input order, for Phase-2.
	ModePool map[Role][]string

	Config Config
}

// StageSeatRole looks up the trained SeatRole for a given stage index and seat.
func (p *NormalizedProblem) StageSeatRole(stageIndex int, seatID string) (SeatRole, bool) {
	for _, sr := range p.TrainedSeatRoles {
		if sr.StageIndex == stageIndex && sr.SeatID == seatID {
			return sr, true
		}
	}
	return SeatRole{}, false
}

// MinGap returns the minimum minute gap required between consecutive stages,
// per spec.md §4.3 constraint 1.
func (p *NormalizedProblem) MinGap() int {
	base := 1440
	if p.Config.ScheduleOnSameDay {
		base = 120
	}
	if p.Config.MinGapBetweenStages > base {
		return p.Config.MinGapBetweenStages
	}
	return base
}

// DistinctDaysActive reports whether the distinct-day constraint (spec.md
// §4.3 constraint 3) applies to this problem.
func (p *NormalizedProblem) DistinctDaysActive() bool {
	return p.Config.RequireDistinctDays || !p.Config.ScheduleOnSameDay
}
