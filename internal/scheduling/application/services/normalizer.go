// Package services implements the solver core's pipeline stages: the
// Normalizer, Permutation Enumerator, Phase-1 Model Builder, Solver Driver,
// Phase-2 Enricher, and Ranker/Formatter described end to end in the
// scheduling specification.
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

const timestampLayout = "2006-01-02T15:04"

// Normalize parses stages, seats, interviewers, availability windows, and
// busy intervals into a NormalizedProblem, rejecting ill-formed input early.
func Normalize(req domain.Request) (*domain.NormalizedProblem, error) {
	cfg := applyConfigDefaults(req.Config)

	if len(req.Stages) == 0 {
		return nil, fmt.Errorf("%w: no stages", domain.ErrInvalidInput)
	}
	for _, st := range req.Stages {
		if st.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: stage %q has non-positive duration", domain.ErrInvalidInput, st.Name)
		}
		if len(st.Seats) == 0 {
			return nil, fmt.Errorf("%w: stage %q has no seats", domain.ErrInvalidInput, st.Name)
		}
	}

	if len(req.AvailabilityWindows) == 0 {
		return nil, fmt.Errorf("%w: no availability windows", domain.ErrInvalidInput)
	}

	parsedWindows := make([]time.Time, 0, len(req.AvailabilityWindows)*2)
	rawStarts := make([]time.Time, len(req.AvailabilityWindows))
	rawEnds := make([]time.Time, len(req.AvailabilityWindows))
	for i, w := range req.AvailabilityWindows {
		start, err := time.Parse(timestampLayout, w.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: window start %q unparseable: %v", domain.ErrInvalidInput, w.Start, err)
		}
		end, err := time.Parse(timestampLayout, w.End)
		if err != nil {
			return nil, fmt.Errorf("%w: window end %q unparseable: %v", domain.ErrInvalidInput, w.End, err)
		}
		if !start.Before(end) {
			return nil, fmt.Errorf("%w: window %q..%q has start >= end", domain.ErrInvalidInput, w.Start, w.End)
		}
		rawStarts[i], rawEnds[i] = start, end
		parsedWindows = append(parsedWindows, start, end)
	}

	epoch := rawStarts[0]
	for _, s := range rawStarts {
		if s.Before(epoch) {
			epoch = s
		}
	}

	windows := make([]domain.AvailabilityWindow, len(req.AvailabilityWindows))
	for i := range req.AvailabilityWindows {
		windows[i] = domain.AvailabilityWindow{
			StartMinute: int(rawStarts[i].Sub(epoch).Minutes()),
			EndMinute:   int(rawEnds[i].Sub(epoch).Minutes()),
		}
	}

	if !cfg.ScheduleOnSameDay {
		days := distinctCalendarDays(rawStarts, rawEnds)
		if days < len(req.Stages) {
			return nil, fmt.Errorf("%w: %d distinct day(s) covered, need %d for %d stages",
				domain.ErrInsufficientDays, days, len(req.Stages), len(req.Stages))
		}
	}

	interviewers := make(map[string]domain.Interviewer, len(req.Interviewers))
	order := make([]string, 0, len(req.Interviewers))
	modePool := map[domain.Role][]string{
		domain.RoleTrained:       {},
		domain.RoleShadow:        {},
		domain.RoleReverseShadow: {},
	}
	for _, iv := range req.Interviewers {
		normalized := iv
		normalized.Mode = domain.NormalizeRole(string(iv.Mode))
		interviewers[iv.ID] = normalized
		order = append(order, iv.ID)
		modePool[normalized.Mode] = append(modePool[normalized.Mode], iv.ID)
	}

	busy := make(map[string][]domain.BusyInterval, len(req.BusyIntervals))
	for _, b := range req.BusyIntervals {
		start, err := time.Parse(timestampLayout, b.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: busy interval start %q unparseable: %v", domain.ErrInvalidInput, b.Start, err)
		}
		end, err := time.Parse(timestampLayout, b.End)
		if err != nil {
			return nil, fmt.Errorf("%w: busy interval end %q unparseable: %v", domain.ErrInvalidInput, b.End, err)
		}
		if !start.Before(end) {
			return nil, fmt.Errorf("%w: busy interval for %q has start >= end", domain.ErrInvalidInput, b.InterviewerID)
		}
		busy[b.InterviewerID] = append(busy[b.InterviewerID], domain.BusyInterval{
			InterviewerID: b.InterviewerID,
			StartMinute:   int(start.Sub(epoch).Minutes()),
			EndMinute:     int(end.Sub(epoch).Minutes()),
		})
	}
	for id := range busy {
		sort.Slice(busy[id], func(i, j int) bool { return busy[id][i].StartMinute < busy[id][j].StartMinute })
	}

	trainedPool := modePool[domain.RoleTrained]
	seatRoles := make([]domain.SeatRole, 0)
	for stageIdx, st := range req.Stages {
		for _, seat := range st.Seats {
			if len(trainedPool) == 0 {
				return nil, fmt.Errorf("%w: stage %q seat %q has no trained candidates", domain.ErrEmptyPool, st.Name, seat.SeatID)
			}
			seatRoles = append(seatRoles, domain.SeatRole{
				StageIndex: stageIdx,
				SeatID:     seat.SeatID,
				Role:       domain.RoleTrained,
				Candidates: append([]string(nil), trainedPool...),
			})
		}
	}

	return &domain.NormalizedProblem{
		Epoch:            epoch,
		Stages:           req.Stages,
		Interviewers:     interviewers,
		InterviewerOrder: order,
		Windows:          windows,
		BusyIntervals:    busy,
		TrainedSeatRoles: seatRoles,
		ModePool:         modePool,
		Config:           cfg,
	}, nil
}

// applyConfigDefaults fills zero-valued numeric knobs with spec.md §6's
// defaults field by field, so a partially-populated Config (e.g.
// TopKSolutions left at 0) still gets defaulted the way a wholly-zero
// Config does. RequireDistinctDays and ScheduleOnSameDay are left alone
// once any field is set: Go's plain bool can't distinguish "the caller
// left this unset" from "the caller explicitly chose false", so defaulting
// them per-field would make an explicit ScheduleOnSameDay=false
// indistinguishable from an omitted one — see DESIGN.md's Open Questions
// for the accepted tradeoff.
func applyConfigDefaults(cfg domain.Config) domain.Config {
	if cfg == (domain.Config{}) {
		return domain.DefaultConfig()
	}
	defaults := domain.DefaultConfig()
	if cfg.TimeStepMinutes == 0 {
		cfg.TimeStepMinutes = defaults.TimeStepMinutes
	}
	if cfg.WeeklyLimit == 0 {
		cfg.WeeklyLimit = defaults.WeeklyLimit
	}
	if cfg.MaxTimeSeconds == 0 {
		cfg.MaxTimeSeconds = defaults.MaxTimeSeconds
	}
	if cfg.TopKSolutions == 0 {
		cfg.TopKSolutions = defaults.TopKSolutions
	}
	return cfg
}

// distinctCalendarDays counts the number of distinct calendar days covered by
// the union of the given windows, walking each window day by day from its
// start date through its end date (spec.md §4.1 validation note: "count the
// distinct calendar days covered").
func distinctCalendarDays(starts, ends []time.Time) int {
	seen := map[string]struct{}{}
	for i := range starts {
		endKey := ends[i].Format("2006-01-02")
		for d := starts[i]; d.Format("2006-01-02") <= endKey; d = d.AddDate(0, 0, 1) {
			seen[d.Format("2006-01-02")] = struct{}{}
		}
	}
	return len(seen)
}
