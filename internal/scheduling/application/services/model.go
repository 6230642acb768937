package services

import (
	"sort"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

// StageModel is the Phase-1 decision space for one stage within one
// permutation: every aligned, window-contained start minute it could take.
type StageModel struct {
	Stage      domain.Stage
	StageIndex int
	Starts     []int // candidate start minutes, ascending, grid-aligned, window-contained
	SeatPools  map[string][]string // seat_id -> trained candidate ids (insertion order)
}

// Model is the Phase-1 constraint model for one stage ordering: per-stage
// start candidates plus the trained seat pools, ready for the backtracking
// Solver Driver to search (spec.md §4.3).
type Model struct {
	Problem *domain.NormalizedProblem
	Stages  []StageModel
	MinGap  int
}

// BuildModel constructs the Phase-1 model for one permutation of stages,
// restricted to trained interviewers only (spec.md §4.3).
func BuildModel(problem *domain.NormalizedProblem, orderedStages []domain.Stage) *Model {
	stageModels := make([]StageModel, len(orderedStages))
	for i, st := range orderedStages {
		origIndex := stageIndexOf(problem, st)
		pools := make(map[string][]string, len(st.Seats))
		for _, seat := range st.Seats {
			sr, ok := problem.StageSeatRole(origIndex, seat.SeatID)
			if !ok {
				pools[seat.SeatID] = nil
				continue
			}
			pools[seat.SeatID] = sr.Candidates
		}
		stageModels[i] = StageModel{
			Stage:      st,
			StageIndex: i,
			Starts:     generateStarts(problem, st.DurationMinutes),
			SeatPools:  pools,
		}
	}

	gap := problem.MinGap()
	if !problem.Config.ScheduleOnSameDay && gap < 1440 {
		gap = 1440
	}

	return &Model{Problem: problem, Stages: stageModels, MinGap: gap}
}

// stageIndexOf recovers the original (pre-permutation) stage index a stage
// was normalized under, since TrainedSeatRoles are keyed by that index.
// Stage names are unique within a request (spec.md data model), so name
// lookup against the problem's original stage list is unambiguous.
func stageIndexOf(problem *domain.NormalizedProblem, st domain.Stage) int {
	for i, orig := range problem.Stages {
		if orig.Name == st.Name {
			return i
		}
	}
	return -1
}

// generateStarts returns every time_step-aligned minute, across all windows,
// at which a stage of the given duration fits entirely inside one window.
func generateStarts(problem *domain.NormalizedProblem, duration int) []int {
	step := problem.Config.TimeStepMinutes
	if step <= 0 {
		step = 1
	}
	seen := map[int]bool{}
	var starts []int
	for _, w := range problem.Windows {
		first := w.StartMinute
		if rem := first % step; rem != 0 {
			first += step - rem
		}
		for s := first; s+duration <= w.EndMinute; s += step {
			if !seen[s] {
				seen[s] = true
				starts = append(starts, s)
			}
		}
	}
	sort.Ints(starts)
	return starts
}

// windowContaining returns the index of the window that fully contains
// [start, start+duration), or -1 if none does (spec.md §4.3 constraint 2:
// a stage lies entirely inside exactly one window).
func windowContaining(problem *domain.NormalizedProblem, start, duration int) int {
	end := start + duration
	for i, w := range problem.Windows {
		if start >= w.StartMinute && end <= w.EndMinute {
			return i
		}
	}
	return -1
}
