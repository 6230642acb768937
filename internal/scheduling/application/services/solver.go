package services

import (
	"sort"
	"time"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

// stageAssignment is one stage's decision: its chosen start minute, duration,
// and the trained interviewer chosen for each of its seats.
type stageAssignment struct {
	start    int
	duration int
	trained  map[string]string // seat_id -> interviewer id
}

// rawSolution is one complete Phase-1 feasible assignment, before Phase-2
// enrichment and before objective sorting.
type rawSolution struct {
	score       int
	assignments []stageAssignment
}

// SolverResult is the Solver Driver's output for one permutation (spec.md
// §4.4): up to quota distinct feasible solutions, each with its objective
// value, plus whether the search finished within the time budget. Optimal
// is false only when the deadline cut the search short; a search that
// stopped because it reached the quota still reports Optimal.
type SolverResult struct {
	Solutions []rawSolution
	Optimal   bool
}

// Solve runs the backtracking search described by the Phase-1 model,
// collecting up to quota distinct feasible solutions ordered by ascending
// objective value, within the given wall-clock budget (spec.md §4.4). No
// third-party constraint solver exists in this module's dependency surface,
// so the search is a hand-rolled depth-first branch-and-bound: DFS over
// stage start times and seat assignments, pruned by the ordering/gap,
// window, busy-interval, and weekly-limit constraints as each stage is
// decided, with the full set of discovered solutions finally sorted by
// score before truncation — this is what guarantees the non-decreasing
// objective order the driver contract requires, since a hand-rolled search
// can't promise the CP-SAT callback's near-optimal-first emission order.
func Solve(model *Model, quota int, budget time.Duration) SolverResult {
	if quota < 1 {
		quota = 1
	}
	deadline := time.Now().Add(budget)
	problem := model.Problem

	var found []rawSolution
	usedCount := map[string]int{}
	exhausted := true

	var search func(stageIdx int, prevEnd int, assignments []stageAssignment) bool
	search = func(stageIdx int, prevEnd int, assignments []stageAssignment) bool {
		if time.Now().After(deadline) {
			exhausted = false
			return false // stop searching entirely
		}
		if len(found) >= quota {
			return false
		}
		if stageIdx == len(model.Stages) {
			found = append(found, rawSolution{
				score:       objective(problem, assignments),
				assignments: append([]stageAssignment(nil), assignments...),
			})
			return len(found) < quota
		}

		sm := model.Stages[stageIdx]
		for _, start := range sm.Starts {
			if stageIdx > 0 && start < prevEnd+model.MinGap {
				continue
			}
			end := start + sm.Stage.DurationMinutes
			if ok := assignSeats(problem, sm, start, end, usedCount, func(trained map[string]string) bool {
				for iv := range trained {
					usedCount[iv]++
				}
				assignments = append(assignments, stageAssignment{start: start, duration: sm.Stage.DurationMinutes, trained: trained})
				cont := search(stageIdx+1, end, assignments)
				assignments = assignments[:len(assignments)-1]
				for iv := range trained {
					usedCount[iv]--
				}
				return cont
			}); !ok {
				continue
			}
			if len(found) >= quota || !exhausted {
				return false
			}
		}
		return true
	}
	search(0, 0, nil)

	sort.SliceStable(found, func(i, j int) bool { return found[i].score < found[j].score })
	if len(found) > quota {
		found = found[:quota]
	}
	return SolverResult{Solutions: found, Optimal: exhausted}
}

// assignSeats enumerates distinct-interviewer trained assignments for one
// stage's seats (the shared candidate pool means seats compete for the same
// people, spec.md §9 "Interviewer pool derivation"), filtering by busy
// intervals and the weekly limit, and invokes onComplete for each full
// assignment. It stops as soon as onComplete returns false.
func assignSeats(
	problem *domain.NormalizedProblem,
	sm StageModel,
	start, end int,
	usedCount map[string]int,
	onComplete func(trained map[string]string) bool,
) bool {
	seatIDs := make([]string, 0, len(sm.Stage.Seats))
	for _, seat := range sm.Stage.Seats {
		seatIDs = append(seatIDs, seat.SeatID)
	}

	chosen := map[string]bool{}
	assignment := map[string]string{}
	any := false

	var rec func(i int) bool
	rec = func(i int) bool {
		if i == len(seatIDs) {
			any = true
			snapshot := make(map[string]string, len(assignment))
			for seat, iv := range assignment {
				snapshot[seat] = iv
			}
			return onComplete(snapshot)
		}
		seatID := seatIDs[i]
		for _, iv := range sm.SeatPools[seatID] {
			if chosen[iv] {
				continue
			}
			if !available(problem, iv, start, end) {
				continue
			}
			interviewer := problem.Interviewers[iv]
			if usedCount[iv]+interviewer.CurrentLoad+1 > problem.Config.WeeklyLimit {
				continue
			}
			chosen[iv] = true
			assignment[seatID] = iv
			cont := rec(i + 1)
			delete(assignment, seatID)
			chosen[iv] = false
			if !cont {
				return false
			}
		}
		return true
	}
	rec(0)
	return any
}

// available reports whether interviewer iv has no busy interval overlapping
// [start, end) in the open-interval sense of spec.md §4.5 /
// §4.3 constraint 7: not (end <= busy.start or busy.end <= start).
func available(problem *domain.NormalizedProblem, interviewerID string, start, end int) bool {
	for _, b := range problem.BusyIntervals[interviewerID] {
		if !(end <= b.StartMinute || b.EndMinute <= start) {
			return false
		}
	}
	return true
}

// objective computes 100 * sum over (stage, interviewer) pairs of
// (1 + last2w_load) + span (spec.md §4.3 Objective): an interviewer serving
// two stages contributes to the fairness term twice, not once.
func objective(problem *domain.NormalizedProblem, assignments []stageAssignment) int {
	fairness := 0
	for _, a := range assignments {
		for _, iv := range a.trained {
			fairness += 1 + problem.Interviewers[iv].Last2wLoad
		}
	}
	span := 0
	if len(assignments) > 0 {
		first := assignments[0].start
		last := assignments[len(assignments)-1]
		span = last.start + last.duration - first
	}
	return 100*fairness + span
}
