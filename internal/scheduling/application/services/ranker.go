package services

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

// permutationResult is one permutation's complete output: its ordered
// stages (for event naming) and the solver's raw solutions.
type permutationResult struct {
	stages []domain.Stage
	result SolverResult
}

// BuildEvents converts one raw Phase-1 solution into ScheduledEvents in
// stage order, ready for Phase-2 enrichment. Start/End are rendered as ISO
// "YYYY-MM-DDTHH:MM" wall-clock timestamps against epoch (spec.md §6).
func BuildEvents(orderedStages []domain.Stage, sol rawSolution, epoch time.Time) []domain.ScheduledEvent {
	events := make([]domain.ScheduledEvent, len(sol.assignments))
	for i, a := range sol.assignments {
		end := a.start + a.duration
		events[i] = domain.ScheduledEvent{
			StageName:   orderedStages[i].Name,
			StageIndex:  i,
			Duration:    a.duration,
			StartMinute: a.start,
			EndMinute:   end,
			Start:       epoch.Add(time.Duration(a.start) * time.Minute).Format(timestampLayout),
			End:         epoch.Add(time.Duration(end) * time.Minute).Format(timestampLayout),
			Trained:     a.trained,
		}
	}
	return events
}

// Rank merges every permutation's Phase-1 solutions into the final
// response (spec.md §4.6): all candidate schedules pooled, sorted ascending
// by score, truncated to the top K, each named schedule1..scheduleN, with
// metrics computed and an overall status decided by the optimality policy
// (SPEC_FULL §9: OPTIMAL only if every permutation that produced at least
// one solution finished its sub-search within its time budget, whether or
// not its solutions survive the top-K cut). Phase-2 enrichment is left to
// the caller.
func Rank(permResults []permutationResult, topK int, epoch time.Time) domain.Response {
	type candidate struct {
		score   int
		events  []domain.ScheduledEvent
		optimal bool
	}

	var candidates []candidate
	anyFeasible := false
	allOptimal := true
	for _, pr := range permResults {
		if len(pr.result.Solutions) == 0 {
			continue
		}
		anyFeasible = true
		if !pr.result.Optimal {
			allOptimal = false
		}
		for _, sol := range pr.result.Solutions {
			events := BuildEvents(pr.stages, sol, epoch)
			candidates = append(candidates, candidate{score: sol.score, events: events, optimal: pr.result.Optimal})
		}
	}

	if !anyFeasible {
		return domain.Response{Status: domain.StatusInfeasible, Schedules: map[string]domain.Schedule{}}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })
	if topK < 1 {
		topK = 1
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	status := domain.StatusFeasible
	if allOptimal {
		status = domain.StatusOptimal
	}

	schedules := make(map[string]domain.Schedule, len(candidates))
	for i, c := range candidates {
		schedules[scheduleKey(i+1)] = domain.Schedule{
			Events:  c.events,
			Score:   c.score,
			Metrics: computeMetrics(c.events),
			Optimal: c.optimal,
		}
	}

	return domain.Response{Status: status, Schedules: schedules}
}

func scheduleKey(n int) string {
	return "schedule" + strconv.Itoa(n)
}

// computeMetrics derives total span, idle time, and efficiency from an
// event list already in stage (not necessarily time) order (spec.md §4.6
// Metrics), rounding efficiency to 3 decimals.
func computeMetrics(events []domain.ScheduledEvent) domain.Metrics {
	if len(events) == 0 {
		return domain.Metrics{}
	}
	minStart := events[0].StartMinute
	maxEnd := events[0].EndMinute
	busy := 0
	for _, ev := range events {
		if ev.StartMinute < minStart {
			minStart = ev.StartMinute
		}
		if ev.EndMinute > maxEnd {
			maxEnd = ev.EndMinute
		}
		busy += ev.Duration
	}
	span := maxEnd - minStart
	idle := span - busy
	if idle < 0 {
		idle = 0
	}
	efficiency := 0.0
	if span > 0 {
		efficiency = math.Round(float64(busy)/float64(span)*1000) / 1000
	}
	return domain.Metrics{TotalSpanMinutes: span, IdleTimeMinutes: idle, Efficiency: efficiency}
}
