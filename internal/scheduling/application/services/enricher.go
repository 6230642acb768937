package services

import (
	"sort"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

// Enrich performs the Phase-2 greedy pass (spec.md §4.5): for each event in
// a Phase-1 solution, in event order, it assigns shadow and reverse_shadow
// seats from their own pools, each a stable, deterministic scan of
// NormalizedProblem.InterviewerOrder filtered to the pool's mode, skipping
// anyone busy during the event or already used in the event. An interviewer
// chosen for one event becomes available again for the next; the pools are
// never decision variables and their absence is never a search failure —
// an event simply reports fewer shadow assignments than seats when the
// pool runs dry.
func Enrich(problem *domain.NormalizedProblem, events []domain.ScheduledEvent) []domain.ScheduledEvent {
	for i := range events {
		ev := &events[i]
		ev.Shadow = assignObserverRole(problem, domain.RoleShadow, ev.StartMinute, ev.EndMinute, ev.Trained)
		ev.ReverseShadow = assignObserverRole(problem, domain.RoleReverseShadow, ev.StartMinute, ev.EndMinute, ev.Trained)
	}
	return events
}

// assignObserverRole greedily fills one observer seat per already-used
// trained seat, keyed by the same seat_id holding that trained assignment
// (spec.md §4.5, §6 response contract), scanning the pool in
// InterviewerOrder and skipping anyone busy or already committed to this
// event in any role.
func assignObserverRole(problem *domain.NormalizedProblem, role domain.Role, start, end int, trained map[string]string) map[string]string {
	result := map[string]string{}
	taken := map[string]bool{}
	for _, iv := range trained {
		taken[iv] = true
	}

	seatIDs := make([]string, 0, len(trained))
	for seatID := range trained {
		seatIDs = append(seatIDs, seatID)
	}
	sort.Strings(seatIDs)

	pool := problem.ModePool[role]
	seatIdx := 0
	for _, iv := range pool {
		if seatIdx >= len(seatIDs) {
			break
		}
		if taken[iv] {
			continue
		}
		if !available(problem, iv, start, end) {
			continue
		}
		result[seatIDs[seatIdx]] = iv
		taken[iv] = true
		seatIdx++
	}
	return result
}
