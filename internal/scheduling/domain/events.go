package domain

import (
	"github.com/google/uuid"
	sharedDomain "github.com/intervsched/scheduler/internal/shared/domain"
)

// ScheduleComputedEvent is published after a successful solve, best-effort,
// per SPEC_FULL §4.10. It carries only the reporting figures a downstream
// consumer needs to react to a new schedule, not the schedule itself.
type ScheduleComputedEvent struct {
	sharedDomain.BaseEvent
	Status     Status
	TopScore   int
	NumFound   int
}

// NewScheduleComputedEvent builds the event for one solve's response.
func NewScheduleComputedEvent(requestID uuid.UUID, resp Response) ScheduleComputedEvent {
	topScore := 0
	if s, ok := resp.Schedules["schedule1"]; ok {
		topScore = s.Score
	}
	return ScheduleComputedEvent{
		BaseEvent: sharedDomain.NewBaseEvent(requestID, "InterviewSchedule", "schedule.computed"),
		Status:    resp.Status,
		TopScore:  topScore,
		NumFound:  len(resp.Schedules),
	}
}
