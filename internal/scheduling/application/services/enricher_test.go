package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

func TestEnrich_FillsShadowSeatFromPool(t *testing.T) {
	req := validRequest()
	problem, err := Normalize(req)
	require.NoError(t, err)

	events := []domain.ScheduledEvent{
		{StageName: "Technical Screen", StartMinute: 0, EndMinute: 60, Trained: map[string]string{"room1": "alice"}},
	}
	enriched := Enrich(problem, events)
	require.Len(t, enriched, 1)
	assert.Contains(t, enriched[0].Shadow, "room1")
	assert.Equal(t, "bob", enriched[0].Shadow["room1"])
}

func TestEnrich_SkipsBusyObservers(t *testing.T) {
	req := validRequest()
	req.BusyIntervals = []domain.RawBusy{
		{InterviewerID: "bob", Start: "2025-09-01T09:00", End: "2025-09-01T10:00"},
	}
	problem, err := Normalize(req)
	require.NoError(t, err)

	events := []domain.ScheduledEvent{
		{StageName: "Technical Screen", StartMinute: 0, EndMinute: 60, Trained: map[string]string{"room1": "alice"}},
	}
	enriched := Enrich(problem, events)
	assert.Empty(t, enriched[0].Shadow, "bob is busy during the event, pool is otherwise empty")
}

func TestEnrich_NeverAssignsTrainedInterviewerAsObserver(t *testing.T) {
	req := validRequest()
	req.Interviewers = append(req.Interviewers, domain.Interviewer{ID: "alice-shadow-alias", Mode: domain.RoleShadow})
	problem, err := Normalize(req)
	require.NoError(t, err)

	events := []domain.ScheduledEvent{
		{StageName: "Technical Screen", StartMinute: 0, EndMinute: 60, Trained: map[string]string{"room1": "alice"}},
	}
	enriched := Enrich(problem, events)
	for _, iv := range enriched[0].Shadow {
		assert.NotEqual(t, "alice", iv)
	}
}

func TestEnrich_ReverseShadowPoolEmptyLeavesMapEmpty(t *testing.T) {
	problem := buildTestProblem(t)
	events := []domain.ScheduledEvent{
		{StageName: "Technical Screen", StartMinute: 0, EndMinute: 60, Trained: map[string]string{"room1": "alice"}},
	}
	enriched := Enrich(problem, events)
	assert.Empty(t, enriched[0].ReverseShadow, "no reverse_shadow interviewers in the pool")
}
