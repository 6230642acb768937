package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervsched/scheduler/internal/scheduling/application/services"
	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func simpleRequest() domain.Request {
	return domain.Request{
		Stages: []domain.Stage{
			{Name: "Technical Screen", DurationMinutes: 60, Seats: []domain.Seat{{SeatID: "room1"}}},
		},
		Interviewers: []domain.Interviewer{
			{ID: "alice", Mode: domain.RoleTrained},
		},
		AvailabilityWindows: []domain.RawWindow{
			{Start: "2025-09-01T09:00", End: "2025-09-01T17:00"},
		},
	}
}

// fakeLoadRepository returns fixed counters, recording the ids it was asked about.
type fakeLoadRepository struct {
	counters map[string]domain.LoadCounters
	err      error
	lastIDs  []string
}

func (f *fakeLoadRepository) LoadCounters(ctx context.Context, ids []string) (map[string]domain.LoadCounters, error) {
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	return f.counters, nil
}

// fakeCalendar returns fixed busy intervals, or an error to exercise the
// breaker-degrade path.
type fakeCalendar struct {
	busy []domain.RawBusy
	err  error
}

func (f *fakeCalendar) BusyIntervals(ctx context.Context, ids []string, from, to time.Time) ([]domain.RawBusy, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.busy, nil
}

// fakeCache is an in-memory ResultCache double.
type fakeCache struct {
	store  map[string]domain.Response
	gets   int
	writes int
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string]domain.Response{}} }

func (c *fakeCache) Get(ctx context.Context, fp string) (*domain.Response, bool, error) {
	c.gets++
	resp, ok := c.store[fp]
	if !ok {
		return nil, false, nil
	}
	return &resp, true, nil
}

func (c *fakeCache) Set(ctx context.Context, fp string, resp domain.Response) error {
	c.writes++
	c.store[fp] = resp
	return nil
}

// fakePublisher records every publish call.
type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, routingKey)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// S1: a feasible single-stage request with no collaborators wired solves
// straight through the core.
func TestHandle_S1_BareCoreSolve(t *testing.T) {
	handler := NewSolveScheduleHandler(services.NewEngine(), nil, nil, nil, nil, testLogger(), nil)
	resp, err := handler.Handle(context.Background(), SolveScheduleCommand{Request: simpleRequest()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOptimal, resp.Status)
}

// S2: load-repository counters flow into the request before solving.
func TestHandle_S2_LoadRepositoryEnrichesInterviewerCounters(t *testing.T) {
	repo := &fakeLoadRepository{counters: map[string]domain.LoadCounters{
		"alice": {CurrentLoad: 10, Last2wLoad: 3},
	}}
	handler := NewSolveScheduleHandler(services.NewEngine(), repo, nil, nil, nil, testLogger(), nil)

	resp, err := handler.Handle(context.Background(), SolveScheduleCommand{
		Request:       simpleRequest(),
		UseRepository: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, repo.lastIDs)
	// alice's current_load (10) already exceeds the default weekly limit (5),
	// so enrichment must make the request infeasible.
	assert.Equal(t, domain.StatusInfeasible, resp.Status)
}

// S3: calendar busy intervals are merged into the request's busy intervals.
func TestHandle_S3_CalendarBusyIntervalsMergeIn(t *testing.T) {
	cal := &fakeCalendar{busy: []domain.RawBusy{
		{InterviewerID: "alice", Start: "2025-09-01T09:00", End: "2025-09-01T17:00"},
	}}
	handler := NewSolveScheduleHandler(services.NewEngine(), nil, cal, nil, nil, testLogger(), nil)

	resp, err := handler.Handle(context.Background(), SolveScheduleCommand{
		Request:     simpleRequest(),
		UseCalendar: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInfeasible, resp.Status, "alice is busy the whole window per the calendar")
}

// S4: a calendar error degrades to "proceed without it" rather than failing the request.
func TestHandle_S4_CalendarErrorDegradesGracefully(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("breaker open")}
	handler := NewSolveScheduleHandler(services.NewEngine(), nil, cal, nil, nil, testLogger(), nil)

	resp, err := handler.Handle(context.Background(), SolveScheduleCommand{
		Request:     simpleRequest(),
		UseCalendar: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOptimal, resp.Status)
}

// S5: a cache hit short-circuits the core entirely and is returned verbatim.
func TestHandle_S5_CacheHitSkipsCore(t *testing.T) {
	cache := newFakeCache()
	handler := NewSolveScheduleHandler(services.NewEngine(), nil, nil, cache, nil, testLogger(), nil)
	ctx := context.Background()
	cmd := SolveScheduleCommand{Request: simpleRequest()}

	first, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.writes)

	second, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.writes, "second call should be a cache hit, not a fresh write")
	assert.Equal(t, first.Status, second.Status)
}

// S6: a successful solve publishes exactly one schedule.computed event,
// and a publish failure never fails the request.
func TestHandle_S6_PublishesEventBestEffort(t *testing.T) {
	pub := &fakePublisher{}
	handler := NewSolveScheduleHandler(services.NewEngine(), nil, nil, nil, pub, testLogger(), nil)

	resp, err := handler.Handle(context.Background(), SolveScheduleCommand{Request: simpleRequest()})
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "schedule.computed", pub.published[0])
	assert.Equal(t, domain.StatusOptimal, resp.Status)

	pub.err = errors.New("broker unreachable")
	resp, err = handler.Handle(context.Background(), SolveScheduleCommand{Request: simpleRequest()})
	require.NoError(t, err, "publish failures must never fail the request")
	assert.Equal(t, domain.StatusOptimal, resp.Status)
}

func TestHandle_PropagatesLoadRepositoryErrors(t *testing.T) {
	repo := &fakeLoadRepository{err: errors.New("db unreachable")}
	handler := NewSolveScheduleHandler(services.NewEngine(), repo, nil, nil, nil, testLogger(), nil)

	_, err := handler.Handle(context.Background(), SolveScheduleCommand{
		Request:       simpleRequest(),
		UseRepository: true,
	})
	assert.Error(t, err)
}

func TestFingerprint_IsStableForEquivalentRequests(t *testing.T) {
	a, err := fingerprint(simpleRequest())
	require.NoError(t, err)
	b, err := fingerprint(simpleRequest())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFingerprint_DiffersOnChangedInput(t *testing.T) {
	a, err := fingerprint(simpleRequest())
	require.NoError(t, err)

	changed := simpleRequest()
	changed.Stages[0].DurationMinutes = 90
	b, err := fingerprint(changed)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
