// Package commands orchestrates the solver core around its upstream
// collaborators: load counters, calendar busy intervals, the result cache,
// and best-effort event publishing. None of this lives inside the core
// itself, which stays pure and synchronous (spec.md §5).
package commands

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/intervsched/scheduler/internal/scheduling/application/services"
	"github.com/intervsched/scheduler/internal/scheduling/domain"
	"github.com/intervsched/scheduler/internal/shared/infrastructure/eventbus"
	"github.com/intervsched/scheduler/pkg/observability"
)

// SolveScheduleCommand carries one solve request plus the flags controlling
// which optional upstream collaborators to consult.
type SolveScheduleCommand struct {
	Request       domain.Request
	UseRepository bool
	UseCalendar   bool
}

// SolveScheduleHandler wires the solver core to its optional upstream
// collaborators and publishes a best-effort domain event on success.
type SolveScheduleHandler struct {
	engine    *services.Engine
	loadRepo  domain.LoadRepository
	calendar  domain.BusyIntervalProvider
	cache     domain.ResultCache
	publisher eventbus.Publisher
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewSolveScheduleHandler constructs a handler. Any collaborator may be nil;
// a nil loadRepo/calendar is simply skipped, a nil cache disables caching,
// and a nil publisher is treated as a no-op (callers should pass
// eventbus.NewNoopPublisher(logger) explicitly where that's clearer). A nil metrics
// defaults to a no-op sink.
func NewSolveScheduleHandler(
	engine *services.Engine,
	loadRepo domain.LoadRepository,
	calendar domain.BusyIntervalProvider,
	cache domain.ResultCache,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	metrics observability.Metrics,
) *SolveScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &SolveScheduleHandler{
		engine:    engine,
		loadRepo:  loadRepo,
		calendar:  calendar,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle runs one solve end to end: enrich the request from upstream
// collaborators, consult the cache, call the core, publish the resulting
// event best-effort, and return the response.
func (h *SolveScheduleHandler) Handle(ctx context.Context, cmd SolveScheduleCommand) (*domain.Response, error) {
	start := time.Now()
	req := cmd.Request
	h.metrics.Counter(observability.MetricSolveRequests, 1)

	if cmd.UseRepository && h.loadRepo != nil {
		ids := make([]string, len(req.Interviewers))
		for i, iv := range req.Interviewers {
			ids[i] = iv.ID
		}
		counters, err := h.loadRepo.LoadCounters(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i, iv := range req.Interviewers {
			if c, ok := counters[iv.ID]; ok {
				req.Interviewers[i].CurrentLoad = c.CurrentLoad
				req.Interviewers[i].Last2wLoad = c.Last2wLoad
			}
		}
	}

	if cmd.UseCalendar && h.calendar != nil {
		ids := make([]string, len(req.Interviewers))
		for i, iv := range req.Interviewers {
			ids[i] = iv.ID
		}
		from, to, ok := lookAheadRange(req)
		if ok {
			busy, err := h.calendar.BusyIntervals(ctx, ids, from, to)
			if err != nil {
				h.logger.Warn("calendar busy-interval lookup failed, proceeding without it", "error", err)
			} else {
				req.BusyIntervals = append(req.BusyIntervals, busy...)
			}
		}
	}

	fingerprint, fpErr := fingerprint(req)
	if h.cache != nil && fpErr == nil {
		if cached, hit, err := h.cache.Get(ctx, fingerprint); err == nil && hit {
			h.metrics.Counter(observability.MetricCacheHits, 1)
			h.logger.Info("solve cache hit", "fingerprint", fingerprint)
			return cached, nil
		}
		h.metrics.Counter(observability.MetricCacheMisses, 1)
	}

	timer := observability.StartTimer(observability.MetricSolveDuration).WithMetrics(h.metrics)
	resp, err := h.engine.Solve(req)
	timer.StopWithError(err)
	if err != nil {
		return nil, err
	}

	if resp.Status == domain.StatusInfeasible {
		h.metrics.Counter(observability.MetricSolveInfeasible, 1)
	}
	h.metrics.Gauge(observability.MetricSolveSolutions, float64(len(resp.Schedules)))

	if h.cache != nil && fpErr == nil {
		if err := h.cache.Set(ctx, fingerprint, resp); err != nil {
			h.logger.Warn("solve cache write failed", "error", err)
		}
	}

	h.publish(ctx, resp)

	h.logger.Info("solve completed",
		"status", resp.Status,
		"schedules_found", len(resp.Schedules),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &resp, nil
}

func (h *SolveScheduleHandler) publish(ctx context.Context, resp domain.Response) {
	if h.publisher == nil {
		return
	}
	event := domain.NewScheduleComputedEvent(uuid.New(), resp)
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to marshal schedule.computed event", "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, event.RoutingKey(), payload); err != nil {
		h.logger.Warn("failed to publish schedule.computed event", "error", err)
		return
	}
	h.metrics.Counter(observability.MetricEventsPublished, 1)
}

// lookAheadRange returns the calendar lookup window: now through the latest
// availability window end, per SPEC_FULL §4.8.
func lookAheadRange(req domain.Request) (time.Time, time.Time, bool) {
	var latest time.Time
	found := false
	for _, w := range req.AvailabilityWindows {
		end, err := time.Parse("2006-01-02T15:04", w.End)
		if err != nil {
			continue
		}
		if !found || end.After(latest) {
			latest = end
			found = true
		}
	}
	if !found {
		return time.Time{}, time.Time{}, false
	}
	return time.Now(), latest, true
}

// fingerprint hashes a canonical JSON encoding of the request (spec.md §8
// property 10: solve is deterministic for a fixed input).
func fingerprint(req domain.Request) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return strconv.FormatUint(h.Sum64(), 16), nil
}
