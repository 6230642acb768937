// Package calendar resolves interviewer busy intervals from connected
// calendars, expanding recurrence rules, instead of requiring callers to
// flatten them by hand (SPEC_FULL §4.8).
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/sony/gobreaker/v2"
	"github.com/teambition/rrule-go"
	"golang.org/x/oauth2"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

// BreakerConfig holds the settings of the "calendar" circuit breaker, which
// mirrors the engine runtime's per-collaborator breaker: three consecutive
// failures open the breaker, and
// an open breaker degrades to "no busy intervals" rather than failing the
// whole solve.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// CalDAVBusyProvider resolves BusyInterval rows for interviewers by querying
// their CalDAV calendars directly, implementing domain.BusyIntervalProvider.
// One interviewer ID maps to one calendar principal URL.
type CalDAVBusyProvider struct {
	baseURL     func(interviewerID string) string
	tokenSource oauth2.TokenSource
	logger      *slog.Logger
	breaker     *gobreaker.CircuitBreaker[[]domain.RawBusy]
}

// NewCalDAVBusyProvider constructs a provider. baseURL resolves an
// interviewer id to its CalDAV principal URL (e.g. a per-tenant directory
// lookup); tokenSource authenticates every request.
func NewCalDAVBusyProvider(baseURL func(string) string, tokenSource oauth2.TokenSource, breakerCfg BreakerConfig, logger *slog.Logger) *CalDAVBusyProvider {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings[[]domain.RawBusy]{
		Name:        "calendar",
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("calendar circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	}
	return &CalDAVBusyProvider{
		baseURL:     baseURL,
		tokenSource: tokenSource,
		logger:      logger,
		breaker:     gobreaker.NewCircuitBreaker[[]domain.RawBusy](settings),
	}
}

// BusyIntervals fetches and flattens busy time for each interviewer,
// expanding any RRULE occurrences within [from, to]. A breaker-open or
// fetch error for one interviewer degrades that interviewer to "no busy
// intervals" rather than failing the whole call.
func (p *CalDAVBusyProvider) BusyIntervals(ctx context.Context, interviewerIDs []string, from, to time.Time) ([]domain.RawBusy, error) {
	var all []domain.RawBusy
	for _, id := range interviewerIDs {
		busy, err := p.breaker.Execute(func() ([]domain.RawBusy, error) {
			return p.fetchOne(ctx, id, from, to)
		})
		if err != nil {
			p.logger.Warn("calendar busy-interval fetch degraded to empty", "interviewer_id", id, "error", err)
			continue
		}
		all = append(all, busy...)
	}
	return all, nil
}

func (p *CalDAVBusyProvider) fetchOne(ctx context.Context, interviewerID string, from, to time.Time) ([]domain.RawBusy, error) {
	httpClient := oauth2.NewClient(ctx, p.tokenSource)
	httpClient.Timeout = httpClientTimeout
	client, err := caldav.NewClient(httpClient, p.baseURL(interviewerID))
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home set: %w", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}
	if len(cals) == 0 {
		return nil, nil
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{
				{Name: "VEVENT", Props: []string{"DTSTART", "DTEND", "RRULE"}},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{Name: "VEVENT", Start: from, End: to},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, cals[0].Path, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	var result []domain.RawBusy
	for _, obj := range objects {
		result = append(result, expandEvent(obj, interviewerID, from, to)...)
	}
	return result, nil
}

// expandEvent converts one VEVENT into one or more busy intervals, expanding
// its RRULE (if any) into concrete occurrences within [from, to].
func expandEvent(obj caldav.CalendarObject, interviewerID string, from, to time.Time) []domain.RawBusy {
	if obj.Data == nil {
		return nil
	}

	var result []domain.RawBusy
	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		icalEvent := &ical.Event{Component: child}
		start, err := icalEvent.DateTimeStart(time.UTC)
		if err != nil {
			continue
		}
		end, err := icalEvent.DateTimeEnd(time.UTC)
		if err != nil {
			continue
		}
		duration := end.Sub(start)

		rruleProp := child.Props.Get(ical.PropRecurrenceRule)
		if rruleProp == nil {
			result = append(result, toRawBusy(interviewerID, start, end))
			continue
		}

		rule, err := rrule.StrToRRule(rruleProp.Value)
		if err != nil {
			result = append(result, toRawBusy(interviewerID, start, end))
			continue
		}
		rule.DTStart(start)
		for _, occurrence := range rule.Between(from, to, true) {
			result = append(result, toRawBusy(interviewerID, occurrence, occurrence.Add(duration)))
		}
	}
	return result
}

func toRawBusy(interviewerID string, start, end time.Time) domain.RawBusy {
	return domain.RawBusy{
		InterviewerID: interviewerID,
		Start:         start.Format("2006-01-02T15:04"),
		End:           end.Format("2006-01-02T15:04"),
	}
}

const httpClientTimeout = 30 * time.Second
