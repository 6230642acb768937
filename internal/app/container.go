// Package app wires the scheduling engine and its optional upstream
// collaborators into a single Container, the way orbita's own container
// wires repositories and services for its CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/intervsched/scheduler/internal/scheduling/application/commands"
	"github.com/intervsched/scheduler/internal/scheduling/application/services"
	"github.com/intervsched/scheduler/internal/scheduling/domain"
	"github.com/intervsched/scheduler/internal/scheduling/infrastructure/cache"
	"github.com/intervsched/scheduler/internal/scheduling/infrastructure/calendar"
	"github.com/intervsched/scheduler/internal/shared/infrastructure/database"
	_ "github.com/intervsched/scheduler/internal/shared/infrastructure/database/postgres" // registers the postgres driver
	_ "github.com/intervsched/scheduler/internal/shared/infrastructure/database/sqlite"   // registers the sqlite driver
	"github.com/intervsched/scheduler/internal/shared/infrastructure/eventbus"
	"github.com/intervsched/scheduler/pkg/config"
	"github.com/intervsched/scheduler/pkg/observability"
)

// Container holds every dependency the CLI needs to run one solve(request)
// call end to end: the core Engine, its optional upstream collaborators
// (load repository, calendar provider, result cache, event publisher), and
// the command handler that orchestrates them (SPEC_FULL §4.10).
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DBConn database.Connection

	RedisClient *redis.Client

	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	LoadRepo             domain.LoadRepository
	Calendar             domain.BusyIntervalProvider
	Cache                domain.ResultCache
	Publisher            eventbus.Publisher
	Engine               *services.Engine
	SolveScheduleHandler *commands.SolveScheduleHandler
}

// NewContainer builds a Container wired for production use: Postgres (or
// SQLite, driver-detected) for the load repository, Redis for the solve
// cache, RabbitMQ for best-effort event publishing, and a CalDAV calendar
// provider when configured. A nil metrics defaults to a no-op sink.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics observability.Metrics) (*Container, error) {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	dbConn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	loadRepo := NewRepositoryFactory(dbConn).LoadRepository()

	var redisClient *redis.Client
	var resultCache domain.ResultCache
	if !cfg.CacheDisabled {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			dbConn.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		resultCache = cache.NewRedisCache(redisClient, cfg.CacheTTL)
	}

	var pub eventbus.Publisher
	rmqPublisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("rabbitmq publisher unavailable, falling back to noop", "error", err)
		pub = eventbus.NewNoopPublisher(logger)
	} else {
		pub = rmqPublisher
	}

	var calendarProvider domain.BusyIntervalProvider
	if cfg.CalendarEnabled {
		calendarProvider = newCalendarProvider(cfg, logger)
	}

	engine := services.NewEngine()
	handler := commands.NewSolveScheduleHandler(engine, loadRepo, calendarProvider, resultCache, pub, logger, metrics)

	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(dbConn.Ping))
	if redisClient != nil {
		health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	return &Container{
		Config:               cfg,
		Logger:               logger,
		DBConn:               dbConn,
		RedisClient:          redisClient,
		Metrics:              metrics,
		Health:               health,
		LoadRepo:             loadRepo,
		Calendar:             calendarProvider,
		Cache:                resultCache,
		Publisher:            pub,
		Engine:               engine,
		SolveScheduleHandler: handler,
	}, nil
}

// NewLocalContainer builds a zero-config Container for local/offline use:
// SQLite for the load repository, no cache, no event publisher, no calendar
// provider. Intended for single-user CLI invocations without any running
// external services (cfg.LocalMode).
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics observability.Metrics) (*Container, error) {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	dbConn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("open local sqlite database: %w", err)
	}

	loadRepo := NewRepositoryFactory(dbConn).LoadRepository()
	publisher := eventbus.NewNoopPublisher(logger)
	engine := services.NewEngine()
	handler := commands.NewSolveScheduleHandler(engine, loadRepo, nil, nil, publisher, logger, metrics)

	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(dbConn.Ping))

	return &Container{
		Config:               cfg,
		Logger:               logger,
		DBConn:               dbConn,
		Metrics:              metrics,
		Health:               health,
		LoadRepo:             loadRepo,
		Publisher:            publisher,
		Engine:               engine,
		SolveScheduleHandler: handler,
	}, nil
}

// Close releases every closable resource the container opened.
func (c *Container) Close() error {
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.DBConn != nil {
		return c.DBConn.Close()
	}
	return nil
}

// newCalendarProvider wires a CalDAV busy-interval provider authenticated
// via OAuth2 client-credentials, gated by cfg.CalendarEnabled (SPEC_FULL
// §4.8). The base URL resolver assumes one CalDAV principal per interviewer,
// addressed by appending the interviewer id as a path segment.
func newCalendarProvider(cfg *config.Config, logger *slog.Logger) domain.BusyIntervalProvider {
	var tokenSource oauth2.TokenSource
	if cfg.OAuthClientID != "" {
		ccCfg := clientcredentials.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			TokenURL:     cfg.OAuthTokenURL,
		}
		tokenSource = ccCfg.TokenSource(context.Background())
	}

	baseURL := func(interviewerID string) string {
		base := cfg.CalendarBaseURL
		if base == "" {
			return ""
		}
		return base + "/" + url.PathEscape(interviewerID) + "/"
	}

	return calendar.NewCalDAVBusyProvider(baseURL, tokenSource, calendar.BreakerConfig{
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
	}, logger)
}
