package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/intervsched/scheduler/adapter/cli"
	"github.com/intervsched/scheduler/adapter/cli/schedule"
	"github.com/intervsched/scheduler/internal/app"
	"github.com/intervsched/scheduler/pkg/config"
	"github.com/intervsched/scheduler/pkg/observability"
)

func main() {
	logCfg := observability.DefaultLogConfig()
	logger := observability.NewLogger(logCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	if lvl := observability.LogLevel(cfg.LogLevel); lvl != "" {
		logCfg.Level = lvl
	}
	logger = observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	var metrics observability.Metrics = observability.NoopMetrics{}

	var cliApp *cli.App
	var container *app.Container

	if cfg.IsLocalMode() {
		logger.Info("starting in local mode with SQLite", "database", cfg.SQLitePath)
		container, err = app.NewLocalContainer(ctx, cfg, logger, metrics)
	} else {
		container, err = app.NewContainer(ctx, cfg, logger, metrics)
	}

	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running without a solver backend", "error", err)
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()
		cliApp = cli.NewApp(container.SolveScheduleHandler)

		if container.Health != nil {
			for name, result := range container.Health.Check(ctx) {
				logger.Debug("health check", "check", name, "status", result.Status)
			}
		}
	}

	cli.SetApp(cliApp)
	cli.AddCommand(schedule.Cmd)
	cli.Execute()
}
