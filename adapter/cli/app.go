package cli

import (
	scheduleCommands "github.com/intervsched/scheduler/internal/scheduling/application/commands"
)

// App holds the CLI application's wired dependencies.
type App struct {
	SolveScheduleHandler *scheduleCommands.SolveScheduleHandler
}

var app *App

// NewApp builds an App around the given solve handler.
func NewApp(handler *scheduleCommands.SolveScheduleHandler) *App {
	return &App{SolveScheduleHandler: handler}
}

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
