// Package schedule exposes the scheduling engine's core via cobra.
package schedule

import (
	"github.com/spf13/cobra"
)

// Cmd is the schedule command group.
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Compute interview loop schedules",
	Long:  `Solve, inspect, and report on interview loop schedules.`,
}

func init() {
	Cmd.AddCommand(solveCmd)
}
