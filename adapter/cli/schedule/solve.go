package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/intervsched/scheduler/adapter/cli"
	"github.com/intervsched/scheduler/internal/scheduling/application/commands"
	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

var (
	solveRequestPath string
	solveUseRepo     bool
	solveUseCalendar bool
	solveJSON        bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve one interview loop request",
	Long: `Read a JSON request (file or stdin), compute ranked schedules, and
print the results as text or JSON.

Examples:
  intervsched schedule solve --request request.json
  cat request.json | intervsched schedule solve --use-repository --use-calendar
  intervsched schedule solve --request request.json --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SolveScheduleHandler == nil {
			return fmt.Errorf("application not initialized")
		}

		raw, err := readRequest(solveRequestPath)
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}

		var req domain.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("parse request: %w", err)
		}

		ctx := cmd.Context()
		resp, err := app.SolveScheduleHandler.Handle(ctx, commands.SolveScheduleCommand{
			Request:       req,
			UseRepository: solveUseRepo,
			UseCalendar:   solveUseCalendar,
		})
		if err != nil {
			return fmt.Errorf("solve: %w", err)
		}

		if solveJSON {
			return printJSON(resp)
		}
		return printText(resp)
	},
}

func init() {
	solveCmd.Flags().StringVarP(&solveRequestPath, "request", "r", "", "path to a JSON request file (default: stdin)")
	solveCmd.Flags().BoolVar(&solveUseRepo, "use-repository", false, "resolve current_load/last2w_load from the load repository")
	solveCmd.Flags().BoolVar(&solveUseCalendar, "use-calendar", false, "resolve additional busy intervals from the calendar provider")
	solveCmd.Flags().BoolVar(&solveJSON, "json", false, "print the response as JSON")
}

func readRequest(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(resp *domain.Response) error {
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printText(resp *domain.Response) error {
	fmt.Printf("status: %s\n", resp.Status)
	for i := 1; i <= len(resp.Schedules); i++ {
		key := fmt.Sprintf("schedule%d", i)
		sched, ok := resp.Schedules[key]
		if !ok {
			continue
		}
		fmt.Printf("\n%s (score=%d, span=%dm, idle=%dm, efficiency=%.3f, optimal=%t)\n",
			key, sched.Score, sched.Metrics.TotalSpanMinutes, sched.Metrics.IdleTimeMinutes,
			sched.Metrics.Efficiency, sched.Optimal)
		for _, ev := range sched.Events {
			fmt.Printf("  %-20s start=%-16s end=%-16s trained=%v shadow=%v reverse_shadow=%v\n",
				ev.StageName, ev.Start, ev.End, ev.Trained, ev.Shadow, ev.ReverseShadow)
		}
	}
	return nil
}
