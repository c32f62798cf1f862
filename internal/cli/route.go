package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/taskroute/internal/route"
)

func routeCmd() *cobra.Command {
	var flagStrategy string

	cmd := &cobra.Command{
		Use:   "route <target>",
		Short: "Plan the path to a target task",
		Long: `Compute an ordered implementation plan for a target task by walking
its transitive prerequisites. Phases run deepest first; inside a phase
the strategy decides the order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			strategy, err := route.ParseStrategy(flagStrategy)
			if err != nil {
				return err
			}

			r, err := e.core.Planner.Plan(cmd.Context(), args[0], strategy)
			if err != nil {
				return err
			}
			printRoute(r)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagStrategy, "strategy", "", "ready-first, shortest-path, or value-first (default: ready-first)")

	return cmd
}

// printRoute renders a plan phase by phase on stdout.
func printRoute(r *route.Route) {
	fmt.Printf("\n%s %s  %s\n", bold("Route to"), bold(r.Target), dim(string(r.Strategy)))
	fmt.Printf("%d task(s): %s ready, %s blocked, %s done\n",
		r.Summary.TotalTasks,
		cyan(fmt.Sprintf("%d", r.Summary.ReadyTasks)),
		red(fmt.Sprintf("%d", r.Summary.BlockedTasks)),
		green(fmt.Sprintf("%d", r.Summary.DoneTasks)),
	)

	for i, phase := range r.Phases {
		label := fmt.Sprintf("depth %d", phase.Depth)
		if phase.Depth == 0 {
			label = "target"
		}
		fmt.Printf("\n%s %d %s\n", bold("Phase"), i+1, dim("("+label+")"))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, step := range phase.Steps {
			deps := "-"
			if len(step.Dependencies) > 0 {
				deps = strings.Join(step.Dependencies, ", ")
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
				step.TaskID, statusLabel(step.Status), stateLabel(step.State), deps, step.Title)
		}
		w.Flush()
	}

	if len(r.Steps) > 1 {
		order := make([]string, len(r.Steps))
		for i, step := range r.Steps {
			order[i] = step.TaskID
		}
		fmt.Printf("\n%s %s\n", bold("Suggested order:"), strings.Join(order, " -> "))
	}

	for _, warn := range r.Warnings {
		fmt.Fprintf(os.Stderr, "%s %s\n", yellow("⚠"), warn)
	}
}
