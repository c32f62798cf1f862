package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/taskroute/internal/backend"
)

func depCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage depends-on edges between tasks",
	}

	cmd.AddCommand(depAddCmd())
	cmd.AddCommand(depRemoveCmd())
	cmd.AddCommand(depListCmd())
	cmd.AddCommand(depCyclesCmd())

	return cmd
}

func depAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <from> <to>",
		Short: "Record that <from> depends on <to>",
		Long: `Record a depends-on edge. Both ids must be well formed qualified ids,
but they do not have to name tasks that exist yet. Adding an existing
edge is a no-op.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			for _, id := range args {
				if _, _, err := backend.ParseID(id); err != nil {
					return err
				}
			}

			created, err := e.core.Graph.AddDependency(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !created {
				fmt.Printf("%s already depends on %s; nothing changed\n", bold(args[0]), bold(args[1]))
				return nil
			}
			fmt.Printf("%s %s now depends on %s\n", green("✓"), bold(args[0]), bold(args[1]))

			warnCycles(cmd, e)
			return nil
		},
	}
}

func depRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <from> <to>",
		Short: "Remove a depends-on edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			removed, err := e.core.Graph.RemoveDependency(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Printf("No edge %s -> %s was recorded; nothing changed\n", bold(args[0]), bold(args[1]))
				return nil
			}
			fmt.Printf("%s %s no longer depends on %s\n", green("✓"), bold(args[0]), bold(args[1]))
			return nil
		},
	}
}

func depListCmd() *cobra.Command {
	var flagDirection string

	cmd := &cobra.Command{
		Use:   "list <id>",
		Short: "Show a task's dependencies and dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			id := args[0]
			switch flagDirection {
			case "dependencies", "dependents", "both":
			default:
				return fmt.Errorf("invalid direction %q: must be one of: dependencies, dependents, both", flagDirection)
			}

			if flagDirection != "dependents" {
				deps, err := e.core.Graph.ListDependencies(cmd.Context(), id)
				if err != nil {
					return err
				}
				printEdgeList(bold(id)+" depends on", deps)
			}
			if flagDirection != "dependencies" {
				dependents, err := e.core.Graph.ListDependents(cmd.Context(), id)
				if err != nil {
					return err
				}
				printEdgeList("Depended on by "+bold(id), dependents)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagDirection, "direction", "both", "dependencies, dependents, or both")

	return cmd
}

func depCyclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "Report dependency cycles in the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			cycles, err := e.core.Graph.DetectCycles(cmd.Context())
			if err != nil {
				return err
			}
			if len(cycles) == 0 {
				fmt.Printf("%s No cycles\n", green("✓"))
				return nil
			}

			for _, c := range cycles {
				fmt.Printf("%s %s -> %s\n", red("●"), strings.Join(c, " -> "), c[0])
			}
			fmt.Printf("\n%s\n", dim(fmt.Sprintf("%d cycle(s); route planning treats revisited tasks as already scheduled", len(cycles))))
			return nil
		},
	}
}

// warnCycles prints any whole-graph cycles to stderr after a write.
func warnCycles(cmd *cobra.Command, e *engine) {
	cycles, err := e.core.Graph.DetectCycles(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s cycle check failed: %v\n", yellow("⚠"), err)
		return
	}
	for _, c := range cycles {
		fmt.Fprintf(os.Stderr, "%s dependency cycle: %s -> %s\n", yellow("⚠"), strings.Join(c, " -> "), c[0])
	}
}

// printEdgeList renders one direction of a task's edges.
func printEdgeList(label string, ids []string) {
	fmt.Printf("\n%s (%d)\n", label, len(ids))
	if len(ids) == 0 {
		fmt.Printf("  %s\n", dim("none"))
		return
	}
	for _, id := range ids {
		fmt.Printf("  - %s\n", id)
	}
}
