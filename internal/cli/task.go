package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/taskroute/internal/backend"
	"github.com/HendryAvila/taskroute/internal/task"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, inspect, and update tasks",
	}

	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskGetCmd())
	cmd.AddCommand(taskCreateCmd())
	cmd.AddCommand(taskStatusCmd())
	cmd.AddCommand(taskDeleteCmd())

	return cmd
}

func taskListCmd() *cobra.Command {
	var flagStatus string
	var flagBackend string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks across all backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			var filter task.Filter
			if flagStatus != "" {
				st, err := task.ParseStatus(flagStatus)
				if err != nil {
					return err
				}
				filter.Status = st
			}

			if flagBackend != "" {
				be, err := e.core.Router.Lookup(flagBackend)
				if err != nil {
					return err
				}
				tasks, err := be.ListTasks(cmd.Context(), filter)
				if err != nil {
					return err
				}
				sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
				printTaskTable(tasks)
				return nil
			}

			res, err := e.core.Router.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printTaskTable(res.Tasks)
			printWarnings(res.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagStatus, "status", "", "Only show tasks with this status")
	cmd.Flags().StringVar(&flagBackend, "backend", "", "Only query this backend prefix")

	return cmd
}

func taskGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			t, err := e.core.Router.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(t)
			return nil
		},
	}
}

func taskCreateCmd() *cobra.Command {
	var flagBackend string
	var flagStatus string
	var flagPriority int

	cmd := &cobra.Command{
		Use:   "create <title> [spec...]",
		Short: "Create a task",
		Long: `Create a task with the given title. Any further arguments become the
spec body. The backend assigns the qualified id.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			d := task.Draft{
				Title:    args[0],
				Spec:     strings.Join(args[1:], " "),
				Priority: flagPriority,
			}
			if flagStatus != "" {
				st, err := task.ParseStatus(flagStatus)
				if err != nil {
					return err
				}
				d.Status = st
			}

			created, err := e.core.Router.Create(cmd.Context(), flagBackend, d)
			if err != nil {
				return err
			}

			fmt.Printf("%s Created %s\n", green("✓"), bold(created.ID))
			printTask(created)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagBackend, "backend", "", "Backend prefix to create in (default: configured default)")
	cmd.Flags().StringVar(&flagStatus, "status", "", "Initial status (default: TODO)")
	cmd.Flags().IntVar(&flagPriority, "priority", 0, "Priority, higher is more urgent")

	return cmd
}

func taskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			st, err := task.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if err := e.core.Router.SetStatus(cmd.Context(), args[0], st); err != nil {
				return err
			}

			fmt.Printf("%s is now %s\n", bold(args[0]), statusLabel(st))
			return nil
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			removed, err := e.core.Router.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Printf("%s was not found; nothing deleted\n", bold(args[0]))
				return nil
			}
			fmt.Printf("%s Deleted %s\n", green("✓"), bold(args[0]))
			return nil
		},
	}
}

// printTaskTable renders tasks as an aligned table on stdout.
func printTaskTable(tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Println(dim("No tasks found."))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRI\tTITLE")
	for _, t := range tasks {
		pri := "-"
		if t.Priority != 0 {
			pri = fmt.Sprintf("%d", t.Priority)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, statusLabel(t.Status), pri, t.Title)
	}
	w.Flush()
	fmt.Printf("\n%s\n", dim(fmt.Sprintf("%d task(s)", len(tasks))))
}

// printTask renders one task in long form on stdout.
func printTask(t task.Task) {
	fmt.Printf("\n%s  %s\n", bold(t.Title), dim(t.ID))
	fmt.Printf("Status:   %s\n", statusLabel(t.Status))
	if t.Priority != 0 {
		fmt.Printf("Priority: %d\n", t.Priority)
	}
	if t.CreatedAt != "" {
		fmt.Printf("Created:  %s\n", dim(t.CreatedAt))
	}
	if t.UpdatedAt != "" {
		fmt.Printf("Updated:  %s\n", dim(t.UpdatedAt))
	}
	if t.Spec != "" {
		fmt.Printf("\n%s\n", t.Spec)
	}
}

// printWarnings reports skipped backends on stderr so piped stdout
// stays clean.
func printWarnings(warnings []backend.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "%s backend %s skipped: %s\n", yellow("⚠"), bold(w.Prefix), w.Message)
	}
}
