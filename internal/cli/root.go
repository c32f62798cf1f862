// Package cli implements the taskroute command line interface.
//
// Subcommands share one lazily-built engine (config, logger, adapters,
// router, graph store, planner) so a process never opens the same store
// twice. All human output goes to stdout; logs go to stderr.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/taskroute/internal/server"
)

var (
	flagRoot      string
	flagLogLevel  string
	flagLogFormat string
)

// Execute runs the taskroute CLI.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "taskroute",
		Short: "Multi-backend task tracker with dependency routing",
		Long: `taskroute keeps tasks in several storage backends behind one id
namespace (md#12, json#3, gh#45, db#7), records depends-on edges between
them, and computes the order to work them in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "Project root containing .taskroute/ (default: walk up from cwd)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Override log format: human, json")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(depCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(backendsCmd())
	rootCmd.AddCommand(draftCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(versionCmd())

	defer closeEngine()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the taskroute version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taskroute v%s\n", server.Version)
		},
	}
}
