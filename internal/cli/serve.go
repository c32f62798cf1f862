package cli

import (
	"fmt"
	"os"

	"github.com/HendryAvila/taskroute/internal/config"
	taskserver "github.com/HendryAvila/taskroute/internal/server"
	"github.com/HendryAvila/taskroute/internal/updater"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server on the stdio transport.

Point an MCP client (Claude Code, Cursor, ...) at "taskroute serve" and it
gets the task, dependency, and route tools over the configured backends.
Logs go to stderr; stdout carries the MCP protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The MCP server wires its own engine, so the shared CLI
			// engine must stay unbuilt here or the stores open twice.
			root, err := resolveRoot()
			if err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			s, cleanup, err := taskserver.New(root, cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// Background version check, stderr only, so it never
			// touches the stdio transport on stdout.
			go checkForUpdates()

			logger.Info("serving MCP on stdio", map[string]any{
				"root":    root,
				"version": taskserver.Version,
			})

			return server.ServeStdio(s)
		},
	}
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. Network failures are silently
// ignored.
func checkForUpdates() {
	result := updater.CheckVersion(taskserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Run: taskroute update\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}
