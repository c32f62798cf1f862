// taskroute: multi-backend task tracker with dependency routing.
//
// Tasks live in pluggable storage backends (markdown files, a JSON
// document, GitHub issues, SQLite) behind one qualified id namespace.
// A dependency graph links them and a route planner computes the order
// to work them in.
//
// Usage:
//
//	taskroute init          # Set up .taskroute/ in the current project
//	taskroute serve         # Start the MCP server (stdio transport)
//	taskroute task list     # Work with tasks from the terminal
package main

import (
	"os"

	"github.com/HendryAvila/taskroute/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
