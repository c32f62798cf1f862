package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Show configured backends and their prefixes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			registered := make(map[string]bool)
			for _, p := range e.core.Router.Prefixes() {
				registered[p] = true
			}

			type row struct {
				prefix   string
				kind     string
				location string
				enabled  bool
			}
			cfg := e.cfg
			rows := []row{
				{"md", "markdown files", cfg.Backends.Markdown.Dir, cfg.Backends.Markdown.Enabled},
				{"json", "json document", cfg.Backends.JSONFile.Path, cfg.Backends.JSONFile.Enabled},
				{"gh", "github issues", cfg.Backends.GitHub.Repo, cfg.Backends.GitHub.Enabled},
				{"db", "sqlite", cfg.Backends.Database.Path, cfg.Backends.Database.Enabled},
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PREFIX\tKIND\tLOCATION\tSTATE\tDEFAULT")
			for _, r := range rows {
				state := dim("disabled")
				switch {
				case registered[r.prefix]:
					state = green("active")
				case r.enabled:
					// Enabled in config but missing from the router:
					// registration failed at startup.
					state = red("unavailable")
				}
				def := "-"
				if r.prefix == cfg.DefaultBackend {
					def = "*"
				}
				loc := r.location
				if loc == "" {
					loc = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.prefix, r.kind, loc, state, def)
			}
			w.Flush()
			return nil
		},
	}
}
