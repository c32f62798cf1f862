package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/taskroute/internal/assist"
)

func draftCmd() *cobra.Command {
	var flagCreate bool
	var flagBackend string

	cmd := &cobra.Command{
		Use:   "draft <idea...>",
		Short: "Expand a one-line idea into a reviewable task draft",
		Long: `Expand a one-line idea into a full task draft (title, spec body,
priority) using the configured model. Requires the API key environment
variable from the assist config. By default the draft is only printed;
pass --create to file it immediately.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := getEngine()
			if err != nil {
				return err
			}

			client, err := assist.NewClient(
				os.Getenv(e.cfg.Assist.APIKeyEnv),
				e.cfg.Assist.Model,
				e.cfg.Assist.MaxTokens,
			)
			if err != nil {
				return fmt.Errorf("drafting unavailable: %w (set %s)", err, e.cfg.Assist.APIKeyEnv)
			}

			idea := strings.Join(args, " ")
			d, err := client.DraftSpec(cmd.Context(), idea)
			if err != nil {
				return fmt.Errorf("drafting task: %w", err)
			}

			if !flagCreate {
				fmt.Printf("\n%s  %s\n", bold(d.Title), dim(fmt.Sprintf("priority %d", d.Priority)))
				if d.Spec != "" {
					fmt.Printf("\n%s\n", d.Spec)
				}
				fmt.Printf("\n%s\n", dim("Review, then rerun with --create to file it."))
				return nil
			}

			created, err := e.core.Router.Create(cmd.Context(), flagBackend, d)
			if err != nil {
				return err
			}
			fmt.Printf("%s Created %s from draft\n", green("✓"), bold(created.ID))
			printTask(created)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagCreate, "create", false, "File the draft as a task immediately")
	cmd.Flags().StringVar(&flagBackend, "backend", "", "Backend prefix to create in (with --create)")

	return cmd
}
