package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/taskroute/internal/config"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold .taskroute/ with the default configuration",
		Long: `Create .taskroute/config.json in the current directory (or --root).

The defaults enable the three local backends (md, json, db) with their
state under .taskroute/. Edit the config to enable the gh backend or to
change the default backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := flagRoot
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("getting working directory: %w", err)
				}
				root = wd
			}

			path := config.ConfigPath(root)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if err := cfg.Save(root); err != nil {
				return err
			}

			fmt.Printf("%s Initialized %s\n", green("✓"), config.DirPath(root))
			fmt.Printf("  Backends enabled: %s (default: %s)\n",
				strings.Join(cfg.EnabledPrefixes(), ", "), cfg.DefaultBackend)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  taskroute task create \"My first task\"")
			fmt.Println("  taskroute serve    # MCP server over stdio")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return cmd
}
