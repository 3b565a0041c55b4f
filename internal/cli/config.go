package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sbrg/gds/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Config.WriteYAML(os.Stdout)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			fmt.Println(path)
			return nil
		},
	})

	return cmd
}
