package setup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baochipham942-eng/code-agent-sub005/config"
	"github.com/baochipham942-eng/code-agent-sub005/internal/ui"
)

// NewSetupCommand builds the `sbx setup` command: write the template config
// file so users have a documented starting point to edit.
func NewSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplateConfig(); err != nil {
				return fmt.Errorf("failed to write template config: %w", err)
			}

			configFilePath, err := config.ConfigFilePath()
			if err != nil {
				return err
			}

			ui.PrintInfoSection("Configuration", map[string]string{
				"Config file": configFilePath,
			})

			return nil
		},
	}
}
