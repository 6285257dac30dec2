package main

import (
	"fmt"
	"os"

	"github.com/safedep/dry/log"
	"github.com/spf13/cobra"

	"github.com/baochipham942-eng/code-agent-sub005/cmd/run"
	"github.com/baochipham942-eng/code-agent-sub005/cmd/setup"
	"github.com/baochipham942-eng/code-agent-sub005/cmd/status"
	"github.com/baochipham942-eng/code-agent-sub005/cmd/version"
	"github.com/baochipham942-eng/code-agent-sub005/config"
	"github.com/baochipham942-eng/code-agent-sub005/internal/ui"
	"github.com/baochipham942-eng/code-agent-sub005/sandbox"
)

var debug bool

func main() {
	runtimeConfig, err := config.Load()
	if err != nil {
		ui.ErrorExit(err)
	}

	manager := sandbox.NewManager()

	cmd := &cobra.Command{
		Use:              "sbx",
		Short:            "Run commands under OS-level sandbox isolation",
		TraverseChildren: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				os.Setenv("APP_LOG_LEVEL", "debug")
			}

			log.InitZapLogger("sbx", "")

			if !runtimeConfig.Config.Sandbox.Enabled {
				manager.Disable()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}

			return fmt.Errorf("sbx: %s is not a valid command", args[0])
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	config.ApplyCobraFlags(cmd, runtimeConfig)

	cmd.AddCommand(run.NewRunCommand(runtimeConfig, manager))
	cmd.AddCommand(status.NewStatusCommand(runtimeConfig, manager))
	cmd.AddCommand(setup.NewSetupCommand())
	cmd.AddCommand(version.NewVersionCommand())

	if err := cmd.Execute(); err != nil {
		ui.ErrorExit(err)
	}
}
