package config

import "github.com/spf13/cobra"

// ApplyCobraFlags binds the config-owned flags to the command. These flags
// are a local concern of the config package; the defaults come from the
// loaded configuration so the file and the flags stay consistent.
func ApplyCobraFlags(cmd *cobra.Command, rc *RuntimeConfig) {
	cmd.PersistentFlags().BoolVar(&rc.Config.Sandbox.Enabled, "sandbox", rc.Config.Sandbox.Enabled,
		"Run commands under sandbox isolation")
	cmd.PersistentFlags().StringVar(&rc.Config.Sandbox.DefaultPreset, "preset", rc.Config.Sandbox.DefaultPreset,
		"Sandbox preset to apply (minimal, development, network, full)")
}
