package status

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/baochipham942-eng/code-agent-sub005/config"
	"github.com/baochipham942-eng/code-agent-sub005/internal/ui"
	"github.com/baochipham942-eng/code-agent-sub005/sandbox"
)

// NewStatusCommand builds the `sbx status` command: report which sandbox
// backend is active on this host and whether it is usable.
func NewStatusCommand(runtimeConfig *config.RuntimeConfig, manager *sandbox.Manager) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sandbox availability on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			if refresh {
				manager.ResetStatus()
			}

			st := manager.Status()

			available := ui.Colors.Red("no")
			if st.Available {
				available = ui.Colors.Green("yes")
			}

			enabled := ui.Colors.Red("no")
			if manager.IsEnabled() {
				enabled = ui.Colors.Green("yes")
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)

			t.AppendRow(table.Row{"Platform", st.Platform.String()})
			t.AppendRow(table.Row{"Enabled", enabled})
			t.AppendRow(table.Row{"Available", available})
			if st.Technology != "" {
				t.AppendRow(table.Row{"Technology", st.Technology})
			}
			if st.Version != "" {
				t.AppendRow(table.Row{"Version", st.Version})
			}
			if st.Error != "" {
				t.AppendRow(table.Row{"Detail", ui.Colors.Dim(st.Error)})
			}
			t.AppendRow(table.Row{"Config", runtimeConfig.ConfigFilePath()})

			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-probe the host instead of using the cached status")

	return cmd
}
