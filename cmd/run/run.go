package run

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/baochipham942-eng/code-agent-sub005/config"
	"github.com/baochipham942-eng/code-agent-sub005/internal/ui"
	"github.com/baochipham942-eng/code-agent-sub005/sandbox"
	"github.com/baochipham942-eng/code-agent-sub005/usefulerror"
)

// NewRunCommand builds the `sbx run` command: execute one shell command under
// the configured isolation and mirror its exit code.
func NewRunCommand(runtimeConfig *config.RuntimeConfig, manager *sandbox.Manager) *cobra.Command {
	var (
		allowNetwork bool
		noSandbox    bool
		timeout      time.Duration
		workDir      string
		projectDir   string
		envVars      []string
		roPaths       []string
		rwPaths       []string
		profileFile   string
		overridesFile string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command>",
		Short: "Run a shell command inside the sandbox",
		Long: "Run a shell command inside the platform sandbox. The command is " +
			"interpreted by /bin/sh, so pipes and redirections work as usual. " +
			"The child's exit code becomes sbx's exit code.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := runtimeConfig.Config.Sandbox.Overrides()
			if err != nil {
				return err
			}

			if overridesFile != "" {
				overrides, err = sandbox.LoadOverridesFile(overridesFile)
				if err != nil {
					return err
				}
			}

			if cmd.Flags().Changed("allow-network") {
				overrides.AllowNetwork = &allowNetwork
			}
			if timeout > 0 {
				overrides.Timeout = timeout
			}
			if len(roPaths) > 0 {
				overrides.ReadOnlyPaths = roPaths
				overrides.ReadPaths = roPaths
			}
			if len(rwPaths) > 0 {
				overrides.ReadWritePaths = rwPaths
				overrides.WritePaths = rwPaths
			}
			if workDir != "" {
				overrides.WorkingDir = workDir
			}

			if len(envVars) > 0 {
				if overrides.CustomEnv == nil {
					overrides.CustomEnv = map[string]string{}
				}
				for _, kv := range envVars {
					name, value, ok := strings.Cut(kv, "=")
					if !ok || name == "" {
						return usefulerror.Useful().
							WithCode(usefulerror.ErrCodeInvalidArgument).
							WithHumanError(fmt.Sprintf("Invalid environment variable %q", kv)).
							WithHelp("Use --env NAME=VALUE").
							Msg(fmt.Sprintf("invalid env var: %s", kv))
					}
					overrides.CustomEnv[name] = value
				}
			}

			if profileFile != "" {
				content, err := os.ReadFile(profileFile)
				if err != nil {
					return fmt.Errorf("failed to read sandbox profile: %w", err)
				}
				overrides.CustomProfile = string(content)
			}

			if projectDir != "" {
				overrides = sandbox.ForProject(projectDir, overrides)
			}

			if noSandbox {
				manager.Disable()
			}

			command := strings.Join(args, " ")
			result := manager.Execute(cmd.Context(), command, overrides)

			fmt.Fprint(os.Stdout, result.Stdout)
			fmt.Fprint(os.Stderr, result.Stderr)

			if result.TimedOut {
				fmt.Fprintln(os.Stderr, ui.Colors.Yellow("sbx: command timed out and was killed"))
			}
			if !result.Sandboxed && !noSandbox && manager.IsEnabled() {
				fmt.Fprintln(os.Stderr, ui.Colors.Yellow("sbx: command ran without sandbox protection"))
			}

			exitCode := result.ExitCode
			if exitCode < 0 {
				// The child never ran or never reported; 125 mirrors the
				// convention used by container runtimes.
				exitCode = 125
			}
			os.Exit(exitCode)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNetwork, "allow-network", false, "Allow network access inside the sandbox")
	cmd.Flags().BoolVar(&noSandbox, "no-sandbox", false, "Run the command directly without isolation")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Maximum command runtime (e.g. 30s, 5m)")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Working directory for the command")
	cmd.Flags().StringVar(&projectDir, "project", "", "Grant read-write access to this directory and run in it")
	cmd.Flags().StringArrayVar(&envVars, "env", nil, "Extra environment variable as NAME=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&roPaths, "ro-path", nil, "Read-only path grants, replacing the defaults")
	cmd.Flags().StringSliceVar(&rwPaths, "rw-path", nil, "Writable path grants, replacing the defaults")
	cmd.Flags().StringVar(&profileFile, "profile-file", "", "Custom Seatbelt profile file (macOS only)")
	cmd.Flags().StringVar(&overridesFile, "overrides-file", "",
		"YAML overrides file replacing the config-derived settings (flags still apply on top)")

	return cmd
}
