package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync/atomic"
	"time"

	"github.com/safedep/dry/log"
)

// shellPath is the interpreter every command runs through, on every backend
// and in direct mode. The user's interactive shell is deliberately not
// consulted.
const shellPath = "/bin/sh"

// runSpec is the spawn request shared by the backends and direct execution.
type runSpec struct {
	// argv is the full command line; argv[0] must be an executable path or
	// name resolvable via PATH.
	argv []string

	// dir is the working directory for the spawned process. Empty inherits.
	// The Linux driver leaves this empty and uses --chdir instead, so the
	// chdir happens inside the mount namespace.
	dir string

	// env is the complete environment for the spawned process. Nil inherits
	// the host environment.
	env []string

	// timeout after which the process receives SIGKILL.
	timeout time.Duration

	// sandboxed is copied into the result as-is: it reflects whether an
	// isolation attempt was made, not whether the command succeeded.
	sandboxed bool
}

// run spawns the process described by spec, accumulates its output fully and
// enforces the timeout with a hard kill. It always returns a Result: a spawn
// failure yields ExitCode -1 with the error text appended to stderr.
func run(ctx context.Context, spec runSpec) *Result {
	result := &Result{Sandboxed: spec.sandboxed}

	cmd := exec.CommandContext(ctx, spec.argv[0], spec.argv[1:]...)
	cmd.Dir = spec.dir
	cmd.Env = spec.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Context cancellation also resolves to a hard kill.
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}

	// Orphaned grandchildren can hold the output pipes open after the direct
	// child dies. Force the pipes closed shortly after exit so Wait cannot
	// block on them.
	cmd.WaitDelay = 5 * time.Second

	if err := cmd.Start(); err != nil {
		result.ExitCode = -1
		result.Stderr = fmt.Sprintf("failed to start process: %v", err)
		return result
	}

	var timedOut atomic.Bool
	var timer *time.Timer
	if spec.timeout > 0 {
		timer = time.AfterFunc(spec.timeout, func() {
			timedOut.Store(true)
			// Non-catchable kill; partial output is preserved.
			_ = cmd.Process.Kill()
		})
	}

	waitErr := cmd.Wait()
	if timer != nil {
		timer.Stop()
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.TimedOut = timedOut.Load()

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	} else {
		result.ExitCode = -1
	}

	if waitErr != nil && result.ExitCode == 0 {
		// Wait failed for a reason other than the child's exit status
		// (e.g. an output pipe error). Report it in-band.
		result.ExitCode = -1
		result.Stderr += fmt.Sprintf("\nprocess wait failed: %v", waitErr)
	}

	return result
}

// executeDirect runs the command with no isolation applied: a first-class,
// intentional fallback, not an error state. The child inherits the full host
// environment merged with CustomEnv and honors WorkingDir and Timeout the
// same way the sandboxed paths do.
func executeDirect(ctx context.Context, command string, cfg *Config) *Result {
	log.Debugf("sandbox: direct execution: %s", command)

	return run(ctx, runSpec{
		argv:      []string{shellPath, "-c", command},
		dir:       cfg.WorkingDir,
		env:       hostEnvWith(cfg.CustomEnv),
		timeout:   cfg.Timeout,
		sandboxed: false,
	})
}

// hostEnvWith returns the host environment with custom entries appended.
// Later entries win on duplicate names, so custom values override the host.
func hostEnvWith(custom map[string]string) []string {
	env := os.Environ()
	if len(custom) == 0 {
		return env
	}

	keys := make([]string, 0, len(custom))
	for k := range custom {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+custom[k])
	}
	return env
}

// passthroughEnv builds the explicit child environment for sandboxed
// execution: only the named host variables that are actually set, then the
// custom entries. Nothing else leaks in.
func passthroughEnv(cfg *Config) []string {
	env := make([]string, 0, len(cfg.EnvPassthrough)+len(cfg.CustomEnv))

	for _, name := range cfg.EnvPassthrough {
		if _, overridden := cfg.CustomEnv[name]; overridden {
			continue
		}
		if value, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+value)
		}
	}

	keys := make([]string, 0, len(cfg.CustomEnv))
	for k := range cfg.CustomEnv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+cfg.CustomEnv[k])
	}

	return env
}
