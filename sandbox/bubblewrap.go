package sandbox

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/safedep/dry/log"
)

const (
	bubblewrapBinary = "bwrap"

	// availabilityProbeTimeout caps the version query subprocess so a wedged
	// tool cannot stall the first Execute call.
	availabilityProbeTimeout = 3 * time.Second
)

// availabilityInfo is the cached outcome of a backend's tool probe.
type availabilityInfo struct {
	available bool
	version   string
	path      string
	err       string
}

// bubblewrapDriver isolates processes on Linux with bubblewrap: namespace
// unsharing plus bind mounts, everything expressed as CLI arguments applied
// in order by bwrap.
type bubblewrapDriver struct {
	mu    sync.Mutex
	avail *availabilityInfo
}

func newBubblewrapDriver() *bubblewrapDriver {
	return &bubblewrapDriver{}
}

// availability locates the bwrap binary and captures its version. The
// outcome is cached for the driver's lifetime; reset() forces a re-probe.
func (d *bubblewrapDriver) availability() availabilityInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.avail == nil {
		info := probeBubblewrap()
		d.avail = &info
	}
	return *d.avail
}

func (d *bubblewrapDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.avail = nil
}

func probeBubblewrap() availabilityInfo {
	path, err := exec.LookPath(bubblewrapBinary)
	if err != nil {
		return availabilityInfo{err: "bwrap not found in PATH (install with: apt install bubblewrap)"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), availabilityProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return availabilityInfo{err: "bwrap --version failed: " + err.Error(), path: path}
	}

	// Output looks like "bubblewrap 0.8.0".
	version := strings.TrimSpace(string(out))
	if fields := strings.Fields(version); len(fields) > 0 {
		version = fields[len(fields)-1]
	}

	return availabilityInfo{available: true, version: version, path: path}
}

// bubblewrapArgs translates a resolved config into the ordered bwrap
// argument list, ending with the separator and the shell-wrapped command.
// bwrap applies rules in argument order, so the sequence here is part of the
// security contract: namespace isolation first, then mounts, then the
// cleared-and-rebuilt environment, then chdir.
func bubblewrapArgs(command string, cfg *Config) []string {
	args := []string{}

	// Namespace isolation. --unshare-all covers network; re-share it
	// explicitly when the policy allows network access.
	if cfg.UnshareAll {
		args = append(args, "--unshare-all")
		if cfg.AllowNetwork {
			args = append(args, "--share-net")
		}
	} else if !cfg.AllowNetwork {
		args = append(args, "--unshare-net")
	}

	if cfg.DieWithParent {
		args = append(args, "--die-with-parent")
	}

	// Fresh session, proc and dev regardless of policy.
	args = append(args,
		"--new-session",
		"--proc", "/proc",
		"--dev", "/dev",
	)

	// Bind mounts at identical paths inside the sandbox. Nonexistent sources
	// are skipped, not errors: default path lists must stay portable across
	// hosts where optional directories (e.g. /opt/homebrew) are absent.
	for _, path := range cfg.ReadOnlyPaths {
		if pathExists(path) {
			args = append(args, "--ro-bind", path, path)
		} else {
			log.Debugf("sandbox: skipping nonexistent read-only path %s", path)
		}
	}

	for _, path := range cfg.ReadWritePaths {
		if pathExists(path) {
			args = append(args, "--bind", path, path)
		} else {
			log.Debugf("sandbox: skipping nonexistent read-write path %s", path)
		}
	}

	for _, path := range cfg.TmpfsPaths {
		args = append(args, "--tmpfs", path)
	}

	// The child starts from an empty environment; only passthrough and
	// custom variables are set back explicitly.
	args = append(args, "--clearenv")
	for _, entry := range passthroughEnv(cfg) {
		name, value, _ := strings.Cut(entry, "=")
		args = append(args, "--setenv", name, value)
	}

	if cfg.WorkingDir != "" {
		args = append(args, "--chdir", cfg.WorkingDir)
	}

	args = append(args, "--", shellPath, "-c", command)
	return args
}

// execute spawns bwrap with the translated arguments and supervises it. A
// spawn failure still reports Sandboxed:true — the isolation attempt was
// made; the failure is surfaced in-band via ExitCode -1.
func (d *bubblewrapDriver) execute(ctx context.Context, command string, cfg *Config) *Result {
	avail := d.availability()
	path := avail.path
	if path == "" {
		path = bubblewrapBinary
	}

	args := bubblewrapArgs(command, cfg)
	log.Debugf("sandbox: bwrap %s", strings.Join(args, " "))

	return run(ctx, runSpec{
		argv: append([]string{path}, args...),
		// Working directory is changed by --chdir inside the mount
		// namespace, not by the supervisor.
		env:       nil,
		timeout:   cfg.Timeout,
		sandboxed: true,
	})
}

// pathExists reports whether a path exists on the host. Permission errors
// count as absent: a path the engine cannot stat cannot be bind-mounted.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
