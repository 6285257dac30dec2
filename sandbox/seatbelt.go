package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/safedep/dry/log"
)

const seatbeltBinary = "sandbox-exec"

// seatbeltDriver isolates processes on macOS with Seatbelt: a generated
// SBPL profile written to a scratch file and consumed by sandbox-exec.
type seatbeltDriver struct {
	store *profileStore

	mu    sync.Mutex
	avail *availabilityInfo
}

func newSeatbeltDriver() *seatbeltDriver {
	return &seatbeltDriver{
		store: newProfileStore(),
	}
}

// availability verifies sandbox-exec exists and captures the host OS version
// for diagnostics. Unconditionally unavailable on non-macOS hosts.
func (d *seatbeltDriver) availability() availabilityInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.avail == nil {
		info := probeSeatbelt()
		d.avail = &info
	}
	return *d.avail
}

func (d *seatbeltDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.avail = nil
}

func probeSeatbelt() availabilityInfo {
	if runtime.GOOS != "darwin" {
		return availabilityInfo{err: "seatbelt is only available on macOS"}
	}

	path, err := exec.LookPath(seatbeltBinary)
	if err != nil {
		return availabilityInfo{err: "sandbox-exec not found in PATH"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), availabilityProbeTimeout)
	defer cancel()

	version := ""
	if out, err := exec.CommandContext(ctx, "sw_vers", "-productVersion").Output(); err == nil {
		version = strings.TrimSpace(string(out))
	}

	return availabilityInfo{available: true, version: version, path: path}
}

// seatbeltProfile generates the SBPL policy document for a resolved config.
// The shape is strict default-deny: the first rule forbids everything, and
// each allow below grants one narrow capability. Seatbelt evaluates rules
// top to bottom, so ordering matters.
func seatbeltProfile(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("(version 1)\n")
	sb.WriteString(";; Generated sandbox profile\n")
	sb.WriteString("(deny default)\n\n")

	// Baseline capabilities virtually every process needs: system info
	// queries, service lookups, file metadata for getcwd() and stat(), and
	// signals the process sends to itself.
	sb.WriteString(";; Baseline process permissions\n")
	sb.WriteString("(allow sysctl-read)\n")
	sb.WriteString("(allow mach-lookup)\n")
	sb.WriteString("(allow file-read-metadata)\n")
	sb.WriteString("(allow signal (target self))\n\n")

	if cfg.AllowProcessExec {
		sb.WriteString("(allow process-exec)\n")
	}
	if cfg.AllowProcessFork {
		sb.WriteString("(allow process-fork)\n")
	}
	sb.WriteString("\n")

	// Network: one explicit rule either way. The explicit deny is redundant
	// with (deny default) but removes any ambiguity about intent.
	sb.WriteString(";; Network access\n")
	if cfg.AllowNetwork {
		sb.WriteString("(allow network*)\n\n")
	} else {
		sb.WriteString("(deny network*)\n\n")
	}

	sb.WriteString(";; Filesystem access\n")
	for _, path := range cfg.ReadPaths {
		fmt.Fprintf(&sb, "(allow file-read* (subpath \"%s\"))\n", escapeProfilePath(path))
	}
	for _, path := range cfg.WritePaths {
		// Write implies read.
		escaped := escapeProfilePath(path)
		fmt.Fprintf(&sb, "(allow file-write* (subpath \"%s\"))\n", escaped)
		fmt.Fprintf(&sb, "(allow file-read* (subpath \"%s\"))\n", escaped)
	}
	for _, path := range cfg.ExecutePaths {
		// Execution requires the loader to read the binary.
		fmt.Fprintf(&sb, "(allow file-read* (subpath \"%s\"))\n", escapeProfilePath(path))
	}
	sb.WriteString("\n")

	// Scratch space: almost every real-world command needs temp files.
	sb.WriteString(";; Temporary files\n")
	for _, dir := range scratchDirs() {
		escaped := escapeProfilePath(dir)
		fmt.Fprintf(&sb, "(allow file-read* (subpath \"%s\"))\n", escaped)
		fmt.Fprintf(&sb, "(allow file-write* (subpath \"%s\"))\n", escaped)
	}

	return sb.String()
}

// scratchDirs returns the temporary directories the profile must allow.
// On macOS TMPDIR lives under /var/folders, where /var is a symlink to
// /private/var; both spellings are granted so either resolution works.
func scratchDirs() []string {
	dirs := []string{strings.TrimSuffix(os.TempDir(), "/")}

	if strings.HasPrefix(dirs[0], "/var/") {
		dirs = append(dirs, "/private"+dirs[0])
	} else if strings.HasPrefix(dirs[0], "/private/var/") {
		dirs = append(dirs, strings.TrimPrefix(dirs[0], "/private"))
	}

	return dirs
}

// escapeProfilePath escapes backslashes and double quotes before a path is
// interpolated into the profile text. Without this, a maliciously named path
// could terminate a rule early and inject policy of its own.
func escapeProfilePath(path string) string {
	path = strings.ReplaceAll(path, `\`, `\\`)
	path = strings.ReplaceAll(path, `"`, `\"`)
	return path
}

// execute materializes the profile, spawns sandbox-exec against it and
// supervises the process. The profile file is deleted after the child exits
// on every outcome; deletion failures are swallowed and left to the store's
// prune to reclaim.
func (d *seatbeltDriver) execute(ctx context.Context, command string, cfg *Config) *Result {
	profile := cfg.CustomProfile
	if profile == "" {
		profile = seatbeltProfile(cfg)
	}

	profilePath, err := d.store.write(profile)
	if err != nil {
		// Best effort only: a profile that cannot be written must not fail
		// the primary operation.
		log.Warnf("sandbox: failed to write seatbelt profile, running without sandbox: %v", err)
		return executeDirect(ctx, command, cfg)
	}
	defer d.store.remove(profilePath)

	avail := d.availability()
	path := avail.path
	if path == "" {
		path = seatbeltBinary
	}

	log.Debugf("sandbox: seatbelt profile at %s", profilePath)

	return run(ctx, runSpec{
		argv:      []string{path, "-f", profilePath, shellPath, "-c", command},
		dir:       cfg.WorkingDir,
		env:       passthroughEnv(cfg),
		timeout:   cfg.Timeout,
		sandboxed: true,
	})
}
