// Package sandbox runs shell commands under OS-level isolation with a
// default-deny policy over filesystem and network access.
//
// Platform support:
//   - Linux: bubblewrap (bwrap) with namespace isolation and bind mounts
//   - macOS: Seatbelt (/usr/bin/sandbox-exec) with a generated profile file
//
// Availability of an isolation mechanism is a runtime property, not a hard
// precondition: when the tool is missing, the platform is unsupported, or
// sandboxing is administratively disabled, commands fall back to direct
// execution and the result reports Sandboxed:false. Execute always produces
// a Result — spawn failures, timeouts and non-zero exits are reported
// in-band so callers have a single result path to handle.
package sandbox

import (
	"context"
	"runtime"
	"sync"

	"github.com/safedep/dry/log"
)

// Platform identifies the sandbox backend selected for this host.
type Platform int

const (
	// PlatformUnsupported covers every host without a sandbox backend
	// (including Windows). Execution always falls through to direct mode.
	PlatformUnsupported Platform = iota

	// PlatformLinux isolates with bubblewrap.
	PlatformLinux

	// PlatformDarwin isolates with Seatbelt.
	PlatformDarwin
)

// String returns the platform identifier used in logs and status output.
func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return "linux"
	case PlatformDarwin:
		return "darwin"
	default:
		return "unsupported"
	}
}

// detectPlatform maps the host OS identifier onto the closed Platform set.
func detectPlatform() Platform {
	switch runtime.GOOS {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformUnsupported
	}
}

// Result is the uniform outcome of a single execution, identical in shape
// across backends and fallback modes.
type Result struct {
	// ExitCode is the child's real exit status. -1 means the process could
	// not be started or was killed before reporting.
	ExitCode int

	// Stdout and Stderr hold the fully buffered process output, including
	// whatever partial output was captured before a timeout kill.
	Stdout string
	Stderr string

	// TimedOut is true iff the timeout fired and the process was forcibly
	// terminated.
	TimedOut bool

	// Sandboxed is true iff isolation was actually applied. False on every
	// fallback path.
	Sandboxed bool

	// Platform is set by the Manager, not the backend.
	Platform Platform
}

// Status reports whether a sandbox backend is usable on this host. It is
// computed lazily, once, and cached for the Manager's lifetime.
type Status struct {
	Platform   Platform
	Available  bool
	Technology string
	Version    string
	Error      string
}

// Manager is the single execution API over the platform backends. Construct
// one with NewManager and share it freely; no per-call state is retained
// beyond the one-time platform and availability cache.
type Manager struct {
	platform Platform
	linux    *bubblewrapDriver
	darwin   *seatbeltDriver

	mu      sync.Mutex
	enabled bool
	status  *Status
}

// NewManager constructs a Manager for the current host. The platform is
// resolved exactly once here and is immutable thereafter. Sandboxing starts
// enabled; availability is probed lazily on first use.
func NewManager() *Manager {
	return &Manager{
		platform: detectPlatform(),
		linux:    newBubblewrapDriver(),
		darwin:   newSeatbeltDriver(),
		enabled:  true,
	}
}

// Platform returns the backend selected for this host.
func (m *Manager) Platform() Platform {
	return m.platform
}

// Enable turns sandboxing on. It is on by default.
func (m *Manager) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

// Disable turns sandboxing off; all executions run direct until re-enabled.
func (m *Manager) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// IsEnabled reports the administrative toggle, independent of availability.
func (m *Manager) IsEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Status returns the cached availability status, probing the backend on
// first call. The probe spawns the isolation tool's version query and is
// capped at a few seconds.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == nil {
		st := m.probeStatus()
		m.status = &st
	}
	return *m.status
}

// IsAvailable reports whether the backend for this platform is usable.
func (m *Manager) IsAvailable() bool {
	return m.Status().Available
}

// ResetStatus clears the cached status so the next query re-probes the
// host. It exists to force re-detection, primarily in tests.
func (m *Manager) ResetStatus() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = nil
	m.linux.reset()
	m.darwin.reset()
}

func (m *Manager) probeStatus() Status {
	st := Status{Platform: m.platform}

	switch m.platform {
	case PlatformLinux:
		st.Technology = "bubblewrap"
		avail := m.linux.availability()
		st.Available = avail.available
		st.Version = avail.version
		st.Error = avail.err
	case PlatformDarwin:
		st.Technology = "seatbelt"
		avail := m.darwin.availability()
		st.Available = avail.available
		st.Version = avail.version
		st.Error = avail.err
	default:
		st.Error = "no sandbox backend for this platform"
	}

	return st
}

// Execute runs command through a POSIX shell under the configured isolation.
// Caller overrides are merged over the platform defaults before any backend
// sees them. Execute never returns an error: spawn failures surface as
// ExitCode -1 with the error text on stderr, and unavailability degrades to
// direct execution with Sandboxed:false.
func (m *Manager) Execute(ctx context.Context, command string, overrides *Overrides) *Result {
	cfg := resolveConfig(m.platform, overrides)

	result := m.dispatch(ctx, command, cfg)
	result.Platform = m.platform
	return result
}

func (m *Manager) dispatch(ctx context.Context, command string, cfg *Config) *Result {
	if m.platform == PlatformUnsupported {
		log.Debugf("sandbox: platform unsupported, executing directly")
		return executeDirect(ctx, command, cfg)
	}

	if !m.IsEnabled() {
		log.Debugf("sandbox: disabled, executing directly")
		return executeDirect(ctx, command, cfg)
	}

	st := m.Status()
	if !st.Available {
		log.Warnf("sandbox: %s unavailable (%s), running without sandbox protection", st.Technology, st.Error)
		return executeDirect(ctx, command, cfg)
	}

	switch m.platform {
	case PlatformLinux:
		return m.linux.execute(ctx, command, cfg)
	case PlatformDarwin:
		return m.darwin.execute(ctx, command, cfg)
	default:
		return executeDirect(ctx, command, cfg)
	}
}
