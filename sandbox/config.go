package sandbox

import (
	"path/filepath"
	"time"
)

// DefaultTimeout bounds command execution when the caller does not set one.
const DefaultTimeout = 120 * time.Second

// Config is a fully resolved sandbox configuration. Every field is populated
// before any backend sees it; no code path observes a partially-initialized
// config. Callers never build a Config directly — they supply Overrides and
// the Manager merges them over the platform defaults.
type Config struct {
	// AllowNetwork grants network access. When false the Linux driver
	// unshares the network namespace and the macOS profile carries an
	// explicit network deny rule.
	AllowNetwork bool

	// ReadOnlyPaths are host paths bound read-only at the same location inside
	// the sandbox (Linux). Entries that do not exist on this host are skipped,
	// keeping default path lists portable across distributions.
	ReadOnlyPaths []string

	// ReadWritePaths are host paths bound read-write (Linux).
	ReadWritePaths []string

	// TmpfsPaths receive ephemeral writable filesystems whose contents never
	// persist past the call (Linux).
	TmpfsPaths []string

	// ReadPaths, WritePaths and ExecutePaths scope the generated macOS
	// profile. Write implies read; execute paths get a read rule because the
	// loader must read the binary.
	ReadPaths    []string
	WritePaths   []string
	ExecutePaths []string

	// WorkingDir is the directory the command starts in. Empty means the
	// process inherits the engine's working directory.
	WorkingDir string

	// Timeout is the hard execution deadline. On expiry the child receives a
	// non-catchable kill signal and the result is marked TimedOut.
	Timeout time.Duration

	// EnvPassthrough names host environment variables forwarded verbatim into
	// the sandbox. Everything else is withheld: the child starts from an
	// empty environment.
	EnvPassthrough []string

	// CustomEnv is applied after passthrough and overrides it on conflict.
	CustomEnv map[string]string

	// UnshareAll isolates every namespace on Linux (network re-shared when
	// AllowNetwork is set). When false, only the network namespace is
	// unshared and only if AllowNetwork is false.
	UnshareAll bool

	// DieWithParent terminates the sandboxed process if the supervising
	// process dies, preventing orphaned sandboxes.
	DieWithParent bool

	// AllowProcessExec and AllowProcessFork gate process creation in the
	// macOS profile.
	AllowProcessExec bool
	AllowProcessFork bool

	// CustomProfile, when non-empty, replaces the entire generated macOS
	// profile verbatim. The engine does not validate its contents.
	CustomProfile string
}

// Overrides is the caller-supplied partial configuration, merged over the
// platform defaults by the Manager. Nil pointer fields and empty slices mean
// "keep the default"; non-empty slices replace the default list so that
// presets can narrow as well as widen the granted path set.
type Overrides struct {
	AllowNetwork *bool

	ReadOnlyPaths  []string
	ReadWritePaths []string
	TmpfsPaths     []string

	ReadPaths    []string
	WritePaths   []string
	ExecutePaths []string

	WorkingDir string

	// Timeout of zero keeps the default.
	Timeout time.Duration

	EnvPassthrough []string
	CustomEnv      map[string]string

	UnshareAll       *bool
	DieWithParent    *bool
	AllowProcessExec *bool
	AllowProcessFork *bool

	CustomProfile string
}

// defaultConfig returns the documented default configuration for a platform:
// network off, essential system paths readable, no write grants, 120s
// timeout, minimal environment passthrough.
func defaultConfig(platform Platform) *Config {
	cfg := &Config{
		AllowNetwork:     false,
		Timeout:          DefaultTimeout,
		EnvPassthrough:   []string{"PATH", "HOME", "USER", "LANG", "TERM"},
		CustomEnv:        map[string]string{},
		UnshareAll:       true,
		DieWithParent:    true,
		AllowProcessExec: true,
		AllowProcessFork: true,
	}

	switch platform {
	case PlatformLinux:
		cfg.ReadOnlyPaths = []string{"/usr", "/lib", "/lib64", "/bin", "/sbin", "/etc", "/opt"}
		cfg.TmpfsPaths = []string{"/tmp", "/var/tmp"}
	case PlatformDarwin:
		cfg.ReadPaths = []string{"/usr", "/bin", "/sbin", "/System", "/Library", "/private/etc", "/opt"}
		cfg.EnvPassthrough = append(cfg.EnvPassthrough, "SHELL", "TMPDIR", "LC_ALL")
	}

	return cfg
}

// resolveConfig merges caller overrides over the platform defaults. The
// result is always fully populated.
func resolveConfig(platform Platform, o *Overrides) *Config {
	cfg := defaultConfig(platform)
	if o == nil {
		return cfg
	}

	if o.AllowNetwork != nil {
		cfg.AllowNetwork = *o.AllowNetwork
	}
	if o.UnshareAll != nil {
		cfg.UnshareAll = *o.UnshareAll
	}
	if o.DieWithParent != nil {
		cfg.DieWithParent = *o.DieWithParent
	}
	if o.AllowProcessExec != nil {
		cfg.AllowProcessExec = *o.AllowProcessExec
	}
	if o.AllowProcessFork != nil {
		cfg.AllowProcessFork = *o.AllowProcessFork
	}

	if len(o.ReadOnlyPaths) > 0 {
		cfg.ReadOnlyPaths = cleanPaths(o.ReadOnlyPaths)
	}
	if len(o.ReadWritePaths) > 0 {
		cfg.ReadWritePaths = cleanPaths(o.ReadWritePaths)
	}
	if len(o.TmpfsPaths) > 0 {
		cfg.TmpfsPaths = cleanPaths(o.TmpfsPaths)
	}
	if len(o.ReadPaths) > 0 {
		cfg.ReadPaths = cleanPaths(o.ReadPaths)
	}
	if len(o.WritePaths) > 0 {
		cfg.WritePaths = cleanPaths(o.WritePaths)
	}
	if len(o.ExecutePaths) > 0 {
		cfg.ExecutePaths = cleanPaths(o.ExecutePaths)
	}

	if o.WorkingDir != "" {
		cfg.WorkingDir = filepath.Clean(o.WorkingDir)
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}

	if len(o.EnvPassthrough) > 0 {
		cfg.EnvPassthrough = unionStrings(cfg.EnvPassthrough, o.EnvPassthrough)
	}
	for k, v := range o.CustomEnv {
		cfg.CustomEnv[k] = v
	}

	if o.CustomProfile != "" {
		cfg.CustomProfile = o.CustomProfile
	}

	return cfg
}

// cleanPaths normalizes a path list, dropping empty entries and duplicates
// while preserving order. Rule emission is order-sensitive on both backends.
func cleanPaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// unionStrings appends entries of extra not already present in base,
// preserving order of both.
func unionStrings(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, s := range append(append([]string{}, base...), extra...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// boolPtr is a convenience for building Overrides literals.
func boolPtr(b bool) *bool { return &b }
