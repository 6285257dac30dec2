package sandbox

import "path/filepath"

// Presets are pure configuration-fragment factories. Each call returns a
// fresh Overrides value, so callers can adjust the fragment without
// affecting later calls.

// PresetMinimal grants the bare system path set needed to run a shell and
// nothing else: no project paths, no network.
func PresetMinimal() *Overrides {
	return &Overrides{
		AllowNetwork:  boolPtr(false),
		ReadOnlyPaths: []string{"/usr", "/lib", "/lib64", "/bin", "/sbin"},
		ReadPaths:     []string{"/usr", "/bin", "/sbin", "/System", "/Library"},
	}
}

// PresetDevelopment keeps the default path grants and forwards the
// environment variables common development tooling expects.
func PresetDevelopment() *Overrides {
	return &Overrides{
		EnvPassthrough: []string{
			"EDITOR", "PAGER", "SSH_AUTH_SOCK",
			"GOPATH", "GOCACHE", "CARGO_HOME", "NODE_ENV", "VIRTUAL_ENV",
		},
	}
}

// PresetNetwork allows network access with no extra path grants.
func PresetNetwork() *Overrides {
	return &Overrides{
		AllowNetwork: boolPtr(true),
	}
}

// PresetFull allows network access and a broad environment passthrough for
// commands that need to look like they run on the host. Filesystem grants
// still follow the platform defaults.
func PresetFull() *Overrides {
	return &Overrides{
		AllowNetwork: boolPtr(true),
		EnvPassthrough: []string{
			"SHELL", "TMPDIR", "LC_ALL", "EDITOR", "PAGER",
			"XDG_CONFIG_HOME", "XDG_CACHE_HOME", "XDG_DATA_HOME",
			"SSH_AUTH_SOCK", "DISPLAY",
		},
	}
}

// Preset returns the named preset fragment, or nil when the name is unknown.
func Preset(name string) *Overrides {
	switch name {
	case "minimal":
		return PresetMinimal()
	case "development":
		return PresetDevelopment()
	case "network":
		return PresetNetwork()
	case "full":
		return PresetFull()
	default:
		return nil
	}
}

// PresetNames lists the built-in preset names in a stable order.
func PresetNames() []string {
	return []string{"minimal", "development", "network", "full"}
}

// ForProject extends base (nil allowed) with read and write access to the
// resolved project directory and sets it as the working directory.
func ForProject(dir string, base *Overrides) *Overrides {
	resolved, err := filepath.Abs(dir)
	if err != nil {
		resolved = filepath.Clean(dir)
	}

	o := &Overrides{}
	if base != nil {
		copied := *base
		o = &copied
	}

	o.ReadWritePaths = append(append([]string{}, o.ReadWritePaths...), resolved)
	o.WritePaths = append(append([]string{}, o.WritePaths...), resolved)
	o.WorkingDir = resolved
	return o
}
