package sandbox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetMinimal(t *testing.T) {
	o := PresetMinimal()
	require.NotNil(t, o)
	require.NotNil(t, o.AllowNetwork)

	assert.False(t, *o.AllowNetwork)
	assert.Equal(t, []string{"/usr", "/lib", "/lib64", "/bin", "/sbin"}, o.ReadOnlyPaths)
	assert.NotContains(t, o.ReadOnlyPaths, "/etc")
}

func TestPresetMinimalNarrowsDefaults(t *testing.T) {
	cfg := resolveConfig(PlatformLinux, PresetMinimal())

	// The preset's list replaces the wider platform default.
	assert.Equal(t, []string{"/usr", "/lib", "/lib64", "/bin", "/sbin"}, cfg.ReadOnlyPaths)
	assert.False(t, cfg.AllowNetwork)
}

func TestPresetDevelopment(t *testing.T) {
	cfg := resolveConfig(PlatformLinux, PresetDevelopment())

	// Development keeps the platform defaults and adds tooling variables.
	assert.Contains(t, cfg.EnvPassthrough, "PATH")
	assert.Contains(t, cfg.EnvPassthrough, "EDITOR")
	assert.Contains(t, cfg.EnvPassthrough, "SSH_AUTH_SOCK")
	assert.False(t, cfg.AllowNetwork)
}

func TestPresetNetwork(t *testing.T) {
	cfg := resolveConfig(PlatformLinux, PresetNetwork())
	assert.True(t, cfg.AllowNetwork)
}

func TestPresetFull(t *testing.T) {
	cfg := resolveConfig(PlatformLinux, PresetFull())

	assert.True(t, cfg.AllowNetwork)
	assert.Contains(t, cfg.EnvPassthrough, "DISPLAY")
	assert.Contains(t, cfg.EnvPassthrough, "XDG_CONFIG_HOME")
}

func TestPresetLookup(t *testing.T) {
	for _, name := range PresetNames() {
		assert.NotNil(t, Preset(name), "preset %q must resolve", name)
	}
	assert.Nil(t, Preset("unknown"))
	assert.Nil(t, Preset(""))
}

func TestPresetsReturnFreshValues(t *testing.T) {
	first := PresetMinimal()
	first.ReadOnlyPaths[0] = "/mutated"

	second := PresetMinimal()
	assert.Equal(t, "/usr", second.ReadOnlyPaths[0])
}

func TestForProject(t *testing.T) {
	dir := t.TempDir()

	o := ForProject(dir, nil)
	require.NotNil(t, o)

	assert.Equal(t, dir, o.WorkingDir)
	assert.Contains(t, o.ReadWritePaths, dir)
	assert.Contains(t, o.WritePaths, dir)
}

func TestForProjectResolvesRelativePaths(t *testing.T) {
	o := ForProject(".", nil)

	assert.True(t, filepath.IsAbs(o.WorkingDir))
	require.Len(t, o.ReadWritePaths, 1)
	assert.True(t, filepath.IsAbs(o.ReadWritePaths[0]))
}

func TestForProjectExtendsBase(t *testing.T) {
	dir := t.TempDir()
	base := PresetNetwork()
	base.ReadWritePaths = []string{"/existing/grant"}

	o := ForProject(dir, base)

	require.NotNil(t, o.AllowNetwork)
	assert.True(t, *o.AllowNetwork)
	assert.Equal(t, []string{"/existing/grant", dir}, o.ReadWritePaths)

	// The base fragment is not mutated.
	assert.Equal(t, []string{"/existing/grant"}, base.ReadWritePaths)
	assert.Empty(t, base.WorkingDir)
}
