package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baochipham942-eng/code-agent-sub005/sandbox"
)

func TestLoadWithoutConfigFile(t *testing.T) {
	t.Setenv(CONFIG_DIR_ENV_KEY, t.TempDir())

	rc, err := Load()
	require.NoError(t, err)

	assert.True(t, rc.Config.Sandbox.Enabled)
	assert.Empty(t, rc.Config.Sandbox.DefaultPreset)
	assert.Equal(t, filepath.Join(rc.ConfigDir(), CONFIG_FILE_NAME), rc.ConfigFilePath())
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CONFIG_DIR_ENV_KEY, dir)

	content := `
sandbox:
  enabled: false
  default_preset: network
  timeout_seconds: 30
  env_passthrough:
    - EDITOR
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE_NAME), []byte(content), 0o644))

	rc, err := Load()
	require.NoError(t, err)

	assert.False(t, rc.Config.Sandbox.Enabled)
	assert.Equal(t, "network", rc.Config.Sandbox.DefaultPreset)
	assert.Equal(t, 30, rc.Config.Sandbox.TimeoutSeconds)
	assert.Equal(t, []string{"EDITOR"}, rc.Config.Sandbox.EnvPassthrough)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CONFIG_DIR_ENV_KEY, dir)

	content := `
sandbox:
  timeout_seconds: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE_NAME), []byte(content), 0o644))

	rc, err := Load()
	require.NoError(t, err)

	assert.True(t, rc.Config.Sandbox.Enabled, "enabled default survives a partial file")
	assert.Equal(t, 10, rc.Config.Sandbox.TimeoutSeconds)
}

func TestLoadMalformedConfigFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CONFIG_DIR_ENV_KEY, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE_NAME), []byte("sandbox: ["), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestSandboxConfigOverrides(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SandboxConfig
		wantErr bool
		check   func(t *testing.T, o *sandbox.Overrides)
	}{
		{
			name: "empty config yields empty overrides",
			cfg:  SandboxConfig{},
			check: func(t *testing.T, o *sandbox.Overrides) {
				assert.Nil(t, o.AllowNetwork)
				assert.Zero(t, o.Timeout)
				assert.Empty(t, o.ReadOnlyPaths)
			},
		},
		{
			name: "preset applied",
			cfg:  SandboxConfig{DefaultPreset: "network"},
			check: func(t *testing.T, o *sandbox.Overrides) {
				require.NotNil(t, o.AllowNetwork)
				assert.True(t, *o.AllowNetwork)
			},
		},
		{
			name:    "unknown preset rejected",
			cfg:     SandboxConfig{DefaultPreset: "nope"},
			wantErr: true,
		},
		{
			name: "timeout converted to duration",
			cfg:  SandboxConfig{TimeoutSeconds: 45},
			check: func(t *testing.T, o *sandbox.Overrides) {
				assert.Equal(t, 45*time.Second, o.Timeout)
			},
		},
		{
			name: "allow network widens preset",
			cfg:  SandboxConfig{DefaultPreset: "minimal", AllowNetwork: true},
			check: func(t *testing.T, o *sandbox.Overrides) {
				require.NotNil(t, o.AllowNetwork)
				assert.True(t, *o.AllowNetwork)
			},
		},
		{
			name: "path and env settings carried",
			cfg: SandboxConfig{
				ReadOnlyPaths:  []string{"/usr"},
				ReadWritePaths: []string{"/work"},
				EnvPassthrough: []string{"EDITOR"},
			},
			check: func(t *testing.T, o *sandbox.Overrides) {
				assert.Equal(t, []string{"/usr"}, o.ReadOnlyPaths)
				assert.Equal(t, []string{"/work"}, o.ReadWritePaths)
				assert.Contains(t, o.EnvPassthrough, "EDITOR")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := tt.cfg.Overrides()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, o)
		})
	}
}

func TestWriteTemplateConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CONFIG_DIR_ENV_KEY, dir)

	require.NoError(t, WriteTemplateConfig())

	// The template must parse and carry the documented defaults.
	rc, err := Load()
	require.NoError(t, err)
	assert.True(t, rc.Config.Sandbox.Enabled)
	assert.Empty(t, rc.Config.Sandbox.DefaultPreset)
	assert.Zero(t, rc.Config.Sandbox.TimeoutSeconds)

	// A second write must not clobber an existing file.
	custom := []byte("sandbox:\n  enabled: false\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE_NAME), custom, 0o644))
	require.NoError(t, WriteTemplateConfig())

	content, err := os.ReadFile(filepath.Join(dir, CONFIG_FILE_NAME))
	require.NoError(t, err)
	assert.Equal(t, custom, content)
}

func TestConfigDirEnvOverride(t *testing.T) {
	t.Setenv(CONFIG_DIR_ENV_KEY, "/custom/config/dir")

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/dir", dir)
}
