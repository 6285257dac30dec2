package config

import (
	"fmt"
	"os"
	"time"

	_ "embed"

	"github.com/baochipham942-eng/code-agent-sub005/sandbox"
	"github.com/baochipham942-eng/code-agent-sub005/usefulerror"
)

//go:embed config.template.yml
var templateConfig string

// Config is the persistent configuration that can be loaded from the config
// file. Runtime-only settings (debug, dry-run) deliberately live outside it.
type Config struct {
	Sandbox SandboxConfig `mapstructure:"sandbox"`
}

// SandboxConfig configures how commands are isolated by default. Everything
// here can still be overridden per invocation from the command line.
type SandboxConfig struct {
	// Enabled toggles sandboxing globally. When false every command runs
	// directly on the host.
	Enabled bool `mapstructure:"enabled"`

	// DefaultPreset names the built-in preset applied when the user does not
	// pick one explicitly. Empty means platform defaults only.
	DefaultPreset string `mapstructure:"default_preset"`

	// TimeoutSeconds caps command runtime. Zero keeps the built-in default.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`

	// AllowNetwork grants network access on top of the preset. It can only
	// widen access; network denial is expressed by leaving it false and not
	// selecting a network preset.
	AllowNetwork bool `mapstructure:"allow_network"`

	// ReadOnlyPaths and ReadWritePaths replace the platform default path
	// grants when non-empty.
	ReadOnlyPaths  []string `mapstructure:"read_only_paths"`
	ReadWritePaths []string `mapstructure:"read_write_paths"`

	// EnvPassthrough adds host environment variables to forward into the
	// sandbox, on top of the platform defaults.
	EnvPassthrough []string `mapstructure:"env_passthrough"`
}

// RuntimeConfig is the effective configuration for one process: the loaded
// file config plus runtime-only settings and computed paths.
type RuntimeConfig struct {
	Config Config

	// Debug enables debug logging.
	Debug bool

	configDir      string
	configFilePath string
}

// ConfigDir returns the directory holding the config file.
func (r *RuntimeConfig) ConfigDir() string {
	return r.configDir
}

// ConfigFilePath returns the path to the config file.
func (r *RuntimeConfig) ConfigFilePath() string {
	return r.configFilePath
}

// DefaultConfig is the fail-safe contract used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Sandbox: SandboxConfig{
			Enabled:       true,
			DefaultPreset: "",
		},
	}
}

// Load computes the config paths and reads the config file if present.
// A missing file is not an error; the defaults apply.
func Load() (*RuntimeConfig, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	configFilePath, err := ConfigFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config file path: %w", err)
	}

	cfg, err := loadViperConfig(configFilePath)
	if err != nil {
		return nil, err
	}

	return &RuntimeConfig{
		Config:         cfg,
		configDir:      configDir,
		configFilePath: configFilePath,
	}, nil
}

// Overrides translates the persisted sandbox settings into an execution
// override fragment: the named preset first, file-level adjustments on top.
func (c SandboxConfig) Overrides() (*sandbox.Overrides, error) {
	o := &sandbox.Overrides{}
	if c.DefaultPreset != "" {
		o = sandbox.Preset(c.DefaultPreset)
		if o == nil {
			return nil, usefulerror.Useful().
				WithCode(usefulerror.ErrCodeInvalidArgument).
				WithHumanError(fmt.Sprintf("Unknown sandbox preset %q in config", c.DefaultPreset)).
				WithHelp(fmt.Sprintf("Valid presets are: %v", sandbox.PresetNames())).
				Msg(fmt.Sprintf("unknown preset: %s", c.DefaultPreset))
		}
	}

	if c.AllowNetwork {
		allow := true
		o.AllowNetwork = &allow
	}

	if c.TimeoutSeconds > 0 {
		o.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}

	if len(c.ReadOnlyPaths) > 0 {
		o.ReadOnlyPaths = append([]string{}, c.ReadOnlyPaths...)
	}
	if len(c.ReadWritePaths) > 0 {
		o.ReadWritePaths = append([]string{}, c.ReadWritePaths...)
	}
	if len(c.EnvPassthrough) > 0 {
		o.EnvPassthrough = append(o.EnvPassthrough, c.EnvPassthrough...)
	}

	return o, nil
}

// WriteTemplateConfig writes the template configuration file to disk if it
// doesn't already exist.
func WriteTemplateConfig() error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFilePath, err := ConfigFilePath()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	// Do not overwrite an existing config file
	if _, err := os.Stat(configFilePath); err == nil {
		return nil
	}

	if err := os.WriteFile(configFilePath, []byte(templateConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write template config: %w", err)
	}

	return nil
}
