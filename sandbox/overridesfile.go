package sandbox

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// overridesDocument is the YAML schema for an overrides file. It mirrors
// Overrides except for the timeout, which is written as a duration string.
type overridesDocument struct {
	AllowNetwork *bool `yaml:"allow_network"`

	ReadOnlyPaths  []string `yaml:"read_only_paths"`
	ReadWritePaths []string `yaml:"read_write_paths"`
	TmpfsPaths     []string `yaml:"tmpfs_paths"`

	ReadPaths    []string `yaml:"read_paths"`
	WritePaths   []string `yaml:"write_paths"`
	ExecutePaths []string `yaml:"execute_paths"`

	WorkingDir string `yaml:"working_dir"`

	// Timeout is a Go duration string, e.g. "30s" or "5m".
	Timeout string `yaml:"timeout"`

	EnvPassthrough []string          `yaml:"env_passthrough"`
	Env            map[string]string `yaml:"env"`

	UnshareAll       *bool `yaml:"unshare_all"`
	DieWithParent    *bool `yaml:"die_with_parent"`
	AllowProcessExec *bool `yaml:"allow_process_exec"`
	AllowProcessFork *bool `yaml:"allow_process_fork"`

	CustomProfile string `yaml:"custom_profile"`
}

// LoadOverridesFile reads a YAML overrides file into an execution override
// fragment. Unknown keys are rejected so typos fail loudly instead of
// silently weakening or widening the policy.
func LoadOverridesFile(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	return parseOverrides(data)
}

func parseOverrides(data []byte) (*Overrides, error) {
	var doc overridesDocument

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse overrides: %w", err)
	}

	o := &Overrides{
		AllowNetwork:     doc.AllowNetwork,
		ReadOnlyPaths:    doc.ReadOnlyPaths,
		ReadWritePaths:   doc.ReadWritePaths,
		TmpfsPaths:       doc.TmpfsPaths,
		ReadPaths:        doc.ReadPaths,
		WritePaths:       doc.WritePaths,
		ExecutePaths:     doc.ExecutePaths,
		WorkingDir:       doc.WorkingDir,
		EnvPassthrough:   doc.EnvPassthrough,
		CustomEnv:        doc.Env,
		UnshareAll:       doc.UnshareAll,
		DieWithParent:    doc.DieWithParent,
		AllowProcessExec: doc.AllowProcessExec,
		AllowProcessFork: doc.AllowProcessFork,
		CustomProfile:    doc.CustomProfile,
	}

	if doc.Timeout != "" {
		timeout, err := time.ParseDuration(doc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", doc.Timeout, err)
		}
		if timeout < 0 {
			return nil, fmt.Errorf("invalid timeout %q: must not be negative", doc.Timeout)
		}
		o.Timeout = timeout
	}

	return o, nil
}
