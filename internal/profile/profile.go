// Package profile loads the optional YAML build profile.
//
// A profile only overrides what it names; everything else keeps the
// built-in defaults:
//
//	generator: Ninja
//	build_type: Release
//	install_base: /core/Linux/APPZ/packages
//	options:
//	  usdview: false
//	  draco_plugin: true
//	secondary:
//	  enabled: true
//	  min_version: 25.05
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goplus/usdbuild/internal/config"
	"github.com/goplus/usdbuild/internal/version"
)

// DefaultInstallBase is where installed packages are published.
const DefaultInstallBase = "/core/Linux/APPZ/packages"

// Profile tunes one build.
type Profile struct {
	Generator   string         `yaml:"generator"`
	BuildType   string         `yaml:"build_type"`
	InstallBase string         `yaml:"install_base"`
	Options     config.Options `yaml:"options"`
	Secondary   Secondary      `yaml:"secondary"`
}

// Secondary controls the optional plugin build.
type Secondary struct {
	// Enabled defaults to true when unset.
	Enabled *bool `yaml:"enabled"`

	// MinVersion, when set, skips the plugin for primary versions below it.
	MinVersion string `yaml:"min_version"`
}

// IsEnabled reports whether the plugin build may run.
func (s Secondary) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Allows reports whether the plugin build may run against version.
func (s Secondary) Allows(v string) bool {
	if !s.IsEnabled() {
		return false
	}
	return s.MinVersion == "" || version.AtLeast(v, s.MinVersion)
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		Generator:   config.DefaultGenerator,
		BuildType:   config.DefaultBuildType,
		InstallBase: DefaultInstallBase,
		Options:     config.DefaultOptions(),
	}
}

// Load reads the profile at path. An empty path returns the default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes data over the default profile. Unknown keys are rejected.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the fields that cannot fall back to a default.
func (p *Profile) Validate() error {
	if p.Generator == "" {
		return errors.New("profile: generator must not be empty")
	}
	if p.BuildType == "" {
		return errors.New("profile: build_type must not be empty")
	}
	if p.InstallBase == "" {
		return errors.New("profile: install_base must not be empty")
	}
	if p.Secondary.MinVersion != "" && !version.Valid(p.Secondary.MinVersion) {
		return fmt.Errorf("profile: secondary.min_version %q is not a valid version", p.Secondary.MinVersion)
	}
	return nil
}
