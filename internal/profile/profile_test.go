package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/usdbuild/internal/config"
)

func TestLoadDefault(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Generator != "Ninja" || p.BuildType != "Release" || p.InstallBase != DefaultInstallBase {
		t.Errorf("default profile = %+v", p)
	}
	if p.Options != config.DefaultOptions() {
		t.Errorf("default options = %+v", p.Options)
	}
	if !p.Secondary.Allows("25.11") {
		t.Error("default profile rejects the secondary build")
	}
}

func TestParseOverrides(t *testing.T) {
	p, err := Parse([]byte(`
generator: Unix Makefiles
install_base: /tmp/packages
options:
  usdview: false
  draco_plugin: true
secondary:
  min_version: "25.05"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Generator != "Unix Makefiles" || p.InstallBase != "/tmp/packages" {
		t.Errorf("profile = %+v", p)
	}
	if p.BuildType != "Release" {
		t.Errorf("BuildType = %q, want default", p.BuildType)
	}
	if p.Options.USDView || !p.Options.DracoPlugin {
		t.Errorf("options not applied: %+v", p.Options)
	}
	// Options not named keep their defaults.
	if !p.Options.Imaging || !p.Options.MaterialXSupport {
		t.Errorf("unnamed options lost their defaults: %+v", p.Options)
	}
}

func TestParseEmpty(t *testing.T) {
	p, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if p.Options != config.DefaultOptions() {
		t.Errorf("options = %+v", p.Options)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "generatr: Ninja\n", "decode profile"},
		{"unknown option", "options:\n  vulkan: true\n", "decode profile"},
		{"empty generator", "generator: \"\"\n", "generator"},
		{"bad min version", "secondary:\n  min_version: latest\n", "min_version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSecondaryAllows(t *testing.T) {
	off := false
	tests := []struct {
		name string
		s    Secondary
		v    string
		want bool
	}{
		{"default", Secondary{}, "25.11", true},
		{"disabled", Secondary{Enabled: &off}, "25.11", false},
		{"at bound", Secondary{MinVersion: "25.11"}, "25.11", true},
		{"above bound", Secondary{MinVersion: "25.05"}, "25.11", true},
		{"below bound", Secondary{MinVersion: "26.0"}, "25.11", false},
		{"invalid version", Secondary{MinVersion: "25.05"}, "dev", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Allows(tt.v); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("build_type: Debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.BuildType != "Debug" {
		t.Errorf("BuildType = %q", p.BuildType)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
