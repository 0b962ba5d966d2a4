package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goplus/usdbuild/internal/deps"
)

// Options toggles the optional parts of the USD build.
type Options struct {
	Imaging               bool `yaml:"imaging"`
	USDImaging            bool `yaml:"usd_imaging"`
	USDView               bool `yaml:"usdview"`
	ImageIOPlugin         bool `yaml:"image_io_plugin"`
	ColorManagementPlugin bool `yaml:"color_management_plugin"`
	MaterialXSupport      bool `yaml:"materialx_support"`
	VolumetricSupport     bool `yaml:"volumetric_support"`
	TextureSupport        bool `yaml:"texture_support"`
	AlembicPlugin         bool `yaml:"alembic_plugin"`
	DracoPlugin           bool `yaml:"draco_plugin"`
	USDTools              bool `yaml:"usd_tools"`
}

// DefaultOptions enables everything except the Draco plugin.
func DefaultOptions() Options {
	return Options{
		Imaging:               true,
		USDImaging:            true,
		USDView:               true,
		ImageIOPlugin:         true,
		ColorManagementPlugin: true,
		MaterialXSupport:      true,
		VolumetricSupport:     true,
		TextureSupport:        true,
		AlembicPlugin:         true,
		USDTools:              true,
	}
}

// Feature is one feature flag argument.
type Feature struct {
	Option  string
	Var     string
	Enabled bool

	// Requires names the dependency the feature builds against, if any.
	Requires string

	// Forced features ignore Options.
	Forced bool
}

type optionDef struct {
	name     string
	cmakeVar string
	requires string
	field    func(*Options) *bool
}

var optionDefs = []optionDef{
	{"imaging", "PXR_BUILD_IMAGING", "", func(o *Options) *bool { return &o.Imaging }},
	{"usd_imaging", "PXR_BUILD_USD_IMAGING", "", func(o *Options) *bool { return &o.USDImaging }},
	{"usdview", "PXR_BUILD_USDVIEW", deps.PySide6, func(o *Options) *bool { return &o.USDView }},
	{"image_io_plugin", "PXR_BUILD_OPENIMAGEIO_PLUGIN", deps.OIIO, func(o *Options) *bool { return &o.ImageIOPlugin }},
	{"color_management_plugin", "PXR_BUILD_OPENCOLORIO_PLUGIN", deps.OCIO, func(o *Options) *bool { return &o.ColorManagementPlugin }},
	{"materialx_support", "PXR_ENABLE_MATERIALX_SUPPORT", deps.MaterialX, func(o *Options) *bool { return &o.MaterialXSupport }},
	{"volumetric_support", "PXR_ENABLE_OPENVDB_SUPPORT", deps.OpenVDB, func(o *Options) *bool { return &o.VolumetricSupport }},
	{"texture_support", "PXR_ENABLE_PTEX_SUPPORT", deps.Ptex, func(o *Options) *bool { return &o.TextureSupport }},
	{"alembic_plugin", "PXR_BUILD_ALEMBIC_PLUGIN", deps.Alembic, func(o *Options) *bool { return &o.AlembicPlugin }},
	{"draco_plugin", "PXR_BUILD_DRACO_PLUGIN", "", func(o *Options) *bool { return &o.DracoPlugin }},
	{"usd_tools", "PXR_BUILD_USD_TOOLS", "", func(o *Options) *bool { return &o.USDTools }},
}

// Always off to keep build time and install size down; python is required
// by usdview and the tools.
var forcedFeatures = []Feature{
	{Option: "tests", Var: "PXR_BUILD_TESTS", Enabled: false, Forced: true},
	{Option: "examples", Var: "PXR_BUILD_EXAMPLES", Enabled: false, Forced: true},
	{Option: "tutorials", Var: "PXR_BUILD_TUTORIALS", Enabled: false, Forced: true},
	{Option: "python_support", Var: "PXR_ENABLE_PYTHON_SUPPORT", Enabled: true, Forced: true, Requires: deps.Python},
}

// Features returns every feature flag, configurable ones first.
func (o Options) Features() []Feature {
	features := make([]Feature, 0, len(optionDefs)+len(forcedFeatures))
	for _, d := range optionDefs {
		features = append(features, Feature{
			Option:   d.name,
			Var:      d.cmakeVar,
			Enabled:  *d.field(&o),
			Requires: d.requires,
		})
	}
	return append(features, forcedFeatures...)
}

// Set changes the option called name.
func (o *Options) Set(name string, enabled bool) error {
	for _, d := range optionDefs {
		if d.name == name {
			*d.field(o) = enabled
			return nil
		}
	}
	for _, f := range forcedFeatures {
		if f.Option == name {
			return fmt.Errorf("option %q cannot be changed", name)
		}
	}
	return fmt.Errorf("unknown option %q (known: %s)", name, strings.Join(OptionNames(), ", "))
}

// OptionNames returns the configurable option names, sorted.
func OptionNames() []string {
	names := make([]string, len(optionDefs))
	for i, d := range optionDefs {
		names[i] = d.name
	}
	sort.Strings(names)
	return names
}
