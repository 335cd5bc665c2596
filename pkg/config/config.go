// Package config loads canvas configuration from TOML.
//
// A configuration file declares the grid, the port and body layout, and the
// node kinds available on the canvas:
//
//	[canvas]
//	unit = 60
//	width = 16
//	height = 10
//
//	[layout]
//	header_height = 20
//	port_spacing = 24
//
//	[kinds.add]
//	label = "Add"
//	inputs = ["a", "b"]
//	outputs = ["sum"]
//	params = ["bias"]
//
// Missing values fall back to the defaults. A file without any [kinds]
// table uses the built-in schema returned by [DefaultSchema].
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/content"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// Default grid values.
const (
	DefaultUnit   = 60
	DefaultWidth  = 16
	DefaultHeight = 10
)

// File is the decoded form of a canvas.toml file.
type File struct {
	Canvas Canvas                    `toml:"canvas"`
	Layout Layout                    `toml:"layout"`
	Kinds  map[string]graph.KindSpec `toml:"kinds"`
}

// Canvas holds the grid unit and the canvas size in grid units.
type Canvas struct {
	Unit   float64 `toml:"unit"`
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
}

// Layout holds the pixel constants of node bodies and ports.
type Layout struct {
	HeaderHeight float64 `toml:"header_height"`
	PortSpacing  float64 `toml:"port_spacing"`
	NodeWidth    float64 `toml:"node_width"`
	ParamHeight  float64 `toml:"param_height"`
}

// DefaultSchema returns the built-in node kinds.
func DefaultSchema() graph.Schema {
	return graph.Schema{
		"const": {Label: "Const", Outputs: []string{"out"}, Params: []string{"value"}},
		"add":   {Label: "Add", Inputs: []string{"a", "b"}, Outputs: []string{"sum"}},
		"mul":   {Label: "Multiply", Inputs: []string{"a", "b"}, Outputs: []string{"product"}},
		"print": {Label: "Print", Inputs: []string{"in"}, Params: []string{"format"}},
	}
}

// Default returns a configuration with every default applied.
func Default() *File {
	f := &File{}
	f.SetDefaults()
	return f
}

// Load reads and parses the configuration file at path.
func Load(path string) (*File, error) {
	if err := errors.ValidatePath(path, false); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes TOML data, applies defaults and validates the result.
// Keys that do not belong to the format are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	f.SetDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// SetDefaults fills every zero value with its default.
func (f *File) SetDefaults() {
	if f.Canvas.Unit == 0 {
		f.Canvas.Unit = DefaultUnit
	}
	if f.Canvas.Width == 0 {
		f.Canvas.Width = DefaultWidth
	}
	if f.Canvas.Height == 0 {
		f.Canvas.Height = DefaultHeight
	}
	if f.Layout.HeaderHeight == 0 {
		f.Layout.HeaderHeight = canvas.DefaultHeaderHeight
	}
	if f.Layout.PortSpacing == 0 {
		f.Layout.PortSpacing = canvas.DefaultPortSpacing
	}
	if f.Layout.NodeWidth == 0 {
		f.Layout.NodeWidth = content.DefaultNodeWidth
	}
	if f.Layout.ParamHeight == 0 {
		f.Layout.ParamHeight = content.DefaultParamHeight
	}
	if len(f.Kinds) == 0 {
		f.Kinds = DefaultSchema()
	}
}

// Validate checks the values that defaults cannot repair.
func (f *File) Validate() error {
	if f.Canvas.Unit < 0 || f.Canvas.Width < 0 || f.Canvas.Height < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas unit and size must be positive")
	}
	if f.Layout.HeaderHeight < 0 || f.Layout.PortSpacing < 0 || f.Layout.NodeWidth < 0 || f.Layout.ParamHeight < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout values must not be negative")
	}
	return f.Schema().Validate()
}

// Schema returns the declared node kinds.
func (f *File) Schema() graph.Schema {
	return graph.Schema(f.Kinds)
}

// CanvasConfig returns the engine configuration described by f.
func (f *File) CanvasConfig() canvas.Config {
	return canvas.Config{
		Unit:       f.Canvas.Unit,
		Dimensions: [2]int{f.Canvas.Width, f.Canvas.Height},
		Schema:     f.Schema(),
		Layout: canvas.Layout{
			HeaderHeight: f.Layout.HeaderHeight,
			PortSpacing:  f.Layout.PortSpacing,
		},
	}
}

// Metrics returns the node body metrics described by f.
func (f *File) Metrics() content.Metrics {
	return content.Metrics{
		Layout: canvas.Layout{
			HeaderHeight: f.Layout.HeaderHeight,
			PortSpacing:  f.Layout.PortSpacing,
		},
		NodeWidth:   f.Layout.NodeWidth,
		ParamHeight: f.Layout.ParamHeight,
	}
}
