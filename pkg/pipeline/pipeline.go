// Package pipeline runs a batch of sawtooth profiles from parameters to
// rendered drawings.
//
// The CLI and the HTTP server share this package so that both apply the
// same defaults, validation, caching and logging.
//
// # Stages
//
//  1. Layout: construct every profile and place it (pkg/layout). Degenerate
//     tuples are skipped and logged.
//  2. Render: emit the placed profiles with their dimensions into one sink
//     per requested format (dxf, svg, json, scr), optionally one artifact
//     per profile.
//
// # Usage
//
//	opts, err := pipeline.LoadOptions("stringers.toml")
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	err = pipeline.WriteArtifacts("out", result.Artifacts, false)
//
// A running CAD host is driven with [Runner.Stream] instead, which sends the
// entities straight to a drawing.Session and produces no artifacts.
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/cache"
	"github.com/matzehuels/sawtooth/pkg/drawing"
	"github.com/matzehuels/sawtooth/pkg/drawing/dxf"
	"github.com/matzehuels/sawtooth/pkg/drawing/svg"
	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/geom"
	pkgio "github.com/matzehuels/sawtooth/pkg/io"
	"github.com/matzehuels/sawtooth/pkg/layout"
	"github.com/matzehuels/sawtooth/pkg/profile"
)

// Output formats.
const (
	FormatDXF    = "dxf"
	FormatSVG    = "svg"
	FormatJSON   = "json"
	FormatScript = "scr"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDXF:    true,
	FormatSVG:    true,
	FormatJSON:   true,
	FormatScript: true,
}

// Defaults shared by the CLI and the HTTP API.
const (
	DefaultName      = "stringers"
	DefaultPrecision = annotate.DefaultPrecision
	DefaultScale     = 1.0
	MaxPrecision     = 10
)

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{FormatDXF}

// LayoutOptions configures placement. Zero values take the layout package
// defaults.
type LayoutOptions struct {
	Axis        string  `json:"axis,omitempty" toml:"axis,omitempty" yaml:"axis,omitempty"`
	Spacing     float64 `json:"spacing,omitempty" toml:"spacing,omitempty" yaml:"spacing,omitempty"`
	Mode        string  `json:"mode,omitempty" toml:"mode,omitempty" yaml:"mode,omitempty"`
	Descending  bool    `json:"descending,omitempty" toml:"descending,omitempty" yaml:"descending,omitempty"`
	ToothPolicy string  `json:"tooth_policy,omitempty" toml:"tooth_policy,omitempty" yaml:"tooth_policy,omitempty"`
	// Tolerance is the near-zero threshold for the trigonometric
	// denominators of every profile. Zero means profile.DefaultTolerance.
	Tolerance float64 `json:"tolerance,omitempty" toml:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// RenderOptions configures the sinks.
type RenderOptions struct {
	Formats     []string `json:"formats,omitempty" toml:"formats,omitempty" yaml:"formats,omitempty"`
	Locale      string   `json:"locale,omitempty" toml:"locale,omitempty" yaml:"locale,omitempty"`
	LabelHeight float64  `json:"label_height,omitempty" toml:"label_height,omitempty" yaml:"label_height,omitempty"`
	LabelGap    float64  `json:"label_gap,omitempty" toml:"label_gap,omitempty" yaml:"label_gap,omitempty"`
	// Precision is the number of decimals in dimension labels. Unset means
	// DefaultPrecision; 0 gives integer labels.
	Precision    *int `json:"precision,omitempty" toml:"precision,omitempty" yaml:"precision,omitempty"`
	NoDimensions bool `json:"no_dimensions,omitempty" toml:"no_dimensions,omitempty" yaml:"no_dimensions,omitempty"`
	// Split writes one artifact per profile, named Prefix<N>.<format>.
	Split  bool   `json:"split,omitempty" toml:"split,omitempty" yaml:"split,omitempty"`
	Prefix string `json:"prefix,omitempty" toml:"prefix,omitempty" yaml:"prefix,omitempty"`
	// Name is the file stem of combined artifacts.
	Name  string  `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Scale float64 `json:"scale,omitempty" toml:"scale,omitempty" yaml:"scale,omitempty"`
	Title string  `json:"title,omitempty" toml:"title,omitempty" yaml:"title,omitempty"`
	// Margin is the blank SVG border in drawing units.
	Margin float64 `json:"margin,omitempty" toml:"margin,omitempty" yaml:"margin,omitempty"`
	// DimTextHeight and DimArrowSize size the dimension text and arrows of
	// the DXF and script outputs.
	DimTextHeight float64 `json:"dim_text_height,omitempty" toml:"dim_text_height,omitempty" yaml:"dim_text_height,omitempty"`
	DimArrowSize  float64 `json:"dim_arrow_size,omitempty" toml:"dim_arrow_size,omitempty" yaml:"dim_arrow_size,omitempty"`
}

// Options is a complete batch: placement, rendering and the profile tuples.
// It is the document read from batch files and posted to the HTTP API.
type Options struct {
	Layout   LayoutOptions    `json:"layout" toml:"layout" yaml:"layout"`
	Render   RenderOptions    `json:"render" toml:"render" yaml:"render"`
	Profiles []profile.Params `json:"profile" toml:"profile" yaml:"profile"`

	// Runtime options (not serialized)
	Logger  *log.Logger `json:"-" toml:"-" yaml:"-"`
	Refresh bool        `json:"-" toml:"-" yaml:"-"`

	validated bool
}

// Artifact is one rendered output file.
type Artifact struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	// Index is the profile ordinal for split output, 0 for combined output.
	Index int    `json:"index,omitempty"`
	Data  []byte `json:"data"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	RunID     uuid.UUID
	Layout    layout.Result
	Artifacts []Artifact
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Profiles   int
	Placed     int
	Skipped    int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks which formats came from the cache.
type CacheInfo struct {
	Hits   []string
	Misses []string
}

// RenderHit reports whether every format came from the cache.
func (c CacheInfo) RenderHit() bool { return len(c.Hits) > 0 && len(c.Misses) == 0 }

// ByFormat returns the artifacts of one format in order.
func (r *Result) ByFormat(format string) []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.Format == format {
			out = append(out, a)
		}
	}
	return out
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be one of: dxf, svg, json, scr)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLocale checks the label locale.
func ValidateLocale(locale string) error {
	switch drawing.Locale(locale) {
	case drawing.LocaleZH, drawing.LocaleEN:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid locale %q (must be zh or en)", locale)
}

// LoadOptions reads a batch file (.toml, .yaml, .yml or .json).
func LoadOptions(path string) (Options, error) {
	var opts Options
	if err := pkgio.Load(path, &opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// ValidateAndSetDefaults applies defaults and validates the whole batch. It
// is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	if len(o.Profiles) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "batch contains no profiles")
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills unset placement options.
func (o *Options) SetLayoutDefaults() {
	if o.Layout.Axis == "" {
		o.Layout.Axis = string(layout.DefaultAxis)
	}
	if o.Layout.Spacing == 0 {
		o.Layout.Spacing = layout.DefaultSpacing
	}
	if o.Layout.Mode == "" {
		o.Layout.Mode = string(layout.DefaultMode)
	}
	if o.Layout.ToothPolicy == "" {
		o.Layout.ToothPolicy = string(profile.ToothNominal)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout checks the placement options.
func (o *Options) ValidateForLayout() error {
	if !profile.ToothPolicy(o.Layout.ToothPolicy).Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid tooth policy %q (must be nominal or compensate)", o.Layout.ToothPolicy)
	}
	if err := errors.ValidateFinite("tolerance", o.Layout.Tolerance); err != nil {
		return err
	}
	if o.Layout.Tolerance < 0 || o.Layout.Tolerance >= 1 {
		return errors.New(errors.ErrCodeInvalidInput, "tolerance must be in [0, 1), got %v", o.Layout.Tolerance)
	}
	return o.LayoutOptions().Validate()
}

// SetRenderDefaults fills unset render options.
func (o *Options) SetRenderDefaults() {
	if len(o.Render.Formats) == 0 {
		o.Render.Formats = slices.Clone(DefaultFormats)
	}
	if o.Render.Locale == "" {
		o.Render.Locale = string(drawing.LocaleZH)
	}
	if o.Render.LabelHeight == 0 {
		o.Render.LabelHeight = drawing.DefaultLabelHeight
	}
	if o.Render.LabelGap == 0 {
		o.Render.LabelGap = drawing.DefaultLabelGap
	}
	if o.Render.Precision == nil {
		p := DefaultPrecision
		o.Render.Precision = &p
	}
	if o.Render.Name == "" {
		o.Render.Name = DefaultName
	}
	if o.Render.Scale == 0 {
		o.Render.Scale = DefaultScale
	}
	if o.Render.Margin == 0 {
		o.Render.Margin = svg.DefaultMargin
	}
	if o.Render.DimTextHeight == 0 {
		o.Render.DimTextHeight = dxf.DefaultDimStyle.TextHeight
	}
	if o.Render.DimArrowSize == 0 {
		o.Render.DimArrowSize = dxf.DefaultDimStyle.ArrowSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender checks the render options.
func (o *Options) ValidateForRender() error {
	if err := ValidateFormats(o.Render.Formats); err != nil {
		return err
	}
	if err := ValidateLocale(o.Render.Locale); err != nil {
		return err
	}
	r := o.Render
	if r.LabelHeight < 0 || r.LabelGap < 0 || r.Scale < 0 || r.Margin < 0 || r.DimTextHeight < 0 || r.DimArrowSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render sizes must not be negative")
	}
	if p := o.precision(); p < 0 || p > MaxPrecision {
		return errors.New(errors.ErrCodeInvalidInput, "precision must be between 0 and %d, got %d", MaxPrecision, p)
	}
	if err := errors.ValidateFileStem(o.Render.Name); err != nil {
		return err
	}
	if o.Render.Prefix != "" {
		if err := errors.ValidateFileStem(o.Render.Prefix); err != nil {
			return err
		}
	}
	return nil
}

// LayoutOptions converts the placement options for layout.Build.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Axis:       geom.Axis(o.Layout.Axis),
		Spacing:    o.Layout.Spacing,
		Mode:       layout.Mode(o.Layout.Mode),
		Descending: o.Layout.Descending,
		Profile: []profile.Option{
			profile.WithToothPolicy(profile.ToothPolicy(o.Layout.ToothPolicy)),
			profile.WithTolerance(o.Layout.Tolerance),
		},
	}
}

// DrawOptions converts the render options for drawing.Draw.
func (o *Options) DrawOptions() drawing.Options {
	return drawing.Options{
		Label: drawing.LabelOptions{
			Locale: drawing.Locale(o.Render.Locale),
			Height: o.Render.LabelHeight,
			Gap:    o.Render.LabelGap,
			Axis:   geom.Axis(o.Layout.Axis),
		},
		Annotate:     []annotate.Option{annotate.WithPrecision(o.precision())},
		NoDimensions: o.Render.NoDimensions,
	}
}

// ArtifactKeyOpts returns the cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:       format,
		Split:        o.Render.Split,
		Locale:       o.Render.Locale,
		LabelHeight:  o.Render.LabelHeight,
		LabelGap:     o.Render.LabelGap,
		NoDimensions: o.Render.NoDimensions,
		Precision:    o.precision(),
	}
	switch format {
	case FormatSVG:
		k.Scale = o.Render.Scale
		k.Title = o.Render.Title
		k.Margin = o.Render.Margin
	case FormatDXF, FormatScript:
		k.DimTextHeight = o.Render.DimTextHeight
		k.DimArrowSize = o.Render.DimArrowSize
	}
	return k
}

// precision returns the label precision, DefaultPrecision when unset.
func (o *Options) precision() int {
	if o.Render.Precision == nil {
		return DefaultPrecision
	}
	return *o.Render.Precision
}

// inputHash identifies the placed batch: the profiles and every layout
// option.
func (o *Options) inputHash() (string, error) {
	return cache.HashJSON(struct {
		Layout   LayoutOptions    `json:"layout"`
		Profiles []profile.Params `json:"profiles"`
	}{o.Layout, o.Profiles})
}
