// Package drawing hands placed profiles to an output sink.
//
// # Overview
//
// A [Session] is the narrow capability a sink exposes: add a polyline, a
// dimension and a text entity. Everything upstream (profile construction,
// layout, annotation) is independent of which session is active. This
// package ships the emission logic; concrete sessions live in the
// subpackages:
//
//   - dxf: R12 ASCII exchange file, written atomically
//   - svg: SVG preview
//   - script: command script streamed to a running CAD host
//   - record: in-memory recorder with JSON export
//
// # Emission
//
// [Emit] writes one profile: its closed outline, its ordinal label and its
// dimensions, in that order. [Draw] emits a whole layout, deriving the
// dimensions of each profile on the way.
//
//	res, _ := layout.Build(params, layout.Options{Spacing: 650})
//	doc := dxf.New()
//	if err := drawing.Draw(ctx, doc, res.Placed, drawing.Options{}); err != nil {
//	    return err
//	}
//	data, err := doc.Bytes()
//
// Any error returned by a session is treated as fatal: emission stops and
// the error is returned wrapped with errors.ErrCodeSinkFailure. Entities that
// a live session already accepted are not rolled back.
package drawing

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/geom"
	"github.com/matzehuels/sawtooth/pkg/layout"
)

// Session is implemented by every output sink.
type Session interface {
	// AddPolyline adds a polyline through pts. closed connects the last
	// vertex back to the first.
	AddPolyline(pts []geom.Point, closed bool) error
	// AddDimension adds a dimension entity.
	AddDimension(d annotate.Dimension) error
	// AddText adds a single-line text entity with its insertion point at at.
	AddText(text string, at geom.Point, height float64) error
}

// Locale selects the label wording.
type Locale string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
)

// Label defaults.
const (
	DefaultLabelHeight = 60.0
	DefaultLabelGap    = 250.0
)

// LabelOptions controls the ordinal label drawn next to each profile.
type LabelOptions struct {
	// Locale selects "<N>号" (zh, default) or "No. N" (en).
	Locale Locale
	// Height is the text height.
	Height float64
	// Gap is the distance between the profile and the label.
	Gap float64
	// Axis is the layout axis. Labels sit left of profiles stacked along y
	// and below profiles stacked along x.
	Axis geom.Axis
}

func (o LabelOptions) withDefaults() LabelOptions {
	if o.Locale == "" {
		o.Locale = LocaleZH
	}
	if o.Height <= 0 {
		o.Height = DefaultLabelHeight
	}
	if o.Gap <= 0 {
		o.Gap = DefaultLabelGap
	}
	if o.Axis == "" {
		o.Axis = layout.DefaultAxis
	}
	return o
}

// Label formats the ordinal of a profile.
func Label(index int, locale Locale) string {
	if locale == LocaleEN {
		return fmt.Sprintf("No. %d", index)
	}
	return fmt.Sprintf("%d号", index)
}

// LabelPosition returns the insertion point of the label for p.
func LabelPosition(p layout.Placed, opts LabelOptions) geom.Point {
	opts = opts.withDefaults()
	b := p.Bounds()
	if opts.Axis == geom.AxisX {
		return geom.Pt(b.Min.X, b.Min.Y-opts.Gap-opts.Height)
	}
	return geom.Pt(b.Min.X-opts.Gap, p.Offset.Y+p.Params.Height/2)
}

// Emit writes one placed profile and its dimensions to sess.
func Emit(sess Session, p layout.Placed, dims []annotate.Dimension, opts LabelOptions) error {
	opts = opts.withDefaults()
	if err := sess.AddPolyline(p.Outline.Points(), true); err != nil {
		return sinkFailure(err, p.Index, "outline")
	}
	if err := sess.AddText(Label(p.Index, opts.Locale), LabelPosition(p, opts), opts.Height); err != nil {
		return sinkFailure(err, p.Index, "label")
	}
	for _, d := range dims {
		if err := sess.AddDimension(d); err != nil {
			return sinkFailure(err, p.Index, "dimension "+d.Name)
		}
	}
	return nil
}

// Options configures Draw.
type Options struct {
	Label    LabelOptions
	Annotate []annotate.Option
	// NoDimensions emits outlines and labels only.
	NoDimensions bool
}

// Draw emits every placed profile in order. It checks ctx between profiles
// and stops at the first session error.
func Draw(ctx context.Context, sess Session, placed []layout.Placed, opts Options) error {
	for _, p := range placed {
		if err := ctx.Err(); err != nil {
			return err
		}
		var dims []annotate.Dimension
		if !opts.NoDimensions {
			dims = annotate.Derive(p, opts.Annotate...)
		}
		if err := Emit(sess, p, dims, opts.Label); err != nil {
			return err
		}
	}
	return nil
}

func sinkFailure(err error, index int, what string) error {
	if errors.GetCode(err) == errors.ErrCodeSinkFailure {
		return err
	}
	return errors.Wrap(errors.ErrCodeSinkFailure, err, "profile %d: add %s", index, what)
}

// EncodeText escapes characters outside ASCII as \U+XXXX, the form AutoCAD
// accepts in R12 drawings and command scripts. Control characters are
// dropped so a value always fits on one line; characters outside the Basic
// Multilingual Plane become '?'.
func EncodeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x20:
			continue
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xFFFF:
			fmt.Fprintf(&b, `\U+%04X`, r)
		default:
			b.WriteRune('?')
		}
	}
	return b.String()
}
