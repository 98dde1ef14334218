// Package annotate derives the dimension annotations drawn next to a placed
// profile.
//
// [Derive] returns, in a fixed order and only when the geometry exists: the
// left stub d, the step rise a, the step run b, the right stub c, the total
// height h and the top span F→E. The a and b dimensions always measure the
// first tooth. Labels show the source parameter with four decimals; the top
// span has no forced label and shows its measured length instead.
//
// Every dimension carries the unit normal pointing away from the profile
// body, so a sink that draws the dimension line at Anchor + Normal*Offset
// never crosses the outline.
package annotate

import (
	"fmt"

	"github.com/matzehuels/sawtooth/pkg/geom"
	"github.com/matzehuels/sawtooth/pkg/layout"
)

// Kind distinguishes how a sink should render a dimension.
type Kind string

const (
	// KindAligned measures the true distance between the anchors, with the
	// dimension line parallel to them.
	KindAligned Kind = "aligned"
	// KindHeight measures the vertical distance between the anchors.
	KindHeight Kind = "height"
	// KindSpan is an aligned dimension without a forced label.
	KindSpan Kind = "span"
)

// Dimension names, one per generating parameter plus the top span.
const (
	NameLeftExcess  = "d"
	NameRise        = "a"
	NameRun         = "b"
	NameRightExcess = "c"
	NameHeight      = "h"
	NameSpan        = "span"
)

// Default clearances between the measured geometry and the dimension line.
const (
	DefaultAlignedOffset = 30.0
	DefaultHeightOffset  = 150.0
	DefaultSpanOffset    = 80.0
	DefaultPrecision     = 4
)

// Dimension describes one annotation.
type Dimension struct {
	Kind    Kind       `json:"kind"`
	Name    string     `json:"name"`
	Anchor1 geom.Point `json:"anchor1"`
	Anchor2 geom.Point `json:"anchor2"`
	// Label is the forced text. Empty means the sink shows the measured value.
	Label string `json:"label,omitempty"`
	// Offset is the distance from the anchors to the dimension line.
	Offset float64 `json:"offset"`
	// Normal is the unit vector pointing away from the profile body.
	Normal geom.Point `json:"normal"`
	// Value is the measured geometric distance between the anchors (the
	// vertical distance for KindHeight).
	Value float64 `json:"value"`
	// Precision is the number of decimals used when formatting Value.
	Precision int `json:"precision"`
}

// Text returns the text a sink should display.
func (d Dimension) Text() string {
	if d.Label != "" {
		return d.Label
	}
	return format(d.Value, d.Precision)
}

// Line returns the endpoints of the dimension line.
func (d Dimension) Line() (geom.Point, geom.Point) {
	shift := d.Normal.Scale(d.Offset)
	return d.Anchor1.Add(shift), d.Anchor2.Add(shift)
}

// TextPosition returns the midpoint of the dimension line.
func (d Dimension) TextPosition() geom.Point {
	p1, p2 := d.Line()
	return p1.Mid(p2)
}

// Option configures Derive.
type Option func(*deriver)

type deriver struct {
	aligned, height, span float64
	precision             int
}

// WithClearance overrides the distance between the geometry and the
// dimension line for aligned, height and span dimensions. Non-positive
// values keep the default.
func WithClearance(aligned, height, span float64) Option {
	return func(d *deriver) {
		if aligned > 0 {
			d.aligned = aligned
		}
		if height > 0 {
			d.height = height
		}
		if span > 0 {
			d.span = span
		}
	}
}

// WithPrecision sets the number of decimals in labels.
func WithPrecision(n int) Option {
	return func(d *deriver) {
		if n >= 0 {
			d.precision = n
		}
	}
}

// Derive returns the dimensions of p in drawing order.
func Derive(p layout.Placed, opts ...Option) []Dimension {
	dv := deriver{
		aligned:   DefaultAlignedOffset,
		height:    DefaultHeightOffset,
		span:      DefaultSpanOffset,
		precision: DefaultPrecision,
	}
	for _, opt := range opts {
		opt(&dv)
	}

	o, params := p.Outline, p.Params
	dims := make([]Dimension, 0, 6)

	if a, ok := o.A(); ok {
		dims = append(dims, dv.alignedDim(NameLeftExcess, a, o.B(), params.LeftExcess, outward(a, o.B())))
	}

	first := o.FirstApex()
	// Without a left stub the ring runs F -> C0 down the first riser line, so
	// the outside lies on the opposite side of B -> C0.
	rise := outward(o.B(), first)
	if !o.HasLeftStub() {
		rise = outward(first, o.B())
	}
	dims = append(dims, dv.alignedDim(NameRise, o.B(), first, params.Rise, rise))

	if valleys := o.Valleys(); len(valleys) > 0 {
		dims = append(dims, dv.alignedDim(NameRun, first, valleys[0], params.Run, outward(first, valleys[0])))
	}

	if last, d := o.LastApex(), o.D(); !geom.NearZero(last.Dist(d)) {
		dims = append(dims, dv.alignedDim(NameRightExcess, last, d, params.RightExcess, outward(last, d)))
	}

	e := o.E()
	base := geom.Pt(e.X, p.Offset.Y)
	top := geom.Pt(e.X, p.Offset.Y+params.Height)
	dims = append(dims, Dimension{
		Kind:      KindHeight,
		Name:      NameHeight,
		Anchor1:   base,
		Anchor2:   top,
		Label:     format(params.Height, dv.precision),
		Offset:    dv.height,
		Normal:    geom.Pt(1, 0),
		Value:     top.Y - base.Y,
		Precision: dv.precision,
	})

	if f := o.F(); !geom.NearZero(f.Dist(e)) {
		dims = append(dims, Dimension{
			Kind:      KindSpan,
			Name:      NameSpan,
			Anchor1:   f,
			Anchor2:   e,
			Offset:    dv.span,
			Normal:    outward(e, f),
			Value:     f.Dist(e),
			Precision: dv.precision,
		})
	}
	return dims
}

func (dv deriver) alignedDim(name string, p1, p2 geom.Point, param float64, normal geom.Point) Dimension {
	return Dimension{
		Kind:      KindAligned,
		Name:      name,
		Anchor1:   p1,
		Anchor2:   p2,
		Label:     format(param, dv.precision),
		Offset:    dv.aligned,
		Normal:    normal,
		Value:     p1.Dist(p2),
		Precision: dv.precision,
	}
}

// outward returns the outside normal of an edge walked from->to in ring
// order. Outlines are counter-clockwise, so that is the right-hand normal.
func outward(from, to geom.Point) geom.Point {
	return to.Sub(from).RightNormal()
}

func format(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}
