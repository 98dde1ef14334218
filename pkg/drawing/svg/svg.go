// Package svg renders profiles as an SVG preview.
//
// A [Canvas] implements drawing.Session. Entities are buffered until
// [Canvas.WriteTo] or [Canvas.Bytes] renders them, because the viewport is
// only known once every entity has been added. Drawing coordinates (y up)
// are flipped into SVG coordinates (y down) and scaled to integer user units.
package svg

import (
	"bytes"
	"fmt"
	"io"
	"math"

	svgo "github.com/ajstarks/svgo"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/geom"
)

const (
	DefaultScale  = 1.0
	DefaultMargin = 400.0
)

const (
	outlineStyle   = "fill:none;stroke:#222;stroke-width:2;stroke-linejoin:round"
	dimensionStyle = "stroke:#d00;stroke-width:1"
	dimTextStyle   = "fill:#d00;text-anchor:middle;font-family:sans-serif"
	labelStyle     = "fill:#222;font-family:sans-serif"
	arrowSize      = 8.0
	dimTextHeight  = 12.0
)

// Option configures a Canvas.
type Option func(*Canvas)

// WithScale sets the number of SVG user units per drawing unit.
func WithScale(s float64) Option {
	return func(c *Canvas) {
		if s > 0 {
			c.scale = s
		}
	}
}

// WithMargin sets the blank border around the drawing, in drawing units.
func WithMargin(m float64) Option {
	return func(c *Canvas) {
		if m >= 0 {
			c.margin = m
		}
	}
}

// WithTitle sets the document title.
func WithTitle(t string) Option { return func(c *Canvas) { c.title = t } }

type polyline struct {
	pts    []geom.Point
	closed bool
}

type label struct {
	text   string
	at     geom.Point
	height float64
}

// Canvas is an in-memory SVG drawing.
type Canvas struct {
	scale, margin float64
	title         string

	polylines []polyline
	labels    []label
	dims      []annotate.Dimension

	bounds geom.BBox
	empty  bool
}

// New returns an empty canvas.
func New(opts ...Option) *Canvas {
	c := &Canvas{scale: DefaultScale, margin: DefaultMargin, empty: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddPolyline buffers an outline.
func (c *Canvas) AddPolyline(pts []geom.Point, closed bool) error {
	if len(pts) < 2 {
		return fmt.Errorf("polyline needs at least 2 vertices, got %d", len(pts))
	}
	c.grow(pts...)
	c.polylines = append(c.polylines, polyline{append([]geom.Point(nil), pts...), closed})
	return nil
}

// AddText buffers a label.
func (c *Canvas) AddText(text string, at geom.Point, height float64) error {
	if height <= 0 {
		return fmt.Errorf("text height must be positive, got %g", height)
	}
	c.grow(at, at.Add(geom.Pt(height*float64(len([]rune(text))), height)))
	c.labels = append(c.labels, label{text, at, height})
	return nil
}

// AddDimension buffers a dimension.
func (c *Canvas) AddDimension(d annotate.Dimension) error {
	q1, q2 := d.Line()
	c.grow(d.Anchor1, d.Anchor2, q1, q2)
	c.dims = append(c.dims, d)
	return nil
}

func (c *Canvas) grow(pts ...geom.Point) {
	for _, p := range pts {
		box := geom.BBox{Min: p, Max: p}
		if c.empty {
			c.bounds, c.empty = box, false
			continue
		}
		c.bounds = c.bounds.Union(box)
	}
}

// Bytes renders the canvas into memory.
func (c *Canvas) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo renders the canvas to w.
func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	view := c.bounds.Expand(c.margin)
	width := int(math.Ceil(view.Width() * c.scale))
	height := int(math.Ceil(view.Height() * c.scale))

	canvas := svgo.New(cw)
	canvas.Start(max(width, 1), max(height, 1))
	if c.title != "" {
		canvas.Title(c.title)
	}
	canvas.Rect(0, 0, max(width, 1), max(height, 1), "fill:white")

	tr := transform{origin: geom.Pt(view.Min.X, view.Max.Y), scale: c.scale}

	canvas.Gid("profiles")
	for _, p := range c.polylines {
		xs, ys := tr.coords(p.pts)
		if p.closed {
			canvas.Polygon(xs, ys, outlineStyle)
		} else {
			canvas.Polyline(xs, ys, outlineStyle)
		}
	}
	canvas.Gend()

	canvas.Gid("labels")
	for _, l := range c.labels {
		x, y := tr.point(l.at)
		canvas.Text(x, y, l.text, fmt.Sprintf("%s;font-size:%dpx", labelStyle, tr.length(l.height)))
	}
	canvas.Gend()

	canvas.Gid("dimensions")
	for _, d := range c.dims {
		drawDimension(canvas, tr, d)
	}
	canvas.Gend()

	canvas.End()
	return cw.n, cw.err
}

func drawDimension(canvas *svgo.SVG, tr transform, d annotate.Dimension) {
	q1, q2 := d.Line()
	n := d.Normal

	line := func(a, b geom.Point) {
		x1, y1 := tr.point(a)
		x2, y2 := tr.point(b)
		canvas.Line(x1, y1, x2, y2, dimensionStyle)
	}
	line(q1, q2)
	line(d.Anchor1, q1.Add(n.Scale(arrowSize/2)))
	line(d.Anchor2, q2.Add(n.Scale(arrowSize/2)))

	// Architectural ticks instead of filled arrowheads.
	tick := n.Add(q2.Sub(q1).Unit()).Unit().Scale(arrowSize / 2)
	line(q1.Sub(tick), q1.Add(tick))
	line(q2.Sub(tick), q2.Add(tick))

	at := d.TextPosition().Add(n.Scale(dimTextHeight * 0.75))
	x, y := tr.point(at)
	u := q2.Sub(q1).Unit()
	// SVG rotates clockwise with y down, so the drawing angle is negated.
	deg := -math.Atan2(u.Y, u.X) * 180 / math.Pi
	if deg > 90 {
		deg -= 180
	} else if deg < -90 {
		deg += 180
	}
	canvas.Gtransform(fmt.Sprintf("rotate(%.2f %d %d)", deg, x, y))
	canvas.Text(x, y, d.Text(), fmt.Sprintf("%s;font-size:%dpx", dimTextStyle, tr.length(dimTextHeight)))
	canvas.Gend()
}

// transform maps drawing coordinates onto the SVG grid. origin is the
// drawing point that lands on the SVG origin (top-left corner).
type transform struct {
	origin geom.Point
	scale  float64
}

func (t transform) point(p geom.Point) (int, int) {
	return int(math.Round((p.X - t.origin.X) * t.scale)), int(math.Round((t.origin.Y - p.Y) * t.scale))
}

func (t transform) coords(pts []geom.Point) ([]int, []int) {
	xs, ys := make([]int, len(pts)), make([]int, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = t.point(p)
	}
	return xs, ys
}

func (t transform) length(v float64) int {
	return max(int(math.Round(v*t.scale)), 1)
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
