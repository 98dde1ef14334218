package dxf

import (
	"math"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/geom"
)

type entity interface {
	write(w *writer)
}

// Color numbers from the AutoCAD color index.
const (
	colorRed   = 1
	colorWhite = 7
)

type polyline struct {
	layer  string
	color  int
	pts    []geom.Point
	closed bool
}

func (p polyline) write(w *writer) {
	w.str(0, "POLYLINE")
	w.str(8, p.layer)
	w.integer(62, p.color)
	w.integer(66, 1)
	w.point(10, 0, 0)
	flags := 0
	if p.closed {
		flags = 1
	}
	w.integer(70, flags)
	for _, pt := range p.pts {
		w.str(0, "VERTEX")
		w.str(8, p.layer)
		w.point(10, pt.X, pt.Y)
	}
	w.str(0, "SEQEND")
	w.str(8, p.layer)
}

type line struct {
	layer  string
	color  int
	p1, p2 geom.Point
}

func (l line) write(w *writer) {
	w.str(0, "LINE")
	w.str(8, l.layer)
	w.integer(62, l.color)
	w.point(10, l.p1.X, l.p1.Y)
	w.point(11, l.p2.X, l.p2.Y)
}

// solid is a filled triangle, used for dimension arrowheads.
type solid struct {
	layer string
	color int
	pts   [3]geom.Point
}

func (s solid) write(w *writer) {
	w.str(0, "SOLID")
	w.str(8, s.layer)
	w.integer(62, s.color)
	w.point(10, s.pts[0].X, s.pts[0].Y)
	w.point(11, s.pts[1].X, s.pts[1].Y)
	w.point(12, s.pts[2].X, s.pts[2].Y)
	// A triangle repeats its third corner as the fourth.
	w.point(13, s.pts[2].X, s.pts[2].Y)
}

type text struct {
	layer    string
	color    int
	value    string
	at       geom.Point
	height   float64
	rotation float64 // degrees
	centered bool
}

func (t text) write(w *writer) {
	w.str(0, "TEXT")
	w.str(8, t.layer)
	w.integer(62, t.color)
	w.point(10, t.at.X, t.at.Y)
	w.real(40, t.height)
	w.str(1, t.value)
	if t.rotation != 0 {
		w.real(50, t.rotation)
	}
	if t.centered {
		// Centered text is positioned by its alignment point.
		w.integer(72, 1)
		w.point(11, t.at.X, t.at.Y)
	}
}

// dimension is the DIMENSION entity. Its graphics live in the anonymous
// block it references.
type dimension struct {
	layer string
	style DimStyle
	block string
	dim   annotate.Dimension
}

// R12 dimension type codes (group 70).
const (
	dimRotated = 0
	dimAligned = 1
)

func (d dimension) write(w *writer) {
	_, q2 := d.dim.Line()
	mid := d.dim.TextPosition()

	w.str(0, "DIMENSION")
	w.str(8, d.layer)
	w.integer(62, d.style.Color)
	w.str(2, d.block)
	w.str(3, d.style.Name)
	w.point(10, q2.X, q2.Y)
	w.point(11, mid.X, mid.Y)
	if d.dim.Kind == annotate.KindHeight {
		w.integer(70, dimRotated)
	} else {
		w.integer(70, dimAligned)
	}
	// An empty override lets the reader show the measurement.
	w.str(1, d.dim.Label)
	w.point(13, d.dim.Anchor1.X, d.dim.Anchor1.Y)
	w.point(14, d.dim.Anchor2.X, d.dim.Anchor2.Y)
	if d.dim.Kind == annotate.KindHeight {
		w.real(50, 90)
	}
}

// dimensionGraphics returns the entities that draw dim: the dimension line,
// two extension lines, two arrowheads and the text.
func dimensionGraphics(dim annotate.Dimension, st DimStyle, layer string) []entity {
	q1, q2 := dim.Line()
	n := dim.Normal
	u := q2.Sub(q1).Unit()
	side := geom.Pt(-u.Y, u.X).Scale(st.ArrowSize / 6)

	out := []entity{
		line{layer, st.Color, q1, q2},
		line{layer, st.Color, dim.Anchor1.Add(n.Scale(st.ExtOffset)), q1.Add(n.Scale(st.ExtExtend))},
		line{layer, st.Color, dim.Anchor2.Add(n.Scale(st.ExtOffset)), q2.Add(n.Scale(st.ExtExtend))},
	}
	if !geom.NearZero(q1.Dist(q2)) {
		b1 := q1.Add(u.Scale(st.ArrowSize))
		b2 := q2.Sub(u.Scale(st.ArrowSize))
		out = append(out,
			solid{layer, st.Color, [3]geom.Point{q1, b1.Add(side), b1.Sub(side)}},
			solid{layer, st.Color, [3]geom.Point{q2, b2.Add(side), b2.Sub(side)}},
		)
	}

	at := dim.TextPosition().Add(n.Scale(st.TextHeight * 0.75))
	out = append(out, text{
		layer:    layer,
		color:    st.Color,
		value:    dim.Text(),
		at:       at,
		height:   st.TextHeight,
		rotation: readableAngle(u),
		centered: true,
	})
	return out
}

// readableAngle returns the direction of u in degrees, flipped so text never
// reads upside down.
func readableAngle(u geom.Point) float64 {
	deg := math.Atan2(u.Y, u.X) * 180 / math.Pi
	const tol = 1e-9
	switch {
	case deg > 90+tol:
		deg -= 180
	case deg <= -90+tol:
		deg += 180
	}
	return deg
}
