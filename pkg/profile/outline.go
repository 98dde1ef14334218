package profile

import (
	"slices"

	"github.com/matzehuels/sawtooth/pkg/geom"
)

// Outline is the closed vertex ring of one profile together with the indices
// of its structural vertices. It is immutable: accessors return copies and
// Translate produces a new Outline.
//
// Traversal order is A, B (left stub, only when d != 0), the teeth from left
// to right (apex, valley, apex, ...), D, E, F. The ring is counter-clockwise,
// so the body of the profile lies on the left of every edge.
type Outline struct {
	params Params
	teeth  int
	angleA float64
	angleB float64

	points  geom.Polygon
	origin  geom.Point // B, or the implicit origin when there is no left stub
	stub    bool
	apexes  []int
	valleys []int
	d, e, f int
}

// Params returns the parameters the outline was built from.
func (o *Outline) Params() Params { return o.params }

// Teeth returns the number of generated teeth, which differs from
// Params().Teeth under the compensating tooth policy.
func (o *Outline) Teeth() int { return o.teeth }

// Angles returns angleA and angleB in radians.
func (o *Outline) Angles() (float64, float64) { return o.angleA, o.angleB }

// Points returns a copy of the vertex ring.
func (o *Outline) Points() geom.Polygon { return slices.Clone(o.points) }

// Len returns the number of vertices.
func (o *Outline) Len() int { return len(o.points) }

// Bounds returns the bounding box of the outline.
func (o *Outline) Bounds() geom.BBox { return o.points.Bounds() }

// HasLeftStub reports whether vertices A and B are part of the ring.
func (o *Outline) HasLeftStub() bool { return o.stub }

// A returns the top of the left stub. ok is false when d == 0.
func (o *Outline) A() (p geom.Point, ok bool) {
	if !o.stub {
		return geom.Point{}, false
	}
	return o.points[0], true
}

// B returns the foot of the first riser: vertex B, or the traversal origin
// when the profile has no left stub.
func (o *Outline) B() geom.Point { return o.origin }

// Apexes returns the tooth apex vertices from left to right.
func (o *Outline) Apexes() []geom.Point { return o.pick(o.apexes) }

// Valleys returns the valley vertices between consecutive apexes.
func (o *Outline) Valleys() []geom.Point { return o.pick(o.valleys) }

// FirstApex returns the leftmost apex.
func (o *Outline) FirstApex() geom.Point { return o.points[o.apexes[0]] }

// LastApex returns the rightmost apex.
func (o *Outline) LastApex() geom.Point { return o.points[o.apexes[len(o.apexes)-1]] }

// D returns the right stub vertex. It coincides with LastApex when c == 0.
func (o *Outline) D() geom.Point { return o.points[o.d] }

// E returns the top-right closing vertex.
func (o *Outline) E() geom.Point { return o.points[o.e] }

// F returns the top-left closing vertex.
func (o *Outline) F() geom.Point { return o.points[o.f] }

// ApexHeight returns the apex y coordinate relative to the baseline.
func (o *Outline) ApexHeight() float64 { return o.FirstApex().Y - o.origin.Y }

// Translate returns a copy of the outline moved by d.
func (o *Outline) Translate(d geom.Point) *Outline {
	c := *o
	c.points = o.points.Translate(d)
	c.origin = o.origin.Add(d)
	return &c
}

func (o *Outline) pick(idx []int) []geom.Point {
	out := make([]geom.Point, len(idx))
	for i, j := range idx {
		out[i] = o.points[j]
	}
	return out
}
