package geom

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Width returns the horizontal span of the box.
func (b BBox) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical span of the box.
func (b BBox) Height() float64 { return b.Max.Y - b.Min.Y }

// Extent returns the span of the box along a.
func (b BBox) Extent(a Axis) float64 { return b.Max.Component(a) - b.Min.Component(a) }

// Translate returns the box moved by d.
func (b BBox) Translate(d Point) BBox { return BBox{b.Min.Add(d), b.Max.Add(d)} }

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		Min: Point{min(b.Min.X, o.Min.X), min(b.Min.Y, o.Min.Y)},
		Max: Point{max(b.Max.X, o.Max.X), max(b.Max.Y, o.Max.Y)},
	}
}

// Expand returns the box grown by margin on every side.
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		Min: Point{b.Min.X - margin, b.Min.Y - margin},
		Max: Point{b.Max.X + margin, b.Max.Y + margin},
	}
}

// Polygon is a closed ring of vertices. The last vertex connects back to the
// first; the first vertex is not repeated.
type Polygon []Point

// Bounds returns the bounding box of the vertices. An empty polygon yields
// the zero box.
func (pg Polygon) Bounds() BBox {
	if len(pg) == 0 {
		return BBox{}
	}
	b := BBox{Min: pg[0], Max: pg[0]}
	for _, p := range pg[1:] {
		b.Min.X, b.Min.Y = min(b.Min.X, p.X), min(b.Min.Y, p.Y)
		b.Max.X, b.Max.Y = max(b.Max.X, p.X), max(b.Max.Y, p.Y)
	}
	return b
}

// Translate returns a copy of pg moved by d.
func (pg Polygon) Translate(d Point) Polygon {
	out := make(Polygon, len(pg))
	for i, p := range pg {
		out[i] = p.Add(d)
	}
	return out
}

// Edge returns the i-th edge, from vertex i to vertex i+1 (wrapping).
func (pg Polygon) Edge(i int) (Point, Point) {
	return pg[i], pg[(i+1)%len(pg)]
}

// SignedArea returns the shoelace area; positive for counter-clockwise rings.
func (pg Polygon) SignedArea() float64 {
	var s float64
	for i := range pg {
		a, b := pg.Edge(i)
		s += a.Cross(b)
	}
	return s / 2
}

// Contains reports whether p lies strictly inside the polygon (even-odd rule).
// Points on the boundary may report either value.
func (pg Polygon) Contains(p Point) bool {
	in := false
	for i := range pg {
		a, b := pg.Edge(i)
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				in = !in
			}
		}
	}
	return in
}

// IsSimple reports whether the ring has at least three vertices, no repeated
// consecutive vertices and no two non-adjacent edges that touch or cross.
func (pg Polygon) IsSimple() bool {
	n := len(pg)
	if n < 3 {
		return false
	}
	for i := range pg {
		a, b := pg.Edge(i)
		if NearZero(a.Dist(b)) {
			return false
		}
	}
	for i := 0; i < n; i++ {
		a1, a2 := pg.Edge(i)
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := pg.Edge(j)
			if SegmentsIntersect(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

// SegmentsIntersect reports whether the closed segments p1p2 and q1q2 share
// at least one point.
func SegmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

// orient returns the sign of the turn a->b->c, with near-collinear turns
// snapped to zero.
func orient(a, b, c Point) int {
	v := b.Sub(a).Cross(c.Sub(a))
	switch {
	case v > Eps:
		return 1
	case v < -Eps:
		return -1
	}
	return 0
}

func onSegment(a, b, p Point) bool {
	return min(a.X, b.X)-Eps <= p.X && p.X <= max(a.X, b.X)+Eps &&
		min(a.Y, b.Y)-Eps <= p.Y && p.Y <= max(a.Y, b.Y)+Eps
}
