package profile

import (
	"math"

	"github.com/matzehuels/sawtooth/pkg/geom"
)

// ToothPolicy controls how the tooth count reacts to missing stubs.
type ToothPolicy string

const (
	// ToothNominal generates exactly Params.Teeth teeth.
	ToothNominal ToothPolicy = "nominal"

	// ToothCompensate adds one tooth for each zero stub (c == 0, d == 0) so
	// the rendered tooth count matches the nominal count on the shop floor.
	ToothCompensate ToothPolicy = "compensate"
)

// DefaultTolerance is the threshold below which a trigonometric denominator
// is considered to vanish.
const DefaultTolerance = geom.Eps

// Valid reports whether p names a known policy. The empty policy is valid and
// means ToothNominal.
func (p ToothPolicy) Valid() bool {
	return p == "" || p == ToothNominal || p == ToothCompensate
}

// Option configures Construct.
type Option func(*builder)

type builder struct {
	policy ToothPolicy
	tol    float64
}

// WithToothPolicy selects the tooth-count policy. The default is ToothNominal.
func WithToothPolicy(p ToothPolicy) Option {
	return func(b *builder) {
		if p != "" {
			b.policy = p
		}
	}
}

// WithTolerance overrides the near-zero threshold for sin/tan denominators.
func WithTolerance(tol float64) Option {
	return func(b *builder) {
		if tol > 0 {
			b.tol = tol
		}
	}
}

// Construct builds the outline for p.
//
// It returns a DEGENERATE error (see errors.ErrCodeDegenerate) when the rise
// or run is zero, when a field is out of range, or when sin(angleB) vanishes.
// No partial geometry is ever returned alongside an error.
func Construct(p Params, opts ...Option) (*Outline, error) {
	b := builder{policy: ToothNominal, tol: DefaultTolerance}
	for _, opt := range opts {
		opt(&b)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	angleA, angleB := p.Angles()
	sinA, cosA := math.Sincos(angleA)
	sinB, cosB := math.Sincos(angleB)
	if math.Abs(sinB) < b.tol {
		return nil, degenerate("run/rise ratio %g makes sin(angleB) vanish", p.Run/p.Rise)
	}

	a, c, d, h := p.Rise, p.RightExcess, p.LeftExcess, p.Height
	n := p.EffectiveTeeth(b.policy)

	apexY := sinB * a
	if h <= apexY {
		return nil, degenerate("total height %g must exceed the apex height %.4f", h, apexY)
	}
	if d != 0 && h <= sinA*d {
		return nil, degenerate("total height %g must exceed the left stub top %.4f", h, sinA*d)
	}

	o := &Outline{
		params: p,
		teeth:  n,
		angleA: angleA,
		angleB: angleB,
		points: make(geom.Polygon, 0, 2*n+4),
	}

	if d != 0 {
		o.stub = true
		o.origin = geom.Pt(cosA*d, 0)
		o.points = append(o.points, geom.Pt(0, sinA*d), o.origin)
	}

	f1 := p.Run / sinB
	bx := o.origin.X
	for i := 0; i < n; i++ {
		// Every apex uses the same closed form so their heights are identical.
		o.apexes = append(o.apexes, len(o.points))
		o.points = append(o.points, geom.Pt(bx+cosB*a+float64(i)*f1, apexY))
		if i < n-1 {
			o.valleys = append(o.valleys, len(o.points))
			o.points = append(o.points, geom.Pt(bx+f1*float64(i+1), 0))
		}
	}

	last := o.LastApex()
	if c == 0 {
		o.d = o.apexes[len(o.apexes)-1]
	} else {
		o.d = len(o.points)
		o.points = append(o.points, geom.Pt(cosA*c+last.X, last.Y-sinA*c))
	}

	dv := o.D()
	ex := dv.X
	if tanB := math.Tan(angleB); math.Abs(tanB) >= b.tol {
		ex = dv.X + (h-dv.Y)/tanB
	}
	o.e = len(o.points)
	o.points = append(o.points, geom.Pt(ex, h))

	var fx float64
	if tanA := math.Tan(angleA); math.Abs(tanA) >= b.tol {
		fx = tanA * (h - sinA*d)
	}
	o.f = len(o.points)
	o.points = append(o.points, geom.Pt(fx, h))

	return o, nil
}
