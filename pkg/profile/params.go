package profile

import (
	"fmt"
	"math"

	"github.com/matzehuels/sawtooth/pkg/errors"
)

// Params are the six generating parameters of one sawtooth profile.
//
// Field tags use the single-letter names from the shop drawings so batch files
// stay readable: a (step rise), b (step run), c (right excess), d (left
// excess), h (total height), n (tooth count).
type Params struct {
	Rise        float64 `json:"a" toml:"a" yaml:"a"`
	Run         float64 `json:"b" toml:"b" yaml:"b"`
	RightExcess float64 `json:"c" toml:"c" yaml:"c"`
	LeftExcess  float64 `json:"d" toml:"d" yaml:"d"`
	Height      float64 `json:"h" toml:"h" yaml:"h"`
	Teeth       int     `json:"n" toml:"n" yaml:"n"`
}

// String formats the parameters in their a/b/c/d/h/n order.
func (p Params) String() string {
	return fmt.Sprintf("a=%g b=%g c=%g d=%g h=%g n=%d",
		p.Rise, p.Run, p.RightExcess, p.LeftExcess, p.Height, p.Teeth)
}

// Angles returns angleA = atan(a/b) and its complement angleB.
func (p Params) Angles() (angleA, angleB float64) {
	angleA = math.Atan(p.Rise / p.Run)
	return angleA, math.Pi/2 - angleA
}

// EffectiveTeeth returns the number of teeth generated under policy.
func (p Params) EffectiveTeeth(policy ToothPolicy) int {
	n := p.Teeth
	if policy == ToothCompensate {
		if p.RightExcess == 0 {
			n++
		}
		if p.LeftExcess == 0 {
			n++
		}
	}
	return n
}

// Validate checks the field ranges. Every failure is reported as a
// DEGENERATE error: the profile cannot be built, but a batch containing it
// can continue.
func (p Params) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"a", p.Rise}, {"b", p.Run}, {"c", p.RightExcess}, {"d", p.LeftExcess}, {"h", p.Height},
	}
	for _, f := range fields {
		if err := errors.ValidateFinite(f.name, f.v); err != nil {
			return degenerate("%s", errors.UserMessage(err))
		}
	}

	switch {
	case p.Rise == 0 || p.Run == 0:
		return degenerate("step rise and run must be non-zero (a=%g, b=%g)", p.Rise, p.Run)
	case p.Rise < 0 || p.Run < 0:
		return degenerate("step rise and run must be positive (a=%g, b=%g)", p.Rise, p.Run)
	case p.RightExcess < 0 || p.LeftExcess < 0:
		return degenerate("excess lengths cannot be negative (c=%g, d=%g)", p.RightExcess, p.LeftExcess)
	case p.Teeth < 1:
		return degenerate("tooth count must be at least 1, got %d", p.Teeth)
	}
	return nil
}

func degenerate(format string, args ...any) error {
	return errors.New(errors.ErrCodeDegenerate, format, args...)
}
