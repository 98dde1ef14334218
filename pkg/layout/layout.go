// Package layout places a batch of sawtooth profiles in one drawing space.
//
// [Build] constructs every profile in input order, drops the degenerate ones
// (recording them in [Result.Skipped]) and translates the rest into their
// slots along a single axis. Two placement modes exist:
//
//   - [ModeFixedPitch] (default): the k-th placed profile sits at k*Spacing.
//     The call fails with errors.ErrCodeLayoutOverlap if that pitch would make
//     two consecutive profiles overlap.
//   - [ModeExtent]: each profile starts Spacing past the far edge of the
//     previous one, so profiles of any size never overlap.
//
// Labels refer back to the input data: [Placed.Index] is the 1-based position
// of the tuple in the input slice, not its position in the output.
package layout

import (
	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/geom"
	"github.com/matzehuels/sawtooth/pkg/profile"
)

// Mode selects how the running offset advances between profiles.
type Mode string

const (
	ModeFixedPitch Mode = "fixed"
	ModeExtent     Mode = "extent"
)

// Default values used when Options fields are left zero.
const (
	DefaultAxis    = geom.AxisY
	DefaultMode    = ModeFixedPitch
	DefaultSpacing = 1000.0
)

// Options configures Build.
type Options struct {
	// Axis is the direction profiles are stacked along.
	Axis geom.Axis
	// Spacing is the pitch (fixed mode) or the gap between extents (extent
	// mode). It must be positive.
	Spacing float64
	Mode    Mode
	// Descending stacks profiles toward negative coordinates (downward for
	// the y axis, leftward for x).
	Descending bool
	// Profile options are passed to profile.Construct for every tuple.
	Profile []profile.Option
}

func (o Options) withDefaults() Options {
	if o.Axis == "" {
		o.Axis = DefaultAxis
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	return o
}

// Validate checks the options without touching any profile.
func (o Options) Validate() error {
	o = o.withDefaults()
	if o.Axis != geom.AxisX && o.Axis != geom.AxisY {
		return errors.New(errors.ErrCodeInvalidInput, "invalid layout axis %q (must be x or y)", o.Axis)
	}
	if o.Mode != ModeFixedPitch && o.Mode != ModeExtent {
		return errors.New(errors.ErrCodeInvalidInput, "invalid layout mode %q (must be fixed or extent)", o.Mode)
	}
	return errors.ValidateSpacing(o.Spacing)
}

// Placed is one profile translated into its slot.
type Placed struct {
	// Index is the 1-based ordinal of the tuple in the input slice.
	Index int
	// Outline is the translated outline.
	Outline *profile.Outline
	// Offset is the translation applied to the locally constructed outline.
	Offset geom.Point
	// Params are the source parameters.
	Params profile.Params
}

// Bounds returns the bounding box of the placed outline.
func (p Placed) Bounds() geom.BBox { return p.Outline.Bounds() }

// Skipped records a degenerate tuple that was not placed.
type Skipped struct {
	Index  int
	Params profile.Params
	Err    error
}

// Reason returns the human-readable cause without the error code prefix.
func (s Skipped) Reason() string { return errors.UserMessage(s.Err) }

// Result is the outcome of Build.
type Result struct {
	Placed  []Placed
	Skipped []Skipped
}

// Bounds returns the union of all placed outlines. ok is false when nothing
// was placed.
func (r Result) Bounds() (b geom.BBox, ok bool) {
	for i, p := range r.Placed {
		if i == 0 {
			b = p.Bounds()
			continue
		}
		b = b.Union(p.Bounds())
	}
	return b, len(r.Placed) > 0
}

type built struct {
	index   int
	params  profile.Params
	outline *profile.Outline
}

// Build constructs and places params in input order.
//
// Invalid options (non-positive spacing, unknown axis or mode) and fixed-pitch
// overlap reject the whole batch before anything is placed. Degenerate tuples
// never fail the call; they are reported in Result.Skipped.
func Build(params []profile.Params, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	opts = opts.withDefaults()

	var res Result
	var outlines []built
	for i, p := range params {
		o, err := profile.Construct(p, opts.Profile...)
		if err != nil {
			if errors.IsFatal(err) {
				return Result{}, err
			}
			res.Skipped = append(res.Skipped, Skipped{Index: i + 1, Params: p, Err: err})
			continue
		}
		outlines = append(outlines, built{index: i + 1, params: p, outline: o})
	}

	if opts.Mode == ModeFixedPitch {
		if err := checkPitch(outlines, opts); err != nil {
			return Result{}, err
		}
	}

	acc := fold(outlines, cursor{}, func(c cursor, b built) cursor {
		return c.place(b, opts)
	})
	res.Placed = acc.placed
	return res, nil
}

// cursor is the layout accumulator threaded through the fold. frontier is
// the far edge of the last placed profile along the axis: its maximum when
// ascending, its minimum when descending.
type cursor struct {
	placed   []Placed
	frontier float64
}

func (c cursor) place(b built, opts Options) cursor {
	k := len(c.placed)
	local := b.outline.Bounds()
	sign := 1.0
	if opts.Descending {
		sign = -1
	}

	var shift float64
	switch {
	case opts.Mode == ModeFixedPitch:
		shift = sign * float64(k) * opts.Spacing
	case k == 0:
		shift = 0
	case opts.Descending:
		shift = c.frontier - opts.Spacing - local.Max.Component(opts.Axis)
	default:
		shift = c.frontier + opts.Spacing - local.Min.Component(opts.Axis)
	}

	offset := geom.Along(opts.Axis, shift)
	moved := b.outline.Translate(offset)
	bounds := moved.Bounds()

	next := cursor{
		placed:   append(c.placed, Placed{Index: b.index, Outline: moved, Offset: offset, Params: b.params}),
		frontier: bounds.Max.Component(opts.Axis),
	}
	if opts.Descending {
		next.frontier = bounds.Min.Component(opts.Axis)
	}
	return next
}

// checkPitch rejects a fixed pitch that would let two consecutive profiles
// overlap along the layout axis.
func checkPitch(outlines []built, opts Options) error {
	for k := 1; k < len(outlines); k++ {
		prev, next := outlines[k-1].outline.Bounds(), outlines[k].outline.Bounds()
		need := prev.Max.Component(opts.Axis) - next.Min.Component(opts.Axis)
		if opts.Descending {
			need = next.Max.Component(opts.Axis) - prev.Min.Component(opts.Axis)
		}
		if need-opts.Spacing > geom.Eps {
			return errors.New(errors.ErrCodeLayoutOverlap,
				"spacing %g along %s is too small: profiles %d and %d need at least %.4f",
				opts.Spacing, opts.Axis, outlines[k-1].index, outlines[k].index, need)
		}
	}
	return nil
}

func fold[T, A any](xs []T, acc A, f func(A, T) A) A {
	for _, x := range xs {
		acc = f(acc, x)
	}
	return acc
}
