package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/pipeline"
)

// batchFlags are the flags shared by every command that reads a batch: the
// profile tuples and the placement options.
type batchFlags struct {
	profiles []string
	layout   pipeline.LayoutOptions
}

func (b *batchFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVarP(&b.profiles, "profile", "p", nil, `profile tuple "a,b,c,d,h,n" (repeatable, appended after file profiles)`)
	f.StringVar(&b.layout.Axis, "axis", "", "stacking axis: y (default), x")
	f.Float64Var(&b.layout.Spacing, "spacing", 0, "pitch (fixed mode) or gap (extent mode), default 1000")
	f.StringVar(&b.layout.Mode, "mode", "", "layout mode: fixed (default), extent")
	f.BoolVar(&b.layout.Descending, "descending", false, "stack toward negative coordinates")
	f.StringVar(&b.layout.ToothPolicy, "tooth-policy", "", "tooth count policy: nominal (default), compensate")
}

// load reads the optional batch file, appends -p tuples and applies the
// flags that were set explicitly.
func (b *batchFlags) load(cmd *cobra.Command, args []string) (pipeline.Options, error) {
	var opts pipeline.Options
	if len(args) > 0 {
		var err error
		if opts, err = pipeline.LoadOptions(args[0]); err != nil {
			return pipeline.Options{}, err
		}
	}

	tuples, err := pipeline.ParseTuples(b.profiles)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts.Profiles = append(opts.Profiles, tuples...)

	f := cmd.Flags()
	if f.Changed("axis") {
		opts.Layout.Axis = b.layout.Axis
	}
	if f.Changed("spacing") {
		// zero means "default" inside a batch file, not on the command line
		if err := errors.ValidateSpacing(b.layout.Spacing); err != nil {
			return pipeline.Options{}, err
		}
		opts.Layout.Spacing = b.layout.Spacing
	}
	if f.Changed("mode") {
		opts.Layout.Mode = b.layout.Mode
	}
	if f.Changed("descending") {
		opts.Layout.Descending = b.layout.Descending
	}
	if f.Changed("tooth-policy") {
		opts.Layout.ToothPolicy = b.layout.ToothPolicy
	}
	return opts, nil
}
