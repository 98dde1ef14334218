package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sawtooth/pkg/layout"
	"github.com/matzehuels/sawtooth/pkg/observability"
)

// BuildLayout places the profiles of opts. Skipped tuples are logged as
// warnings and reported to the pipeline hooks; they never fail the call.
func BuildLayout(ctx context.Context, opts Options, logger *log.Logger) (layout.Result, time.Duration, error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(opts.Profiles))

	start := time.Now()
	res, err := layout.Build(opts.Profiles, opts.LayoutOptions())
	elapsed := time.Since(start)
	hooks.OnLayoutComplete(ctx, len(res.Placed), len(res.Skipped), elapsed, err)
	if err != nil {
		return layout.Result{}, elapsed, err
	}

	for _, s := range res.Skipped {
		logger.Warn("skipped profile", "index", s.Index, "params", s.Params.String(), "reason", s.Reason())
		hooks.OnProfileSkipped(ctx, s.Index, s.Reason())
	}
	logger.Debug("layout",
		"axis", opts.Layout.Axis,
		"mode", opts.Layout.Mode,
		"spacing", opts.Layout.Spacing,
		"descending", opts.Layout.Descending)
	return res, elapsed, nil
}
