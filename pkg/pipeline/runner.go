package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/sawtooth/pkg/cache"
	"github.com/matzehuels/sawtooth/pkg/drawing"
	"github.com/matzehuels/sawtooth/pkg/observability"
)

// Runner executes batches with artifact caching.
//
// The Runner holds no per-batch state, so the HTTP server shares one Runner
// across concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the default keyer and a nil logger selects log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute lays out the batch and renders every requested format.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	result := &Result{RunID: uuid.New()}
	logger = logger.With("run", result.RunID.String()[:8])

	res, elapsed, err := BuildLayout(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	result.Layout = res
	result.Stats = Stats{
		Profiles:   len(opts.Profiles),
		Placed:     len(res.Placed),
		Skipped:    len(res.Skipped),
		LayoutTime: elapsed,
	}
	logger.Info("placed profiles",
		"placed", len(res.Placed),
		"skipped", len(res.Skipped),
		"duration", elapsed)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Render.Formats)
	start := time.Now()
	err = r.render(ctx, opts, result, logger)
	result.Stats.RenderTime = time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Render.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}

	logger.Info("rendered outputs",
		"formats", opts.Render.Formats,
		"artifacts", len(result.Artifacts),
		"cached", len(result.CacheInfo.Hits),
		"duration", result.Stats.RenderTime)
	return result, nil
}

func (r *Runner) render(ctx context.Context, opts Options, result *Result, logger *log.Logger) error {
	layoutKey := ""
	if h, err := opts.inputHash(); err == nil {
		layoutKey = r.Keyer.LayoutKey(h)
	} else {
		logger.Debug("caching disabled for batch", "error", err)
	}

	for _, format := range opts.Render.Formats {
		if err := ctx.Err(); err != nil {
			return err
		}

		var key string
		if layoutKey != "" {
			key = r.Keyer.ArtifactKey(layoutKey, opts.ArtifactKeyOpts(format))
		}
		if parts, ok := r.lookup(ctx, key, opts.Refresh); ok {
			result.Artifacts = append(result.Artifacts, opts.artifacts(format, parts)...)
			result.CacheInfo.Hits = append(result.CacheInfo.Hits, format)
			logger.Debug("cache hit", "format", format)
			continue
		}

		parts, err := renderParts(ctx, format, result.Layout, opts, result.RunID)
		if err != nil {
			return err
		}
		result.Artifacts = append(result.Artifacts, opts.artifacts(format, parts)...)
		result.CacheInfo.Misses = append(result.CacheInfo.Misses, format)
		r.store(ctx, key, parts, logger)
	}
	return nil
}

func (r *Runner) lookup(ctx context.Context, key string, refresh bool) ([]part, bool) {
	if key == "" || refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return nil, false
	}
	var parts []part
	if err := json.Unmarshal(data, &parts); err != nil {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	return parts, true
}

func (r *Runner) store(ctx context.Context, key string, parts []part, logger *log.Logger) {
	if key == "" {
		return
	}
	data, err := json.Marshal(parts)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		logger.Debug("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "artifact", len(data))
}

// Stream lays out the batch and sends it to a live drawing session. Nothing
// is cached. A session failure aborts the batch; entities already accepted
// by the session stay there.
func (r *Runner) Stream(ctx context.Context, opts Options, sess drawing.Session) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{RunID: uuid.New()}
	logger := opts.Logger.With("run", result.RunID.String()[:8])

	res, elapsed, err := BuildLayout(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	result.Layout = res
	result.Stats = Stats{
		Profiles:   len(opts.Profiles),
		Placed:     len(res.Placed),
		Skipped:    len(res.Skipped),
		LayoutTime: elapsed,
	}

	start := time.Now()
	err = drawing.Draw(ctx, sess, res.Placed, opts.DrawOptions())
	result.Stats.RenderTime = time.Since(start)
	if err != nil {
		return nil, err
	}
	logger.Info("streamed profiles", "placed", len(res.Placed), "duration", result.Stats.RenderTime)
	return result, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
