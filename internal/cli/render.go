package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sawtooth/pkg/drawing/script"
	"github.com/matzehuels/sawtooth/pkg/pipeline"
)

// renderOpts holds the command-line flags of the render command.
type renderOpts struct {
	batch     batchFlags
	render    pipeline.RenderOptions
	precision int
	formats   string
	output    string
	clean     bool
	noCache   bool
	refresh   bool
	host      string
	retries   int
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{output: ".", retries: 5}

	cmd := &cobra.Command{
		Use:   "render [batch-file]",
		Short: "Render a batch of stringer profiles to DXF, SVG, JSON or script files",
		Long: `Render lays out every profile of a batch and writes the drawing with its
dimensions. The batch comes from a TOML, YAML or JSON file, from -p tuples, or
both. Flags override values from the file.

With --host the drawing is streamed as command-script lines to a CAD host
listening on a TCP address, or to stdout with --host -.`,
		Example: `  sawtooth render -p 164.44,252.22,30,70,250,10 -p 150,250,20,40,250,3 --spacing 650
  sawtooth render stringers.toml -f dxf,svg --split --prefix lmx -o out --clean
  sawtooth render stringers.toml --host 127.0.0.1:7000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args, &opts)
		},
	}

	opts.batch.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): dxf (default), svg, json, scr (comma-separated)")
	f.StringVarP(&opts.output, "output", "o", opts.output, "output directory")
	f.BoolVar(&opts.clean, "clean", false, "remove existing files from the output directory first")
	f.BoolVar(&opts.render.Split, "split", false, "write one file per profile")
	f.StringVar(&opts.render.Prefix, "prefix", "", "file name prefix for --split (default: --name)")
	f.StringVar(&opts.render.Name, "name", "", "file name of combined output (default stringers)")
	f.StringVar(&opts.render.Locale, "locale", "", "label locale: zh (default, \"1号\"), en (\"No. 1\")")
	f.Float64Var(&opts.render.LabelHeight, "label-height", 0, "label text height (default 60)")
	f.IntVar(&opts.precision, "precision", pipeline.DefaultPrecision, "decimals in dimension labels")
	f.BoolVar(&opts.render.NoDimensions, "no-dimensions", false, "draw outlines and labels only")
	f.Float64Var(&opts.render.Scale, "scale", 0, "SVG pixels per drawing unit (default 1)")
	f.StringVar(&opts.render.Title, "title", "", "SVG document title")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	f.BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")
	f.StringVar(&opts.host, "host", "", `stream to a CAD host at this TCP address ("-" for stdout)`)
	f.IntVar(&opts.retries, "host-retries", opts.retries, "connection attempts for --host")

	return cmd
}

// parseFormats splits a comma-separated format list. Empty means the
// pipeline default.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// applyRenderFlags copies the explicitly set render flags over the batch
// file values.
func applyRenderFlags(cmd *cobra.Command, opts *pipeline.Options, ro *renderOpts) {
	f := cmd.Flags()
	r := &opts.Render
	if formats := parseFormats(ro.formats); len(formats) > 0 {
		r.Formats = formats
	}
	if f.Changed("split") {
		r.Split = ro.render.Split
	}
	if f.Changed("prefix") {
		r.Prefix = ro.render.Prefix
	}
	if f.Changed("name") {
		r.Name = ro.render.Name
	}
	if f.Changed("locale") {
		r.Locale = ro.render.Locale
	}
	if f.Changed("label-height") {
		r.LabelHeight = ro.render.LabelHeight
	}
	if f.Changed("precision") {
		p := ro.precision
		r.Precision = &p
	}
	if f.Changed("no-dimensions") {
		r.NoDimensions = ro.render.NoDimensions
	}
	if f.Changed("scale") {
		r.Scale = ro.render.Scale
	}
	if f.Changed("title") {
		r.Title = ro.render.Title
	}
}

func (c *CLI) runRender(cmd *cobra.Command, args []string, ro *renderOpts) error {
	opts, err := ro.batch.load(cmd, args)
	if err != nil {
		return err
	}
	applyRenderFlags(cmd, &opts, ro)
	opts.Refresh = ro.refresh
	opts.Logger = c.Logger

	if ro.host != "" {
		return c.runStream(cmd.Context(), opts, ro)
	}

	runner, err := c.newRunner(ro.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Execute(cmd.Context(), opts)
	if err != nil {
		return err
	}
	paths, err := pipeline.WriteArtifacts(ro.output, res.Artifacts, ro.clean)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d files", len(paths)))

	printSuccess(c.Out, "Rendered %d of %d profiles", res.Stats.Placed, res.Stats.Profiles)
	printStats(c.Out, res.Stats.Placed, res.Stats.Skipped, res.CacheInfo.RenderHit())
	for _, s := range res.Layout.Skipped {
		printWarning(c.Out, "profile %d skipped: %s", s.Index, s.Reason())
	}
	for _, p := range paths {
		printFile(c.Out, p)
	}
	return nil
}

// runStream sends the drawing to a live CAD host. Entities already sent stay
// in the host drawing when the stream fails.
func (c *CLI) runStream(ctx context.Context, opts pipeline.Options, ro *renderOpts) error {
	var sess *script.Session
	if ro.host == "-" {
		sess = script.New(c.Out, script.WithSettings(opts.ScriptSettings()))
	} else {
		sp := newSpinner(c.errOut, "Connecting to CAD host at "+ro.host).start()
		var err error
		sess, err = script.DialRetry(ctx, "tcp", ro.host, ro.retries, 500*time.Millisecond,
			script.WithSettings(opts.ScriptSettings()))
		sp.stop()
		if err != nil {
			return err
		}
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	res, err := runner.Stream(ctx, opts, sess)
	if cerr := sess.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	c.Logger.Info("streamed drawing", "profiles", res.Stats.Placed, "entities", sess.Count())
	if ro.host != "-" {
		printSuccess(c.Out, "Sent %d profiles to %s", res.Stats.Placed, ro.host)
		printStats(c.Out, res.Stats.Placed, res.Stats.Skipped, false)
	}
	return nil
}
