package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sawtooth/pkg/cache"
	"github.com/matzehuels/sawtooth/pkg/pipeline"
	"github.com/matzehuels/sawtooth/pkg/server"
)

type serveOpts struct {
	addr      string
	timeout   time.Duration
	maxBody   int64
	fileCache bool
}

func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:    "127.0.0.1:8080",
		timeout: server.DefaultTimeout,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render pipeline over HTTP",
		Long: `Serve exposes the pipeline as an HTTP API:

  GET  /healthz                 build information
  POST /v1/render?format=dxf    render a batch document (dxf, svg, json, scr)
  POST /v1/layout               placed outlines, dimensions and skipped tuples

Batch documents are JSON, TOML or YAML depending on the Content-Type header.`,
		Example: `  sawtooth serve --addr :8080
  curl -H 'Content-Type: application/toml' --data-binary @stringers.toml \
    'http://127.0.0.1:8080/v1/render?format=svg' > stringers.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cc cache.Cache = cache.NewMemoryCache()
			if opts.fileCache {
				var err error
				if cc, err = c.newCache(false); err != nil {
					return err
				}
			}
			keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:")
			runner := pipeline.NewRunner(cc, keyer, c.Logger)
			defer runner.Close()

			srv := server.New(runner,
				server.WithLogger(c.Logger),
				server.WithTimeout(opts.timeout),
				server.WithMaxBodyBytes(opts.maxBody))
			return srv.ListenAndServe(cmd.Context(), opts.addr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", opts.addr, "listen address")
	f.DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request timeout")
	f.Int64Var(&opts.maxBody, "max-body", 0, "maximum request body size in bytes (default 1 MiB)")
	f.BoolVar(&opts.fileCache, "file-cache", false, "share the on-disk artifact cache instead of an in-memory one")
	return cmd
}
