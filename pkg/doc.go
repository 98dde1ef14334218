// Package pkg provides the core libraries of sawtooth, a generator for
// sawtooth stair-stringer profiles.
//
// # Overview
//
// A stringer profile is the closed outline of a board cut into n teeth, one
// per stair step, with optional stubs left and right and a flat top at height
// h. Six parameters describe it: rise a, run b, right excess c, left excess
// d, height h and tooth count n. Sawtooth builds the outline, stacks a batch
// of profiles in one drawing, derives a dimension for every generating
// parameter and writes the result to a drawing sink.
//
// # Architecture
//
// The typical data flow:
//
//	parameter tuples (flags, TOML/YAML/JSON batch, HTTP body)
//	         ↓
//	    [profile] construct each outline (degenerate tuples are values)
//	         ↓
//	    [layout] place the outlines along one axis
//	         ↓
//	    [annotate] derive dimensions per placed profile
//	         ↓
//	    [drawing] emit outline, label and dimensions into a Session
//	         ↓
//	DXF, SVG, JSON, command script or a live CAD host
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/sawtooth/pkg/drawing"
//	    "github.com/matzehuels/sawtooth/pkg/drawing/dxf"
//	    "github.com/matzehuels/sawtooth/pkg/layout"
//	    "github.com/matzehuels/sawtooth/pkg/profile"
//	)
//
//	params := []profile.Params{
//	    {Rise: 164.44, Run: 252.22, RightExcess: 30, LeftExcess: 70, Height: 250, Teeth: 10},
//	}
//	res, _ := layout.Build(params, layout.Options{Spacing: 650})
//	doc := dxf.New()
//	_ = drawing.Draw(ctx, doc, res.Placed, drawing.Options{})
//	data, _ := doc.Bytes()
//
// # Main Packages
//
// ## Geometry
//
// [geom] - Points, polygons, bounding boxes and the segment tests used to
// check that outlines are simple.
//
// [profile] - The profile geometry engine. [profile.Construct] validates the
// parameters and returns an immutable outline with its structural vertices.
//
// [layout] - Batch placement at a fixed pitch or by extent, with overlap
// detection and skipped-tuple reporting.
//
// [annotate] - Dimension derivation (d, a, b, c, h and the top span).
//
// ## Drawing
//
// [drawing] - The Session capability interface and the emitter that feeds it.
// Sinks live in subpackages:
//
//   - [drawing/dxf]: R12 ASCII DXF with a red dimension style
//   - [drawing/svg]: SVG preview
//   - [drawing/script]: AutoCAD command script, to a writer or a TCP host
//   - [drawing/record]: in-memory recorder with JSON export
//
// ## Orchestration
//
// [pipeline] - Options, defaults, validation, caching and artifact naming
// shared by the CLI and the HTTP server.
//
// [server] - HTTP API on top of the pipeline.
//
// ## Infrastructure
//
// [cache] - Artifact cache (file, memory, null) and cache keys.
//
// [io] - Batch file decoding (TOML, YAML, JSON) and atomic file output.
//
// [httputil] - Request decoding and error responses of the HTTP API.
//
// [errors] - Error codes shared by every package.
//
// [observability] - Hooks for metrics and tracing.
//
// [buildinfo] - Version information stamped at link time.
package pkg
