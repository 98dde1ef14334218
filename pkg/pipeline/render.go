package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/sawtooth/pkg/buildinfo"
	"github.com/matzehuels/sawtooth/pkg/drawing"
	"github.com/matzehuels/sawtooth/pkg/drawing/dxf"
	"github.com/matzehuels/sawtooth/pkg/drawing/record"
	"github.com/matzehuels/sawtooth/pkg/drawing/script"
	"github.com/matzehuels/sawtooth/pkg/drawing/svg"
	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/geom"
	"github.com/matzehuels/sawtooth/pkg/layout"
)

// part is one rendered piece of a format: the whole batch (index 0) or a
// single profile when splitting.
type part struct {
	Index int    `json:"index,omitempty"`
	Data  []byte `json:"data"`
}

func renderParts(ctx context.Context, format string, res layout.Result, opts Options, runID uuid.UUID) ([]part, error) {
	if !opts.Render.Split {
		data, err := renderFormat(ctx, format, res.Placed, res.Skipped, opts, runID)
		if err != nil {
			return nil, err
		}
		return []part{{Data: data}}, nil
	}

	parts := make([]part, 0, len(res.Placed))
	for _, p := range res.Placed {
		data, err := renderFormat(ctx, format, []layout.Placed{p}, nil, opts, runID)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part{Index: p.Index, Data: data})
	}
	return parts, nil
}

func renderFormat(ctx context.Context, format string, placed []layout.Placed, skipped []layout.Skipped, opts Options, runID uuid.UUID) ([]byte, error) {
	dopts := opts.DrawOptions()

	switch format {
	case FormatDXF:
		doc := dxf.New(
			dxf.WithComment(fmt.Sprintf("sawtooth %s run %s", buildinfo.Version, runID)),
			dxf.WithDimStyle(opts.DimStyle()))
		if err := drawing.Draw(ctx, doc, placed, dopts); err != nil {
			return nil, err
		}
		return sinkBytes(doc.Bytes())

	case FormatSVG:
		c := svg.New(
			svg.WithScale(opts.Render.Scale),
			svg.WithMargin(opts.Render.Margin),
			svg.WithTitle(opts.Render.Title))
		if err := drawing.Draw(ctx, c, placed, dopts); err != nil {
			return nil, err
		}
		return sinkBytes(c.Bytes())

	case FormatJSON:
		rec := record.New()
		if err := drawing.Draw(ctx, rec, placed, dopts); err != nil {
			return nil, err
		}
		return sinkBytes(record.RenderJSON(rec,
			record.WithRunID(runID),
			record.WithSkipped(skipped),
			record.WithLayout(geom.Axis(opts.Layout.Axis), opts.Layout.Spacing)))

	case FormatScript:
		var buf bytes.Buffer
		sess := script.New(&buf, script.WithSettings(opts.ScriptSettings()))
		if err := drawing.Draw(ctx, sess, placed, dopts); err != nil {
			return nil, err
		}
		if err := sess.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, ValidateFormat(format)
}

// DimStyle returns the DXF dimension style with the configured text and
// arrow sizes.
func (o *Options) DimStyle() dxf.DimStyle {
	s := dxf.DefaultDimStyle
	if o.Render.DimTextHeight > 0 {
		s.TextHeight = o.Render.DimTextHeight
	}
	if o.Render.DimArrowSize > 0 {
		s.ArrowSize = o.Render.DimArrowSize
	}
	return s
}

// ScriptSettings returns the dimension variables a script session applies
// before its first entity.
func (o *Options) ScriptSettings() script.Settings {
	s := script.DefaultSettings
	if o.Render.DimTextHeight > 0 {
		s.DimTextHeight = o.Render.DimTextHeight
	}
	if o.Render.DimArrowSize > 0 {
		s.DimArrowSize = o.Render.DimArrowSize
	}
	return s
}

func sinkBytes(data []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSinkFailure, err, "render")
	}
	return data, nil
}

// artifacts names the rendered parts.
func (o *Options) artifacts(format string, parts []part) []Artifact {
	out := make([]Artifact, 0, len(parts))
	for _, p := range parts {
		out = append(out, Artifact{
			Name:   o.fileName(format, p.Index),
			Format: format,
			Index:  p.Index,
			Data:   p.Data,
		})
	}
	return out
}

// fileName returns Name.<format> for combined output and Prefix<N>.<format>
// for split output. An empty prefix falls back to Name.
func (o *Options) fileName(format string, index int) string {
	if index == 0 {
		return o.Render.Name + "." + format
	}
	prefix := o.Render.Prefix
	if prefix == "" {
		prefix = o.Render.Name
	}
	return prefix + strconv.Itoa(index) + "." + format
}
