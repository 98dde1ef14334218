package cli

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/geom"
	pkgio "github.com/matzehuels/sawtooth/pkg/io"
	"github.com/matzehuels/sawtooth/pkg/layout"
	"github.com/matzehuels/sawtooth/pkg/pipeline"
)

type inspectOpts struct {
	batch      batchFlags
	dimensions bool
	vertices   bool
	emit       string
}

func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect [batch-file]",
		Short: "Print the derived geometry of a batch without rendering",
		Example: `  sawtooth inspect -p 164.44,252.22,30,70,250,10 --dimensions
  sawtooth inspect stringers.yaml --vertices
  sawtooth inspect -p 164.44,252.22,30,70,250,10 --spacing 650 --emit toml > stringers.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args, &opts)
		},
	}

	opts.batch.register(cmd)
	cmd.Flags().BoolVar(&opts.dimensions, "dimensions", false, "list the dimensions of every profile")
	cmd.Flags().BoolVar(&opts.vertices, "vertices", false, "list the outline vertices of every profile")
	cmd.Flags().StringVar(&opts.emit, "emit", "", "print the resolved batch as toml, yaml or json instead of the tables")
	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, args []string, o *inspectOpts) error {
	opts, err := o.batch.load(cmd, args)
	if err != nil {
		return err
	}
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.emit != "" {
		return pkgio.Encode(c.Out, pkgio.Format(o.emit), opts)
	}

	res, _, err := pipeline.BuildLayout(cmd.Context(), opts, c.Logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.Out, StyleTitle.Render(fmt.Sprintf("%d profiles", len(opts.Profiles))))
	printKeyValue(c.Out, "axis", opts.Layout.Axis)
	printKeyValue(c.Out, "mode", opts.Layout.Mode)
	printKeyValue(c.Out, "spacing", num(opts.Layout.Spacing))
	if b, ok := res.Bounds(); ok {
		printKeyValue(c.Out, "extent", fmt.Sprintf("%s × %s", num(b.Width()), num(b.Height())))
	}
	fmt.Fprintln(c.Out, profileTable(res))

	for _, s := range res.Skipped {
		printWarning(c.Out, "profile %d skipped: %s", s.Index, s.Reason())
	}

	draw := opts.DrawOptions()
	for _, p := range res.Placed {
		if o.dimensions {
			fmt.Fprintln(c.Out, StyleTitle.Render(fmt.Sprintf("profile %d dimensions", p.Index)))
			fmt.Fprintln(c.Out, dimensionTable(annotate.Derive(p, draw.Annotate...)))
		}
		if o.vertices {
			fmt.Fprintln(c.Out, StyleTitle.Render(fmt.Sprintf("profile %d vertices", p.Index)))
			printVertices(c.Out, p.Outline.Points())
		}
	}
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// profileTable lists every input tuple, placed or skipped, in input order.
func profileTable(res layout.Result) *table.Table {
	type row struct {
		index int
		cells []string
	}
	rows := make([]row, 0, len(res.Placed)+len(res.Skipped))
	skipped := map[int]bool{}
	for _, p := range res.Placed {
		angleA, _ := p.Outline.Angles()
		rows = append(rows, row{p.Index, []string{
			strconv.Itoa(p.Index),
			num(p.Params.Rise), num(p.Params.Run), num(p.Params.RightExcess), num(p.Params.LeftExcess), num(p.Params.Height),
			strconv.Itoa(p.Params.Teeth),
			strconv.Itoa(p.Outline.Teeth()),
			fmt.Sprintf("%.2f°", angleA*180/math.Pi),
			fixed(p.Outline.ApexHeight()),
			point(p.Offset),
		}})
	}
	for _, s := range res.Skipped {
		skipped[s.Index] = true
		rows = append(rows, row{s.Index, []string{
			strconv.Itoa(s.Index),
			num(s.Params.Rise), num(s.Params.Run), num(s.Params.RightExcess), num(s.Params.LeftExcess), num(s.Params.Height),
			strconv.Itoa(s.Params.Teeth),
			"-", "-", "-", "skipped",
		}})
	}
	slices.SortFunc(rows, func(a, b row) int { return cmp.Compare(a.index, b.index) })

	t := newTable("#", "a", "b", "c", "d", "h", "n", "teeth", "angle A", "apex", "offset")
	for _, r := range rows {
		t.Row(r.cells...)
	}
	return t.StyleFunc(func(r, col int) lipgloss.Style {
		if r == table.HeaderRow {
			return styleHeader
		}
		base := lipgloss.NewStyle().Padding(0, 1)
		if r >= 0 && r < len(rows) && skipped[rows[r].index] {
			return base.Foreground(colorYellow)
		}
		if col == 0 {
			return base.Foreground(colorCyan)
		}
		return base
	})
}

func dimensionTable(dims []annotate.Dimension) *table.Table {
	t := newTable("name", "kind", "from", "to", "value", "text")
	for _, d := range dims {
		t.Row(d.Name, string(d.Kind), point(d.Anchor1), point(d.Anchor2), fixed(d.Value), d.Text())
	}
	return t.StyleFunc(func(r, col int) lipgloss.Style {
		if r == table.HeaderRow {
			return styleHeader
		}
		base := lipgloss.NewStyle().Padding(0, 1)
		if col == 5 {
			return base.Inherit(styleDimension)
		}
		return base
	})
}

func printVertices(w io.Writer, pts geom.Polygon) {
	for i, p := range pts {
		fmt.Fprintf(w, "  %s %s\n", StyleDim.Render(fmt.Sprintf("%3d", i)), StyleValue.Render(point(p)))
	}
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func fixed(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func point(p geom.Point) string { return "(" + fixed(p.X) + ", " + fixed(p.Y) + ")" }
