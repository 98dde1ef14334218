// Package dxf writes profiles as an AutoCAD R12 ASCII DXF document.
//
// A [Document] implements drawing.Session and buffers entities in memory.
// Outlines become closed POLYLINE entities, labels become TEXT and every
// dimension becomes a DIMENSION entity whose graphics live in a generated
// anonymous block (*D1, *D2, ...), so readers that do not regenerate
// dimensions still display them. Dimensions use the [DefaultDimStyle] red
// dimension style unless [WithDimStyle] says otherwise.
//
// [Document.Bytes] and [Document.WriteTo] render the buffered entities;
// publishing the result on disk is left to the caller.
package dxf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/geom"
)

// Layer names used for the generated entities.
const (
	LayerProfile   = "PROFILE"
	LayerDimension = "DIMENSION"
	LayerLabel     = "LABEL"
)

// DimStyle holds the dimension style written to the DIMSTYLE table and used
// for the generated dimension graphics.
type DimStyle struct {
	Name       string
	Color      int     // DIMCLRD/DIMCLRE/DIMCLRT
	TextHeight float64 // DIMTXT
	ArrowSize  float64 // DIMASZ
	ExtExtend  float64 // DIMEXE
	ExtOffset  float64 // DIMEXO
}

// DefaultDimStyle is the red dimension style used on the shop drawings.
var DefaultDimStyle = DimStyle{
	Name:       "RED_DIM",
	Color:      colorRed,
	TextHeight: 12,
	ArrowSize:  8,
	ExtExtend:  5,
	ExtOffset:  3,
}

// Option configures a Document.
type Option func(*Document)

// WithDimStyle replaces the dimension style.
func WithDimStyle(s DimStyle) Option { return func(d *Document) { d.style = s } }

// WithComment adds a 999 comment line at the top of the file.
func WithComment(c string) Option {
	return func(d *Document) { d.comments = append(d.comments, c) }
}

// Document is an in-memory DXF drawing.
type Document struct {
	style    DimStyle
	comments []string
	entities []entity
	blocks   []block
	bounds   geom.BBox
	empty    bool
}

type block struct {
	name     string
	entities []entity
}

// New returns an empty document.
func New(opts ...Option) *Document {
	d := &Document{style: DefaultDimStyle, empty: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddPolyline adds a polyline on the profile layer.
func (d *Document) AddPolyline(pts []geom.Point, closed bool) error {
	if len(pts) < 2 {
		return fmt.Errorf("polyline needs at least 2 vertices, got %d", len(pts))
	}
	d.grow(pts...)
	d.entities = append(d.entities, polyline{
		layer:  LayerProfile,
		color:  colorWhite,
		pts:    append([]geom.Point(nil), pts...),
		closed: closed,
	})
	return nil
}

// AddText adds a left-aligned TEXT entity on the label layer.
func (d *Document) AddText(s string, at geom.Point, height float64) error {
	if height <= 0 {
		return fmt.Errorf("text height must be positive, got %g", height)
	}
	d.grow(at)
	d.entities = append(d.entities, text{
		layer:  LayerLabel,
		color:  colorWhite,
		value:  s,
		at:     at,
		height: height,
	})
	return nil
}

// AddDimension adds a DIMENSION entity and its anonymous block.
func (d *Document) AddDimension(dim annotate.Dimension) error {
	name := fmt.Sprintf("*D%d", len(d.blocks)+1)
	q1, q2 := dim.Line()
	d.grow(dim.Anchor1, dim.Anchor2, q1, q2)
	d.blocks = append(d.blocks, block{
		name:     name,
		entities: dimensionGraphics(dim, d.style, LayerDimension),
	})
	d.entities = append(d.entities, dimension{
		layer: LayerDimension,
		style: d.style,
		block: name,
		dim:   dim,
	})
	return nil
}

// Len returns the number of top-level entities.
func (d *Document) Len() int { return len(d.entities) }

func (d *Document) grow(pts ...geom.Point) {
	for _, p := range pts {
		if d.empty {
			d.bounds = geom.BBox{Min: p, Max: p}
			d.empty = false
			continue
		}
		d.bounds = d.bounds.Union(geom.BBox{Min: p, Max: p})
	}
}

// WriteTo writes the complete document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	dw := newWriter(w)
	for _, c := range d.comments {
		dw.str(999, c)
	}
	d.writeHeader(dw)
	d.writeTables(dw)
	d.writeBlocks(dw)

	dw.str(0, "SECTION")
	dw.str(2, "ENTITIES")
	for _, e := range d.entities {
		e.write(dw)
	}
	dw.str(0, "ENDSEC")
	dw.str(0, "EOF")

	err := dw.flush()
	return dw.n, err
}

// Bytes renders the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) writeHeader(w *writer) {
	w.str(0, "SECTION")
	w.str(2, "HEADER")
	w.str(9, "$ACADVER")
	w.str(1, "AC1009")
	w.str(9, "$DIMSTYLE")
	w.str(2, d.style.Name)
	w.str(9, "$EXTMIN")
	w.point(10, d.bounds.Min.X, d.bounds.Min.Y)
	w.str(9, "$EXTMAX")
	w.point(10, d.bounds.Max.X, d.bounds.Max.Y)
	w.str(0, "ENDSEC")
}

func (d *Document) writeTables(w *writer) {
	w.str(0, "SECTION")
	w.str(2, "TABLES")

	table(w, "LTYPE", 1)
	w.str(0, "LTYPE")
	w.str(2, "CONTINUOUS")
	w.integer(70, 0)
	w.str(3, "Solid line")
	w.integer(72, 65)
	w.integer(73, 0)
	w.real(40, 0)
	w.str(0, "ENDTAB")

	layers := []struct {
		name  string
		color int
	}{
		{"0", colorWhite},
		{LayerProfile, colorWhite},
		{LayerDimension, d.style.Color},
		{LayerLabel, colorWhite},
	}
	table(w, "LAYER", len(layers))
	for _, l := range layers {
		w.str(0, "LAYER")
		w.str(2, l.name)
		w.integer(70, 0)
		w.integer(62, l.color)
		w.str(6, "CONTINUOUS")
	}
	w.str(0, "ENDTAB")

	table(w, "STYLE", 1)
	w.str(0, "STYLE")
	w.str(2, "STANDARD")
	w.integer(70, 0)
	w.real(40, 0)
	w.real(41, 1)
	w.real(50, 0)
	w.integer(71, 0)
	w.real(42, d.style.TextHeight)
	w.str(3, "txt")
	w.str(4, "")
	w.str(0, "ENDTAB")

	table(w, "DIMSTYLE", 1)
	w.str(0, "DIMSTYLE")
	w.str(2, d.style.Name)
	w.integer(70, 0)
	w.real(40, 1)                   // DIMSCALE
	w.real(41, d.style.ArrowSize)   // DIMASZ
	w.real(42, d.style.ExtOffset)   // DIMEXO
	w.real(44, d.style.ExtExtend)   // DIMEXE
	w.real(140, d.style.TextHeight) // DIMTXT
	w.integer(176, d.style.Color)   // DIMCLRD
	w.integer(177, d.style.Color)   // DIMCLRE
	w.integer(178, d.style.Color)   // DIMCLRT
	w.str(0, "ENDTAB")

	w.str(0, "ENDSEC")
}

func table(w *writer, name string, n int) {
	w.str(0, "TABLE")
	w.str(2, name)
	w.integer(70, n)
}

func (d *Document) writeBlocks(w *writer) {
	w.str(0, "SECTION")
	w.str(2, "BLOCKS")
	for _, b := range d.blocks {
		w.str(0, "BLOCK")
		w.str(8, "0")
		w.str(2, b.name)
		w.integer(70, 1) // anonymous
		w.point(10, 0, 0)
		w.str(3, b.name)
		for _, e := range b.entities {
			e.write(w)
		}
		w.str(0, "ENDBLK")
		w.str(8, "0")
	}
	w.str(0, "ENDSEC")
}
