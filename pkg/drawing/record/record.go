// Package record keeps every entity a drawing session receives in memory and
// exports them as JSON.
//
// A [Recorder] is the sink behind the "json" output format and a convenient
// double in tests: the exported document lists entities in emission order
// together with the run identifier, the bounds of the drawing and the
// profiles that were skipped.
package record

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/geom"
	"github.com/matzehuels/sawtooth/pkg/layout"
)

// Entity kinds.
const (
	KindPolyline  = "polyline"
	KindText      = "text"
	KindDimension = "dimension"
)

// Entity is one recorded call. Only the fields of its Kind are set.
type Entity struct {
	Kind      string              `json:"kind"`
	Points    []geom.Point        `json:"points,omitempty"`
	Closed    bool                `json:"closed,omitempty"`
	Text      string              `json:"text,omitempty"`
	At        *geom.Point         `json:"at,omitempty"`
	Height    float64             `json:"height,omitempty"`
	Dimension *annotate.Dimension `json:"dimension,omitempty"`
}

// Recorder is an in-memory drawing session. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	entities []Entity
}

// New returns an empty recorder.
func New() *Recorder { return &Recorder{} }

// AddPolyline records a polyline.
func (r *Recorder) AddPolyline(pts []geom.Point, closed bool) error {
	if len(pts) < 2 {
		return fmt.Errorf("polyline needs at least 2 vertices, got %d", len(pts))
	}
	r.add(Entity{Kind: KindPolyline, Points: append([]geom.Point(nil), pts...), Closed: closed})
	return nil
}

// AddText records a text entity.
func (r *Recorder) AddText(text string, at geom.Point, height float64) error {
	if height <= 0 {
		return fmt.Errorf("text height must be positive, got %g", height)
	}
	r.add(Entity{Kind: KindText, Text: text, At: &at, Height: height})
	return nil
}

// AddDimension records a dimension.
func (r *Recorder) AddDimension(d annotate.Dimension) error {
	r.add(Entity{Kind: KindDimension, Dimension: &d})
	return nil
}

func (r *Recorder) add(e Entity) {
	r.mu.Lock()
	r.entities = append(r.entities, e)
	r.mu.Unlock()
}

// Entities returns a copy of the recorded entities in emission order. The
// copy shares no vertices, anchors or dimensions with the recorder.
func (r *Recorder) Entities() []Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entity, len(r.entities))
	for i, e := range r.entities {
		out[i] = e.clone()
	}
	return out
}

func (e Entity) clone() Entity {
	if e.Points != nil {
		e.Points = append([]geom.Point(nil), e.Points...)
	}
	if e.At != nil {
		at := *e.At
		e.At = &at
	}
	if e.Dimension != nil {
		d := *e.Dimension
		e.Dimension = &d
	}
	return e
}

// Count returns the number of recorded entities of the given kind, or of all
// kinds when kind is empty.
func (r *Recorder) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == "" {
		return len(r.entities)
	}
	n := 0
	for _, e := range r.entities {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	runID   uuid.UUID
	skipped []layout.Skipped
	axis    geom.Axis
	spacing float64
}

// WithRunID records the identifier of the run that produced the drawing.
func WithRunID(id uuid.UUID) JSONOption { return func(r *jsonRenderer) { r.runID = id } }

// WithSkipped lists the input tuples that produced no profile.
func WithSkipped(s []layout.Skipped) JSONOption { return func(r *jsonRenderer) { r.skipped = s } }

// WithLayout records the stacking axis and spacing.
func WithLayout(axis geom.Axis, spacing float64) JSONOption {
	return func(r *jsonRenderer) { r.axis, r.spacing = axis, spacing }
}

// Document is the exported JSON form.
type Document struct {
	RunID    string        `json:"run_id,omitempty"`
	Axis     geom.Axis     `json:"axis,omitempty"`
	Spacing  float64       `json:"spacing,omitempty"`
	Bounds   *geom.BBox    `json:"bounds,omitempty"`
	Entities []Entity      `json:"entities"`
	Skipped  []SkippedItem `json:"skipped,omitempty"`
}

// SkippedItem is a skipped input tuple.
type SkippedItem struct {
	Index  int    `json:"index"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// RenderJSON exports the recorded entities as a pretty-printed JSON document.
// Bounds cover every polyline vertex and are omitted when nothing was drawn.
func RenderJSON(rec *Recorder, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	doc := Document{
		Axis:     r.axis,
		Spacing:  r.spacing,
		Entities: rec.Entities(),
	}
	if r.runID != uuid.Nil {
		doc.RunID = r.runID.String()
	}
	if doc.Entities == nil {
		doc.Entities = []Entity{}
	}
	doc.Bounds = bounds(doc.Entities)
	for _, s := range r.skipped {
		doc.Skipped = append(doc.Skipped, SkippedItem{
			Index:  s.Index,
			Code:   string(errors.GetCode(s.Err)),
			Reason: s.Reason(),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

func bounds(entities []Entity) *geom.BBox {
	var (
		box  geom.BBox
		seen bool
	)
	for _, e := range entities {
		if e.Kind != KindPolyline {
			continue
		}
		b := geom.Polygon(e.Points).Bounds()
		if !seen {
			box, seen = b, true
			continue
		}
		box = box.Union(b)
	}
	if !seen {
		return nil
	}
	return &box
}
