// Package script drives a running CAD host through its command line.
//
// A [Session] translates every entity into AutoCAD command-script lines
// (_.PLINE, _.DIMALIGNED, _.DIMLINEAR, _.TEXT) and writes them straight to
// an io.Writer: a .scr file, a pipe into the host, or a socket opened with
// [Dial]. Every entity is written as soon as it is added. There is no
// transaction: when a write fails the session is broken, later calls return
// the same error and entities already sent stay in the host drawing.
package script

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/drawing"
	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/geom"
)

// Settings are the dimension variables applied before the first entity.
type Settings struct {
	DimColor      int
	DimTextHeight float64
	DimArrowSize  float64
	DimExtExtend  float64
	DimExtOffset  float64
}

// DefaultSettings matches the red dimension style of the DXF sink.
var DefaultSettings = Settings{
	DimColor:      1,
	DimTextHeight: 12,
	DimArrowSize:  8,
	DimExtExtend:  5,
	DimExtOffset:  3,
}

// Option configures a Session.
type Option func(*Session)

// WithSettings replaces the dimension variables.
func WithSettings(s Settings) Option { return func(sess *Session) { sess.settings = s } }

// Session writes command-script lines to an io.Writer. It is safe for
// concurrent use; commands from different goroutines never interleave.
type Session struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	settings Settings
	started  bool
	err      error
	count    int
}

// New returns a session writing to w.
func New(w io.Writer, opts ...Option) *Session {
	s := &Session{w: w, settings: DefaultSettings}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPolyline sends a _.PLINE command.
func (s *Session) AddPolyline(pts []geom.Point, closed bool) error {
	if len(pts) < 2 {
		return fmt.Errorf("polyline needs at least 2 vertices, got %d", len(pts))
	}
	lines := make([]string, 0, len(pts)+2)
	lines = append(lines, "_.PLINE")
	for _, p := range pts {
		lines = append(lines, coord(p))
	}
	if closed {
		lines = append(lines, "_C")
	} else {
		lines = append(lines, "")
	}
	return s.send(lines)
}

// AddDimension sends _.DIMALIGNED, or _.DIMLINEAR for height dimensions.
func (s *Session) AddDimension(d annotate.Dimension) error {
	at := d.TextPosition()
	var lines []string
	if d.Kind == annotate.KindHeight {
		lines = []string{"_.DIMLINEAR", coord(d.Anchor1), coord(d.Anchor2), "_V"}
	} else {
		lines = []string{"_.DIMALIGNED", coord(d.Anchor1), coord(d.Anchor2)}
	}
	if d.Label != "" {
		lines = append(lines, "_T", drawing.EncodeText(d.Label))
	}
	lines = append(lines, coord(at))
	return s.send(lines)
}

// AddText sends a _.TEXT command with zero rotation.
func (s *Session) AddText(text string, at geom.Point, height float64) error {
	if height <= 0 {
		return fmt.Errorf("text height must be positive, got %g", height)
	}
	return s.send([]string{"_.TEXT", coord(at), num(height), "0", drawing.EncodeText(text)})
}

// Count returns the number of entities sent so far.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close ends the script with a regeneration and closes a dialed connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil && s.started {
		s.write([]string{"_.REGEN"})
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil && s.err == nil {
			s.err = errors.Wrap(errors.ErrCodeSinkFailure, err, "close CAD host connection")
		}
	}
	return s.err
}

func (s *Session) send(lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if !s.started {
		s.started = true
		if err := s.write(s.preamble()); err != nil {
			return err
		}
	}
	if err := s.write(lines); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *Session) write(lines []string) error {
	_, err := io.WriteString(s.w, strings.Join(lines, "\n")+"\n")
	if err != nil {
		s.err = errors.Wrap(errors.ErrCodeSinkFailure, err, "send command to CAD host")
	}
	return s.err
}

func (s *Session) preamble() []string {
	st := s.settings
	return []string{
		"_.OSMODE", "0",
		"_.DIMCLRD", strconv.Itoa(st.DimColor),
		"_.DIMCLRE", strconv.Itoa(st.DimColor),
		"_.DIMCLRT", strconv.Itoa(st.DimColor),
		"_.DIMTXT", num(st.DimTextHeight),
		"_.DIMASZ", num(st.DimArrowSize),
		"_.DIMEXE", num(st.DimExtExtend),
		"_.DIMEXO", num(st.DimExtOffset),
	}
}

func coord(p geom.Point) string { return num(p.X) + "," + num(p.Y) }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
