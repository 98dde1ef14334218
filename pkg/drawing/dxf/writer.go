package dxf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/matzehuels/sawtooth/pkg/drawing"
)

// writer emits group code/value pairs. The first error sticks; later calls
// are no-ops and err reports it.
type writer struct {
	w   *bufio.Writer
	n   int64
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{w: bufio.NewWriter(w)}
}

func (w *writer) pair(code int, value string) {
	if w.err != nil {
		return
	}
	n, err := fmt.Fprintf(w.w, "%3d\n%s\n", code, value)
	w.n += int64(n)
	w.err = err
}

func (w *writer) str(code int, s string) { w.pair(code, drawing.EncodeText(s)) }

func (w *writer) integer(code, v int) { w.pair(code, strconv.Itoa(v)) }

func (w *writer) real(code int, v float64) {
	w.pair(code, strconv.FormatFloat(v, 'f', -1, 64))
}

// point writes an x/y/z triple using the base code (10, 11, ...).
func (w *writer) point(base int, x, y float64) {
	w.real(base, x)
	w.real(base+10, y)
	w.real(base+20, 0)
}

func (w *writer) flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}
