package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a one-line status on w while a blocking call runs, such
// as waiting for a CAD host to accept the connection.
type spinner struct {
	w       io.Writer
	message string
	every   time.Duration

	mu      sync.Mutex
	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		every:   80 * time.Millisecond,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// start runs the animation until stop is called.
func (s *spinner) start() *spinner {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.every)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.message))
				s.mu.Unlock()
			}
		}
	}()
	return s
}

// stop ends the animation and clears the line. It is safe to call more than
// once.
func (s *spinner) stop() {
	s.once.Do(func() {
		close(s.done)
		<-s.stopped
		s.mu.Lock()
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
		s.mu.Unlock()
	})
}
