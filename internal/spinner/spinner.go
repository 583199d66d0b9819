// Package spinner draws a one-line progress indicator while a CLI request
// is in flight.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const frameDelay = 80 * time.Millisecond

// Start displays an animated spinner with the given message on w.
// Call the returned function to stop the spinner and clear the line.
func Start(w io.Writer, message string) (stop func()) {
	done := make(chan struct{})
	cleared := make(chan struct{})
	width := runewidth.StringWidth(message) + 2
	var stopOnce sync.Once

	go func() {
		defer close(cleared)
		ticker := time.NewTicker(frameDelay)
		defer ticker.Stop()
		drawn := false
		for i := 0; ; i++ {
			select {
			case <-done:
				if drawn {
					fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", width)) //nolint:errcheck
				}
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], message) //nolint:errcheck
				drawn = true
			}
		}
	}()
	return func() {
		stopOnce.Do(func() {
			close(done)
		})
		<-cleared
	}
}

// While runs fn with a spinner on w. When show is false fn runs without one,
// which callers use when w is not a terminal.
func While[T any](w io.Writer, message string, show bool, fn func() (T, error)) (T, error) {
	if !show {
		return fn()
	}
	stop := Start(w, message)
	defer stop()
	return fn()
}
