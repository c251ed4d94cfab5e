package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

const spinnerInterval = 100 * time.Millisecond

// Activity shows an indeterminate spinner while a request is in flight.
type Activity struct {
	bar  *progressbar.ProgressBar
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// StartActivity starts a spinner with the given description.
func StartActivity(w io.Writer, description string) *Activity {
	a := &Activity{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(w); err != nil {
					slog.Warn("Failed to write newline after spinner", "error", err)
				}
			}),
		),
		stop: make(chan struct{}),
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-a.stop:
				return
			case <-ticker.C:
				if err := a.bar.Add(1); err != nil {
					slog.Debug("Failed to update spinner", "error", err)
				}
			}
		}
	}()

	return a
}

// Done stops the spinner. It is safe to call more than once.
func (a *Activity) Done() {
	a.once.Do(func() {
		close(a.stop)
		a.wg.Wait()
		if err := a.bar.Finish(); err != nil {
			slog.Debug("Failed to finish spinner", "error", err)
		}
	})
}

// WithActivity runs fn while a spinner is shown.
func WithActivity[T any](w io.Writer, description string, fn func() (T, error)) (T, error) {
	a := StartActivity(w, description)
	defer a.Done()
	return fn()
}
