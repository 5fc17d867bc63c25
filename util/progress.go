package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/nanovms/bootimage/log"
	"github.com/tj/go-spin"
)

// ProgressSpinner is an indefinite progress indicator using a spinner.
type ProgressSpinner struct {
	out      io.Writer
	interval time.Duration
	colors   log.ConsoleColorsType

	mu      sync.Mutex
	spinner *spin.Spinner
	message string
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewProgressSpinner returns a spinner drawing on out. A nil out draws on
// stdout.
func NewProgressSpinner(out io.Writer) *ProgressSpinner {
	if out == nil {
		out = os.Stdout
	}
	return &ProgressSpinner{out: out, interval: 100 * time.Millisecond}
}

// Start starts the spinner
func (ps *ProgressSpinner) Start(messages ...interface{}) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.stop != nil {
		return
	}

	ps.message = fmt.Sprint(messages...)
	ps.spinner = spin.New()
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go func(stop chan struct{}) {
		defer ps.wg.Done()
		ticker := time.NewTicker(ps.interval)
		defer ticker.Stop()
		for {
			fmt.Fprintf(ps.out, "\r%s%s %s%s", ps.colors.Yellow(), ps.spinner.Next(), ps.colors.Reset(), ps.message)
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}(ps.stop)
}

// Do executes given function with given messages as label.
func (ps *ProgressSpinner) Do(workFunc func() error, messages ...interface{}) error {
	ps.Start(messages...)
	if err := workFunc(); err != nil {
		ps.Fail()
		return err
	}
	ps.Done()
	return nil
}

// Done stops the spinner with success mark.
func (ps *ProgressSpinner) Done() {
	ps.finish(ps.colors.Green() + "✓" + ps.colors.Reset())
}

// Fail stops the spinner with error mark.
func (ps *ProgressSpinner) Fail() {
	ps.finish(ps.colors.Red() + "✗" + ps.colors.Reset())
}

func (ps *ProgressSpinner) finish(mark string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.stop == nil {
		return
	}
	close(ps.stop)
	ps.wg.Wait()
	ps.stop = nil
	fmt.Fprintf(ps.out, "\r%s %s     \n", mark, ps.message)
}
