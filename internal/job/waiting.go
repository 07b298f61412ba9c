package job

import (
	"fmt"
	"io"
)

// Runtime is the part of the scheduler that task bodies yield through.
type Runtime interface {
	Sleep(ms int64) error
	Yield() error
	ReadChar() (rune, error)
}

// SleepWork returns a body that just sleeps for the given duration. A failed
// sleep is reported on out.
func SleepWork(rt Runtime, out io.Writer, ms int64) func() {
	return func() {
		if err := rt.Sleep(ms); err != nil {
			fmt.Fprintf(out, "sleep: %v\n", err)
		}
	}
}

// Ticker returns a body that writes a numbered line every everyMS until
// stop reports true, or after n ticks when n > 0.
func Ticker(rt Runtime, out io.Writer, name string, everyMS int64, n int, stop func() bool) func() {
	return func() {
		for i := 1; n <= 0 || i <= n; i++ {
			if err := rt.Sleep(everyMS); err != nil {
				return
			}
			if stop != nil && stop() {
				return
			}
			fmt.Fprintf(out, "%s tick %d\n", name, i)
		}
	}
}

// Echo returns a body that copies characters to out until quit is read.
// onQuit runs once quit arrives, before the body returns.
func Echo(rt Runtime, out io.Writer, quit rune, onQuit func()) func() {
	return func() {
		for {
			r, err := rt.ReadChar()
			if err != nil {
				fmt.Fprintf(out, "read: %v\n", err)
				break
			}
			if r == quit {
				break
			}
			fmt.Fprintf(out, "key %q\n", r)
		}
		if onQuit != nil {
			onQuit()
		}
	}
}
