// internal/sched/context.go

package sched

import "runtime"

// execContext is the saved execution state of a task. The goroutine backing
// the task is parked on wake while it is not the current task; handing a
// value to wake resumes it.
type execContext struct {
	wake chan struct{}
	done <-chan struct{} // closed on teardown of the scheduler generation
}

func newExecContext(done <-chan struct{}) *execContext {
	return &execContext{
		wake: make(chan struct{}),
		done: done,
	}
}

// park suspends the calling goroutine until it is resumed. On teardown the
// goroutine is terminated without running any of the task's remaining code.
func (c *execContext) park() {
	select {
	case <-c.wake:
	case <-c.done:
		runtime.Goexit()
	}
}

// resume hands control to c. It returns once c's goroutine has taken over.
func (c *execContext) resume() {
	c.wake <- struct{}{}
}

// swapContext saves the caller into from and continues in to. The call
// returns when from is resumed again.
func swapContext(from, to *execContext) {
	to.resume()
	from.park()
}
