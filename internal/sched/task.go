package sched

import "fmt"

// TaskID uniquely identifies a task in the scheduler. IDs are handed out in
// creation order and never reused; 0 is the host task created by Init.
type TaskID int

// StateKind is the reason a task is (or is not) eligible to run.
type StateKind int

const (
	StateRunnable StateKind = iota
	StateSleeping
	StateWaiting
	StateExited
)

func (k StateKind) String() string {
	switch k {
	case StateRunnable:
		return "Runnable"
	case StateSleeping:
		return "Sleeping"
	case StateWaiting:
		return "Waiting"
	case StateExited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// State is the scheduling state of one task. WakeAt is only meaningful when
// Kind is StateSleeping, WaitingFor only when Kind is StateWaiting.
type State struct {
	Kind       StateKind
	WakeAt     int64  // absolute clock reading in ms
	WaitingFor TaskID // weak reference, resolved by id
}

func (s State) String() string {
	switch s.Kind {
	case StateSleeping:
		return fmt.Sprintf("Sleeping(%d)", s.WakeAt)
	case StateWaiting:
		return fmt.Sprintf("Waiting(%d)", s.WaitingFor)
	default:
		return s.Kind.String()
	}
}

func runnable() State { return State{Kind: StateRunnable} }

// Task represents one schedulable task unit.
type Task struct {
	ID    TaskID
	state State
	run   func() // body; nil for the host task

	ctx *execContext

	// Task 0 owns no stacks: it runs on the host goroutine.
	runStack     *StackBuffer
	cleanupStack *StackBuffer
}

func newTask(id TaskID, fn func(), done <-chan struct{}) *Task {
	return &Task{
		ID:    id,
		state: runnable(),
		run:   fn,
		ctx:   newExecContext(done),
	}
}

func (t *Task) exited() bool { return t.state.Kind == StateExited }
