// internal/sched/scheduler.go

// Package sched implements a cooperative, single-threaded task scheduler.
//
// Tasks run one at a time and only give up control at a yield point: when
// they Wait on another task, Sleep, Yield, miss on ReadChar, or return from
// their body. The goroutine that calls Init becomes task 0. Task bodies are
// backed by goroutines, but at most one of them executes at any instant.
//
// Two tasks waiting on each other never become ready again; the scheduler
// does not detect this.
package sched

import (
	"encoding/csv"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Input is a non-blocking character source.
type Input interface {
	// Poll returns the next character, or false if none is available now.
	Poll() (rune, bool)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithClock(c Clock) Option { return func(s *Scheduler) { s.clock = c } }

func WithInput(in Input) Option { return func(s *Scheduler) { s.input = in } }

func WithAllocator(a StackAllocator) Option { return func(s *Scheduler) { s.alloc = a } }

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l.With().Str("component", "sched").Logger() }
}

// WithObserver registers fn to receive every StatusEvent. fn runs on the
// current task and must not call back into the scheduler.
func WithObserver(fn func(StatusEvent)) Option { return func(s *Scheduler) { s.observer = fn } }

// WithIdleFunc replaces the function a parking scheduler uses to wait for
// the next sleeper (time.Sleep by default).
func WithIdleFunc(fn func(ms int64)) Option { return func(s *Scheduler) { s.idleFn = fn } }

// Stats is a snapshot of scheduler counters since the last Init.
type Stats struct {
	Tasks           int
	Alive           int
	Sleepers        int
	Switches        uint64
	IdlePasses      uint64
	StacksAllocated uint64
	StacksReleased  uint64
	PendingReclaim  int
}

// Scheduler is a round-robin cooperative scheduler.
type Scheduler struct {
	cfg      Config
	clock    Clock
	input    Input
	alloc    StackAllocator
	log      zerolog.Logger
	observer func(StatusEvent)
	idleFn   func(ms int64)

	initialized bool
	done        chan struct{}  // closed on teardown; stops parked task goroutines
	tasks       []*Task        // indexed by TaskID
	current     TaskID         // task holding control
	numAlive    int            // tasks not Exited
	sleepers    *sleeperIndex  // pending wake times, for parking
	graveyard   []*StackBuffer // cleanup stacks of exited tasks awaiting release
	stats       Stats

	// logging-related
	csvFile   *os.File
	csvWriter *csv.Writer
}

// New creates a new Scheduler instance with the given configuration.
// Zero fields of cfg take their default values.
func New(cfg Config, opts ...Option) *Scheduler {
	cfg = cfg.sanitize()
	s := &Scheduler{
		cfg:      cfg,
		clock:    NewMonotonicClock(),
		alloc:    NewStackPool(cfg.StackBudget),
		log:      zerolog.Nop(),
		idleFn:   func(ms int64) { time.Sleep(time.Duration(ms) * time.Millisecond) },
		sleepers: newSleeperIndex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Init resets the scheduler and registers the calling goroutine as task 0.
// Calling Init on an initialized scheduler tears the previous tasks down
// first, which requires task 0 to be current.
func (s *Scheduler) Init() error {
	if s.initialized {
		if err := s.teardown(); err != nil {
			return err
		}
	}

	s.done = make(chan struct{})
	s.tasks = make([]*Task, 1, min(s.cfg.Capacity, 16))
	s.tasks[0] = newTask(0, nil, s.done)
	s.current = 0
	s.numAlive = 1
	s.sleepers.clear()
	s.graveyard = nil
	s.stats = Stats{}
	s.initialized = true

	s.emit(StatusEvent{Time: s.clock.NowMS(), Kind: StatusInit})
	return nil
}

// Create registers fn as a new Runnable task and returns its handle. fn
// first runs when the scheduler selects the task; returning from fn exits
// the task.
func (s *Scheduler) Create(fn func()) (TaskID, error) {
	if !s.initialized {
		return -1, ErrNotInitialized
	}
	id := TaskID(len(s.tasks))
	if fn == nil {
		return -1, &TaskError{Op: "create", ID: id, Kind: ErrNilBody}
	}
	if len(s.tasks) >= s.cfg.Capacity {
		return -1, taskErrorf("create", id, ErrCapacityExceeded, "capacity %d", s.cfg.Capacity)
	}

	// Stacks of exited tasks count against the allocator until reclaimed.
	s.reap()

	cleanup, err := s.alloc.Allocate(s.cfg.StackSize)
	if err != nil {
		return -1, &TaskError{Op: "create", ID: id, Kind: ErrAllocationFailure, Msg: "cleanup context", Err: err}
	}
	run, err := s.alloc.Allocate(s.cfg.StackSize)
	if err != nil {
		if rerr := cleanup.Release(); rerr != nil {
			s.log.Warn().Err(rerr).Int("task", int(id)).Msg("release of unused cleanup stack failed")
		}
		return -1, &TaskError{Op: "create", ID: id, Kind: ErrAllocationFailure, Msg: "run context", Err: err}
	}

	t := newTask(id, fn, s.done)
	t.cleanupStack = cleanup
	t.runStack = run
	s.tasks = append(s.tasks, t)
	s.numAlive++
	s.stats.StacksAllocated += 2

	go s.start(t)

	s.emit(StatusEvent{Time: s.clock.NowMS(), Kind: StatusCreate, TaskID: id})
	return id, nil
}

// start is the goroutine backing t. It waits for the first dispatch, runs
// the body and falls through into the exit path, so a normal return is
// observed as the task finishing.
func (s *Scheduler) start(t *Task) {
	t.ctx.park()
	t.run()
	s.exit(t)
}

// exit is the cleanup path of a task whose body returned. It never returns
// control to the body: after handing off to the next task the goroutine
// ends.
func (s *Scheduler) exit(t *Task) {
	s.numAlive--
	t.state = State{Kind: StateExited}

	s.release(t, t.runStack)
	t.runStack = nil
	// Still executing the cleanup path; reclaimed by a later pass on another task.
	s.graveyard = append(s.graveyard, t.cleanupStack)
	t.cleanupStack = nil

	s.emit(StatusEvent{Time: s.clock.NowMS(), Kind: StatusExit, TaskID: t.ID})
	s.schedule()
}

func (s *Scheduler) release(t *Task, b *StackBuffer) {
	if b == nil {
		return
	}
	if err := b.Release(); err != nil {
		s.log.Warn().Err(err).Int("task", int(t.ID)).Msg("stack release failed")
		return
	}
	s.stats.StacksReleased++
}

// reap releases the cleanup stacks of tasks that have fully handed off.
// It must not run on the exit path of the task that owns them.
func (s *Scheduler) reap() {
	for _, b := range s.graveyard {
		if err := b.Release(); err != nil {
			s.log.Warn().Err(err).Msg("cleanup stack release failed")
			continue
		}
		s.stats.StacksReleased++
	}
	s.graveyard = s.graveyard[:0]
}

// schedule selects the next ready task and switches to it. The caller is
// suspended until it is selected again; an exited caller is never resumed.
func (s *Scheduler) schedule() {
	prev := s.tasks[s.current]
	next := s.pick()
	s.dispatch(prev, next)
}

// pick scans round-robin from current+1, wrapping, with the current task
// examined last. It spins until some task is ready.
func (s *Scheduler) pick() *Task {
	n := TaskID(len(s.tasks))
	for pass := 0; ; pass++ {
		now := s.clock.NowMS()
		for i := TaskID(1); i <= n; i++ {
			t := s.tasks[(s.current+i)%n]
			if isReady(t.state, now, s.hasExited) {
				return t
			}
		}
		s.idle(now, pass == 0)
	}
}

func (s *Scheduler) idle(now int64, first bool) {
	s.stats.IdlePasses++
	if first {
		s.emit(StatusEvent{Time: now, Kind: StatusIdle, TaskID: s.current})
	}
	if s.cfg.Idle != IdlePark {
		runtime.Gosched()
		return
	}
	d := s.cfg.ParkMaxMS
	if at, ok := s.sleepers.earliest(); ok && at-now < d {
		d = at - now
	}
	if d > 0 {
		s.idleFn(d)
	}
}

// dispatch makes next the current task. current is updated before control
// transfers.
func (s *Scheduler) dispatch(prev, next *Task) {
	if next.state.Kind == StateSleeping {
		s.sleepers.remove(next.ID, next.state.WakeAt)
	}
	next.state = runnable()
	s.current = next.ID
	if prev == next {
		return
	}

	s.stats.Switches++
	s.emit(StatusEvent{Time: s.clock.NowMS(), Kind: StatusDispatch, TaskID: next.ID, From: prev.ID})

	if prev.exited() {
		next.ctx.resume()
		return
	}
	swapContext(prev.ctx, next.ctx)
}

// Close tears the scheduler down: parked tasks are stopped without running
// further, every remaining stack is released and the CSV trace is closed.
// It must be called by task 0. Deferred calls in stopped task bodies still
// run and must not use the scheduler.
func (s *Scheduler) Close() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	return s.teardown()
}

func (s *Scheduler) teardown() error {
	if s.current != 0 {
		return &TaskError{Op: "close", ID: s.current, Kind: ErrNotHost}
	}

	close(s.done)
	s.reap()
	for _, t := range s.tasks[1:] {
		if t.exited() {
			continue
		}
		t.state = State{Kind: StateExited}
		s.numAlive--
		s.release(t, t.runStack)
		s.release(t, t.cleanupStack)
		t.runStack, t.cleanupStack = nil, nil
	}
	s.sleepers.clear()

	s.emit(StatusEvent{Time: s.clock.NowMS(), Kind: StatusClose})
	s.closeTrace()

	s.tasks = nil
	s.numAlive = 0
	s.initialized = false
	return nil
}

// Current returns the handle of the running task.
func (s *Scheduler) Current() TaskID { return s.current }

// NumTasks returns how many tasks have been created, including task 0 and
// exited tasks.
func (s *Scheduler) NumTasks() int { return len(s.tasks) }

// NumAlive returns how many tasks have not exited.
func (s *Scheduler) NumAlive() int { return s.numAlive }

func (s *Scheduler) lookup(op string, id TaskID) (*Task, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if id < 0 || int(id) >= len(s.tasks) {
		return nil, taskErrorf(op, id, ErrInvalidHandle, "%d tasks created", len(s.tasks))
	}
	return s.tasks[id], nil
}

// State returns the scheduling state of task id.
func (s *Scheduler) State(id TaskID) (State, error) {
	t, err := s.lookup("state", id)
	if err != nil {
		return State{}, err
	}
	return t.state, nil
}

// Ready reports whether task id would be selected by a scan right now.
func (s *Scheduler) Ready(id TaskID) (bool, error) {
	t, err := s.lookup("ready", id)
	if err != nil {
		return false, err
	}
	return isReady(t.state, s.clock.NowMS(), s.hasExited), nil
}

// NextWake returns the earliest wake time of any sleeping task.
func (s *Scheduler) NextWake() (int64, bool) { return s.sleepers.earliest() }

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	st := s.stats
	st.Tasks = len(s.tasks)
	st.Alive = s.numAlive
	st.Sleepers = s.sleepers.len()
	st.PendingReclaim = len(s.graveyard)
	return st
}
