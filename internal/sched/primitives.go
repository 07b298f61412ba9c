package sched

// Wait suspends the current task until task h has exited. Waiting on a task
// that already exited still passes through the scheduler, so every other
// ready task gets a turn first. Handles that were never created, and the
// caller's own handle, fail with ErrInvalidHandle.
func (s *Scheduler) Wait(h TaskID) error {
	if _, err := s.lookup("wait", h); err != nil {
		return err
	}
	if h == s.current {
		return taskErrorf("wait", h, ErrInvalidHandle, "task cannot wait on itself")
	}

	t := s.tasks[s.current]
	t.state = State{Kind: StateWaiting, WaitingFor: h}
	s.emit(StatusEvent{Time: s.clock.NowMS(), Kind: StatusWait, TaskID: t.ID, Target: h})
	s.reap()
	s.schedule()
	return nil
}

// Sleep suspends the current task for at least ms milliseconds. A
// non-positive duration returns at once without yielding.
func (s *Scheduler) Sleep(ms int64) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if ms <= 0 {
		return nil
	}

	t := s.tasks[s.current]
	wakeAt := s.clock.NowMS() + ms
	t.state = State{Kind: StateSleeping, WakeAt: wakeAt}
	s.sleepers.add(t.ID, wakeAt)
	s.emit(StatusEvent{Time: wakeAt - ms, Kind: StatusSleep, TaskID: t.ID, WakeAt: wakeAt})
	s.reap()
	s.schedule()
	return nil
}

// Yield cedes control to the next ready task. The caller stays Runnable and
// resumes on its next turn; if no other task is ready it continues at once.
func (s *Scheduler) Yield() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	s.yield()
	return nil
}

func (s *Scheduler) yield() {
	s.emit(StatusEvent{Time: s.clock.NowMS(), Kind: StatusYield, TaskID: s.current})
	s.reap()
	s.schedule()
}

// ReadChar returns the next input character. Every probe that finds no
// input yields once; the first successful probe returns without yielding.
func (s *Scheduler) ReadChar() (rune, error) {
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	if s.input == nil {
		return 0, ErrNoInput
	}
	for {
		if r, ok := s.input.Poll(); ok {
			s.emit(StatusEvent{Time: s.clock.NowMS(), Kind: StatusRead, TaskID: s.current, Char: r})
			return r, nil
		}
		s.yield()
	}
}
