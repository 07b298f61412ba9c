package sched

// isReady reports whether a task in state st may be selected at time now.
// exited resolves a wait target; ids that do not resolve to a task count as
// exited.
func isReady(st State, now int64, exited func(TaskID) bool) bool {
	switch st.Kind {
	case StateExited:
		return false
	case StateWaiting:
		return exited(st.WaitingFor)
	case StateSleeping:
		return now >= st.WakeAt
	default:
		return true
	}
}

// hasExited resolves id against the registry.
func (s *Scheduler) hasExited(id TaskID) bool {
	if id < 0 || int(id) >= len(s.tasks) {
		return true
	}
	return s.tasks[id].exited()
}
