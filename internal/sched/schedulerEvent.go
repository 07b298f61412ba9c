// internal/sched/schedulerEvent.go

package sched

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rs/zerolog"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusInit StatusKind = iota
	StatusCreate
	StatusDispatch
	StatusWait
	StatusSleep
	StatusYield
	StatusRead
	StatusExit
	StatusIdle
	StatusClose
)

// StatusEvent is emitted on every state change of the scheduler.
type StatusEvent struct {
	Time   int64 // clock reading in ms
	Kind   StatusKind
	TaskID TaskID
	From   TaskID // Dispatch: previously running task
	Target TaskID // Wait: awaited task
	WakeAt int64  // Sleep: absolute wake time
	Char   rune   // Read: character returned
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusInit:
		return "Init"
	case StatusCreate:
		return "Create"
	case StatusDispatch:
		return "Dispatch"
	case StatusWait:
		return "Wait"
	case StatusSleep:
		return "Sleep"
	case StatusYield:
		return "Yield"
	case StatusRead:
		return "Read"
	case StatusExit:
		return "Exit"
	case StatusIdle:
		return "Idle"
	case StatusClose:
		return "Close"
	default:
		return "Unknown"
	}
}

func (sk StatusKind) level() zerolog.Level {
	switch sk {
	case StatusDispatch, StatusYield, StatusIdle:
		return zerolog.TraceLevel
	default:
		return zerolog.DebugLevel
	}
}

// EnableCSVTrace opens the given file path for CSV logging of events.
// The file is closed by Close.
func (s *Scheduler) EnableCSVTrace(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"time_ms", "event", "task_id", "from", "target", "wake_at"}); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	s.closeTrace()
	s.csvFile = f
	s.csvWriter = w
	return nil
}

func (s *Scheduler) closeTrace() {
	if s.csvFile == nil {
		return
	}
	s.csvWriter.Flush()
	s.csvFile.Close()
	s.csvFile = nil
	s.csvWriter = nil
}

func (s *Scheduler) emit(ev StatusEvent) {
	if e := s.log.WithLevel(ev.Kind.level()); e.Enabled() {
		e = e.Int("task", int(ev.TaskID))
		switch ev.Kind {
		case StatusDispatch:
			e = e.Int("from", int(ev.From))
		case StatusWait:
			e = e.Int("target", int(ev.Target))
		case StatusSleep:
			e = e.Int64("wake_at", ev.WakeAt)
		case StatusRead:
			e = e.Str("char", strconv.QuoteRune(ev.Char))
		}
		e.Int64("time_ms", ev.Time).Msg(ev.Kind.String())
	}

	if s.observer != nil {
		s.observer(ev)
	}

	// CSV output
	if s.csvWriter != nil {
		rec := []string{
			strconv.FormatInt(ev.Time, 10),
			ev.Kind.String(),
			strconv.Itoa(int(ev.TaskID)),
			strconv.Itoa(int(ev.From)),
			strconv.Itoa(int(ev.Target)),
			strconv.FormatInt(ev.WakeAt, 10),
		}
		if err := s.csvWriter.Write(rec); err != nil {
			s.log.Warn().Err(err).Msg("csv trace write failed")
		}
		s.csvWriter.Flush()
	}
}
