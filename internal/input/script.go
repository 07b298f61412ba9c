package input

// None marks a probe that finds no input in a Script.
const None rune = -1

// Script replays a fixed sequence of probe results. Each None entry is one
// miss; once the sequence is used up every probe misses.
type Script struct {
	seq    []rune
	pos    int
	probes int
}

// NewScript returns a Script that yields seq in order.
func NewScript(seq ...rune) *Script {
	return &Script{seq: seq}
}

// FromString returns a Script yielding the characters of s, each preceded
// by gap misses.
func FromString(s string, gap int) *Script {
	var seq []rune
	for _, r := range s {
		for range gap {
			seq = append(seq, None)
		}
		seq = append(seq, r)
	}
	return &Script{seq: seq}
}

// Poll implements sched.Input.
func (s *Script) Poll() (rune, bool) {
	s.probes++
	if s.pos >= len(s.seq) {
		return 0, false
	}
	r := s.seq[s.pos]
	s.pos++
	if r == None {
		return 0, false
	}
	return r, true
}

// Probes returns how many times Poll was called.
func (s *Script) Probes() int { return s.probes }

// Remaining returns how many entries have not been consumed.
func (s *Script) Remaining() int { return len(s.seq) - s.pos }
