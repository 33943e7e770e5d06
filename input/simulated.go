package input

import (
	"sync"
	"time"
)

// Simulated is a scriptable Keypad backend: tests and simulation mode feed
// raw 0..1023 readings with Feed, and Sample decodes/debounces them exactly
// like a real analog read would.
type Simulated struct {
	mu      sync.Mutex
	pending []int
	debouncer
}

// NewSimulated returns an empty Simulated keypad.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Feed queues one or more raw analog readings to be consumed by subsequent
// Sample calls, oldest first.
func (s *Simulated) Feed(raw ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, raw...)
}

// Sample pops the next queued reading (or None if the queue is empty),
// decodes it, and applies the debounce rule.
func (s *Simulated) Sample(now time.Time) Action {
	s.mu.Lock()
	var raw int
	has := len(s.pending) > 0
	if has {
		raw = s.pending[0]
		s.pending = s.pending[1:]
	}
	s.mu.Unlock()

	if !has {
		return None
	}
	return s.debouncer.apply(now, decodeThreshold(raw))
}
