package uart

import "sync"

// Simulated is an in-memory kwp.Transport, scriptable with canned byte
// sequences. It is the backend used by simulation mode and by the replay
// player, which feeds it a captured raw K-line byte log instead of a live
// ECU.
type Simulated struct {
	mu      sync.Mutex
	toSend  []byte
	written []byte
	began   []int
}

// NewSimulated returns an empty Simulated transport.
func NewSimulated() *Simulated { return &Simulated{} }

// Feed appends bytes for the session to read next, as if the ECU sent them.
func (s *Simulated) Feed(b ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toSend = append(s.toSend, b...)
}

// Written returns everything written so far.
func (s *Simulated) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.written...)
}

// BaudHistory returns every baud rate Begin was called with, in order.
func (s *Simulated) BaudHistory() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.began...)
}

func (s *Simulated) Begin(baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.began = append(s.began, baud)
	return nil
}

func (s *Simulated) End() error { return nil }

func (s *Simulated) Write(b byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, b)
	return nil
}

func (s *Simulated) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.toSend)
}

func (s *Simulated) Read() int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.toSend) == 0 {
		return -1
	}
	b := s.toSend[0]
	s.toSend = s.toSend[1:]
	return int16(b)
}

func (s *Simulated) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toSend = nil
	return nil
}
