package kwp

import (
	"time"

	"github.com/avast/retry-go/v4"
)

// Session is the KWP1281 session state machine: link setup, block framing,
// the per-byte complement ACK discipline, and group/DTC decoding. It owns
// the block counter exclusively; no other component mutates it.
type Session struct {
	transport Transport
	wakeUp    WakeUp

	addr byte
	baud int

	counter   uint8
	connected bool
	comError  bool
	timeout   time.Duration

	connectStart time.Time

	// initPhase is true only while establishing the link (handshake and
	// controller-ID blocks); it relaxes counter-desync handling and enables
	// the low-baud noise tolerance described in spec.md §4.1.
	initPhase bool
	f0fCount  int
}

// Option configures a Session at construction.
type Option func(*Session)

// WithWakeUp supplies a 5-baud wake-up strategy. Defaults to NoOpWakeUp.
func WithWakeUp(w WakeUp) Option { return func(s *Session) { s.wakeUp = w } }

// WithTimeout overrides the per-read timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option { return func(s *Session) { s.timeout = d } }

// New returns a disconnected Session bound to transport, talking to addr.
func New(transport Transport, addr byte, baud int, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		wakeUp:    NoOpWakeUp,
		addr:      addr,
		baud:      baud,
		timeout:   DefaultTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connected reports whether the session completed its connect handshake and
// has not since disconnected.
func (s *Session) Connected() bool { return s.connected }

// ComError reports the sticky communication-error flag, per spec.md §4.1.
func (s *Session) ComError() bool { return s.comError }

// Counter returns the current 8-bit block counter.
func (s *Session) Counter() uint8 { return s.counter }

// ConnectStart returns the timestamp connect() completed at.
func (s *Session) ConnectStart() time.Time { return s.connectStart }

// Available reports how many bytes are waiting on the underlying transport
// without blocking, for the Debug menu's diagnostic readout.
func (s *Session) Available() int { return s.transport.Available() }

// Connect performs the link bring-up described in spec.md §4.1: 5-baud
// wake-up (if configured), the 0x55/0x01/0x8A handshake, zero or more ASCII
// controller-ID blocks, and a final ACK block.
func (s *Session) Connect() bool {
	// The ECU's first post-handshake block carries counter=1; priming our
	// local counter to 1 here (rather than 0) is what lets the position-2
	// counter check in receiveBlock succeed on that first block.
	s.counter = 1
	s.comError = false
	s.initPhase = true
	defer func() { s.initPhase = false }()

	if err := retry.Do(
		func() error { return s.transport.Begin(s.baud) },
		retry.Attempts(3),
		retry.Delay(20*time.Millisecond),
	); err != nil {
		return false
	}

	if err := s.wakeUp.Wake(s.addr); err != nil {
		return false
	}

	handshake := [3]byte{0x55, 0x01, 0x8A}
	for i, want := range handshake {
		b, ok := s.readByteTimeout(s.timeout)
		if !ok || b != want {
			return false
		}
		if i < len(handshake)-1 {
			_ = s.transport.Write(b ^ 0xFF)
		}
	}

	for {
		buf, ok := s.receiveBlock()
		if !ok {
			return false
		}
		title := buf[2]
		if title == TitleACK {
			break
		}
		if title != TitleASCII {
			return false
		}
		if !s.ackReceivedBlock() {
			return false
		}
	}

	s.connected = true
	s.connectStart = time.Now()
	return true
}

// Disconnect always tears down the transport and resets the block counter,
// per spec.md §4.1's failure semantics.
func (s *Session) Disconnect() {
	s.connected = false
	s.counter = 0
	s.comError = false
	_ = s.transport.End()
}

// Ack sends a keep-alive ACK block and requires the ECU's reply to also be
// an ACK block; any other outcome disconnects the session.
func (s *Session) Ack() bool {
	if !s.sendBlock(newBlock(s.counter, TitleACK, nil)) {
		s.Disconnect()
		return false
	}
	buf, ok := s.receiveBlock()
	if !ok {
		s.Disconnect()
		return false
	}
	if buf[2] != TitleACK {
		s.Disconnect()
		return false
	}
	return true
}

// EndSession sends the end-session block and tears the link down. The ECU
// reply is not required, per spec.md §4.1.
func (s *Session) EndSession() {
	s.sendBlock(newBlock(s.counter, TitleEndSession, nil))
	s.Disconnect()
}

// ackReceivedBlock sends the ACK block used between DTC stream reads and
// after controller-ID blocks during connect.
func (s *Session) ackReceivedBlock() bool {
	return s.sendBlock(newBlock(s.counter, TitleACK, nil))
}

// sendBlock transmits buf per spec.md §4.1's send algorithm: per-byte
// turnaround delay, complement-echo verification on every byte but the
// last, with the end-session TX-timeout exception.
func (s *Session) sendBlock(buf []byte) bool {
	n := len(buf)
	for i, b := range buf {
		time.Sleep(turnaroundDelay(s.baud))
		if err := s.transport.Write(b); err != nil {
			return false
		}
		if i < n-1 {
			echo, ok := s.readByteTimeout(s.timeout)
			if !ok {
				if isEndSessionBlock(buf) {
					s.counter = s.counter + 1
					return true
				}
				return false
			}
			if echo != b^0xFF {
				return false
			}
		}
	}
	s.counter = s.counter + 1
	return true
}

// readByteTimeout polls Available/Read until a byte arrives or timeout
// elapses. This is the only blocking primitive in the session, per spec.md
// §5: a busy-wait bounded by timeoutMs.
func (s *Session) readByteTimeout(timeout time.Duration) (byte, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.transport.Available() > 0 {
			v := s.transport.Read()
			if v >= 0 {
				return byte(v), true
			}
		}
		time.Sleep(time.Millisecond)
	}
	return 0, false
}

// receiveBlockPolicy carries the per-position ACK overrides used during
// communication-error recovery.
type receiveBlockPolicy struct {
	ackPositions   map[int]bool // explicit overrides; position is 1-based
	forcedSize     int          // 0 means "use the wire-reported size"
}

// receiveBlock reads one block per spec.md §4.1's receive algorithm: the
// first byte defines size, the counter byte (position 2) is checked against
// our local counter (with init-phase 0x00 resync), and every byte but the
// last is echoed back inverted. It also implements the low-baud
// initialization noise tolerance and the communication-error recovery
// described in spec.md §4.1 and §9.
func (s *Session) receiveBlock() ([]byte, bool) {
	return s.receiveBlockWithPolicy(receiveBlockPolicy{})
}

func (s *Session) receiveBlockWithPolicy(policy receiveBlockPolicy) ([]byte, bool) {
	var buf []byte
	size := -1
	pos := 0
	lowBaud := s.baud == 1200 || s.baud == 2400 || s.baud == 4800

	for {
		b, ok := s.readByteTimeout(s.timeout)
		if !ok {
			return nil, false
		}

		if s.initPhase && lowBaud {
			if b == 0x55 {
				buf = buf[:0]
				pos = 0
				size = 3
			}
			if b == 0xFF && pos == 0 {
				s.f0fCount = 0
				continue
			}
			if b == 0x0F {
				s.f0fCount++
				if s.f0fCount == 2 {
					_ = s.transport.Write(b ^ 0xFF)
					s.f0fCount = 0
				}
				continue
			}
			s.f0fCount = 0
		}

		buf = append(buf, b)
		pos++

		if pos == 1 {
			if policy.forcedSize > 0 {
				size = policy.forcedSize
			} else {
				size = int(b) + 1
			}
			continue
		}

		if pos == 2 {
			if b == 0x00 && s.initPhase {
				s.counter = 0
			} else if b != s.counter {
				return nil, false
			}
		}

		// communication-error detection: third byte breaks the expected
		// pattern while more bytes remain. spec.md §9 flags this condition
		// as undocumented in the original firmware; we reproduce the
		// literal recovery behavior without inventing a rationale.
		if pos == 3 && size > 3 && b != 0x0F && b != 0x03 && policy.forcedSize == 0 {
			s.comError = true
			return s.recoverFromComError(buf)
		}

		if s.shouldAck(pos, size, policy) {
			_ = s.transport.Write(b ^ 0xFF)
		}

		if pos == size {
			break
		}
	}

	s.counter = s.counter + 1
	return buf, true
}

// shouldAck reports whether position pos (1-based) of a block of the given
// size should be echoed back inverted. The default discipline acks every
// byte but the last; a comError recovery policy overrides specific
// positions per spec.md §4.1 ("positions {2, 6} ACK'd, positions {3, 4}
// not").
func (s *Session) shouldAck(pos, size int, policy receiveBlockPolicy) bool {
	if policy.ackPositions != nil {
		if forced, ok := policy.ackPositions[pos]; ok {
			return forced
		}
	}
	return pos < size
}

// recoverFromComError performs the block-6, position-{3,4}-unacked read
// continuation and then the explicit error-block exchange described in
// spec.md §4.1's "Communication-error recovery".
func (s *Session) recoverFromComError(partial []byte) ([]byte, bool) {
	policy := receiveBlockPolicy{
		forcedSize: 6,
		ackPositions: map[int]bool{
			2: true, 3: false, 4: false, 6: true,
		},
	}
	pos := len(partial)
	buf := append([]byte(nil), partial...)
	for pos < 6 {
		b, ok := s.readByteTimeout(s.timeout)
		if !ok {
			return nil, false
		}
		buf = append(buf, b)
		pos++
		if s.shouldAck(pos, 6, policy) {
			_ = s.transport.Write(b ^ 0xFF)
		}
	}

	errBlock := newBlock(0, TitleError, nil) // [0x03, counter, 0x00, 0x03]
	errBlock[1] = s.counter
	s.sendBlock(errBlock)
	s.counter = 0
	s.comError = false
	_, _ = s.receiveBlock()
	return nil, false
}
