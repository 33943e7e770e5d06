// Package kwp implements the KWP1281 session layer: link setup, block
// framing, the per-byte complement ACK discipline, measurement-group
// decoding, and DTC read/clear. This is the hard engineering core of the
// module; everything else (menu, renderer, orchestrator) exists only to
// expose this session's behavior.
package kwp

import "time"

// Transport is the software-UART surface the session drives. It is a named
// interface only — concrete backends (a real K-line UART, a simulated one
// for tests) live in package uart and satisfy this exactly.
type Transport interface {
	// Begin configures the link at baud, 8N1.
	Begin(baud int) error
	// End tears the link down.
	End() error
	// Write transmits a single byte.
	Write(b byte) error
	// Available reports how many bytes are ready to Read without blocking.
	Available() int
	// Read returns the next byte, or -1 if none is available yet.
	Read() int16
	// Flush discards any buffered input.
	Flush() error
}

// WakeUp performs the 5-baud wake-up init some ECUs require before the
// 0x55/0x01/0x8A handshake. Whether any ECU this module talks to actually
// needs it is an open question (spec.md §9) the original firmware also
// leaves unresolved: its perform5BaudInit_ is a no-op that defers to the
// caller, and the caller never performs it either. We do not guess; this
// hook exists so an integrator can supply a real implementation (package
// wakeup has one, bit-banged over a line that exposes SetLine, which
// Transport does not) or the no-op.
type WakeUp interface {
	Wake(addr byte) error
}

// noOpWakeUp satisfies WakeUp by doing nothing, for ECUs that don't need it.
type noOpWakeUp struct{}

func (noOpWakeUp) Wake(byte) error { return nil }

// NoOpWakeUp is the default WakeUp used when the integrator supplies none.
var NoOpWakeUp WakeUp = noOpWakeUp{}

// Default tunables, per spec.md §4.1.
const (
	DefaultTimeout = 1100 * time.Millisecond

	delayDefault = 5 * time.Millisecond
	delay9600    = 10 * time.Millisecond
	delaySlow    = 15 * time.Millisecond // 1200/2400/4800
)

func turnaroundDelay(baud int) time.Duration {
	switch baud {
	case 9600:
		return delay9600
	case 1200, 2400, 4800:
		return delaySlow
	default:
		return delayDefault
	}
}
