// Package wakeup provides kwp.WakeUp strategies for the 5-baud ECU wake-up
// some KWP1281 ECUs require before the 0x55/0x01/0x8A handshake. Whether any
// ECU this module talks to actually needs it is, per the session layer's own
// design notes, an open question the original firmware leaves unresolved
// too: its wake-up hook is a no-op that defers to the caller, and the caller
// never performs it either. We do not guess at the answer; FiveBaud exists
// so an integrator who knows their ECU needs it can opt in.
package wakeup

import (
	"time"
)

// bitWriter is the single byte-level primitive FiveBaud needs: hold the
// K-line at a level for a duration. A real transport bit-bangs this over its
// TX line before handing control back to the session's normal UART framing;
// package uart.KLine does not currently expose it; an integrator wiring
// FiveBaud to real hardware supplies a bitWriter that does.
type bitWriter interface {
	SetLine(high bool) error
}

// FiveBaud performs a best-effort 7O1 bit-banged 5-baud initialization: the
// address byte, one start bit, seven data bits, one odd parity bit, one stop
// bit, each held for the 5-baud bit period (200ms). It is "best effort"
// because, absent a transport that exposes raw line-level control, most
// integrations never exercise this path — see the package doc.
type FiveBaud struct {
	line bitWriter
}

// NewFiveBaud returns a FiveBaud wake-up strategy driving line.
func NewFiveBaud(line bitWriter) *FiveBaud {
	return &FiveBaud{line: line}
}

const bitPeriod = 200 * time.Millisecond // 1/5 baud

// Wake bit-bangs addr onto the line at 5 baud, 7O1.
func (f *FiveBaud) Wake(addr byte) error {
	bits := frame7O1(addr)
	for _, high := range bits {
		if err := f.line.SetLine(high); err != nil {
			return err
		}
		time.Sleep(bitPeriod)
	}
	return nil
}

// frame7O1 builds the bit sequence for one 5-baud init byte: start (low),
// 7 data bits LSB-first, one odd-parity bit, stop (high).
func frame7O1(b byte) []bool {
	bits := make([]bool, 0, 10)
	bits = append(bits, false) // start bit
	ones := 0
	for i := 0; i < 7; i++ {
		bit := b&(1<<uint(i)) != 0
		bits = append(bits, bit)
		if bit {
			ones++
		}
	}
	bits = append(bits, ones%2 == 0) // odd parity: set iff needed to make total odd
	bits = append(bits, true)        // stop bit
	return bits
}
