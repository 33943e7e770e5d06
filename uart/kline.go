// Package uart provides concrete kwp.Transport backends: a real K-line
// transport over go.bug.st/serial, and a scriptable in-memory transport for
// simulation mode and offline development.
package uart

import (
	"fmt"
	"log"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Arduino & clones common VIDs, also seen on cheap USB K-line adapters built
// around the same UART bridges.
var preferredVIDs = map[string]bool{
	"2341": true, // Arduino
	"2A03": true, // Arduino (older)
	"1A86": true, // CH340
	"10C4": true, // CP210x
	"0403": true, // FTDI
}

// KLine is a real K-line transport backed by go.bug.st/serial. It satisfies
// kwp.Transport without importing package kwp, per the named-interface
// boundary.
type KLine struct {
	port serial.Port
	name string
}

// OpenKLine opens portName (or "auto" to probe for a likely adapter) at the
// KWP1281 init baud. The session reconfigures the baud itself via Begin once
// the handshake baud is known.
func OpenKLine(portName string) (*KLine, error) {
	if portName == "auto" {
		name, err := autoSelectPort()
		if err != nil {
			return nil, err
		}
		portName = name
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: 9600})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", portName, err)
	}
	return &KLine{port: port, name: portName}, nil
}

func autoSelectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate ports: %w", err)
	}
	for _, p := range ports {
		if p.IsUSB && preferredVIDs[strings.ToUpper(p.VID)] {
			return p.Name, nil
		}
	}
	for _, p := range ports {
		if p.IsUSB {
			return p.Name, nil
		}
	}
	if len(ports) > 0 {
		return ports[0].Name, nil
	}
	return "", fmt.Errorf("no serial ports found")
}

// Begin reconfigures the open port at baud, 8N1.
func (k *KLine) Begin(baud int) error {
	if err := k.port.SetMode(&serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}); err != nil {
		return fmt.Errorf("set mode %d on %s: %w", baud, k.name, err)
	}
	// A short per-Read timeout turns Read into the non-blocking primitive
	// the session's Available/Read pair expects; Read returns -1 rather
	// than blocking for the session's whole timeoutMs budget.
	if err := k.port.SetReadTimeout(20 * time.Millisecond); err != nil {
		return fmt.Errorf("set read timeout on %s: %w", k.name, err)
	}
	log.Printf("kline: %s @ %d", k.name, baud)
	return nil
}

// End closes the underlying serial port.
func (k *KLine) End() error { return k.port.Close() }

// Write transmits a single byte.
func (k *KLine) Write(b byte) error {
	_, err := k.port.Write([]byte{b})
	return err
}

// Available is approximated: a real serial.Port has no non-blocking byte
// count, so Available always reports 1 and Read blocks on the port's own
// read deadline instead. The session's busy-wait loop tolerates this.
func (k *KLine) Available() int { return 1 }

// Read returns the next byte, or -1 on read error/EOF.
func (k *KLine) Read() int16 {
	buf := make([]byte, 1)
	n, err := k.port.Read(buf)
	if err != nil || n == 0 {
		return -1
	}
	return int16(buf[0])
}

// Flush discards buffered input.
func (k *KLine) Flush() error { return k.port.ResetInputBuffer() }
