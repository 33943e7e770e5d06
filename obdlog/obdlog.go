// Package obdlog is a structured, rotating CSV event log for the KWP1281
// session: connect/disconnect, DTC reads, and protocol failures. Logging is
// strictly observational, per spec.md §7 — nothing here feeds back into the
// session's control flow or its retried/non-retried classification.
package obdlog

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	colorOK   = color.New(color.FgGreen).SprintfFunc()
	colorWarn = color.New(color.FgRed).SprintfFunc()
)

// Phase names one point in the session lifecycle an event is logged against.
type Phase string

const (
	PhaseConnect    Phase = "connect"
	PhaseDisconnect Phase = "disconnect"
	PhaseReadGroup  Phase = "read_group"
	PhaseReadDTCs   Phase = "read_dtcs"
	PhaseClearDTCs  Phase = "clear_dtcs"
	PhaseAck        Phase = "ack"
)

// Class is the spec.md §7 error taxonomy bucket an event falls into. Success
// events use ClassNone.
type Class string

const (
	ClassNone           Class = ""
	ClassFraming        Class = "framing"
	ClassTimeout        Class = "timeout"
	ClassCounterDesync  Class = "counter_desync"
	ClassCommunication  Class = "communication"
	ClassDecode         Class = "decode"
	ClassUser           Class = "user"
)

const maxRowsPerFile = 100_000

var csvHeader = []string{"timestamp", "phase", "class", "detail"}

// Logger appends one CSV row per session event, rotating to a fresh
// timestamped file after maxRowsPerFile rows.
type Logger struct {
	mu      sync.Mutex
	dir     string
	enabled bool

	file   *os.File
	writer *csv.Writer
	rows   int
}

// New returns a Logger writing under dir. Logging is disabled until Enable.
func New(dir string) *Logger {
	if dir == "" {
		dir = "logs"
	}
	return &Logger{dir: dir}
}

// Enable turns logging on or off at runtime.
func (l *Logger) Enable(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = on
	if !on {
		l.closeFile()
	}
}

// Record appends one event row, rotating the file first if needed. A
// disabled Logger silently drops the event.
func (l *Logger) Record(phase Phase, class Class, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}

	now := time.Now()
	if l.writer == nil || l.rows >= maxRowsPerFile {
		if err := l.rotateFile(now); err != nil {
			log.Printf("obdlog: rotate failed: %v", err)
			return
		}
	}

	row := []string{now.Format(time.RFC3339Nano), string(phase), string(class), detail}
	if err := l.writer.Write(row); err != nil {
		log.Printf("obdlog: write failed: %v", err)
		return
	}
	l.writer.Flush()
	l.rows++

	if class == ClassNone {
		log.Print(colorOK("obdlog: %s ok: %s", phase, detail))
	} else {
		log.Print(colorWarn("obdlog: %s %s: %s", phase, class, detail))
	}
}

// Close flushes and closes the current log file.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeFile()
}

func (l *Logger) rotateFile(now time.Time) error {
	l.closeFile()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", l.dir, err)
	}

	filename := fmt.Sprintf("kwpdash_%s.csv", now.Format("2006-01-02_150405"))
	path := filepath.Join(l.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	l.file = f
	l.writer = csv.NewWriter(f)
	l.rows = 0

	if err := l.writer.Write(csvHeader); err != nil {
		return err
	}
	l.writer.Flush()

	log.Printf("obdlog: opened %s", path)
	return nil
}

func (l *Logger) closeFile() {
	if l.writer != nil {
		l.writer.Flush()
		l.writer = nil
	}
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
