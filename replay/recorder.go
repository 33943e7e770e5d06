package replay

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kwpdash/kwp"
)

// Recorder wraps a live kwp.Transport and tees every byte it sees into a raw
// capture file, so a live run can be replayed later. Grounded on teacher's
// main.go readBinary raw-log persistence, generalized from CAN frames to
// tagged byte bursts.
type Recorder struct {
	kwp.Transport
	w     *bufio.Writer
	f     *os.File
	start time.Time
}

// NewRecorder wraps transport, writing a new raw log under dir (created via
// NextAvailableFilename) and tagging every frame with milliseconds elapsed
// since start.
func NewRecorder(transport kwp.Transport, dir string, start time.Time) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("replay: mkdir %s: %w", dir, err)
	}
	path := NextAvailableFilename(dir, "RAWLOG", ".bin")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	return &Recorder{
		Transport: transport,
		w:         bufio.NewWriterSize(f, 1<<16),
		f:         f,
		start:     start,
	}, nil
}

func (r *Recorder) millis() uint32 {
	return uint32(time.Since(r.start).Milliseconds())
}

// Write tees one outbound byte as a FromHost frame, then forwards to the
// wrapped transport.
func (r *Recorder) Write(b byte) error {
	_ = writeFrame(r.w, Frame{Millis: r.millis(), Dir: FromHost, Data: []byte{b}})
	return r.Transport.Write(b)
}

// Read tees one inbound byte as a FromECU frame (skipped on empty reads),
// then returns the wrapped transport's value unchanged.
func (r *Recorder) Read() int16 {
	v := r.Transport.Read()
	if v >= 0 {
		_ = writeFrame(r.w, Frame{Millis: r.millis(), Dir: FromECU, Data: []byte{byte(v)}})
	}
	return v
}

// Close flushes and closes the underlying log file.
func (r *Recorder) Close() error {
	_ = r.w.Flush()
	return r.f.Close()
}

// NextAvailableFilename returns dir/name+ext, or dir/name_N+ext for the
// first N that doesn't already exist, per teacher's main.go.
func NextAvailableFilename(dir, name, ext string) string {
	path := filepath.Join(dir, name+ext)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	for i := 1; ; i++ {
		newPath := filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, ext))
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath
		}
	}
}
