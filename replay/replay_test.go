package replay

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kwpdash/uart"
)

func openForWrite(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

type fakeTransport struct {
	reads  []int16
	writes []byte
}

func (f *fakeTransport) Begin(int) error { return nil }
func (f *fakeTransport) End() error      { return nil }
func (f *fakeTransport) Write(b byte) error {
	f.writes = append(f.writes, b)
	return nil
}
func (f *fakeTransport) Available() int { return len(f.reads) }
func (f *fakeTransport) Read() int16 {
	if len(f.reads) == 0 {
		return -1
	}
	v := f.reads[0]
	f.reads = f.reads[1:]
	return v
}
func (f *fakeTransport) Flush() error { return nil }

func TestWriteReadOneFrame_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	want := Frame{Millis: 1234, Dir: FromECU, Data: []byte{0x01, 0x02, 0x03}}
	if err := writeFrame(&buf, want); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readOneFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readOneFrame: %v", err)
	}
	if got.Millis != want.Millis || got.Dir != want.Dir || !bytes.Equal(got.Data, want.Data) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestReadOneFrame_ResyncsPastGarbage(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0xAA, 0x11}) // garbage, including a lone 0xAA
	if err := writeFrame(&buf, Frame{Millis: 5, Dir: FromHost, Data: []byte{0x42}}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readOneFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readOneFrame: %v", err)
	}
	if got.Dir != FromHost || len(got.Data) != 1 || got.Data[0] != 0x42 {
		t.Fatalf("unexpected frame after resync: %+v", got)
	}
}

func TestReadOneFrame_BadCRCIsRejected(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, Frame{Millis: 1, Dir: FromECU, Data: []byte{0x01}}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF
	if _, err := readOneFrame(bufio.NewReader(bytes.NewReader(corrupted))); err == nil {
		t.Fatalf("expected crc error")
	}
}

func TestPlayer_FeedsOnlyFromECUFrames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.bin")
	recordFixture(t, path)

	dst := uart.NewSimulated()
	p := NewPlayer(Flags{Path: path, Speed: 0})
	if err := p.Run(dst); err != nil {
		t.Fatalf("Run: %v", err)
	}

	dst.Begin(9600)
	got := make([]byte, 0, 2)
	for i := 0; i < 2; i++ {
		if dst.Available() > 0 {
			if v := dst.Read(); v >= 0 {
				got = append(got, byte(v))
			}
		}
	}
	if len(got) != 2 || got[0] != 0x55 || got[1] != 0x01 {
		t.Fatalf("expected the two FromECU bytes fed in order, got %v", got)
	}
}

func TestPlayer_SkipFrames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.bin")
	recordFixture(t, path)

	dst := uart.NewSimulated()
	p := NewPlayer(Flags{Path: path, Speed: 0, SkipFrames: 1})
	if err := p.Run(dst); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dst.Available() == 0 {
		t.Fatalf("expected at least one byte fed after skipping the first frame")
	}
	if v := dst.Read(); v != 0x01 {
		t.Fatalf("first fed byte = %v, want 0x01 (the second FromECU frame)", v)
	}
}

func recordFixture(t *testing.T, path string) {
	t.Helper()
	f, err := openForWrite(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()
	frames := []Frame{
		{Millis: 0, Dir: FromECU, Data: []byte{0x55}},
		{Millis: 5, Dir: FromHost, Data: []byte{0xAA}},
		{Millis: 10, Dir: FromECU, Data: []byte{0x01}},
	}
	for _, fr := range frames {
		if err := writeFrame(f, fr); err != nil {
			t.Fatalf("writeFrame: %v", err)
		}
	}
}

func TestRecorder_TeesReadsAndWrites(t *testing.T) {
	dir := t.TempDir()
	inner := &fakeTransport{reads: []int16{0x10, -1}}
	rec, err := NewRecorder(inner, dir, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	defer rec.Close()

	if err := rec.Write(0x99); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if v := rec.Read(); v != 0x10 {
		t.Fatalf("Read = %v, want 0x10", v)
	}
	if v := rec.Read(); v != -1 {
		t.Fatalf("second Read should pass through -1, got %v", v)
	}
	if len(inner.writes) != 1 || inner.writes[0] != 0x99 {
		t.Fatalf("expected the wrapped transport to receive the write, got %v", inner.writes)
	}
	// One FromHost frame for the write and one FromECU frame for the
	// non-empty read, 11 bytes each; the empty read is not teed.
	if err := rec.w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	fi, err := rec.f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if fi.Size() != 22 {
		t.Fatalf("capture file size = %d, want 22 (two 1-byte frames)", fi.Size())
	}
}

func TestNextAvailableFilename_AvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	first := NextAvailableFilename(dir, "RAWLOG", ".bin")
	f, _ := openForWrite(first)
	f.Close()

	second := NextAvailableFilename(dir, "RAWLOG", ".bin")
	if second == first {
		t.Fatalf("expected a distinct filename once the first exists, got %q twice", first)
	}
}
