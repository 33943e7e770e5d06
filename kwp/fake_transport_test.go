package kwp

// fakeTransport is a scriptable in-memory Transport for session tests. A
// test pre-loads exactly the bytes the "ECU" would put on the wire —
// including, where the session is expected to send a block, the
// complement-echo bytes the ECU's half-duplex echo would produce — via
// feed and echoesFor.
type fakeTransport struct {
	toSend  []byte // bytes the fake ECU hands back on Read, FIFO
	written []byte // everything the session wrote, for assertions

	began []int
}

func newFakeTransport(ecuBytes []byte) *fakeTransport {
	return &fakeTransport{toSend: ecuBytes}
}

func (f *fakeTransport) Begin(baud int) error {
	f.began = append(f.began, baud)
	return nil
}

func (f *fakeTransport) End() error { return nil }

func (f *fakeTransport) Write(b byte) error {
	f.written = append(f.written, b)
	return nil
}

func (f *fakeTransport) Available() int { return len(f.toSend) }

func (f *fakeTransport) Read() int16 {
	if len(f.toSend) == 0 {
		return -1
	}
	b := f.toSend[0]
	f.toSend = f.toSend[1:]
	return int16(b)
}

func (f *fakeTransport) Flush() error { f.toSend = nil; return nil }

// feed appends more bytes for the session to read, as if the ECU sent them.
func (f *fakeTransport) feed(b ...byte) { f.toSend = append(f.toSend, b...) }

// echoesFor returns the complement-echo bytes a half-duplex ECU would send
// back while we transmit block: one inverted byte per position except the
// last, matching sendBlock's read-back expectations.
func echoesFor(block []byte) []byte {
	out := make([]byte, 0, len(block))
	for i := 0; i < len(block)-1; i++ {
		out = append(out, block[i]^0xFF)
	}
	return out
}
