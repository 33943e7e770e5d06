package kwp

// Block titles, per spec.md §4.1.
const (
	TitleACK         byte = 0x09
	TitleReqSensors  byte = 0x29
	TitleReqDTCs     byte = 0x07
	TitleClearDTCs   byte = 0x05
	TitleEndSession  byte = 0x06
	TitleSensorResp  byte = 0xE7
	TitleDTCResp     byte = 0xFC
	TitleASCII       byte = 0xF6
	TitleError       byte = 0x00
)

// ECU addresses, per spec.md §3.
const (
	AddrEngine      byte = 0x01
	AddrInstruments byte = 0x17
)

// SupportedBaudRates are the link speeds the 5-baud init / handshake can
// bring the K-line up to.
var SupportedBaudRates = []int{1200, 2400, 4800, 9600, 10400}

// newBlock builds a well-formed block: [len, counter, title, payload..., 0x03].
// len is the number of bytes following it (counter..0x03 inclusive).
func newBlock(counter, title byte, payload []byte) []byte {
	buf := make([]byte, 0, 4+len(payload))
	buf = append(buf, 0, counter, title)
	buf = append(buf, payload...)
	buf = append(buf, 0x03)
	buf[0] = byte(len(buf) - 1)
	return buf
}

// isEndSessionBlock reports whether buf is an outgoing "end session" block,
// the one case where a TX-side echo timeout is tolerated (spec.md §4.1: "the
// ECU has already dropped the line").
func isEndSessionBlock(buf []byte) bool {
	return len(buf) >= 4 && buf[2] == TitleEndSession && buf[3] == 0x03
}
