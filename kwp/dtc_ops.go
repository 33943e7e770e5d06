package kwp

import "kwpdash/dtc"

// emptyDTCHi, emptyDTCLo, emptyDTCStatus form the (0xFF, 0xFF, 0x88) sentinel
// a 0xFC block uses to say "no DTCs", per spec.md §3/§8. It is distinct from
// the store's own empty-slot sentinel (0xFFFF, 0xFF).
const (
	emptyDTCHi     = 0xFF
	emptyDTCLo     = 0xFF
	emptyDTCStatus = 0x88
)

// ReadDTCs requests the DTC list and fills store, returning the number of
// codes read, or -1 on a framing/timeout error (which also disconnects the
// session).
func (s *Session) ReadDTCs(store *dtc.Store) int {
	store.Reset()
	if !s.sendBlock(newBlock(s.counter, TitleReqDTCs, nil)) {
		s.Disconnect()
		return -1
	}

	slot := 0
	for {
		buf, ok := s.receiveBlock()
		if !ok {
			s.Disconnect()
			return -1
		}
		title := buf[2]

		switch title {
		case TitleDTCResp:
			payload := buf[3 : len(buf)-1]
			for i := 0; i+3 <= len(payload); i += 3 {
				hi, lo, status := payload[i], payload[i+1], payload[i+2]
				if hi == emptyDTCHi && lo == emptyDTCLo && status == emptyDTCStatus {
					continue
				}
				code := uint16(hi)<<8 | uint16(lo)
				store.Set(slot, code, status)
				slot++
			}
			if !s.ackReceivedBlock() {
				s.Disconnect()
				return -1
			}
		case TitleACK:
			return store.Count()
		default:
			s.Disconnect()
			return -1
		}
	}
}

// ClearDTCs sends the clear-DTCs request and requires an ACK reply. A
// failure here does not disconnect the session, per spec.md §4.1.
func (s *Session) ClearDTCs() bool {
	if !s.sendBlock(newBlock(s.counter, TitleClearDTCs, nil)) {
		return false
	}
	buf, ok := s.receiveBlock()
	if !ok {
		return false
	}
	return buf[2] == TitleACK
}
