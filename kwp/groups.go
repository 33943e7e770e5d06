package kwp

import "kwpdash/signal"

// ReadGroup requests measurement group g (1..64) and decodes the response
// into sig. Most ECUs reply with a 0xE7 sensor-response block; spec.md
// §4.1 calls out address/baud-specific exceptions this function also
// implements.
func (s *Session) ReadGroup(group byte, sig *signal.Model) bool {
	req := newBlock(s.counter, TitleReqSensors, []byte{group})
	if !s.sendBlock(req) {
		s.Disconnect()
		return false
	}
	buf, ok := s.receiveBlock()
	if !ok {
		s.Disconnect()
		return false
	}
	title := buf[2]

	switch {
	case title == TitleSensorResp:
		s.decodeSensorResponse(buf, group, sig)
	case s.baud == 9600 && s.addr == AddrEngine && title == 0x02:
		// The original firmware's special-case switch only writes signals
		// for group 1; every other group falls through its default: break
		// and is treated as handled with no decode.
		if group == 1 {
			s.decodeLegacyEngineResponse(buf, sig)
		}
	case title == 0xF4:
		// accepted as a valid no-data response, per spec.md §4.1.
	default:
		s.Disconnect()
		return false
	}
	return true
}

// decodeSensorResponse handles the common 0xE7 case: a stream of 3-byte
// (k, a, b) tuples, up to four per group.
func (s *Session) decodeSensorResponse(buf []byte, group byte, sig *signal.Model) {
	payload := buf[3 : len(buf)-1]
	tuples := splitTuples(payload)
	sig.SetExperimentalGroup(int(group))
	for idx, t := range tuples {
		if idx >= 4 {
			break
		}
		applyTuple(sig, s.addr, int(group), idx, t)
	}
}

// decodeLegacyEngineResponse handles the 9600-baud / address-0x01 / group-1
// special case: three back-to-back (k, a, b) tuples at fixed block offsets,
// with kind hardcoded per slot rather than read from the tuple's own k byte
// (rpm at buf[4:6], coolant at buf[7:9], voltage at buf[10:12]), per spec.md
// §4.1.
func (s *Session) decodeLegacyEngineResponse(buf []byte, sig *signal.Model) {
	if len(buf) < 6 {
		return
	}
	rpm := decodeTuple(1, buf[4], buf[5])
	sig.SetEngineRPM(rpm.value)
	if len(buf) >= 9 {
		coolant := decodeTuple(5, buf[7], buf[8])
		sig.SetCoolantTemperature(coolant.value)
	}
	if len(buf) >= 12 {
		voltage := decodeTuple(6, buf[10], buf[11])
		sig.SetSupplyVoltage(voltage.value)
	}
}

// ReadSensors reads measurement groups 1..3 in sequence, stopping at the
// first failure.
func (s *Session) ReadSensors(sig *signal.Model) bool {
	for g := byte(1); g <= 3; g++ {
		if !s.ReadGroup(g, sig) {
			return false
		}
	}
	return true
}
