package kwp

import (
	"testing"

	"kwpdash/signal"
)

// TestReadGroup_LegacyEngineResponse_Group1 covers the 9600-baud/AddrEngine/
// title-0x02 special case spec.md §4.1 names: three fixed-kind tuples at
// buf[4:6] (rpm), buf[7:9] (coolant), buf[10:12] (voltage).
func TestReadGroup_LegacyEngineResponse_Group1(t *testing.T) {
	tr := newFakeTransport(nil)
	s := New(tr, AddrEngine, 9600)
	s.counter = 1

	req := newBlock(1, TitleReqSensors, []byte{1})
	tr.feed(echoesFor(req)...)
	// payload: (k,a,b) x3 — kind bytes are ignored by the legacy decode, only
	// slot position selects rpm/coolant/voltage.
	payload := []byte{0x01, 100, 50, 0x05, 10, 130, 0x06, 12, 200}
	tr.feed(newBlock(2, 0x02, payload)...)

	sig := signal.New()
	if !s.ReadGroup(1, sig) {
		t.Fatalf("ReadGroup() = false, want true")
	}
	if got, want := sig.Instruments.EngineRPM, float32(0.2*100*50); got != want {
		t.Fatalf("EngineRPM = %v, want %v", got, want)
	}
	if got, want := sig.Instruments.CoolantTemperature, float32(10*(130-100)*0.1); got != want {
		t.Fatalf("CoolantTemperature = %v, want %v", got, want)
	}
	if got, want := sig.Engine.SupplyVoltage, float32(0.001*12*200); got != want {
		t.Fatalf("SupplyVoltage = %v, want %v", got, want)
	}
	if !sig.Dirty(signal.FieldSupplyVoltage) {
		t.Fatalf("expected SupplyVoltage dirty after legacy decode")
	}
}

// TestReadGroup_LegacyEngineResponse_OtherGroupsAreNoOp covers the original
// firmware's switch(group){case 1: ...; default: break;}: groups other than
// 1 must not write any signal even though the 0x02 legacy title is seen.
func TestReadGroup_LegacyEngineResponse_OtherGroupsAreNoOp(t *testing.T) {
	tr := newFakeTransport(nil)
	s := New(tr, AddrEngine, 9600)
	s.counter = 1

	req := newBlock(1, TitleReqSensors, []byte{2})
	tr.feed(echoesFor(req)...)
	payload := []byte{0x01, 100, 50, 0x05, 10, 130, 0x06, 12, 200}
	tr.feed(newBlock(2, 0x02, payload)...)

	sig := signal.New()
	if !s.ReadGroup(2, sig) {
		t.Fatalf("ReadGroup() = false, want true")
	}
	if sig.Dirty(signal.FieldEngineRPM) || sig.Dirty(signal.FieldCoolantTemperature) || sig.Dirty(signal.FieldSupplyVoltage) {
		t.Fatalf("expected no signals dirty for a non-group-1 legacy response")
	}
}
