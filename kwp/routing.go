package kwp

import "kwpdash/signal"

// fieldKind tells the decode loop how to turn a decoded (value, rawA, rawB)
// into a write against the Signal Model: spec.md §9 replaces the source's
// nested (address, group, idx) switch cascade with this static table and a
// single decoder loop.
type fieldKind int

const (
	kindFloat fieldKind = iota
	kindBool            // true iff decoded value != 0
	kindBits            // raw B byte's 8 bits -> Engine.ErrorBits
)

type route struct {
	field signal.FieldID
	kind  fieldKind
}

type routeKey struct {
	addr  byte
	group int
	idx   int
}

// routingTable is the closed (address, group, idx) -> field mapping, ported
// field-for-field from the original firmware's nested
// switch(ecuAddr_){switch(group){switch(idx)}} cascade in readSensorsGroup.
// Slots the original cascade doesn't assign to any signal (its switches fall
// through to a bare default: break) are intentionally absent here too: the
// raw (k, a, b) is still recorded into the Experimental view by applyTuple
// regardless of whether a slot has a routed field.
var routingTable = map[routeKey]route{
	// Instruments cluster (0x17)
	{AddrInstruments, 1, 0}: {signal.FieldVehicleSpeed, kindFloat},
	{AddrInstruments, 1, 1}: {signal.FieldEngineRPM, kindFloat},
	{AddrInstruments, 1, 2}: {signal.FieldOilPressureMin, kindBool},
	// group 1 idx 3 (timeEcu) has no corresponding scalar field.

	{AddrInstruments, 2, 0}: {signal.FieldOdometer, kindFloat},
	{AddrInstruments, 2, 1}: {signal.FieldFuelLevel, kindFloat},
	{AddrInstruments, 2, 2}: {signal.FieldFuelSensorResistance, kindFloat},
	{AddrInstruments, 2, 3}: {signal.FieldAmbientTemperature, kindFloat},

	{AddrInstruments, 3, 0}: {signal.FieldCoolantTemperature, kindFloat},
	{AddrInstruments, 3, 1}: {signal.FieldOilLevelOK, kindBool},
	{AddrInstruments, 3, 2}: {signal.FieldOilTemperature, kindFloat},
	// group 3 idx 3 is the cascade's bare default: break.

	// Engine ECU (0x01)
	{AddrEngine, 1, 0}: {signal.FieldEngineRPM, kindFloat},
	{AddrEngine, 1, 2}: {signal.FieldLambda1, kindFloat},
	// group 1 idx 1 (tempUnknown1) has no corresponding scalar field; idx 3
	// is the cascade's bare default: break.

	{AddrEngine, 3, 1}: {signal.FieldManifoldPressure, kindFloat},
	{AddrEngine, 3, 2}: {signal.FieldThrottleAngle, kindFloat},
	{AddrEngine, 3, 3}: {signal.FieldSteeringAngle, kindFloat},

	{AddrEngine, 4, 1}: {signal.FieldSupplyVoltage, kindFloat},
	{AddrEngine, 4, 2}: {signal.FieldAuxTemp1, kindFloat}, // tempUnknown2
	{AddrEngine, 4, 3}: {signal.FieldAuxTemp2, kindFloat}, // tempUnknown3

	{AddrEngine, 6, 1}: {signal.FieldEngineLoad, kindFloat},
	{AddrEngine, 6, 3}: {signal.FieldLambda2, kindFloat},
}

// applyTuple writes one decoded tuple to the Experimental slot idx and, if
// (addr, group, idx) is a routed field, to that named field too.
func applyTuple(sig *signal.Model, addr byte, group, idx int, t measurementTuple) {
	d := decodeTuple(t.K, t.A, t.B)
	sig.SetExperimentalSlot(idx, t.K, t.A, t.B, d.value, d.unit)

	r, ok := routingTable[routeKey{addr, group, idx}]
	if !ok || !d.known {
		return
	}
	switch r.kind {
	case kindFloat:
		setFloatField(sig, r.field, d.value)
	case kindBool:
		setBoolField(sig, r.field, d.value != 0)
	case kindBits:
		for i := 0; i < 8; i++ {
			sig.SetErrorBit(i, t.B&(1<<uint(i)) != 0)
		}
	}
}

func setFloatField(sig *signal.Model, f signal.FieldID, v float32) {
	switch f {
	case signal.FieldVehicleSpeed:
		sig.SetVehicleSpeed(v)
	case signal.FieldEngineRPM:
		sig.SetEngineRPM(v)
	case signal.FieldOilTemperature:
		sig.SetOilTemperature(v)
	case signal.FieldAmbientTemperature:
		sig.SetAmbientTemperature(v)
	case signal.FieldCoolantTemperature:
		sig.SetCoolantTemperature(v)
	case signal.FieldOdometer:
		sig.SetOdometer(v)
	case signal.FieldFuelLevel:
		sig.SetFuelLevel(v)
	case signal.FieldFuelSensorResistance:
		sig.SetFuelSensorResistance(v)
	case signal.FieldThrottleAngle:
		sig.SetThrottleAngle(v)
	case signal.FieldSteeringAngle:
		sig.SetSteeringAngle(v)
	case signal.FieldSupplyVoltage:
		sig.SetSupplyVoltage(v)
	case signal.FieldManifoldPressure:
		sig.SetManifoldPressure(v)
	case signal.FieldEngineLoad:
		sig.SetEngineLoad(v)
	case signal.FieldLambda1:
		sig.SetLambda1(v)
	case signal.FieldLambda2:
		sig.SetLambda2(v)
	case signal.FieldAuxTemp1:
		sig.SetAuxTemp1(v)
	case signal.FieldAuxTemp2:
		sig.SetAuxTemp2(v)
	}
}

func setBoolField(sig *signal.Model, f signal.FieldID, v bool) {
	switch f {
	case signal.FieldOilLevelOK:
		sig.SetOilLevelOK(v)
	case signal.FieldOilPressureMin:
		sig.SetOilPressureMin(v)
	}
}
