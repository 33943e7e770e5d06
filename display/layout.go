// Package display renders the Signal Model, DTC Store, and Menu State onto
// a 16x2 character display. The renderer logic, dirty-bit draining, and
// frame pacing are backend-agnostic; two Target implementations are
// provided: the named LCD interface (hardware driver out of scope, per
// spec.md §6) and a DashboardTarget that mirrors the same layout over SSE
// for headless development.
package display

import (
	"kwpdash/dtc"
	"kwpdash/kwp"
	"kwpdash/signal"
)

// Kind names how a dynamic value should be formatted.
type Kind int

const (
	KindInt Kind = iota
	KindFloat1
	KindString
)

// staticCell is one fixed label drawn once by Init.
type staticCell struct {
	col, row int
	label    string
}

// fieldCell is one dynamic value drawn by Render, keyed on the Signal
// Model's dirty bit for field.
type fieldCell struct {
	col, row, width int
	field           signal.FieldID
	kind            Kind
}

// cockpitKey keys the Cockpit layout tables on (addr, screen); the Instruments cluster (0x17)
// and Engine ECU (0x01) show different fields, per spec.md §4.4.
type cockpitKey struct {
	addr   byte
	screen int
}

var cockpitStatic = map[cockpitKey][]staticCell{
	{kwp.AddrInstruments, 0}: {{0, 0, "Speed"}, {0, 1, "RPM"}},
	{kwp.AddrInstruments, 1}: {{0, 0, "Coolant"}, {0, 1, "Ambient"}},
	{kwp.AddrInstruments, 2}: {{0, 0, "Odometer"}, {0, 1, "Fuel"}},
	{kwp.AddrInstruments, 3}: {{0, 0, "OilTemp"}, {0, 1, "OilLvl/Press"}},
	{kwp.AddrInstruments, 4}: {{0, 0, "km/100km"}, {0, 1, "l/h"}},

	{kwp.AddrEngine, 0}: {{0, 0, "Throttle"}, {0, 1, "Steering"}},
	{kwp.AddrEngine, 1}: {{0, 0, "Supply V"}, {0, 1, "Manifold"}},
	{kwp.AddrEngine, 2}: {{0, 0, "Load"}, {0, 1, "Lambda1/2"}},
	{kwp.AddrEngine, 3}: {{0, 0, "AuxTemp1/2"}, {0, 1, "Errors"}},
}

var cockpitFields = map[cockpitKey][]fieldCell{
	{kwp.AddrInstruments, 0}: {
		{9, 0, 6, signal.FieldVehicleSpeed, KindFloat1},
		{9, 1, 6, signal.FieldEngineRPM, KindFloat1},
	},
	{kwp.AddrInstruments, 1}: {
		{9, 0, 6, signal.FieldCoolantTemperature, KindFloat1},
		{9, 1, 6, signal.FieldAmbientTemperature, KindFloat1},
	},
	{kwp.AddrInstruments, 2}: {
		{9, 0, 6, signal.FieldOdometer, KindFloat1},
		{9, 1, 6, signal.FieldFuelLevel, KindFloat1},
	},
	{kwp.AddrInstruments, 3}: {
		{9, 0, 6, signal.FieldOilTemperature, KindFloat1},
		{13, 1, 3, signal.FieldOilLevelOK, KindString},
	},
	{kwp.AddrEngine, 0}: {
		{9, 0, 6, signal.FieldThrottleAngle, KindFloat1},
		{9, 1, 6, signal.FieldSteeringAngle, KindFloat1},
	},
	{kwp.AddrEngine, 1}: {
		{9, 0, 6, signal.FieldSupplyVoltage, KindFloat1},
		{9, 1, 6, signal.FieldManifoldPressure, KindFloat1},
	},
	{kwp.AddrEngine, 2}: {
		{6, 0, 6, signal.FieldEngineLoad, KindFloat1},
		{7, 1, 6, signal.FieldLambda1, KindFloat1},
	},
	{kwp.AddrEngine, 3}: {
		{11, 0, 5, signal.FieldAuxTemp1, KindFloat1},
		{7, 1, 8, signal.FieldErrorBits, KindString},
	},
}

// debugStatic implements the Debug menu's five diagnostic values: connection
// flag and available-bytes and block counter on row 0, KWP mode and
// theoretical frame rate on row 1. Values are drawn by renderDebug at
// col 2/5/10 (row 0) and col 5/14 (row 1), matching these label positions.
var debugStatic = []staticCell{
	{0, 0, "Cn"}, {3, 0, "Av"}, {8, 0, "Ct"}, {0, 1, "Mode"}, {10, 1, "FPS"},
}

// dtcStatic/dtcFields implement the Dtc menu's fixed screens 0 (Read) and 1
// (Clear); screens 2..9 are generated dynamically by dtcSlotCells.
var dtcStatic = map[int][]staticCell{
	0: {{0, 0, "Read DTCs"}, {0, 1, "Press SELECT"}},
	1: {{0, 0, "Clear DTCs"}, {0, 1, "Press SELECT"}},
}

// settingsStatic implements the Settings menu's screen 0 (exit) and screen 1
// (cycle KWP mode).
var settingsStatic = map[int][]staticCell{
	0: {{0, 0, "Exit session"}, {0, 1, "Press SELECT"}},
	1: {{0, 0, "KWP mode"}, {0, 1, "Press SELECT"}},
}

// experimentalStatic labels the two (k, value, unit) pairs the currently
// selected side shows.
var experimentalStatic = []staticCell{
	{0, 0, "G"}, {0, 1, ""},
}

// dtcSlotCells returns the two DTC-slot static labels for a Dtc-menu screen
// in [2, 9], showing slots (screen-2)*2 and (screen-2)*2+1.
func dtcSlotCells(screen int) (lo, hi int) {
	base := (screen - 2) * 2
	return base, base + 1
}

// formatDTCSlot formats one DTC slot as "code/status", or "--" if empty.
func formatDTCSlot(store *dtc.Store, idx int) string {
	if store.IsEmpty(idx) {
		return "--"
	}
	return formatHex16(store.ErrorAt(idx)) + "/" + formatHex8(store.StatusAt(idx))
}

func formatHex16(v uint16) string {
	const hexDigits = "0123456789ABCDEF"
	b := [4]byte{}
	for i := 3; i >= 0; i-- {
		b[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(b[:])
}

func formatHex8(v uint8) string {
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{hexDigits[v>>4], hexDigits[v&0xF]})
}
