// Package signal holds the process-wide measurement store the KWP1281
// session writes into and the display renderer reads from.
package signal

import "fmt"

// FieldID names one addressable field in the Model. The set is closed:
// routing tables in package kwp map (address, group, slot) tuples onto
// these ids instead of branching on strings.
type FieldID int

const (
	FieldVehicleSpeed FieldID = iota
	FieldEngineRPM
	FieldOilLevelOK
	FieldOilPressureMin
	FieldOilTemperature
	FieldAmbientTemperature
	FieldCoolantTemperature
	FieldOdometer
	FieldFuelLevel
	FieldFuelSensorResistance
	FieldECUTime

	FieldThrottleAngle
	FieldSteeringAngle
	FieldSupplyVoltage
	FieldManifoldPressure
	FieldEngineLoad
	FieldLambda1
	FieldLambda2
	FieldAuxTemp1
	FieldAuxTemp2
	FieldErrorBits

	fieldCount
)

// Instruments holds the Instruments-cluster group of the spec's signal model.
type Instruments struct {
	VehicleSpeed          float32
	EngineRPM             float32
	OilLevelOK            bool
	OilPressureMin        bool
	OilTemperature        float32
	AmbientTemperature    float32
	CoolantTemperature    float32
	Odometer              float32
	OdometerStart         float32
	FuelLevel             float32
	FuelLevelStart        float32
	FuelSensorResistance  float32
	ECUTime               string
}

// Engine holds the Engine-ECU group.
type Engine struct {
	ThrottleAngle     float32
	SteeringAngle     float32
	SupplyVoltage     float32
	ManifoldPressure  float32
	EngineLoad        float32
	Lambda1           float32
	Lambda2           float32
	AuxTemp1          float32
	AuxTemp2          float32
	ErrorBits         [8]bool
}

// BitsAsString renders the 8 boolean error bits as a fixed 8-character
// string, per spec.md's invariant on bitsAsString.
func (e Engine) BitsAsString() string {
	var b [8]byte
	for i, v := range e.ErrorBits {
		if v {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b[:])
}

// ExperimentalSlot is one of the four parallel (k, a, b) -> (value, unit)
// tuples decoded from the currently selected measurement group.
type ExperimentalSlot struct {
	K     uint8
	A     uint8
	B     uint8
	Value float32
	// Unit is NUL-terminated within an 8-byte buffer, per spec.md.
	Unit [8]byte
}

// UnitString returns Unit up to its NUL terminator (or the full buffer if
// none is present).
func (s ExperimentalSlot) UnitString() string {
	for i, b := range s.Unit {
		if b == 0 {
			return string(s.Unit[:i])
		}
	}
	return string(s.Unit[:])
}

func (s *ExperimentalSlot) setUnit(u string) {
	var buf [8]byte
	n := copy(buf[:7], u) // leave room for the NUL terminator
	buf[n] = 0
	s.Unit = buf
}

// Experimental is the raw-slot view used by the Experimental menu: the
// currently selected measurement group (1..64) decoded into up to four
// slots, plus the side flag selecting which pair is on screen.
type Experimental struct {
	Group int
	Slots [4]ExperimentalSlot
	Side  bool
}

// ComputedStats are derived entirely by compute(); they are never written
// directly by the session.
type ComputedStats struct {
	ElapsedSeconds int64
	ElapsedKm      float32
	FuelBurned     float32
	FuelPer100Km   float32
	FuelPerHour    float32
}

// Model is the process-wide signal store. Writers call the Set* methods;
// the renderer calls Dirty/Drain after emitting a field.
type Model struct {
	Instruments  Instruments
	Engine       Engine
	Experimental Experimental
	Stats        ComputedStats

	dirty [fieldCount]bool
	bus   *Bus
}

// New returns a Model with all fields at their reset defaults.
func New() *Model {
	m := &Model{}
	m.Reset()
	return m
}

// Attach wires a Bus so every mark() also republishes the field, letting
// the debug dashboard mirror the live signal model. Attaching nil detaches.
func (m *Model) Attach(b *Bus) { m.bus = b }

// Reset returns all fields to their defaults and clears every dirty bit.
func (m *Model) Reset() {
	m.Instruments = Instruments{}
	m.Engine = Engine{}
	m.Experimental = Experimental{}
	m.Stats = ComputedStats{}
	for i := range m.dirty {
		m.dirty[i] = false
	}
}

// Dirty reports whether f has changed since the last Drain.
func (m *Model) Dirty(f FieldID) bool { return m.dirty[f] }

// Drain clears f's dirty bit. Called by the renderer after emitting a field.
func (m *Model) Drain(f FieldID) { m.dirty[f] = false }

func (m *Model) mark(f FieldID) {
	m.dirty[f] = true
	if m.bus != nil {
		m.bus.publish(f, m.valueOf(f))
	}
}

// Value returns the current value of f, typed as float32, bool, or string
// depending on the field. Used by the renderer to format dynamic cells.
func (m *Model) Value(f FieldID) any { return m.valueOf(f) }

func (m *Model) valueOf(f FieldID) any {
	switch f {
	case FieldVehicleSpeed:
		return m.Instruments.VehicleSpeed
	case FieldEngineRPM:
		return m.Instruments.EngineRPM
	case FieldOilLevelOK:
		return m.Instruments.OilLevelOK
	case FieldOilPressureMin:
		return m.Instruments.OilPressureMin
	case FieldOilTemperature:
		return m.Instruments.OilTemperature
	case FieldAmbientTemperature:
		return m.Instruments.AmbientTemperature
	case FieldCoolantTemperature:
		return m.Instruments.CoolantTemperature
	case FieldOdometer:
		return m.Instruments.Odometer
	case FieldFuelLevel:
		return m.Instruments.FuelLevel
	case FieldFuelSensorResistance:
		return m.Instruments.FuelSensorResistance
	case FieldECUTime:
		return m.Instruments.ECUTime
	case FieldThrottleAngle:
		return m.Engine.ThrottleAngle
	case FieldSteeringAngle:
		return m.Engine.SteeringAngle
	case FieldSupplyVoltage:
		return m.Engine.SupplyVoltage
	case FieldManifoldPressure:
		return m.Engine.ManifoldPressure
	case FieldEngineLoad:
		return m.Engine.EngineLoad
	case FieldLambda1:
		return m.Engine.Lambda1
	case FieldLambda2:
		return m.Engine.Lambda2
	case FieldAuxTemp1:
		return m.Engine.AuxTemp1
	case FieldAuxTemp2:
		return m.Engine.AuxTemp2
	case FieldErrorBits:
		return m.Engine.BitsAsString()
	default:
		return nil
	}
}

// SetVehicleSpeed records a new vehicle speed, marking it dirty on change.
func (m *Model) SetVehicleSpeed(v float32) {
	if m.Instruments.VehicleSpeed != v {
		m.Instruments.VehicleSpeed = v
		m.mark(FieldVehicleSpeed)
	}
}

func (m *Model) SetEngineRPM(v float32) {
	if m.Instruments.EngineRPM != v {
		m.Instruments.EngineRPM = v
		m.mark(FieldEngineRPM)
	}
}

func (m *Model) SetOilLevelOK(v bool) {
	if m.Instruments.OilLevelOK != v {
		m.Instruments.OilLevelOK = v
		m.mark(FieldOilLevelOK)
	}
}

func (m *Model) SetOilPressureMin(v bool) {
	if m.Instruments.OilPressureMin != v {
		m.Instruments.OilPressureMin = v
		m.mark(FieldOilPressureMin)
	}
}

func (m *Model) SetOilTemperature(v float32) {
	if m.Instruments.OilTemperature != v {
		m.Instruments.OilTemperature = v
		m.mark(FieldOilTemperature)
	}
}

func (m *Model) SetAmbientTemperature(v float32) {
	if m.Instruments.AmbientTemperature != v {
		m.Instruments.AmbientTemperature = v
		m.mark(FieldAmbientTemperature)
	}
}

func (m *Model) SetCoolantTemperature(v float32) {
	if m.Instruments.CoolantTemperature != v {
		m.Instruments.CoolantTemperature = v
		m.mark(FieldCoolantTemperature)
	}
}

// SetOdometer records the odometer reading. The first call in a session
// also snapshots OdometerStart, per spec.md's elapsedKmSinceStart invariant.
func (m *Model) SetOdometer(v float32) {
	if m.Instruments.OdometerStart == 0 && m.Instruments.Odometer == 0 {
		m.Instruments.OdometerStart = v
	}
	if m.Instruments.Odometer != v {
		m.Instruments.Odometer = v
		m.mark(FieldOdometer)
	}
}

// SetFuelLevel records the fuel level, snapshotting FuelLevelStart on first
// write of a session.
func (m *Model) SetFuelLevel(v float32) {
	if m.Instruments.FuelLevelStart == 0 && m.Instruments.FuelLevel == 0 {
		m.Instruments.FuelLevelStart = v
	}
	if m.Instruments.FuelLevel != v {
		m.Instruments.FuelLevel = v
		m.mark(FieldFuelLevel)
	}
}

func (m *Model) SetFuelSensorResistance(v float32) {
	if m.Instruments.FuelSensorResistance != v {
		m.Instruments.FuelSensorResistance = v
		m.mark(FieldFuelSensorResistance)
	}
}

func (m *Model) SetECUTime(v string) {
	if m.Instruments.ECUTime != v {
		m.Instruments.ECUTime = v
		m.mark(FieldECUTime)
	}
}

func (m *Model) SetThrottleAngle(v float32) {
	if m.Engine.ThrottleAngle != v {
		m.Engine.ThrottleAngle = v
		m.mark(FieldThrottleAngle)
	}
}

func (m *Model) SetSteeringAngle(v float32) {
	if m.Engine.SteeringAngle != v {
		m.Engine.SteeringAngle = v
		m.mark(FieldSteeringAngle)
	}
}

func (m *Model) SetSupplyVoltage(v float32) {
	if m.Engine.SupplyVoltage != v {
		m.Engine.SupplyVoltage = v
		m.mark(FieldSupplyVoltage)
	}
}

func (m *Model) SetManifoldPressure(v float32) {
	if m.Engine.ManifoldPressure != v {
		m.Engine.ManifoldPressure = v
		m.mark(FieldManifoldPressure)
	}
}

func (m *Model) SetEngineLoad(v float32) {
	if m.Engine.EngineLoad != v {
		m.Engine.EngineLoad = v
		m.mark(FieldEngineLoad)
	}
}

func (m *Model) SetLambda1(v float32) {
	if m.Engine.Lambda1 != v {
		m.Engine.Lambda1 = v
		m.mark(FieldLambda1)
	}
}

func (m *Model) SetLambda2(v float32) {
	if m.Engine.Lambda2 != v {
		m.Engine.Lambda2 = v
		m.mark(FieldLambda2)
	}
}

func (m *Model) SetAuxTemp1(v float32) {
	if m.Engine.AuxTemp1 != v {
		m.Engine.AuxTemp1 = v
		m.mark(FieldAuxTemp1)
	}
}

func (m *Model) SetAuxTemp2(v float32) {
	if m.Engine.AuxTemp2 != v {
		m.Engine.AuxTemp2 = v
		m.mark(FieldAuxTemp2)
	}
}

// SetErrorBit sets error bit i (0..7) and marks the combined bit string dirty
// on change.
func (m *Model) SetErrorBit(i int, v bool) {
	if i < 0 || i >= len(m.Engine.ErrorBits) {
		return
	}
	if m.Engine.ErrorBits[i] != v {
		m.Engine.ErrorBits[i] = v
		m.mark(FieldErrorBits)
	}
}

// SetExperimentalSlot writes the Experimental view's raw decode for slot idx
// (0..3) of the currently selected group.
func (m *Model) SetExperimentalSlot(idx int, k, a, b uint8, value float32, unit string) {
	if idx < 0 || idx >= len(m.Experimental.Slots) {
		return
	}
	s := &m.Experimental.Slots[idx]
	s.K, s.A, s.B, s.Value = k, a, b, value
	s.setUnit(unit)
}

// SetExperimentalGroup records which measurement group (1..64) is selected.
func (m *Model) SetExperimentalGroup(g int) { m.Experimental.Group = g }

// SetSide toggles which Experimental pair (0/1 or 2/3) is on screen.
func (m *Model) SetSide(side bool) { m.Experimental.Side = side }

// Compute derives elapsed time/distance and fuel statistics. nowMs and
// connectStartMs are both Unix-epoch milliseconds.
func (m *Model) Compute(nowMs, connectStartMs int64) {
	elapsedMs := nowMs - connectStartMs
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	m.Stats.ElapsedSeconds = elapsedMs / 1000

	elapsedKm := m.Instruments.Odometer - m.Instruments.OdometerStart
	if elapsedKm < 0 {
		elapsedKm = 0
	}
	m.Stats.ElapsedKm = elapsedKm

	fuelBurned := m.Instruments.FuelLevelStart - m.Instruments.FuelLevel
	if fuelBurned < 0 {
		fuelBurned = 0
	}
	m.Stats.FuelBurned = fuelBurned

	if m.Stats.ElapsedKm == 0 {
		m.Stats.FuelPer100Km = 0
	} else {
		m.Stats.FuelPer100Km = fuelBurned / m.Stats.ElapsedKm * 100
	}

	if m.Stats.ElapsedSeconds == 0 {
		m.Stats.FuelPerHour = 0
	} else {
		m.Stats.FuelPerHour = fuelBurned / float32(m.Stats.ElapsedSeconds) * 3600
	}
}

// ElapsedKmSinceStart satisfies spec.md's naming for the elapsed-distance
// invariant used by tests.
func (m *Model) ElapsedKmSinceStart() float32 { return m.Stats.ElapsedKm }

func (f FieldID) String() string {
	names := [...]string{
		"VehicleSpeed", "EngineRPM", "OilLevelOK", "OilPressureMin",
		"OilTemperature", "AmbientTemperature", "CoolantTemperature",
		"Odometer", "FuelLevel", "FuelSensorResistance", "ECUTime",
		"ThrottleAngle", "SteeringAngle", "SupplyVoltage", "ManifoldPressure",
		"EngineLoad", "Lambda1", "Lambda2", "AuxTemp1", "AuxTemp2", "ErrorBits",
	}
	if int(f) < 0 || int(f) >= len(names) {
		return fmt.Sprintf("FieldID(%d)", f)
	}
	return names[f]
}
