package signal

// simRange is one simulated field's walk bounds and per-tick step.
type simRange struct {
	min, max, delta float32
}

var (
	simSpeed   = simRange{0, 200, 5}
	simRPM     = simRange{0, 7100, 87}
	simCoolant = simRange{0, 160, 2}
	simOilTemp = simRange{0, 160, 2}
	simOilLvl  = simRange{0, 8, 1}
	simFuel    = simRange{0, 57, 1}
)

// Simulator walks each simulated field up and down within its bounds,
// reversing direction at either boundary, for use without a live ECU.
type Simulator struct {
	dir struct {
		speed, rpm, coolant, oilTemp, oilLvl, fuel float32
	}
	oilLvl float32 // walked oil level; OilLevelOK is derived from it
}

// NewSimulator returns a Simulator with every field initially walking up.
func NewSimulator() *Simulator {
	s := &Simulator{}
	s.dir.speed, s.dir.rpm, s.dir.coolant = 1, 1, 1
	s.dir.oilTemp, s.dir.oilLvl, s.dir.fuel = 1, 1, 1
	return s
}

func step(cur float32, r simRange, dir *float32) float32 {
	next := cur + r.delta*(*dir)
	if next >= r.max {
		next = r.max
		*dir = -1
	} else if next <= r.min {
		next = r.min
		*dir = 1
	}
	return next
}

// Update walks every simulated field one tick and marks changed fields
// dirty through the normal Set* setters.
func (s *Simulator) Update(m *Model) {
	m.SetVehicleSpeed(step(m.Instruments.VehicleSpeed, simSpeed, &s.dir.speed))
	m.SetEngineRPM(step(m.Instruments.EngineRPM, simRPM, &s.dir.rpm))
	m.SetCoolantTemperature(step(m.Instruments.CoolantTemperature, simCoolant, &s.dir.coolant))
	m.SetOilTemperature(step(m.Instruments.OilTemperature, simOilTemp, &s.dir.oilTemp))
	m.SetFuelLevel(step(m.Instruments.FuelLevel, simFuel, &s.dir.fuel))

	s.oilLvl = step(s.oilLvl, simOilLvl, &s.dir.oilLvl)
	m.SetOilLevelOK(s.oilLvl >= simOilLvl.max/2)
}
