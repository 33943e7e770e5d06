// Package orchestrator drives the Session, Signal Model, Menu State, and
// Renderer on a single cooperative tick, implementing the three-phase
// machine spec.md §4.5 describes.
package orchestrator

import (
	"time"

	"kwpdash/display"
	"kwpdash/dtc"
	"kwpdash/input"
	"kwpdash/kwp"
	"kwpdash/menu"
	"kwpdash/obdlog"
	"kwpdash/signal"
)

// Phase is one of the three top-level states spec.md §4.5/§9 names as a
// tagged variant rather than a pair of booleans.
type Phase int

const (
	Setup Phase = iota
	WaitingForConnect
	Running
)

func (p Phase) String() string {
	switch p {
	case Setup:
		return "Setup"
	case WaitingForConnect:
		return "WaitingForConnect"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// ecuTimeout is the Running-phase failure-to-WaitingForConnect bound, per
// spec.md §4.5.
const ecuTimeout = 1300 * time.Millisecond

// settingsExitScreen/settingsModeScreen are the two Settings screens:
// screen 0 ends the session, screen 1 cycles the KWP baud rate.
const settingsExitScreen = 0
const settingsModeScreen = 1

// Orchestrator owns every piece of process state spec.md §2 names and drives
// them through exactly one tick function, matching teacher's main.go
// super-loop in spirit (one goroutine, strictly-ordered steps).
type Orchestrator struct {
	phase     Phase
	simulated bool

	addr byte
	baud int

	session   *kwp.Session
	simulator *signal.Simulator

	Signal *signal.Model
	DTC    *dtc.Store
	Menu   *menu.State

	keypad   input.Keypad
	renderer Renderer
	log      *obdlog.Logger

	waitStart    time.Time
	runningStart time.Time
	lastActivity time.Time

	// bauds cycles on Settings screen 1's "cycle KWP mode" action; spec.md
	// §4.4 names the action but not the concrete choices, so the cycle is
	// over the module's own documented baud rates.
	bauds   []int
	baudIdx int
}

// Renderer is the subset of display.Renderer the orchestrator drives;
// declared here so tests can substitute a fake.
type Renderer interface {
	Init(state *menu.State, addr byte, mode string) error
	Render(state *menu.State, sig *signal.Model, store *dtc.Store, addr byte, mode string, debug display.DebugStatus, force bool, now time.Time) (bool, error)
}

// New returns an Orchestrator in the Setup phase.
func New(keypad input.Keypad, renderer Renderer, logger *obdlog.Logger, addr byte, baud int) *Orchestrator {
	return &Orchestrator{
		phase:    Setup,
		addr:     addr,
		baud:     baud,
		Signal:   signal.New(),
		DTC:      dtc.New(),
		Menu:     menu.New(),
		keypad:   keypad,
		renderer: renderer,
		log:      logger,
		bauds:    []int{1200, 9600, 10400},
	}
}

// Phase returns the current top-level phase.
func (o *Orchestrator) Phase() Phase { return o.phase }

// WaitingSince returns when the current WaitingForConnect phase began.
func (o *Orchestrator) WaitingSince() time.Time { return o.waitStart }

// EnterSetup resets the Signal Model and DTC Store and returns to Setup, per
// spec.md §4.5's "on entry, reset Signal Model and DTC Store".
func (o *Orchestrator) EnterSetup() {
	o.phase = Setup
	o.Signal.Reset()
	o.DTC.Reset()
	o.Menu.Reset()
}

// CompleteSetup applies the chosen mode/baud/addr and transitions to
// WaitingForConnect. transport is nil in simulated mode.
func (o *Orchestrator) CompleteSetup(simulated bool, addr byte, baud int, transport kwp.Transport, wakeUp kwp.WakeUp) {
	o.simulated = simulated
	o.addr = addr
	o.baud = baud
	if simulated {
		o.simulator = signal.NewSimulator()
		o.session = nil
	} else {
		o.session = kwp.New(transport, addr, baud, kwp.WithWakeUp(wakeUp))
	}
	o.phase = WaitingForConnect
	o.waitStart = time.Time{}
}

// mode returns the short label the Debug screen and obdlog rows show.
func (o *Orchestrator) mode() string {
	if o.simulated {
		return "SIM"
	}
	return "REAL"
}

// Tick runs one iteration of the cooperative loop at time now, per spec.md
// §4.5/§5's ordering: KWP service, compute, sample input, render.
func (o *Orchestrator) Tick(now time.Time) error {
	switch o.phase {
	case Setup:
		return nil // left by an external CompleteSetup call
	case WaitingForConnect:
		return o.tickWaitingForConnect(now)
	case Running:
		return o.tickRunning(now)
	default:
		return nil
	}
}

func (o *Orchestrator) tickWaitingForConnect(now time.Time) error {
	action := o.keypad.Sample(now)
	if action == input.Select {
		if o.connect(now) {
			o.phase = Running
			o.runningStart = now
			o.lastActivity = now
			o.Menu.Reset()
			o.logEvent(obdlog.PhaseConnect, obdlog.ClassNone, "connected")
		} else {
			o.logEvent(obdlog.PhaseConnect, obdlog.ClassTimeout, "connect failed")
		}
	}
	if o.renderer != nil {
		_, err := o.renderer.Render(o.Menu, o.Signal, o.DTC, o.addr, o.mode(), o.debugStatus(), false, now)
		return err
	}
	return nil
}

func (o *Orchestrator) connect(now time.Time) bool {
	if o.simulated {
		return true
	}
	if o.session == nil {
		return false
	}
	return o.session.Connect()
}

func (o *Orchestrator) tickRunning(now time.Time) error {
	ok := o.serviceKWP(now)
	if !ok {
		if now.Sub(o.lastActivity) >= ecuTimeout {
			o.logEvent(obdlog.PhaseDisconnect, obdlog.ClassTimeout, "ecu timeout")
			o.phase = WaitingForConnect
			o.waitStart = now
			return nil
		}
	} else {
		o.lastActivity = now
	}

	o.Signal.Compute(now.UnixMilli(), o.runningStart.UnixMilli())

	action := o.keypad.Sample(now)
	o.applyAction(action)

	if o.renderer != nil {
		_, err := o.renderer.Render(o.Menu, o.Signal, o.DTC, o.addr, o.mode(), o.debugStatus(), false, now)
		return err
	}
	return nil
}

// debugStatus reports the session-level values the Debug menu draws.
// Simulated mode has no transport to poll, so it reports itself connected
// (per its own always-succeeds connect()) with no byte count or counter.
func (o *Orchestrator) debugStatus() display.DebugStatus {
	if o.simulated || o.session == nil {
		return display.DebugStatus{Connected: o.simulated}
	}
	return display.DebugStatus{
		Connected: o.session.Connected(),
		Available: o.session.Available(),
		Counter:   o.session.Counter(),
	}
}

// serviceKWP performs the one KWP call appropriate to the active menu, per
// spec.md §4.5(a): Ack keeps the link alive outside Cockpit/Experimental,
// ReadGroup reads the user-selected group in Experimental, and ReadSensors
// reads groups 1..3 for the Cockpit view.
func (o *Orchestrator) serviceKWP(now time.Time) bool {
	if o.simulated {
		o.simulator.Update(o.Signal)
		return true
	}
	if o.session == nil {
		return false
	}
	switch o.Menu.Menu() {
	case menu.Cockpit:
		ok := o.session.ReadSensors(o.Signal)
		if !ok {
			o.logEvent(obdlog.PhaseReadGroup, obdlog.ClassFraming, "read sensors failed")
		}
		return ok
	case menu.Experimental:
		group := byte(o.Menu.Screen())
		if group == 0 {
			group = 1
		}
		ok := o.session.ReadGroup(group, o.Signal)
		if !ok {
			o.logEvent(obdlog.PhaseReadGroup, obdlog.ClassFraming, "read group failed")
		}
		return ok
	default:
		ok := o.session.Ack()
		if !ok {
			o.logEvent(obdlog.PhaseAck, obdlog.ClassTimeout, "keep-alive failed")
		}
		return ok
	}
}

// applyAction routes one decoded keypad Action to Menu State mutation or a
// per-menu Select action, per spec.md §4.3/§4.4.
func (o *Orchestrator) applyAction(action input.Action) {
	switch action {
	case input.Left:
		o.Menu.PrevMenu()
	case input.Right:
		o.Menu.NextMenu()
	case input.Up:
		o.Menu.PrevScreen()
	case input.Down:
		o.Menu.NextScreen()
	case input.Select:
		o.applySelect()
	}
}

func (o *Orchestrator) applySelect() {
	switch o.Menu.Menu() {
	case menu.Settings:
		switch o.Menu.Screen() {
		case settingsExitScreen:
			o.endSession()
		case settingsModeScreen:
			o.cycleBaud()
		}
	case menu.Dtc:
		switch o.Menu.Screen() {
		case 0:
			o.readDTCs()
		case 1:
			o.clearDTCs()
		}
	case menu.Experimental:
		o.Signal.SetSide(!o.Signal.Experimental.Side)
	}
}

func (o *Orchestrator) endSession() {
	if !o.simulated && o.session != nil {
		o.session.EndSession()
	}
	o.logEvent(obdlog.PhaseDisconnect, obdlog.ClassUser, "exit via settings")
	o.phase = WaitingForConnect
}

func (o *Orchestrator) cycleBaud() {
	o.baudIdx = (o.baudIdx + 1) % len(o.bauds)
	o.baud = o.bauds[o.baudIdx]
}

func (o *Orchestrator) readDTCs() {
	if o.simulated || o.session == nil {
		return
	}
	n := o.session.ReadDTCs(o.DTC)
	if n < 0 {
		o.logEvent(obdlog.PhaseReadDTCs, obdlog.ClassFraming, "read dtcs failed")
	} else {
		o.logEvent(obdlog.PhaseReadDTCs, obdlog.ClassNone, "ok")
	}
}

func (o *Orchestrator) clearDTCs() {
	if o.simulated || o.session == nil {
		return
	}
	if !o.session.ClearDTCs() {
		o.logEvent(obdlog.PhaseClearDTCs, obdlog.ClassFraming, "clear dtcs failed")
		return
	}
	o.DTC.Reset()
	o.logEvent(obdlog.PhaseClearDTCs, obdlog.ClassNone, "ok")
}

func (o *Orchestrator) logEvent(phase obdlog.Phase, class obdlog.Class, detail string) {
	if o.log != nil {
		o.log.Record(phase, class, detail)
	}
}
