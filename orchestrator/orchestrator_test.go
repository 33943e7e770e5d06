package orchestrator

import (
	"testing"
	"time"

	"kwpdash/display"
	"kwpdash/dtc"
	"kwpdash/input"
	"kwpdash/kwp"
	"kwpdash/menu"
	"kwpdash/signal"
)

type fakeRenderer struct {
	inits   int
	renders int
}

func (f *fakeRenderer) Init(state *menu.State, addr byte, mode string) error {
	f.inits++
	return nil
}

func (f *fakeRenderer) Render(state *menu.State, sig *signal.Model, store *dtc.Store, addr byte, mode string, debug display.DebugStatus, force bool, now time.Time) (bool, error) {
	f.renders++
	return true, nil
}

func TestNew_StartsInSetupPhase(t *testing.T) {
	o := New(input.NewSimulated(), &fakeRenderer{}, nil, kwp.AddrInstruments, 9600)
	if o.Phase() != Setup {
		t.Fatalf("Phase() = %v, want Setup", o.Phase())
	}
}

func TestCompleteSetup_SimulatedEntersWaitingForConnect(t *testing.T) {
	o := New(input.NewSimulated(), &fakeRenderer{}, nil, kwp.AddrInstruments, 9600)
	o.CompleteSetup(true, kwp.AddrInstruments, 9600, nil, nil)
	if o.Phase() != WaitingForConnect {
		t.Fatalf("Phase() = %v, want WaitingForConnect", o.Phase())
	}
}

func TestTick_SelectInWaitingForConnectEntersRunningWhenSimulated(t *testing.T) {
	kp := input.NewSimulated()
	o := New(kp, &fakeRenderer{}, nil, kwp.AddrInstruments, 9600)
	o.CompleteSetup(true, kwp.AddrInstruments, 9600, nil, nil)

	kp.Feed(700) // Select
	now := time.Unix(0, 0)
	if err := o.Tick(now); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if o.Phase() != Running {
		t.Fatalf("Phase() = %v, want Running", o.Phase())
	}
}

func TestTick_RunningDrivesSimulatorAndComputesStats(t *testing.T) {
	kp := input.NewSimulated()
	o := New(kp, &fakeRenderer{}, nil, kwp.AddrInstruments, 9600)
	o.CompleteSetup(true, kwp.AddrInstruments, 9600, nil, nil)
	kp.Feed(700)
	start := time.Unix(1000, 0)
	if err := o.Tick(start); err != nil {
		t.Fatalf("Tick (connect): %v", err)
	}

	before := o.Signal.Instruments.VehicleSpeed
	if err := o.Tick(start.Add(time.Second)); err != nil {
		t.Fatalf("Tick (running): %v", err)
	}
	if o.Signal.Instruments.VehicleSpeed == before {
		t.Fatalf("simulator should have advanced VehicleSpeed")
	}
	if o.Signal.Stats.ElapsedSeconds != 1 {
		t.Fatalf("Stats.ElapsedSeconds = %d, want 1 one second after connect", o.Signal.Stats.ElapsedSeconds)
	}
}

func TestApplySelect_SettingsExitEndsSession(t *testing.T) {
	o := New(input.NewSimulated(), &fakeRenderer{}, nil, kwp.AddrInstruments, 9600)
	o.CompleteSetup(true, kwp.AddrInstruments, 9600, nil, nil)
	o.phase = Running
	o.Menu.NextMenu() // Experimental
	o.Menu.NextMenu() // Debug
	o.Menu.NextMenu() // Dtc
	o.Menu.NextMenu() // Settings
	if o.Menu.Menu() != menu.Settings {
		t.Fatalf("expected to land on Settings, got %v", o.Menu.Menu())
	}

	o.applySelect()
	if o.Phase() != WaitingForConnect {
		t.Fatalf("Phase() = %v, want WaitingForConnect after Settings exit", o.Phase())
	}
}

func TestApplySelect_ExperimentalTogglesSide(t *testing.T) {
	o := New(input.NewSimulated(), &fakeRenderer{}, nil, kwp.AddrInstruments, 9600)
	o.CompleteSetup(true, kwp.AddrInstruments, 9600, nil, nil)
	o.phase = Running
	o.Menu.NextMenu() // Experimental

	if o.Signal.Experimental.Side {
		t.Fatalf("expected Side to start false")
	}
	o.applySelect()
	if !o.Signal.Experimental.Side {
		t.Fatalf("expected Side to toggle true after Select")
	}
}

func TestTickRunning_EcuTimeoutReturnsToWaitingForConnect(t *testing.T) {
	o := New(input.NewSimulated(), &fakeRenderer{}, nil, kwp.AddrInstruments, 9600)
	o.simulated = false
	o.session = nil // serviceKWP fails immediately with no session
	o.phase = Running
	start := time.Unix(0, 0)
	o.lastActivity = start

	if err := o.tickRunning(start.Add(500 * time.Millisecond)); err != nil {
		t.Fatalf("tickRunning: %v", err)
	}
	if o.Phase() != Running {
		t.Fatalf("Phase() = %v, want still Running before timeout elapses", o.Phase())
	}

	if err := o.tickRunning(start.Add(1400 * time.Millisecond)); err != nil {
		t.Fatalf("tickRunning: %v", err)
	}
	if o.Phase() != WaitingForConnect {
		t.Fatalf("Phase() = %v, want WaitingForConnect after ecu timeout", o.Phase())
	}
}

func TestCycleBaud_AdvancesThroughDocumentedRates(t *testing.T) {
	o := New(input.NewSimulated(), &fakeRenderer{}, nil, kwp.AddrInstruments, 1200)
	first := o.baud
	o.cycleBaud()
	if o.baud == first {
		t.Fatalf("cycleBaud should change the baud rate")
	}
}
