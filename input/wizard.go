package input

import (
	"strconv"
	"time"

	"github.com/manifoldco/promptui"
)

// SetupChoice is the result of running the Wizard's interactive prompts:
// the mode, baud, and ECU address the Setup phase needs, per spec.md §4.5.
type SetupChoice struct {
	Simulated bool
	Baud      int
	Addr      byte
}

// Wizard is a terminal-interactive Setup backend built on promptui, offered
// as an alternative to keypad-driven Setup when attached to a terminal
// rather than embedded hardware. Its Sample method lets it satisfy Keypad,
// but the choices come from RunSetup; Sample never reports a key.
type Wizard struct{}

// NewWizard returns a Wizard.
func NewWizard() *Wizard { return &Wizard{} }

var bauds = []string{"1200", "9600", "10400"}

// RunSetup interactively prompts for mode, baud, and ECU address.
func (w *Wizard) RunSetup() (SetupChoice, error) {
	modePrompt := promptui.Select{
		Label:    "Mode",
		HideHelp: true,
		Items:    []string{"Real ECU", "Simulation"},
	}
	_, mode, err := modePrompt.Run()
	if err != nil {
		return SetupChoice{}, err
	}

	baudPrompt := promptui.Select{
		Label:    "Baud rate",
		HideHelp: true,
		Items:    bauds,
	}
	_, baudStr, err := baudPrompt.Run()
	if err != nil {
		return SetupChoice{}, err
	}
	baud, err := strconv.Atoi(baudStr)
	if err != nil {
		return SetupChoice{}, err
	}

	addrPrompt := promptui.Prompt{
		Label:   "ECU address (hex, e.g. 17)",
		Default: "17",
	}
	addrStr, err := addrPrompt.Run()
	if err != nil {
		return SetupChoice{}, err
	}
	addr, err := strconv.ParseUint(addrStr, 16, 8)
	if err != nil {
		return SetupChoice{}, err
	}

	return SetupChoice{
		Simulated: mode == "Simulation",
		Baud:      baud,
		Addr:      byte(addr),
	}, nil
}

// Sample always returns None: Wizard is a one-shot Setup-phase prompt, not a
// per-tick keypad; its choices come only from RunSetup.
func (w *Wizard) Sample(now time.Time) Action { return None }
