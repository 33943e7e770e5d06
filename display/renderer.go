package display

import (
	"fmt"
	"strconv"
	"time"

	"kwpdash/dtc"
	"kwpdash/menu"
	"kwpdash/signal"
)

// frameInterval bounds the Render rate: 177ms, per spec.md §4.4.
const frameInterval = 177 * time.Millisecond

// FrameRate is the theoretical max frame rate the Debug menu shows.
const FrameRate float64 = 1000.0 / 177.0

// Target is the display surface the Renderer writes to: begin/clear/cursor
// positioning/print, per spec.md §6's LCD interface. Both the real LCD
// driver (out of scope, named interface only) and DashboardTarget satisfy
// this.
type Target interface {
	Begin(cols, rows int) error
	Clear() error
	SetCursor(col, row int) error
	Print(s string) error
}

// DebugStatus carries the session-level values only the Debug menu draws;
// the orchestrator assembles it from kwp.Session since the Renderer itself
// never talks to a Session directly. Its zero value (disconnected, 0
// available bytes, counter 0) is a safe placeholder outside Running.
type DebugStatus struct {
	Connected bool
	Available int
	Counter   byte
}

// Renderer draws the Signal Model, DTC Store, and Menu State onto a Target.
// It is backend-agnostic: the same layout tables and dirty-bit draining
// drive a real LCD and the debug dashboard identically.
type Renderer struct {
	target     Target
	lastRender time.Time
}

// NewRenderer returns a Renderer bound to target, calling Begin(16, 2).
func NewRenderer(target Target) (*Renderer, error) {
	if err := target.Begin(16, 2); err != nil {
		return nil, fmt.Errorf("begin display: %w", err)
	}
	return &Renderer{target: target}, nil
}

// Init draws the current menu/screen's static labels and blanks any region
// previously occupied by the Setup/Connect prompts, per spec.md §4.4.
func (r *Renderer) Init(state *menu.State, addr byte, mode string) error {
	if err := r.target.Clear(); err != nil {
		return err
	}
	for _, c := range r.staticCells(state, addr, mode) {
		if err := r.draw(c.col, c.row, c.label); err != nil {
			return err
		}
	}
	return nil
}

// Render draws every dirty field (or every field, if force) in the active
// menu/screen's layout, then clears the dirty bits it wrote. It no-ops,
// returning false, if called again within frameInterval unless force.
func (r *Renderer) Render(state *menu.State, sig *signal.Model, store *dtc.Store, addr byte, mode string, debug DebugStatus, force bool, now time.Time) (bool, error) {
	if !force && r.lastRender.After(time.Time{}) && now.Sub(r.lastRender) < frameInterval {
		return false, nil
	}
	r.lastRender = now

	switch state.Menu() {
	case menu.Cockpit:
		if err := r.renderCockpit(sig, addr, state.Screen(), force); err != nil {
			return false, err
		}
	case menu.Experimental:
		if err := r.renderExperimental(sig, force); err != nil {
			return false, err
		}
	case menu.Debug:
		if err := r.renderDebug(debug, mode, force); err != nil {
			return false, err
		}
	case menu.Dtc:
		if err := r.renderDtc(store, state.Screen(), force); err != nil {
			return false, err
		}
	case menu.Settings:
		// Settings has no dynamic fields: both screens are static prompts.
	default:
		return false, r.drawNotSupported()
	}
	return true, nil
}

func (r *Renderer) renderCockpit(sig *signal.Model, addr byte, screen int, force bool) error {
	cells, ok := cockpitFields[cockpitKey{addr, screen}]
	if !ok {
		return r.drawNotSupported()
	}
	for _, c := range cells {
		if err := r.renderField(sig, c, force); err != nil {
			return err
		}
	}
	return nil
}

// renderExperimental shows the two (k, value, unit) pairs selected by
// sig.Experimental.Side: pairs (0,1) when false, (2,3) when true.
func (r *Renderer) renderExperimental(sig *signal.Model, force bool) error {
	lo, hi := 0, 1
	if sig.Experimental.Side {
		lo, hi = 2, 3
	}
	rowLabel := fmt.Sprintf("G%02d", sig.Experimental.Group)
	if err := r.draw(0, 0, rowLabel); err != nil {
		return err
	}
	for row, idx := range [2]int{lo, hi} {
		slot := sig.Experimental.Slots[idx]
		text := fmt.Sprintf("%.1f%s", slot.Value, slot.UnitString())
		if err := r.drawBounded(4, row, 12, text); err != nil {
			return err
		}
	}
	return nil
}

// renderDebug draws the connection flag, available-bytes count, block
// counter, current KWP mode, and theoretical frame rate, per spec.md §4.4.
// Debug has no per-field dirty-bit semantics; it always redraws its small
// fixed set of diagnostic values when called, force or not.
func (r *Renderer) renderDebug(debug DebugStatus, mode string, force bool) error {
	_ = force
	if err := r.drawBounded(2, 0, 1, connFlag(debug.Connected)); err != nil {
		return err
	}
	if err := r.drawBounded(5, 0, 3, strconv.Itoa(debug.Available)); err != nil {
		return err
	}
	if err := r.drawBounded(10, 0, 3, strconv.Itoa(int(debug.Counter))); err != nil {
		return err
	}
	if err := r.drawBounded(5, 1, 4, mode); err != nil {
		return err
	}
	frameRate := FrameRate
	return r.drawBounded(14, 1, 2, strconv.Itoa(int(frameRate)))
}

func connFlag(connected bool) string {
	if connected {
		return "1"
	}
	return "0"
}

func (r *Renderer) renderDtc(store *dtc.Store, screen int, force bool) error {
	if screen < 2 {
		return nil // screens 0/1 (Read/Clear) are static prompts only
	}
	lo, hi := dtcSlotCells(screen)
	if err := r.drawBounded(0, 0, 16, formatDTCSlot(store, lo)); err != nil {
		return err
	}
	return r.drawBounded(0, 1, 16, formatDTCSlot(store, hi))
}

func (r *Renderer) renderField(sig *signal.Model, c fieldCell, force bool) error {
	if !force && !sig.Dirty(c.field) {
		return nil
	}
	text := formatCell(sig, c.field, c.kind)
	if err := r.drawBounded(c.col, c.row, c.width, text); err != nil {
		return err
	}
	sig.Drain(c.field)
	return nil
}

// drawBounded writes text padded to width, or drops it entirely if it
// exceeds width, per spec.md §4.4's "dropped, not truncated" rule.
func (r *Renderer) drawBounded(col, row, width int, text string) error {
	if len(text) > width {
		return nil
	}
	padded := text + spaces(width-len(text))
	return r.draw(col, row, padded)
}

func (r *Renderer) draw(col, row int, text string) error {
	if err := r.target.SetCursor(col, row); err != nil {
		return err
	}
	return r.target.Print(text)
}

func (r *Renderer) drawNotSupported() error {
	return r.draw(0, 0, "not supported")
}

func (r *Renderer) staticCells(state *menu.State, addr byte, mode string) []staticCell {
	switch state.Menu() {
	case menu.Cockpit:
		return cockpitStatic[cockpitKey{addr, state.Screen()}]
	case menu.Experimental:
		return experimentalStatic
	case menu.Debug:
		return debugStatic
	case menu.Dtc:
		return dtcStatic[state.Screen()]
	case menu.Settings:
		return settingsStatic[state.Screen()]
	default:
		return nil
	}
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func formatCell(sig *signal.Model, f signal.FieldID, kind Kind) string {
	v := sig.Value(f)
	switch kind {
	case KindFloat1:
		fv, _ := v.(float32)
		return strconv.FormatFloat(float64(fv), 'f', 1, 32)
	case KindInt:
		return fmt.Sprintf("%v", v)
	case KindString:
		switch vv := v.(type) {
		case string:
			return vv
		case bool:
			return formatBoolField(f, vv)
		default:
			return fmt.Sprintf("%v", v)
		}
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatBoolField(f signal.FieldID, v bool) string {
	switch f {
	case signal.FieldOilLevelOK:
		if v {
			return "OK"
		}
		return "LOW"
	case signal.FieldOilPressureMin:
		if v {
			return "LOW"
		}
		return "OK"
	default:
		if v {
			return "1"
		}
		return "0"
	}
}
