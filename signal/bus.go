package signal

import "sync"

// Update is one field change republished onto a Bus.
type Update struct {
	Field FieldID
	Value any
}

// Bus fans out field changes to subscribers without the Session or Model
// ever blocking on a slow subscriber. (The debug web dashboard does not use
// it; it receives frames through display.DashboardTarget.) It mirrors the
// broadcast-on-change shape of an event hub: an unbuffered-to-callers, lossy
// fan-out keyed on a monotonically increasing subscriber id.
//
// Bus is purely an observability side channel: nothing in the KWP1281
// session, menu, or renderer reads from it, so a stalled or absent
// subscriber can never affect the protocol tick.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Update
	next int
	last map[FieldID]any
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: map[int]chan Update{}, last: map[FieldID]any{}}
}

// Subscribe registers a new listener and returns its channel plus a cancel
// func. The channel is pre-seeded with the last known value of every field
// so a late subscriber (e.g. a browser tab opened mid-session) starts from a
// consistent snapshot.
func (b *Bus) Subscribe() (<-chan Update, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Update, 32)
	for f, v := range b.last {
		ch <- Update{Field: f, Value: v}
	}
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			close(c)
			delete(b.subs, id)
		}
	}
	return ch, cancel
}

func (b *Bus) publish(f FieldID, v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[f] = v
	for _, ch := range b.subs {
		select {
		case ch <- Update{Field: f, Value: v}:
		default:
			// slow subscriber: drop rather than block the protocol tick.
		}
	}
}
