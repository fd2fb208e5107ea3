package scene

import (
	"context"
	"fmt"
)

// State tags a lifecycle state.
type State int

const (
	StateDefault State = iota
	StateTracking
)

func (s State) String() string {
	switch s {
	case StateDefault:
		return "default"
	case StateTracking:
		return "tracking"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handler processes one tick in a given state and reports whether the frame
// belongs to the scene.
type Handler func(ctx context.Context, sc *Context) bool

// neverMatchedMsec places the last match far enough in the past that no
// window is open at start-up.
const neverMatchedMsec = -100 * 1000

// Machine is an explicit state table: one handler per state tag.
type Machine struct {
	state           State
	handlers        map[State]Handler
	lastMatchedMsec int64
	onSwitch        func(from, to State)
}

// NewMachine builds a machine starting in StateDefault.
func NewMachine(handlers map[State]Handler) *Machine {
	return &Machine{
		state:           StateDefault,
		handlers:        handlers,
		lastMatchedMsec: neverMatchedMsec,
	}
}

// OnSwitch registers a hook called on every transition.
func (m *Machine) OnSwitch(fn func(from, to State)) {
	m.onSwitch = fn
}

// State returns the current state tag.
func (m *Machine) State() State {
	return m.state
}

// Tick runs the handler of the current state. A true result refreshes the
// last-matched timestamp used by MatchedIn.
func (m *Machine) Tick(ctx context.Context, sc *Context) bool {
	h, ok := m.handlers[m.state]
	if !ok {
		return false
	}
	matched := h(ctx, sc)
	if matched {
		m.lastMatchedMsec = sc.Msec
	}
	return matched
}

// Switch moves to state to.
func (m *Machine) Switch(to State) {
	from := m.state
	m.state = to
	if m.onSwitch != nil && from != to {
		m.onSwitch(from, to)
	}
}

// MatchedIn reports whether a tick matched within the last window ms.
func (m *Machine) MatchedIn(sc *Context, window int64) bool {
	return Within(sc.Msec, m.lastMatchedMsec, window)
}

// Reset returns to StateDefault and forgets the last match.
func (m *Machine) Reset() {
	m.state = StateDefault
	m.lastMatchedMsec = neverMatchedMsec
}

// Within reports whether since lies less than window ms before now.
func Within(now, since, window int64) bool {
	return now-since < window
}
