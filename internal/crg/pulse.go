package crg

import "atx040-go/x/mathx"

// Generator is the power-on reset pulse generator. It is a pure function
// of its counter: the counter lives in the reset-less reference domain and
// is owned by whoever calls Advance.
//
// The counter saturates at RefHz-1 and the pulse is high while
// RefHz/10 < counter < RefHz/5, so it fires once per power cycle.
type Generator struct {
	RefHz uint64
	Max   uint64 // saturation value
	Lo    uint64 // exclusive lower bound of the window
	Hi    uint64 // exclusive upper bound of the window
	Width int    // register width in bits
}

// NewGenerator derives the thresholds for a reference frequency with
// integer division only.
func NewGenerator(refHz uint64) Generator {
	g := Generator{
		RefHz: refHz,
		Lo:    refHz / 10,
		Hi:    refHz / 5,
		Width: mathx.Log2Ceil(refHz),
	}
	if refHz > 0 {
		g.Max = refHz - 1
	}
	return g
}

// Trigger is the combinational pulse for a counter value.
func (g Generator) Trigger(counter uint64) bool {
	return counter > g.Lo && counter < g.Hi
}

// Advance is one reference tick: it returns the next counter value and the
// pulse for that value.
func (g Generator) Advance(counter uint64) (uint64, bool) {
	if counter < g.Max {
		counter++
	}
	return counter, g.Trigger(counter)
}

// Window returns the first and last counter values with the pulse high.
// ok is false when the window is empty (very small reference frequencies).
func (g Generator) Window() (first, last uint64, ok bool) {
	if g.Hi <= g.Lo+1 {
		return 0, 0, false
	}
	return g.Lo + 1, g.Hi - 1, true
}
