package crg

import (
	"atx040-go/internal/sim"
	"atx040-go/signal"
)

// Combine is the reset aggregator: software request, external active-low
// reset, and the power-on pulse, ORed.
func Combine(soft, rstN, trigger bool) bool {
	return soft || !rstN || trigger
}

// ResetSync drives a domain reset from an asynchronous level: assertion
// is immediate, deassertion happens on the second rising edge of the
// domain clock after the level drops.
type ResetSync struct {
	rst  *signal.Signal
	in   func() bool
	meta bool
}

func NewResetSync(cd *signal.Domain, in func() bool) *ResetSync {
	r := &ResetSync{rst: cd.Rst, in: in, meta: true}
	r.rst.SetBool(true)
	return r
}

// Assert forces the reset without waiting for a clock edge.
func (r *ResetSync) Assert() {
	r.meta = true
	r.rst.SetBool(true)
}

// Edge is the domain-clock process.
func (r *ResetSync) Edge(e sim.Edge) {
	if !e.Rising {
		return
	}
	if r.in() {
		r.Assert()
		return
	}
	r.rst.SetBool(r.meta)
	r.meta = false
}
