// Package signal holds the opaque handles that tie board pins, clock
// domains and primitives together. A Signal is a named value of a fixed
// bit width; a Domain groups a clock Signal with an optional reset Signal.
package signal

import "sync/atomic"

// Signal is a named wire or register. Reads and writes are atomic so a
// monitor goroutine may sample a signal while the owner drives it.
type Signal struct {
	Name  string
	Width int
	v     atomic.Uint64
}

// New returns a signal of the given width (minimum 1 bit).
func New(name string, width int) *Signal {
	if width < 1 {
		width = 1
	}
	return &Signal{Name: name, Width: width}
}

func (s *Signal) mask() uint64 {
	if s.Width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(s.Width) - 1
}

// Get returns the current value.
func (s *Signal) Get() uint64 { return s.v.Load() }

// Set drives v, truncated to the signal width.
func (s *Signal) Set(v uint64) { s.v.Store(v & s.mask()) }

// Bool reports whether any bit is set.
func (s *Signal) Bool() bool { return s.v.Load() != 0 }

// SetBool drives 1 or 0.
func (s *Signal) SetBool(b bool) {
	if b {
		s.v.Store(1)
		return
	}
	s.v.Store(0)
}

func (s *Signal) String() string { return s.Name }

// Domain is a synchronous region: one clock and, unless ResetLess, one
// reset. Reset-less domains have a nil Rst.
type Domain struct {
	Name      string
	Clk       *Signal
	Rst       *Signal
	ResetLess bool
}

// NewDomain creates the clock (and reset) signals for a domain named name.
// Signal names follow the <name>_clk / <name>_rst convention.
func NewDomain(name string, resetLess bool) *Domain {
	d := &Domain{
		Name:      name,
		Clk:       New(name+"_clk", 1),
		ResetLess: resetLess,
	}
	if !resetLess {
		d.Rst = New(name+"_rst", 1)
	}
	return d
}

// InReset reports whether the domain's reset is asserted. Reset-less
// domains are never in reset.
func (d *Domain) InReset() bool {
	return d.Rst != nil && d.Rst.Bool()
}
