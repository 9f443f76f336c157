// Package sim advances several free-running clocks against one exact
// integer timebase and calls the processes registered on each clock edge.
//
// The timebase is 720 ticks per period of the least common multiple of all
// clock frequencies, so every half period and every whole-degree phase
// offset lands on an integer tick.
package sim

import (
	"context"

	"atx040-go/errcode"
	"atx040-go/signal"
	"atx040-go/x/mathx"
)

const ticksPerLCMPeriod = 720

// Clock is a free-running clock. The domain's Clk signal follows the
// waveform; PhaseDeg delays the first rising edge.
type Clock struct {
	Domain   *signal.Domain
	FreqHz   uint64
	PhaseDeg int
}

// Edge is passed to processes.
type Edge struct {
	Clock  string
	Rising bool
	Time   uint64 // ticks
	Cycle  uint64 // rising edges of this clock so far, including this one
}

// Process runs on every edge (rising and falling) of its clock.
type Process func(Edge)

type clockState struct {
	Clock
	half   uint64
	next   uint64
	rising bool
	cycles uint64
	procs  []Process
}

type Kernel struct {
	clocks []*clockState
	byName map[string]*clockState
	tps    uint64
	now    uint64
}

// NewKernel validates the clocks and builds the timebase.
func NewKernel(clocks ...Clock) (*Kernel, error) {
	const op = "sim.new_kernel"
	if len(clocks) == 0 {
		return nil, errcode.New(errcode.InvalidParams, op, "no clocks")
	}
	k := &Kernel{byName: make(map[string]*clockState, len(clocks))}
	lcm := uint64(1)
	for _, c := range clocks {
		if c.Domain == nil || c.FreqHz == 0 {
			return nil, errcode.New(errcode.InvalidParams, op, "clock needs a domain and a frequency")
		}
		if c.PhaseDeg < 0 || c.PhaseDeg >= 360 {
			return nil, errcode.New(errcode.InvalidPhase, op, "%s: phase %d", c.Domain.Name, c.PhaseDeg)
		}
		if _, dup := k.byName[c.Domain.Name]; dup {
			return nil, errcode.New(errcode.DomainConflict, op, "clock %s declared twice", c.Domain.Name)
		}
		var ok bool
		if lcm, ok = mathx.LCM(lcm, c.FreqHz); !ok {
			return nil, errcode.New(errcode.TimebaseOverflow, op, "frequencies have no 64-bit common multiple")
		}
		cs := &clockState{Clock: c}
		k.clocks = append(k.clocks, cs)
		k.byName[c.Domain.Name] = cs
	}
	tps, ok := mathx.MulChecked(lcm, ticksPerLCMPeriod)
	if !ok {
		return nil, errcode.New(errcode.TimebaseOverflow, op, "timebase exceeds 64 bits")
	}
	k.tps = tps
	for _, cs := range k.clocks {
		period := tps / cs.FreqHz
		cs.half = period / 2
		cs.next = period * uint64(cs.PhaseDeg) / 360
		cs.rising = true
		cs.Domain.Clk.SetBool(false)
	}
	return k, nil
}

// On registers a process on a clock's edges.
func (k *Kernel) On(clock string, p Process) error {
	cs, ok := k.byName[clock]
	if !ok {
		return errcode.New(errcode.UnknownDomain, "sim.on", "%s", clock)
	}
	cs.procs = append(cs.procs, p)
	return nil
}

// TicksPerSecond is the timebase resolution.
func (k *Kernel) TicksPerSecond() uint64 { return k.tps }

// Now is the time of the last processed edge, in ticks.
func (k *Kernel) Now() uint64 { return k.now }

// Cycles returns the rising edges a clock has produced.
func (k *Kernel) Cycles(clock string) uint64 {
	if cs, ok := k.byName[clock]; ok {
		return cs.cycles
	}
	return 0
}

// Step processes every edge due at the next event time, in clock
// declaration order, and returns that time.
func (k *Kernel) Step() uint64 {
	t := k.clocks[0].next
	for _, cs := range k.clocks[1:] {
		t = mathx.Min(t, cs.next)
	}
	k.now = t
	for _, cs := range k.clocks {
		if cs.next != t {
			continue
		}
		e := Edge{Clock: cs.Domain.Name, Rising: cs.rising, Time: t}
		if cs.rising {
			cs.cycles++
		}
		e.Cycle = cs.cycles
		cs.Domain.Clk.SetBool(cs.rising)
		for _, p := range cs.procs {
			p(e)
		}
		cs.rising = !cs.rising
		cs.next += cs.half
	}
	return t
}

// RunCycles steps until clock has produced n more rising edges or ctx ends.
func (k *Kernel) RunCycles(ctx context.Context, clock string, n uint64) error {
	cs, ok := k.byName[clock]
	if !ok {
		return errcode.New(errcode.UnknownDomain, "sim.run_cycles", "%s", clock)
	}
	target := cs.cycles + n
	for i := 0; cs.cycles < target; i++ {
		if i&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		k.Step()
	}
	return nil
}

// RunUntil steps while the next event is at or before t ticks.
func (k *Kernel) RunUntil(ctx context.Context, t uint64) error {
	for i := 0; ; i++ {
		next := k.clocks[0].next
		for _, cs := range k.clocks[1:] {
			next = mathx.Min(next, cs.next)
		}
		if next > t {
			return nil
		}
		if i&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		k.Step()
	}
}
