package soc

import (
	"sync/atomic"

	"atx040-go/internal/platform"
	"atx040-go/internal/sim"
	"atx040-go/signal"
)

// CPU is the MC68040 wrapper. It owns the CPU pad record and runs in the
// sys domain, counting the sys cycles it has spent out of reset.
type CPU struct {
	Pads *platform.Record
	cd   *signal.Domain

	cycles  atomic.Uint64
	resets  atomic.Uint64
	inReset bool
}

func NewCPU(pads *platform.Record, cd *signal.Domain) *CPU {
	return &CPU{Pads: pads, cd: cd, inReset: true}
}

// Edge is the sys-domain process.
func (c *CPU) Edge(e sim.Edge) {
	if !e.Rising {
		return
	}
	if c.cd.InReset() {
		if !c.inReset {
			c.resets.Add(1)
		}
		c.inReset = true
		c.cycles.Store(0)
		return
	}
	c.inReset = false
	c.cycles.Add(1)
}

// Cycles since the last reset release.
func (c *CPU) Cycles() uint64 { return c.cycles.Load() }

// Resets counts the times the CPU was put back into reset after running.
func (c *CPU) Resets() uint64 { return c.resets.Load() }

// Running reports whether the CPU is out of reset.
func (c *CPU) Running() bool { return !c.cd.InReset() }
