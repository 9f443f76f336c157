// Package crg is the clock & reset controller of the ATX040 board: it
// derives the sys, sys_ps, bclk and pclk domains from the 24MHz reference
// through a PLL, sequences the power-on reset, and forwards the memory and
// CPU clocks to their pins through DDR outputs.
package crg

import (
	"sync"

	"atx040-go/errcode"
	"atx040-go/internal/ddr"
	"atx040-go/internal/sim"
	"atx040-go/signal"
	"atx040-go/types"
)

const (
	DefaultRefClkHz = 24_000_000
	DefaultSysClkHz = 80_000_000

	SysPSPhaseDeg = 90
)

// Domain names.
const (
	DomainSys   = "sys"
	DomainSysPS = "sys_ps"
	DomainBClk  = "bclk"
	DomainPClk  = "pclk"
	DomainClkIn = "clkin"
)

// Board resources used by the controller.
const (
	PinClk24      = "clk24"
	PinRstN       = "rst_n"
	PinSDRAMClock = "sdram_clock"
	PinCPUBClk    = "cpu_bclk"
	PinCPUPClk    = "cpu_pclk"
)

// Pins hands out board signals by name.
type Pins interface {
	Request(name string) (*signal.Signal, error)
}

// Constraints receives timing annotations.
type Constraints interface {
	AddFalsePath(from, to *signal.Signal) error
}

// Synthesizer is the frequency-synthesis primitive (see internal/pll).
type Synthesizer interface {
	RegisterInput(clk *signal.Signal, freqHz uint64) error
	CreateOutput(cd *signal.Domain, freqHz uint64, phaseDeg int) error
	Finalize() (types.PLLConfig, error)
	Input() *signal.Signal
	Step(reset bool) (locked bool)
}

type Config struct {
	RefClkHz uint64
	SysClkHz uint64
}

func (c Config) withDefaults() Config {
	if c.RefClkHz == 0 {
		c.RefClkHz = DefaultRefClkHz
	}
	if c.SysClkHz == 0 {
		c.SysClkHz = DefaultSysClkHz
	}
	return c
}

// Validate checks that every derived domain is an exact integer ratio of
// the system clock.
func (c Config) Validate() error {
	if c.SysClkHz%4 != 0 {
		return errcode.New(errcode.InexactRatio, "crg.config", "sys %dHz is not a multiple of 4", c.SysClkHz)
	}
	return nil
}

type CRG struct {
	cfg   Config
	gen   Generator
	synth Synthesizer
	pll   types.PLLConfig

	sys, sysPS, bclk, pclk, clkin *signal.Domain

	rstN    *signal.Signal
	counter *signal.Signal
	reset   *signal.Signal // PLL reset input
	outputs []*ddr.Output

	mu     sync.Mutex
	rsync  *ResetSync
	soft   bool
	hold   bool // reset || !locked
	cycle  uint64
	status types.CRGStatus
}

// New builds the controller. Any configuration error aborts the build and
// no controller is returned.
func New(cfg Config, pins Pins, synth Synthesizer, tc Constraints) (*CRG, error) {
	const op = "crg.new"
	if pins == nil || synth == nil || tc == nil {
		return nil, errcode.New(errcode.InvalidParams, op, "pins, synthesizer and constraints are required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &CRG{
		cfg:   cfg,
		gen:   NewGenerator(cfg.RefClkHz),
		synth: synth,
		sys:   signal.NewDomain(DomainSys, false),
		sysPS: signal.NewDomain(DomainSysPS, true),
		bclk:  signal.NewDomain(DomainBClk, true),
		pclk:  signal.NewDomain(DomainPClk, true),
		reset: signal.New("pll_reset", 1),
		hold:  true,
	}
	c.counter = signal.New("rst_cnt", c.gen.Width)

	// Clk / Rst
	clk24, err := pins.Request(PinClk24)
	if err != nil {
		return nil, err
	}
	if c.rstN, err = pins.Request(PinRstN); err != nil {
		return nil, err
	}
	// Pulled up on the board; released until something drives it low.
	c.rstN.SetBool(true)

	fwd := []struct {
		pin string
		cd  *signal.Domain
	}{
		{PinSDRAMClock, c.sysPS}, // SDRAM clock
		{PinCPUBClk, c.bclk},     // MC68040 clocks
		{PinCPUPClk, c.pclk},
	}
	pads := make([]*signal.Signal, len(fwd))
	for i, f := range fwd {
		if pads[i], err = pins.Request(f.pin); err != nil {
			return nil, err
		}
	}

	// PLL
	if err := synth.RegisterInput(clk24, cfg.RefClkHz); err != nil {
		return nil, err
	}
	if err := c.declare(); err != nil {
		return nil, err
	}
	if c.pll, err = synth.Finalize(); err != nil {
		return nil, err
	}
	// sys_clk -> pll.clkin exists only through the SoC reset path.
	if err := tc.AddFalsePath(c.sys.Clk, synth.Input()); err != nil {
		return nil, err
	}
	c.clkin = &signal.Domain{Name: DomainClkIn, Clk: synth.Input(), ResetLess: true}

	for i, f := range fwd {
		o, err := ddr.Clock(pads[i], f.cd)
		if err != nil {
			return nil, err
		}
		c.outputs = append(c.outputs, o)
	}

	c.sys.Rst.SetBool(true)
	c.status = types.CRGStatus{SysReset: true}
	return c, nil
}

// declare registers every PLL output. Calling it again with the same
// configuration changes nothing.
func (c *CRG) declare() error {
	s := c.cfg.SysClkHz
	outs := []struct {
		cd    *signal.Domain
		hz    uint64
		phase int
	}{
		{c.sys, s, 0},
		{c.bclk, s / 4, 0},
		{c.pclk, s / 2, 0},
		{c.sysPS, s, SysPSPhaseDeg},
	}
	for _, o := range outs {
		if err := c.synth.CreateOutput(o.cd, o.hz, o.phase); err != nil {
			return err
		}
	}
	return nil
}

// Step advances one reference-clock cycle: the pulse generator counts,
// the reset aggregator recombines its inputs and the PLL sees the result.
// Without an attached kernel the sys reset follows reset || !locked
// directly; with one, it deasserts through the sys-domain synchroniser.
func (c *CRG) Step() types.CRGStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, trig := c.gen.Advance(c.counter.Get())
	c.counter.Set(next)
	c.cycle++

	rstN := c.rstN.Bool()
	reset := Combine(c.soft, rstN, trig)
	c.reset.SetBool(reset)
	locked := c.synth.Step(reset)

	c.hold = reset || !locked
	switch {
	case c.rsync == nil:
		c.sys.Rst.SetBool(c.hold)
	case c.hold:
		c.rsync.Assert()
	}

	c.status = types.CRGStatus{
		Cycle:     c.cycle,
		Counter:   next,
		Trigger:   trig,
		SoftReset: c.soft,
		ExtReset:  !rstN,
		Reset:     reset,
		Locked:    locked,
		SysReset:  c.sys.Rst.Bool(),
	}
	return c.status
}

// Status returns the last snapshot with the current sys reset level.
func (c *CRG) Status() types.CRGStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	s.SysReset = c.sys.Rst.Bool()
	return s
}

// SetSoftReset drives the software reset request.
func (c *CRG) SetSoftReset(on bool) {
	c.mu.Lock()
	c.soft = on
	c.mu.Unlock()
}

// Rearm clears the power-on counter so the pulse fires again, as after a
// power cycle.
func (c *CRG) Rearm() {
	c.mu.Lock()
	c.counter.Set(0)
	c.mu.Unlock()
}

func (c *CRG) holdLevel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hold
}

// Attach registers the controller's processes on a kernel built from
// Clocks: Step on every clkin rising edge, the sys reset synchroniser on
// sys, and the DDR outputs on their source domains.
func (c *CRG) Attach(k *sim.Kernel) error {
	const op = "crg.attach"
	c.mu.Lock()
	if c.rsync != nil {
		c.mu.Unlock()
		return errcode.New(errcode.InvalidConfig, op, "already attached")
	}
	c.rsync = NewResetSync(c.sys, c.holdLevel)
	c.mu.Unlock()

	if err := k.On(DomainClkIn, func(e sim.Edge) {
		if e.Rising {
			c.Step()
		}
	}); err != nil {
		return err
	}
	if err := k.On(DomainSys, c.rsync.Edge); err != nil {
		return err
	}
	for _, o := range c.outputs {
		o := o
		if err := k.On(o.Domain().Name, func(e sim.Edge) { o.Edge(e.Rising) }); err != nil {
			return err
		}
	}
	return nil
}

// Clocks lists the free-running clocks of the design, reference first.
func (c *CRG) Clocks() []sim.Clock {
	clocks := []sim.Clock{{Domain: c.clkin, FreqHz: c.cfg.RefClkHz}}
	for _, cd := range []*signal.Domain{c.sys, c.sysPS, c.bclk, c.pclk} {
		o, _ := c.pll.Output(cd.Name)
		clocks = append(clocks, sim.Clock{Domain: cd, FreqHz: o.FreqHz, PhaseDeg: o.PhaseDeg})
	}
	return clocks
}

// Domain returns a domain by name.
func (c *CRG) Domain(name string) (*signal.Domain, bool) {
	for _, cd := range []*signal.Domain{c.sys, c.sysPS, c.bclk, c.pclk, c.clkin} {
		if cd.Name == name {
			return cd, true
		}
	}
	return nil, false
}

// Sys is the only reset-bearing domain; the SoC consumes it.
func (c *CRG) Sys() *signal.Domain { return c.sys }

// Domains describes every domain, PLL outputs first.
func (c *CRG) Domains() []types.DomainInfo {
	out := make([]types.DomainInfo, 0, 5)
	for _, cd := range []*signal.Domain{c.sys, c.sysPS, c.bclk, c.pclk} {
		o, _ := c.pll.Output(cd.Name)
		out = append(out, types.DomainInfo{
			Name:      cd.Name,
			FreqHz:    o.FreqHz,
			PhaseDeg:  o.PhaseDeg,
			ResetLess: cd.ResetLess,
			Source:    "pll",
		})
	}
	return append(out, types.DomainInfo{
		Name:      DomainClkIn,
		FreqHz:    c.cfg.RefClkHz,
		ResetLess: true,
		Source:    "clkin",
	})
}

func (c *CRG) Config() Config           { return c.cfg }
func (c *CRG) Generator() Generator     { return c.gen }
func (c *CRG) PLL() types.PLLConfig     { return c.pll }
func (c *CRG) RstN() *signal.Signal     { return c.rstN }
func (c *CRG) PLLReset() *signal.Signal { return c.reset }
func (c *CRG) Outputs() []*ddr.Output   { return append([]*ddr.Output(nil), c.outputs...) }
