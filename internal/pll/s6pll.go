// Package pll models a Spartan-6 PLL_BASE as a frequency-synthesis
// primitive: one registered input clock, up to six output domains, an
// exact integer configuration search, and reset/lock behaviour.
package pll

import (
	"sort"
	"sync"

	"atx040-go/errcode"
	"atx040-go/signal"
	"atx040-go/types"
	"atx040-go/x/conv"
	"atx040-go/x/mathx"
)

// Spartan-6 PLL_BASE limits.
const (
	NumOutputs = 6

	ClkinMinHz = 19_000_000
	ClkinMaxHz = 540_000_000

	DivclkMin = 1
	DivclkMax = 52
	MultMin   = 2
	MultMax   = 64
	DivideMin = 1
	DivideMax = 128

	// Output phase steps are 1/8 of a VCO period.
	phaseStepsPerVCO = 8
)

// VCO range per speed grade.
var vcoRange = map[int][2]uint64{
	-1: {400_000_000, 1_000_000_000},
	-2: {400_000_000, 1_000_000_000},
	-3: {400_000_000, 1_080_000_000},
}

type clkout struct {
	domain   *signal.Domain
	freqHz   uint64
	phaseDeg int
}

// S6PLL is safe for concurrent use; Step is normally driven from a single
// reference-clock process.
type S6PLL struct {
	vcoMin, vcoMax uint64
	lockCycles     uint64

	mu        sync.Mutex
	clkin     *signal.Signal
	clkinHz   uint64
	outs      []clkout
	cfg       *types.PLLConfig
	locked    bool
	lockCount uint64
}

// NewS6PLL creates a PLL for a speed grade (-1, -2 or -3). lockCycles is
// the number of reference cycles without reset needed to assert lock.
func NewS6PLL(speedgrade int, lockCycles uint64) (*S6PLL, error) {
	r, ok := vcoRange[speedgrade]
	if !ok {
		return nil, errcode.New(errcode.Unsupported, "pll.new", "speedgrade %d", speedgrade)
	}
	return &S6PLL{vcoMin: r[0], vcoMax: r[1], lockCycles: lockCycles}, nil
}

// RegisterInput sets the input clock. Registering the same clock at the
// same frequency again is a no-op; anything else after the first call is
// rejected.
func (p *S6PLL) RegisterInput(clk *signal.Signal, freqHz uint64) error {
	const op = "pll.register_input"
	if clk == nil {
		return errcode.New(errcode.InvalidParams, op, "nil clock")
	}
	if freqHz < ClkinMinHz || freqHz > ClkinMaxHz {
		return errcode.New(errcode.ClkinOutOfRange, op, "%dHz not in [%d, %d]", freqHz, ClkinMinHz, ClkinMaxHz)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clkin != nil {
		if p.clkin == clk && p.clkinHz == freqHz {
			return nil
		}
		return errcode.New(errcode.ClkinRegistered, op, "input already %s at %dHz", p.clkin.Name, p.clkinHz)
	}
	p.clkin, p.clkinHz = clk, freqHz
	return nil
}

// Input returns the registered input clock, or nil.
func (p *S6PLL) Input() *signal.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clkin
}

// CreateOutput declares an output domain. Identical re-declarations are
// ignored, before or after Finalize, so the topology never accumulates
// duplicates.
func (p *S6PLL) CreateOutput(cd *signal.Domain, freqHz uint64, phaseDeg int) error {
	const op = "pll.create_output"
	if cd == nil || freqHz == 0 {
		return errcode.New(errcode.InvalidParams, op, "domain and frequency are required")
	}
	if phaseDeg < 0 || phaseDeg >= 360 {
		return errcode.New(errcode.InvalidPhase, op, "%s: phase %d not in [0, 360)", cd.Name, phaseDeg)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.outs {
		if o.domain.Name != cd.Name {
			continue
		}
		if o.domain == cd && o.freqHz == freqHz && o.phaseDeg == phaseDeg {
			return nil
		}
		return errcode.New(errcode.DomainConflict, op, "%s already declared at %dHz/%d°", cd.Name, o.freqHz, o.phaseDeg)
	}
	if p.cfg != nil {
		return errcode.New(errcode.Finalized, op, "%s: configuration already resolved", cd.Name)
	}
	if len(p.outs) == NumOutputs {
		return errcode.New(errcode.TooManyOutputs, op, "%s: all %d outputs in use", cd.Name, NumOutputs)
	}
	p.outs = append(p.outs, clkout{domain: cd, freqHz: freqHz, phaseDeg: phaseDeg})
	return nil
}

// Finalize resolves the configuration. On failure nothing is committed and
// Config reports no outputs. Once resolved, further calls return the same
// configuration.
func (p *S6PLL) Finalize() (types.PLLConfig, error) {
	const op = "pll.finalize"
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg != nil {
		return cloneConfig(*p.cfg), nil
	}
	if p.clkin == nil {
		return types.PLLConfig{}, errcode.New(errcode.ClkinMissing, op, "no input clock registered")
	}
	if len(p.outs) == 0 {
		return types.PLLConfig{}, errcode.New(errcode.InvalidConfig, op, "no outputs declared")
	}
	cfg, ok := p.search()
	if !ok {
		return types.PLLConfig{}, errcode.New(errcode.NoPLLConfig, op, "%s", p.describe())
	}
	p.cfg = &cfg
	return cloneConfig(cfg), nil
}

// search walks input dividers ascending and feedback multipliers
// descending, accepting the first VCO at which every output is exact.
func (p *S6PLL) search() (types.PLLConfig, bool) {
	for div := uint64(DivclkMin); div <= DivclkMax; div++ {
		for mult := uint64(MultMax); mult >= MultMin; mult-- {
			num := p.clkinHz * mult // VCO = num / div
			if num < p.vcoMin*div || num > p.vcoMax*div {
				continue
			}
			outs, ok := p.fit(num, div)
			if !ok {
				continue
			}
			return types.PLLConfig{
				ClkinHz:      p.clkinHz,
				VCOHz:        num / div,
				DivclkDivide: div,
				ClkfboutMult: mult,
				Outputs:      outs,
			}, true
		}
	}
	return types.PLLConfig{}, false
}

// fit finds the output divider of every clkout for VCO = num/div.
func (p *S6PLL) fit(num, div uint64) ([]types.ClockOutput, bool) {
	outs := make([]types.ClockOutput, 0, len(p.outs))
	for i, o := range p.outs {
		den, ok := mathx.MulChecked(o.freqHz, div)
		if !ok || num%den != 0 {
			return nil, false
		}
		d := num / den
		if d < DivideMin || d > DivideMax {
			return nil, false
		}
		if !PhaseReachable(o.phaseDeg, d) {
			return nil, false
		}
		outs = append(outs, types.ClockOutput{
			Index:    i,
			Domain:   o.domain.Name,
			FreqHz:   o.freqHz,
			PhaseDeg: o.phaseDeg,
			Divide:   d,
		})
	}
	return outs, true
}

// PhaseReachable reports whether phaseDeg is a whole number of VCO phase
// steps for an output divided by d.
func PhaseReachable(phaseDeg int, d uint64) bool {
	if phaseDeg == 0 {
		return true
	}
	return (uint64(phaseDeg)*phaseStepsPerVCO*d)%360 == 0
}

func (p *S6PLL) describe() string {
	s := p.clkin.Name + "@" + itoa(p.clkinHz)
	for _, o := range p.outs {
		s += " " + o.domain.Name + "@" + itoa(o.freqHz)
		if o.phaseDeg != 0 {
			s += "/" + itoa(uint64(o.phaseDeg)) + "deg"
		}
	}
	return s
}

// Config returns the resolved configuration, if any.
func (p *S6PLL) Config() (types.PLLConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg == nil {
		return types.PLLConfig{}, false
	}
	return cloneConfig(*p.cfg), true
}

// Step advances one reference cycle with the given reset level and
// returns the lock status. Reset clears lock immediately; lock asserts
// after lockCycles consecutive cycles out of reset. An unresolved PLL
// never locks.
func (p *S6PLL) Step(reset bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if reset || p.cfg == nil {
		p.locked = false
		p.lockCount = 0
		return false
	}
	if !p.locked {
		p.lockCount++
		p.locked = p.lockCount >= p.lockCycles
	}
	return p.locked
}

func (p *S6PLL) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locked
}

func itoa(v uint64) string {
	var buf [20]byte
	return string(conv.Utoa(buf[:], v))
}

func cloneConfig(c types.PLLConfig) types.PLLConfig {
	c.Outputs = append([]types.ClockOutput(nil), c.Outputs...)
	sort.Slice(c.Outputs, func(i, j int) bool { return c.Outputs[i].Index < c.Outputs[j].Index })
	return c
}
