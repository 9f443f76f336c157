// Package sdram holds the SDR SDRAM module database and converts datasheet
// timings into controller cycles at the system clock.
package sdram

import (
	"atx040-go/errcode"
	"atx040-go/types"
	"atx040-go/x/mathx"
	"atx040-go/x/timex"
)

// Rate is the controller:DRAM clock ratio.
type Rate string

const (
	Rate1to1 Rate = "1:1"
	Rate1to2 Rate = "1:2"
	Rate1to4 Rate = "1:4"
)

// ratio returns the DRAM clocks per controller clock and the safety
// margin added to ns timings, as a fraction num/den of a controller
// period.
func (r Rate) ratio() (ck uint64, num, den uint64, ok bool) {
	switch r {
	case Rate1to1:
		return 1, 0, 1, true
	case Rate1to2:
		return 2, 1, 2, true
	case Rate1to4:
		return 4, 3, 4, true
	}
	return 0, 0, 0, false
}

// T is a datasheet timing: the larger of Ck clock cycles and Ps
// picoseconds. Zero fields are ignored.
type T struct {
	Ck uint64
	Ps uint64
}

type Geometry struct {
	NBanks int
	NRows  int
	NCols  int
}

type Module struct {
	Name string
	Geometry
	DataWidth int
	ClkHz     uint64
	Rate      Rate

	tRP, tRCD, tWR, tWTR, tRFC, tCCD, tRRD, tRAS T
	tREFI                                        uint64 // ps, no margin
}

// MT48LC16M16 is the Micron 256Mb x16 SDR SDRAM fitted on the board.
func MT48LC16M16(clkHz uint64, rate Rate) (*Module, error) {
	m := &Module{
		Name:      "MT48LC16M16",
		Geometry:  Geometry{NBanks: 4, NRows: 8192, NCols: 512},
		DataWidth: 16,
		ClkHz:     clkHz,
		Rate:      rate,

		tRP:  T{Ps: 20_000},
		tRCD: T{Ps: 20_000},
		tWR:  T{Ps: 15_000},
		tRFC: T{Ps: 66_000},
		tRAS: T{Ps: 44_000},
		tWTR: T{Ck: 2},
		tCCD: T{Ck: 1},
		tRRD: T{Ps: 15_000},

		tREFI: 64_000_000_000 / 8192, // 64ms / 8192 rows
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) validate() error {
	const op = "sdram.module"
	if m.ClkHz == 0 {
		return errcode.New(errcode.InvalidParams, op, "%s: zero clock", m.Name)
	}
	if _, _, _, ok := m.Rate.ratio(); !ok {
		return errcode.New(errcode.Unsupported, op, "%s: rate %q", m.Name, m.Rate)
	}
	return nil
}

// SizeBytes is the module capacity.
func (m *Module) SizeBytes() uint64 {
	return uint64(m.NBanks) * uint64(m.NRows) * uint64(m.NCols) * uint64(m.DataWidth) / 8
}

// psToCycles converts with the rate margin.
func (m *Module) psToCycles(ps uint64, margin bool) uint64 {
	if ps == 0 {
		return 0
	}
	_, num, den, _ := m.Rate.ratio()
	if !margin || num == 0 {
		return timex.PsToCycles(ps, m.ClkHz)
	}
	// ceil(ps*f/1e12 + num/den)
	const psPerS = 1_000_000_000_000
	return mathx.CeilDiv(ps*m.ClkHz*den+num*psPerS, den*psPerS)
}

func (m *Module) ckToCycles(ck uint64) uint64 {
	r, _, _, _ := m.Rate.ratio()
	return mathx.CeilDiv(ck, r)
}

func (m *Module) cycles(t T) uint64 {
	return mathx.Max(m.ckToCycles(t.Ck), m.psToCycles(t.Ps, true))
}

// Timings converts every datasheet timing to controller cycles.
func (m *Module) Timings() types.SDRAMTimings {
	return types.SDRAMTimings{
		TRP:   m.cycles(m.tRP),
		TRCD:  m.cycles(m.tRCD),
		TWR:   m.cycles(m.tWR),
		TWTR:  m.cycles(m.tWTR),
		TREFI: m.psToCycles(m.tREFI, false),
		TRFC:  m.cycles(m.tRFC),
		TCCD:  m.cycles(m.tCCD),
		TRRD:  m.cycles(m.tRRD),
		TRAS:  m.cycles(m.tRAS),
	}
}
