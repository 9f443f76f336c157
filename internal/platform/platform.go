// Package platform is the pin/topology provider. It hands out board
// resources as signals, each exactly once, and collects the timing
// constraints (clock periods and false paths) that the rest of the design
// declares against those signals.
package platform

import (
	"sync"

	"atx040-go/errcode"
	"atx040-go/internal/platform/boards"
	"atx040-go/signal"
	"atx040-go/types"
	"atx040-go/x/timex"
)

// Record is a requested multi-signal resource (e.g. "sdram", "mc68040").
type Record struct {
	IO  types.IO
	Sub map[string]*signal.Signal
}

type Platform struct {
	board *boards.Board

	mu         sync.Mutex
	requested  map[string]bool
	falsePaths []types.FalsePath
	periods    []types.PeriodConstraint
}

// New wraps a validated board.
func New(b *boards.Board) (*Platform, error) {
	if b == nil {
		return nil, errcode.New(errcode.InvalidParams, "platform.new", "nil board")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &Platform{board: b, requested: map[string]bool{}}, nil
}

func (p *Platform) Board() *boards.Board { return p.board }

func (p *Platform) claim(op, name string, index int) (types.IO, error) {
	io, ok := p.board.Lookup(name, index)
	if !ok {
		return types.IO{}, errcode.New(errcode.UnknownPin, op, "%s", boards.Key(name, index))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	key := boards.Key(name, index)
	if p.requested[key] {
		return types.IO{}, errcode.New(errcode.PinInUse, op, "%s", key)
	}
	p.requested[key] = true
	return io, nil
}

// Request returns the signal for a single-level resource at index 0.
// Requesting the board's default clock also records its period.
func (p *Platform) Request(name string) (*signal.Signal, error) {
	return p.RequestIndex(name, 0)
}

func (p *Platform) RequestIndex(name string, index int) (*signal.Signal, error) {
	const op = "platform.request"
	io, ok := p.board.Lookup(name, index)
	if ok && len(io.Subsignals) != 0 {
		return nil, errcode.New(errcode.InvalidParams, op, "%s is a record; use RequestRecord", name)
	}
	io, err := p.claim(op, name, index)
	if err != nil {
		return nil, err
	}
	s := signal.New(name, io.Width())
	if name == p.board.DefaultClkName && index == 0 {
		if err := p.AddPeriodConstraint(s, p.board.DefaultClkFreq); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RequestRecord returns a resource with subsignals, one signal per
// subsignal named <resource>_<sub>.
func (p *Platform) RequestRecord(name string) (*Record, error) {
	const op = "platform.request_record"
	io, ok := p.board.Lookup(name, 0)
	if ok && len(io.Subsignals) == 0 {
		return nil, errcode.New(errcode.InvalidParams, op, "%s has no subsignals; use Request", name)
	}
	io, err := p.claim(op, name, 0)
	if err != nil {
		return nil, err
	}
	r := &Record{IO: io, Sub: make(map[string]*signal.Signal, len(io.Subsignals))}
	for _, s := range io.Subsignals {
		r.Sub[s.Name] = signal.New(name+"_"+s.Name, len(s.Pins))
	}
	return r, nil
}

// AddFalsePath excludes the path from -> to from timing analysis.
// Declaring the same pair again is a no-op.
func (p *Platform) AddFalsePath(from, to *signal.Signal) error {
	if from == nil || to == nil {
		return errcode.New(errcode.InvalidParams, "platform.false_path", "nil signal")
	}
	fp := types.FalsePath{From: from.Name, To: to.Name}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, have := range p.falsePaths {
		if have == fp {
			return nil
		}
	}
	p.falsePaths = append(p.falsePaths, fp)
	return nil
}

// AddPeriodConstraint records the clock period of sig. Re-declaring the
// same period is a no-op; a different period is a conflict.
func (p *Platform) AddPeriodConstraint(sig *signal.Signal, freqHz uint64) error {
	const op = "platform.period"
	if sig == nil || freqHz == 0 {
		return errcode.New(errcode.InvalidParams, op, "signal and frequency are required")
	}
	pc := types.PeriodConstraint{Signal: sig.Name, PeriodPs: timex.PeriodPs(freqHz)}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, have := range p.periods {
		if have.Signal != pc.Signal {
			continue
		}
		if have.PeriodPs != pc.PeriodPs {
			return errcode.New(errcode.DomainConflict, op, "%s already constrained to %dps", sig.Name, have.PeriodPs)
		}
		return nil
	}
	p.periods = append(p.periods, pc)
	return nil
}

func (p *Platform) FalsePaths() []types.FalsePath {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.FalsePath(nil), p.falsePaths...)
}

func (p *Platform) PeriodConstraints() []types.PeriodConstraint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.PeriodConstraint(nil), p.periods...)
}
