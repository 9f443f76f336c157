// Package soc assembles the ATX040 base SoC: the board platform, the clock
// and reset controller, the MC68040 CPU pads, the reset pull-up and the
// SDR SDRAM settings.
package soc

import (
	"math/bits"
	"time"

	"atx040-go/errcode"
	"atx040-go/internal/crg"
	"atx040-go/internal/platform"
	"atx040-go/internal/platform/boards"
	"atx040-go/internal/pll"
	"atx040-go/internal/sdram"
	"atx040-go/internal/sim"
	"atx040-go/signal"
	"atx040-go/types"
	"atx040-go/x/mathx"
	"atx040-go/x/strx"

	uuid "github.com/satori/go.uuid"
)

const (
	Ident = "SoC on ATX040"

	MainRAMOrigin = 0x40000000

	DefaultBoard          = "atx040"
	DefaultSpeedGrade     = -1
	DefaultLockCycles     = 2400 // 100us at 24MHz
	DefaultSDRAMRate      = string(sdram.Rate1to1)
	DefaultMaxSDRAMSize   = 0x40000000
	DefaultL2Size         = 2048
	DefaultMinL2DataWidth = 128
)

// Board resources used by the SoC.
const (
	PinRstPU  = "rst_pu"
	PinCPU    = "mc68040"
	PinSDRAM  = "sdram"
	PinSerial = "serial"
)

// Namespace for build IDs: equal configurations give equal IDs.
var buildNamespace = uuid.NewV5(uuid.NamespaceOID, "atx040-go/soc")

type options struct {
	board      string
	speedgrade int
	lockCycles uint64
	buildTime  time.Time
}

type Option func(*options)

// WithBoard selects an embedded board description.
func WithBoard(name string) Option { return func(o *options) { o.board = name } }

// WithSpeedGrade selects the PLL speed grade (-1, -2 or -3).
func WithSpeedGrade(g int) Option { return func(o *options) { o.speedgrade = g } }

// WithLockCycles sets the PLL lock latency in reference cycles.
func WithLockCycles(n uint64) Option { return func(o *options) { o.lockCycles = n } }

// WithIdentVersion appends the build time to the ident string.
func WithIdentVersion(t time.Time) Option { return func(o *options) { o.buildTime = t } }

// BaseSoC is a built SoC. All fields are fixed after New.
type BaseSoC struct {
	Board    *boards.Board
	Platform *platform.Platform
	PLL      *pll.S6PLL
	CRG      *crg.CRG
	CPU      *CPU
	RstPU    *signal.Signal
	Serial   *platform.Record
	SDRAM    *sdram.Module // nil with integrated main RAM

	cfg   types.SoCConfig
	ident string
	sdram *types.SDRAMInfo
}

// WithDefaults fills unset fields.
func WithDefaults(cfg types.SoCConfig) types.SoCConfig {
	if cfg.SysClkFreq == 0 {
		cfg.SysClkFreq = crg.DefaultSysClkHz
	}
	cfg.SDRAMRate = strx.Coalesce(cfg.SDRAMRate, DefaultSDRAMRate)
	if cfg.MaxSDRAMSize == 0 {
		cfg.MaxSDRAMSize = DefaultMaxSDRAMSize
	}
	if cfg.L2Size == 0 {
		cfg.L2Size = DefaultL2Size
	}
	if cfg.MinL2DataWidth == 0 {
		cfg.MinL2DataWidth = DefaultMinL2DataWidth
	}
	return cfg
}

// New builds the SoC. Any error aborts the whole build.
func New(cfg types.SoCConfig, opts ...Option) (*BaseSoC, error) {
	o := options{board: DefaultBoard, speedgrade: DefaultSpeedGrade, lockCycles: DefaultLockCycles}
	for _, fn := range opts {
		fn(&o)
	}
	cfg = WithDefaults(cfg)

	b, err := boards.Load(o.board)
	if err != nil {
		return nil, err
	}
	p, err := platform.New(b)
	if err != nil {
		return nil, err
	}
	pl, err := pll.NewS6PLL(o.speedgrade, o.lockCycles)
	if err != nil {
		return nil, err
	}

	s := &BaseSoC{Board: b, Platform: p, PLL: pl, cfg: cfg, ident: Ident}
	if !o.buildTime.IsZero() {
		s.ident += " " + o.buildTime.UTC().Format("2006-01-02 15:04:05")
	}

	// CRG
	s.CRG, err = crg.New(crg.Config{RefClkHz: b.DefaultClkFreq, SysClkHz: cfg.SysClkFreq}, p, pl, p)
	if err != nil {
		return nil, err
	}

	pads, err := p.RequestRecord(PinCPU)
	if err != nil {
		return nil, err
	}
	s.CPU = NewCPU(pads, s.CRG.Sys())

	if s.RstPU, err = p.Request(PinRstPU); err != nil {
		return nil, err
	}
	s.RstPU.SetBool(true)

	if s.Serial, err = p.RequestRecord(PinSerial); err != nil {
		return nil, err
	}

	// SDR SDRAM
	if cfg.IntegratedRAM == 0 {
		if err := s.addSDRAM(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *BaseSoC) addSDRAM() error {
	const op = "soc.sdram"
	rate := sdram.Rate(s.cfg.SDRAMRate)
	if rate == sdram.Rate1to4 {
		return errcode.New(errcode.Unsupported, op, "SDR PHY does not run at %s", rate)
	}
	pads, err := s.Platform.RequestRecord(PinSDRAM)
	if err != nil {
		return err
	}
	m, err := sdram.MT48LC16M16(s.cfg.SysClkFreq, rate)
	if err != nil {
		return err
	}
	if dq := pads.Sub["dq"]; dq == nil || dq.Width != m.DataWidth {
		return errcode.New(errcode.InvalidConfig, op, "%s is x%d, board dq does not match", m.Name, m.DataWidth)
	}
	s.SDRAM = m

	var l2 uint64
	if s.cfg.L2Size > 0 {
		l2 = 1 << (bits.Len64(s.cfg.L2Size) - 1) // round down to a power of two
	}
	s.sdram = &types.SDRAMInfo{
		Module:    m.Name,
		Rate:      string(m.Rate),
		NBanks:    m.NBanks,
		NRows:     m.NRows,
		NCols:     m.NCols,
		DataWidth: m.DataWidth,
		Origin:    MainRAMOrigin,
		Size:      mathx.Min(m.SizeBytes(), s.cfg.MaxSDRAMSize),
		L2Size:    l2,
		L2Width:   mathx.Max(uint64(m.DataWidth), s.cfg.MinL2DataWidth),
		Timings:   m.Timings(),
	}
	return nil
}

// Config is the effective configuration after defaults.
func (s *BaseSoC) Config() types.SoCConfig { return s.cfg }

// Ident is the identification string, with build time when requested.
func (s *BaseSoC) Ident() string { return s.ident }

// Attach wires the controller and the CPU onto a kernel built from
// s.CRG.Clocks().
func (s *BaseSoC) Attach(k *sim.Kernel) error {
	if err := s.CRG.Attach(k); err != nil {
		return err
	}
	return k.On(crg.DomainSys, s.CPU.Edge)
}

// Info describes the built design.
func (s *BaseSoC) Info() types.SoCInfo {
	info := types.SoCInfo{
		Ident:      s.ident,
		Device:     s.Board.Device,
		SysClkFreq: s.cfg.SysClkFreq,
		PLL:        s.CRG.PLL(),
		Domains:    s.CRG.Domains(),
		FalsePaths: s.Platform.FalsePaths(),
		Periods:    s.Platform.PeriodConstraints(),
		MainRAM:    s.cfg.IntegratedRAM,
	}
	if s.sdram != nil {
		sd := *s.sdram
		info.SDRAM = &sd
	}
	info.BuildID = s.buildID(info).String()
	return info
}

func (s *BaseSoC) buildID(info types.SoCInfo) uuid.UUID {
	name := s.Board.Name + "/" + s.Board.Device + "/" + s.CRG.PLL().String()
	if info.SDRAM != nil {
		name += "/" + info.SDRAM.Module + "@" + info.SDRAM.Rate
	}
	return uuid.NewV5(buildNamespace, name)
}
