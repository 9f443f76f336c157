package crg

import (
	"context"
	"testing"

	"atx040-go/errcode"
	"atx040-go/internal/platform"
	"atx040-go/internal/platform/boards"
	"atx040-go/internal/pll"
	"atx040-go/internal/sim"
	"atx040-go/signal"
	"atx040-go/types"
)

type rig struct {
	plat *platform.Platform
	pll  *pll.S6PLL
}

func newRig(t *testing.T, lockCycles uint64) rig {
	t.Helper()
	b, err := boards.Load("atx040")
	if err != nil {
		t.Fatalf("boards.Load: %v", err)
	}
	p, err := platform.New(b)
	if err != nil {
		t.Fatalf("platform.New: %v", err)
	}
	s, err := pll.NewS6PLL(-1, lockCycles)
	if err != nil {
		t.Fatalf("pll.NewS6PLL: %v", err)
	}
	return rig{plat: p, pll: s}
}

func (r rig) build(t *testing.T, sysHz uint64) *CRG {
	t.Helper()
	c, err := New(Config{SysClkHz: sysHz}, r.plat, r.pll, r.plat)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestDomainsAtDefaults(t *testing.T) {
	r := newRig(t, 10)
	c := r.build(t, 0)

	want := map[string]types.DomainInfo{
		"sys":    {Name: "sys", FreqHz: 80_000_000, Source: "pll"},
		"sys_ps": {Name: "sys_ps", FreqHz: 80_000_000, PhaseDeg: 90, ResetLess: true, Source: "pll"},
		"bclk":   {Name: "bclk", FreqHz: 20_000_000, ResetLess: true, Source: "pll"},
		"pclk":   {Name: "pclk", FreqHz: 40_000_000, ResetLess: true, Source: "pll"},
		"clkin":  {Name: "clkin", FreqHz: 24_000_000, ResetLess: true, Source: "clkin"},
	}
	got := c.Domains()
	if len(got) != len(want) {
		t.Fatalf("domains=%+v", got)
	}
	for _, d := range got {
		if d != want[d.Name] {
			t.Fatalf("%s: got %+v want %+v", d.Name, d, want[d.Name])
		}
	}

	resetBearing := 0
	for _, name := range []string{"sys", "sys_ps", "bclk", "pclk", "clkin"} {
		cd, ok := c.Domain(name)
		if !ok {
			t.Fatalf("missing domain %s", name)
		}
		if !cd.ResetLess {
			resetBearing++
		}
	}
	if resetBearing != 1 || c.Sys().ResetLess {
		t.Fatal("sys must be the only reset-bearing domain")
	}
	if cd, _ := c.Domain("clkin"); cd.Clk != r.pll.Input() {
		t.Fatal("clkin must mirror the PLL input clock")
	}
}

func TestFalsePathAndPeriod(t *testing.T) {
	r := newRig(t, 10)
	r.build(t, 80_000_000)

	fps := r.plat.FalsePaths()
	if len(fps) != 1 || fps[0] != (types.FalsePath{From: "sys_clk", To: "clk24"}) {
		t.Fatalf("false paths=%+v", fps)
	}
	pcs := r.plat.PeriodConstraints()
	if len(pcs) != 1 || pcs[0].Signal != "clk24" {
		t.Fatalf("periods=%+v", pcs)
	}
}

func TestDeclareIsIdempotent(t *testing.T) {
	r := newRig(t, 10)
	c := r.build(t, 80_000_000)
	before := c.PLL()
	for i := 0; i < 2; i++ {
		if err := c.declare(); err != nil {
			t.Fatalf("re-declare: %v", err)
		}
	}
	after, err := r.pll.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(after.Outputs) != len(before.Outputs) || after.VCOHz != before.VCOHz {
		t.Fatalf("topology changed: %+v -> %+v", before, after)
	}
	for i := range after.Outputs {
		if after.Outputs[i] != before.Outputs[i] {
			t.Fatalf("output %d changed: %+v -> %+v", i, before.Outputs[i], after.Outputs[i])
		}
	}
}

func TestUnachievableFrequencyAbortsBuild(t *testing.T) {
	r := newRig(t, 10)
	c, err := New(Config{SysClkHz: 77_777_776}, r.plat, r.pll, r.plat)
	if errcode.Of(err) != errcode.NoPLLConfig || c != nil {
		t.Fatalf("expected no_pll_config and no controller, got %v %v", c, err)
	}
	if _, ok := r.pll.Config(); ok {
		t.Fatal("no partial topology expected on the PLL")
	}
	if len(r.plat.FalsePaths()) != 0 {
		t.Fatal("no constraints expected after a failed build")
	}
}

func TestInexactRatioRejected(t *testing.T) {
	r := newRig(t, 10)
	_, err := New(Config{SysClkHz: 81_000_000 + 2}, r.plat, r.pll, r.plat)
	if errcode.Of(err) != errcode.InexactRatio {
		t.Fatalf("expected inexact_ratio, got %v", err)
	}
	if r.pll.Input() != nil {
		t.Fatal("PLL must be untouched when the config is rejected")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	r := newRig(t, 10)
	if _, err := New(Config{}, nil, r.pll, r.plat); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("expected invalid_params, got %v", err)
	}
}

func TestPinConflictAbortsBuild(t *testing.T) {
	r := newRig(t, 10)
	if _, err := r.plat.Request(PinCPUBClk); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := New(Config{}, r.plat, r.pll, r.plat); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("expected pin_in_use, got %v", err)
	}
	if r.pll.Input() != nil {
		t.Fatal("PLL must be untouched when a pin is unavailable")
	}
}

// Reference 24MHz, system 80MHz: the pulse opens at 2,400,001, closes at
// 4,800,000, the PLL relocks after it and nothing fires again.
func TestPowerOnScenario(t *testing.T) {
	const lock = 2_400
	r := newRig(t, lock)
	c := r.build(t, 80_000_000)

	var (
		st         types.CRGStatus
		firstLock  uint64
		pulseOn    uint64
		pulseOff   uint64
		relock     uint64
		prevTrig   bool
		pulseCount int
	)
	for st.Cycle < 5_000_000 {
		st = c.Step()
		if st.Locked && firstLock == 0 {
			firstLock = st.Cycle
		}
		if st.Trigger && !prevTrig {
			pulseCount++
			pulseOn = st.Counter
		}
		if !st.Trigger && prevTrig {
			pulseOff = st.Counter
		}
		if st.Trigger && (st.Locked || !st.Reset || !st.SysReset) {
			t.Fatalf("cycle %d: pulse must hold reset: %+v", st.Cycle, st)
		}
		if pulseOff != 0 && st.Locked && relock == 0 {
			relock = st.Cycle
		}
		if st.Locked == st.SysReset {
			t.Fatalf("cycle %d: sys reset must follow !locked without a kernel: %+v", st.Cycle, st)
		}
		prevTrig = st.Trigger
	}
	if firstLock != lock {
		t.Fatalf("first lock at %d, want %d", firstLock, lock)
	}
	if pulseCount != 1 || pulseOn != 2_400_001 || pulseOff != 4_800_000 {
		t.Fatalf("pulse count=%d on=%d off=%d", pulseCount, pulseOn, pulseOff)
	}
	if relock != 4_800_000+lock-1 {
		t.Fatalf("relock at %d, want %d", relock, 4_800_000+lock-1)
	}
	if !st.Locked || st.Reset || st.SysReset {
		t.Fatalf("final status not running: %+v", st)
	}
}

func TestSoftReset(t *testing.T) {
	r := newRig(t, 3)
	c := r.build(t, 80_000_000)
	for i := 0; i < 3; i++ {
		c.Step()
	}
	if !c.Status().Locked {
		t.Fatal("expected lock")
	}
	c.SetSoftReset(true)
	st := c.Step()
	if !st.SoftReset || !st.Reset || st.Locked || !st.SysReset {
		t.Fatalf("soft reset not applied: %+v", st)
	}
	c.SetSoftReset(false)
	for i := 0; i < 3; i++ {
		st = c.Step()
	}
	if !st.Locked || st.SysReset {
		t.Fatalf("expected relock after soft reset: %+v", st)
	}
}

func TestRearmFiresPulseAgain(t *testing.T) {
	r := newRig(t, 1)
	c := r.build(t, 80_000_000)
	g := c.Generator()
	c.counter.Set(g.Max)
	if st := c.Step(); st.Trigger {
		t.Fatal("saturated counter must not trigger")
	}
	c.Rearm()
	if st := c.Step(); st.Counter != 1 {
		t.Fatalf("Rearm must restart the counter: %+v", st)
	}
	c.counter.Set(g.Lo)
	if st := c.Step(); !st.Trigger || st.Counter != g.Lo+1 {
		t.Fatalf("re-armed counter must trigger: %+v", st)
	}
}

// fakeSynth locks after lockCycles and accepts any reference frequency, so
// the controller can run with a tiny reference clock.
type fakeSynth struct {
	in         *signal.Signal
	outs       []types.ClockOutput
	lockCycles uint64
	count      uint64
}

func (f *fakeSynth) RegisterInput(clk *signal.Signal, _ uint64) error {
	f.in = clk
	return nil
}

func (f *fakeSynth) CreateOutput(cd *signal.Domain, hz uint64, phase int) error {
	for _, o := range f.outs {
		if o.Domain == cd.Name {
			return nil
		}
	}
	f.outs = append(f.outs, types.ClockOutput{Index: len(f.outs), Domain: cd.Name, FreqHz: hz, PhaseDeg: phase})
	return nil
}

func (f *fakeSynth) Finalize() (types.PLLConfig, error) {
	return types.PLLConfig{Outputs: f.outs}, nil
}

func (f *fakeSynth) Input() *signal.Signal { return f.in }

func (f *fakeSynth) Step(reset bool) bool {
	if reset {
		f.count = 0
		return false
	}
	f.count++
	return f.count >= f.lockCycles
}

type fakePins map[string]*signal.Signal

func (p fakePins) Request(name string) (*signal.Signal, error) {
	s := signal.New(name, 1)
	p[name] = s
	return s, nil
}

type fakeConstraints struct{ n int }

func (f *fakeConstraints) AddFalsePath(_, _ *signal.Signal) error {
	f.n++
	return nil
}

func TestExternalResetHeldLow(t *testing.T) {
	pins := fakePins{}
	tc := &fakeConstraints{}
	c, err := New(Config{RefClkHz: 1_000, SysClkHz: 4_000}, pins, &fakeSynth{lockCycles: 1}, tc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tc.n != 1 {
		t.Fatalf("false path registered %d times", tc.n)
	}
	pins[PinRstN].SetBool(false)
	for i := 0; i < 5_000; i++ {
		st := c.Step()
		if !st.Reset || !st.ExtReset || st.Locked || !st.SysReset {
			t.Fatalf("cycle %d: external reset not honoured: %+v", st.Cycle, st)
		}
	}
	pins[PinRstN].SetBool(true)
	if st := c.Step(); st.Reset || !st.Locked {
		t.Fatalf("release must unlock reset: %+v", st)
	}
}

func TestKernelResetSyncAndClockForwarding(t *testing.T) {
	r := newRig(t, 10)
	c := r.build(t, 80_000_000)
	k, err := sim.NewKernel(c.Clocks()...)
	if err != nil {
		t.Fatalf("NewKernel: %v", err)
	}
	if err := c.Attach(k); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := c.Attach(k); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("second Attach: %v", err)
	}

	var lockedAt, releasedAt uint64 // sys cycle numbers
	_ = k.On(DomainSys, func(e sim.Edge) {
		if !e.Rising {
			return
		}
		if lockedAt == 0 && c.Status().Locked {
			lockedAt = e.Cycle
		}
		if releasedAt == 0 && !c.Sys().InReset() {
			releasedAt = e.Cycle
		}
	})

	ctx := context.Background()
	if err := k.RunCycles(ctx, DomainSys, 400); err != nil {
		t.Fatalf("RunCycles: %v", err)
	}
	if lockedAt == 0 || releasedAt == 0 {
		t.Fatalf("never left reset: locked=%d released=%d", lockedAt, releasedAt)
	}
	// The synchroniser sees the lock on the first sys edge after it and
	// releases on the second.
	if releasedAt != lockedAt+1 && releasedAt != lockedAt+2 {
		t.Fatalf("sys reset released at sys cycle %d, lock seen at %d", releasedAt, lockedAt)
	}

	out := map[string]uint64{}
	for _, o := range c.Outputs() {
		out[o.Pin().Name] = o.Cycles()
	}
	if out[PinSDRAMClock] != k.Cycles(DomainSysPS) ||
		out[PinCPUBClk] != k.Cycles(DomainBClk) ||
		out[PinCPUPClk] != k.Cycles(DomainPClk) {
		t.Fatalf("forwarded cycles %v do not match domain cycles", out)
	}
	if k.Cycles(DomainSys) != 4*k.Cycles(DomainBClk) || k.Cycles(DomainSys) != 2*k.Cycles(DomainPClk) {
		t.Fatalf("ratio drift: sys=%d pclk=%d bclk=%d",
			k.Cycles(DomainSys), k.Cycles(DomainPClk), k.Cycles(DomainBClk))
	}
}
