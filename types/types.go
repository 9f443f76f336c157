package types

import "strconv"

// ---- Controller state (retained under crg/state) ----

// CRGStatus is a snapshot of the clock & reset controller after one
// reference-clock cycle.
type CRGStatus struct {
	Cycle     uint64 `json:"cycle"`      // reference cycles since power-on
	Counter   uint64 `json:"counter"`    // power-on reset counter
	Trigger   bool   `json:"trigger"`    // power-on pulse
	SoftReset bool   `json:"soft_reset"` // software request
	ExtReset  bool   `json:"ext_reset"`  // rst_n held low
	Reset     bool   `json:"reset"`      // combined reset into the PLL
	Locked    bool   `json:"locked"`
	SysReset  bool   `json:"sys_reset"`
}

// Same reports whether two snapshots differ only in their counters.
func (s CRGStatus) Same(o CRGStatus) bool {
	return s.Trigger == o.Trigger && s.SoftReset == o.SoftReset &&
		s.ExtReset == o.ExtReset && s.Reset == o.Reset &&
		s.Locked == o.Locked && s.SysReset == o.SysReset
}

// ---- Clock topology (retained under crg/domain/<name> and crg/pll) ----

// DomainInfo describes one clock domain.
type DomainInfo struct {
	Name      string `json:"name"`
	FreqHz    uint64 `json:"freq_hz"`
	PhaseDeg  int    `json:"phase_deg,omitempty"`
	ResetLess bool   `json:"reset_less"`
	Source    string `json:"source"` // "pll" or "clkin"
}

// ClockOutput is one resolved PLL output.
type ClockOutput struct {
	Index    int    `json:"index"`
	Domain   string `json:"domain"`
	FreqHz   uint64 `json:"freq_hz"`
	PhaseDeg int    `json:"phase_deg"`
	Divide   uint64 `json:"divide"`
}

// PLLConfig is the resolved frequency-synthesis configuration.
type PLLConfig struct {
	ClkinHz      uint64        `json:"clkin_hz"`
	VCOHz        uint64        `json:"vco_hz"`
	DivclkDivide uint64        `json:"divclk_divide"`
	ClkfboutMult uint64        `json:"clkfbout_mult"`
	Outputs      []ClockOutput `json:"outputs"`
}

// Output returns the resolved output for a domain.
func (c PLLConfig) Output(domain string) (ClockOutput, bool) {
	for _, o := range c.Outputs {
		if o.Domain == domain {
			return o, true
		}
	}
	return ClockOutput{}, false
}

// String renders the configuration as it appears in build reports, e.g.
// "clkin=24000000 div=1 mult=40 vco=960000000 sys/12 ...".
func (c PLLConfig) String() string {
	s := "clkin=" + strconv.FormatUint(c.ClkinHz, 10) +
		" div=" + strconv.FormatUint(c.DivclkDivide, 10) +
		" mult=" + strconv.FormatUint(c.ClkfboutMult, 10) +
		" vco=" + strconv.FormatUint(c.VCOHz, 10)
	for _, o := range c.Outputs {
		s += " " + o.Domain + "/" + strconv.FormatUint(o.Divide, 10)
		if o.PhaseDeg != 0 {
			s += "@" + strconv.Itoa(o.PhaseDeg)
		}
	}
	return s
}

// ---- Timing constraints ----

type FalsePath struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type PeriodConstraint struct {
	Signal   string `json:"signal"`
	PeriodPs uint64 `json:"period_ps"`
}

// ---- Control payloads ----

// SoftReset is accepted on crg/control/soft_reset.
type SoftReset struct {
	Assert bool `json:"assert"`
}

// Generic replies
type OKReply struct {
	OK bool `json:"ok"`
}
type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
