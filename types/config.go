package types

// ---- Board IO table ----

// IO is one requestable board resource. Either Pins or Subsignals is set.
type IO struct {
	Name       string      `json:"name"`
	Index      int         `json:"index"`
	Pins       []string    `json:"pins,omitempty"`
	IOStandard string      `json:"iostandard,omitempty"`
	Misc       []string    `json:"misc,omitempty"`
	Subsignals []Subsignal `json:"subsignals,omitempty"`
}

type Subsignal struct {
	Name       string   `json:"name"`
	Pins       []string `json:"pins"`
	IOStandard string   `json:"iostandard,omitempty"`
	Misc       []string `json:"misc,omitempty"`
}

// Width is the number of physical pins in the resource.
func (io IO) Width() int {
	if len(io.Subsignals) == 0 {
		return len(io.Pins)
	}
	n := 0
	for _, s := range io.Subsignals {
		n += len(s.Pins)
	}
	return n
}

// ---- SoC configuration supplied on topic "config/soc" ----

type SoCConfig struct {
	SysClkFreq     uint64 `json:"sys_clk_freq"`
	SDRAMRate      string `json:"sdram_rate,omitempty"`
	MaxSDRAMSize   uint64 `json:"max_sdram_size,omitempty"`
	L2Size         uint64 `json:"l2_size,omitempty"`
	MinL2DataWidth uint64 `json:"min_l2_data_width,omitempty"`
	IntegratedRAM  uint64 `json:"integrated_main_ram_size,omitempty"`
}

// CRGConfig is supplied on topic "config/crg".
type CRGConfig struct {
	LockCycles uint64 `json:"lock_cycles,omitempty"`
	IntervalMs uint64 `json:"interval_ms,omitempty"`
	Batch      uint64 `json:"batch,omitempty"`
}

// ---- SoC description ----

type SDRAMTimings struct {
	TRP   uint64 `json:"trp"`
	TRCD  uint64 `json:"trcd"`
	TWR   uint64 `json:"twr"`
	TWTR  uint64 `json:"twtr"`
	TREFI uint64 `json:"trefi"`
	TRFC  uint64 `json:"trfc"`
	TCCD  uint64 `json:"tccd"`
	TRRD  uint64 `json:"trrd"`
	TRAS  uint64 `json:"tras"`
}

type SDRAMInfo struct {
	Module    string       `json:"module"`
	Rate      string       `json:"rate"`
	NBanks    int          `json:"nbanks"`
	NRows     int          `json:"nrows"`
	NCols     int          `json:"ncols"`
	DataWidth int          `json:"data_width"`
	Origin    uint64       `json:"origin"`
	Size      uint64       `json:"size"`
	L2Size    uint64       `json:"l2_size"`
	L2Width   uint64       `json:"l2_data_width"`
	Timings   SDRAMTimings `json:"timings"`
}

type SoCInfo struct {
	Ident      string             `json:"ident"`
	BuildID    string             `json:"build_id"`
	Device     string             `json:"device"`
	SysClkFreq uint64             `json:"sys_clk_freq"`
	PLL        PLLConfig          `json:"pll"`
	Domains    []DomainInfo       `json:"domains"`
	FalsePaths []FalsePath        `json:"false_paths"`
	Periods    []PeriodConstraint `json:"periods"`
	SDRAM      *SDRAMInfo         `json:"sdram,omitempty"`
	MainRAM    uint64             `json:"integrated_main_ram_size,omitempty"`
}
