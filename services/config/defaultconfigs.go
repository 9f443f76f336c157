package config

// Embedded configuration, keyed by device ID (the value placed in ctx
// under CtxDeviceKey).

const cfgATX040 = `{
  "soc": {
    "sys_clk_freq": 80000000,
    "sdram_rate": "1:1",
    "max_sdram_size": 1073741824,
    "l2_size": 2048,
    "min_l2_data_width": 128
  },
  "crg": {
    "lock_cycles": 2400,
    "interval_ms": 100,
    "batch": 240000
  }
}`

var embeddedConfigs = map[string][]byte{
	"atx040": []byte(cfgATX040),
}
