package timex

import (
	"time"

	"atx040-go/x/mathx"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

const psPerSecond = 1_000_000_000_000

// PeriodPs returns the clock period in whole picoseconds (rounded down).
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodPs(freqHz uint64) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return psPerSecond / freqHz
}

// PsToCycles returns ceil(tPs * freqHz / 1e12), the number of whole clock
// cycles covering tPs at freqHz.
func PsToCycles(tPs, freqHz uint64) uint64 {
	if tPs == 0 || freqHz == 0 {
		return 0
	}
	// Reduce first so 64-bit intermediates hold for realistic inputs.
	g := mathx.GCD(freqHz, psPerSecond)
	return mathx.CeilDiv(tPs*(freqHz/g), psPerSecond/g)
}
