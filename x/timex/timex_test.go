package timex

import "testing"

func TestPeriodPs(t *testing.T) {
	cases := map[uint64]uint64{
		24_000_000: 41_666,
		80_000_000: 12_500,
		0:          1_000_000_000_000,
	}
	for f, want := range cases {
		if got := PeriodPs(f); got != want {
			t.Fatalf("PeriodPs(%d)=%d want %d", f, got, want)
		}
	}
}

func TestPsToCycles(t *testing.T) {
	cases := []struct{ ps, hz, want uint64 }{
		{20_000, 80_000_000, 2}, // 20ns at 12.5ns
		{15_000, 80_000_000, 2}, // 15ns -> 1.2 cycles
		{12_500, 80_000_000, 1}, // exactly one period
		{66_000, 80_000_000, 6}, // 5.28
		{0, 80_000_000, 0},
		{7_812_500, 80_000_000, 625}, // tREFI 7.8125us
	}
	for _, c := range cases {
		if got := PsToCycles(c.ps, c.hz); got != c.want {
			t.Fatalf("PsToCycles(%d,%d)=%d want %d", c.ps, c.hz, got, c.want)
		}
	}
}
