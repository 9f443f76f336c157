package sdram

import (
	"testing"

	"atx040-go/errcode"
	"atx040-go/types"
)

func TestMT48LC16M16At80MHz(t *testing.T) {
	m, err := MT48LC16M16(80_000_000, Rate1to1)
	if err != nil {
		t.Fatalf("MT48LC16M16: %v", err)
	}
	if got := m.SizeBytes(); got != 32<<20 {
		t.Fatalf("SizeBytes=%d want 32MiB", got)
	}
	want := types.SDRAMTimings{
		TRP:   2, // 20ns / 12.5ns
		TRCD:  2,
		TWR:   2,
		TWTR:  2,
		TREFI: 625,
		TRFC:  6,
		TCCD:  1,
		TRRD:  2,
		TRAS:  4,
	}
	if got := m.Timings(); got != want {
		t.Fatalf("Timings=%+v\nwant    %+v", got, want)
	}
}

func TestHalfRateMargins(t *testing.T) {
	m, err := MT48LC16M16(50_000_000, Rate1to2)
	if err != nil {
		t.Fatalf("MT48LC16M16: %v", err)
	}
	tm := m.Timings()
	// 20ns at 20ns period + half-period margin = 1.5 -> 2
	if tm.TRP != 2 {
		t.Fatalf("TRP=%d want 2", tm.TRP)
	}
	// 2 DRAM clocks at 1:2 = 1 controller cycle
	if tm.TWTR != 1 {
		t.Fatalf("TWTR=%d want 1", tm.TWTR)
	}
	// 7812.5ns / 20ns = 390.6 -> 391, no margin
	if tm.TREFI != 391 {
		t.Fatalf("TREFI=%d want 391", tm.TREFI)
	}
}

func TestRejectsBadParams(t *testing.T) {
	if _, err := MT48LC16M16(80_000_000, "2:1"); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("expected unsupported, got %v", err)
	}
	if _, err := MT48LC16M16(0, Rate1to1); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("expected invalid_params, got %v", err)
	}
}
