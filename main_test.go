package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"atx040-go/errcode"
	"atx040-go/internal/soc"
	"atx040-go/types"
)

func TestParseHz(t *testing.T) {
	cases := map[string]uint64{
		"80000000": 80_000_000,
		"80e6":     80_000_000,
		"48e6":     48_000_000,
	}
	for in, want := range cases {
		got, err := parseHz(in)
		if err != nil || got != want {
			t.Fatalf("parseHz(%q) = %d, %v want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"80.5", "-1", "fast", "0"} {
		if _, err := parseHz(in); errcode.Of(err) != errcode.InvalidParams {
			t.Fatalf("parseHz(%q): expected invalid_params, got %v", in, err)
		}
	}
}

func TestMainErrors(t *testing.T) {
	t.Setenv(envArgs, "")
	if err := Main("stray"); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("stray argument: %v", err)
	}
	if err := Main("-device", "nope"); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("unknown device: %v", err)
	}
	if err := Main("-cycles", "many"); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("bad -cycles: %v", err)
	}
}

func TestMainArgsFromEnv(t *testing.T) {
	t.Setenv(envArgs, `-sys-clk-freq "77777776"`)
	if err := Main("-build"); errcode.Of(err) != errcode.NoPLLConfig {
		t.Fatalf("expected no_pll_config from $%s, got %v", envArgs, err)
	}
	t.Setenv(envArgs, `-sdram-rate '1:4'`)
	if err := Main("-build"); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("expected unsupported from $%s, got %v", envArgs, err)
	}
}

func TestReport(t *testing.T) {
	s, err := soc.New(types.SoCConfig{})
	if err != nil {
		t.Fatalf("soc.New: %v", err)
	}
	info := s.Info()

	var txt bytes.Buffer
	if err := writeReport(&txt, info); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	for _, want := range []string{
		"SoC on ATX040",
		"clkin=24000000 div=1 mult=40 vco=960000000",
		"sys_ps",
		"sys_clk -> clk24",
		"0x40000000 size 0x02000000",
		"tREFI=625",
	} {
		if !strings.Contains(txt.String(), want) {
			t.Fatalf("report lacks %q:\n%s", want, txt.String())
		}
	}

	var js bytes.Buffer
	if err := writeJSON(&js, info); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	var back types.SoCInfo
	if err := json.Unmarshal(js.Bytes(), &back); err != nil {
		t.Fatalf("report JSON: %v", err)
	}
	if back.BuildID != info.BuildID || back.SDRAM == nil || back.SDRAM.Size != 32<<20 {
		t.Fatalf("JSON report: %+v", back)
	}
}

func TestSimulateLocks(t *testing.T) {
	s, err := soc.New(types.SoCConfig{})
	if err != nil {
		t.Fatalf("soc.New: %v", err)
	}
	st := simulate(s.CRG, 3000, false)
	if !st.Locked || st.SysReset || st.Cycle != 3000 {
		t.Fatalf("after 3000 cycles: %+v", st)
	}
}

func TestSimulateEdges(t *testing.T) {
	s, err := soc.New(types.SoCConfig{}, soc.WithLockCycles(16))
	if err != nil {
		t.Fatalf("soc.New: %v", err)
	}
	if err := simulateEdges(s, 400, false); err != nil {
		t.Fatalf("simulateEdges: %v", err)
	}
	if s.CPU.Cycles() == 0 {
		t.Fatal("CPU never left reset")
	}
}
