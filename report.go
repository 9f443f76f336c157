package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"atx040-go/types"
	"atx040-go/x/conv"
)

func writeJSON(w io.Writer, info types.SoCInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func hex32(v uint64) string { return conv.Addr(uint32(v)) }

func writeReport(w io.Writer, info types.SoCInfo) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "ident:\t%s\n", info.Ident)
	fmt.Fprintf(tw, "build id:\t%s\n", info.BuildID)
	fmt.Fprintf(tw, "device:\t%s\n", info.Device)
	fmt.Fprintf(tw, "sys clk:\t%d Hz\n", info.SysClkFreq)
	fmt.Fprintf(tw, "pll:\t%s\n", info.PLL)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "domain\tfreq (Hz)\tphase\treset\tsource")
	for _, d := range info.Domains {
		rst := "yes"
		if d.ResetLess {
			rst = "no"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", d.Name, d.FreqHz, d.PhaseDeg, rst, d.Source)
	}
	fmt.Fprintln(tw)

	for _, p := range info.Periods {
		fmt.Fprintf(tw, "period:\t%s\t%d ps\n", p.Signal, p.PeriodPs)
	}
	for _, fp := range info.FalsePaths {
		fmt.Fprintf(tw, "false path:\t%s -> %s\n", fp.From, fp.To)
	}

	if sd := info.SDRAM; sd != nil {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "sdram:\t%s %s, %d banks x %d rows x %d cols x%d\n",
			sd.Module, sd.Rate, sd.NBanks, sd.NRows, sd.NCols, sd.DataWidth)
		fmt.Fprintf(tw, "main_ram:\t%s size %s\n", hex32(sd.Origin), hex32(sd.Size))
		fmt.Fprintf(tw, "l2:\t%d bytes, %d bit\n", sd.L2Size, sd.L2Width)
		t := sd.Timings
		fmt.Fprintf(tw, "timings:\ttRP=%d tRCD=%d tWR=%d tWTR=%d tREFI=%d tRFC=%d tCCD=%d tRRD=%d tRAS=%d\n",
			t.TRP, t.TRCD, t.TWR, t.TWTR, t.TREFI, t.TRFC, t.TCCD, t.TRRD, t.TRAS)
	} else if info.MainRAM != 0 {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "main_ram:\tintegrated, %s bytes\n", hex32(info.MainRAM))
	}
	return tw.Flush()
}
