// Command atx040 builds the ATX040 base SoC model, prints its build report,
// simulates the clock & reset controller, or serves it on the bus.
//
//	atx040 [-build] [-json] [-sim [-edges] [-cycles N]] [-serve] [-v]
//		[-device NAME] [-sys-clk-freq HZ] [-lock-cycles N] [-sdram-rate R]
//
// Extra arguments are taken from $ATX040_ARGS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"atx040-go/bus"
	"atx040-go/errcode"
	"atx040-go/internal/crg"
	"atx040-go/internal/sim"
	"atx040-go/internal/soc"
	"atx040-go/services/config"
	"atx040-go/services/crgmon"
	"atx040-go/types"
	"atx040-go/x/strx"

	"github.com/google/shlex"
	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
)

const (
	envArgs       = "ATX040_ARGS"
	defaultDevice = "atx040"
	usage         = "atx040 [-build] [-json] [-sim [-edges] [-cycles N]] [-serve] [-v] " +
		"[-device NAME] [-sys-clk-freq HZ] [-lock-cycles N] [-sdram-rate R]"
)

func main() {
	if err := Main(os.Args[1:]...); err != nil {
		fmt.Fprintln(os.Stderr, "atx040:", err)
		os.Exit(1)
	}
}

func Main(args ...string) error {
	const op = "atx040"
	if env := os.Getenv(envArgs); env != "" {
		extra, err := shlex.Split(env)
		if err != nil {
			return errcode.Wrap(errcode.InvalidParams, op, err)
		}
		args = append(extra, args...)
	}
	flag, args := flags.New(args, "-build", "-json", "-sim", "-edges", "-serve", "-v", []string{"-h", "-help", "--help"})
	parm, args := parms.New(args, "-device", "-sys-clk-freq", "-lock-cycles", "-cycles", "-sdram-rate")
	if len(args) > 0 {
		return errcode.New(errcode.InvalidParams, op, "unexpected %q", args)
	}
	if flag.ByName["-h"] {
		fmt.Println("usage:", usage)
		return nil
	}

	device := strx.Coalesce(parm.ByName["-device"], defaultDevice)
	var socCfg types.SoCConfig
	if err := config.Section(device, "soc", &socCfg); err != nil {
		return err
	}
	var crgCfg types.CRGConfig
	if err := config.Section(device, "crg", &crgCfg); err != nil {
		return err
	}
	if s := parm.ByName["-sys-clk-freq"]; s != "" {
		hz, err := parseHz(s)
		if err != nil {
			return err
		}
		socCfg.SysClkFreq = hz
	}
	if s := parm.ByName["-sdram-rate"]; s != "" {
		socCfg.SDRAMRate = s
	}
	if s := parm.ByName["-lock-cycles"]; s != "" {
		n, err := parseCount("-lock-cycles", s)
		if err != nil {
			return err
		}
		crgCfg.LockCycles = n
	}

	opts := []soc.Option{soc.WithBoard(device), soc.WithIdentVersion(time.Now())}
	if crgCfg.LockCycles != 0 {
		opts = append(opts, soc.WithLockCycles(crgCfg.LockCycles))
	}
	s, err := soc.New(socCfg, opts...)
	if err != nil {
		return err
	}
	if flag.ByName["-v"] {
		log.Print("info", "atx040: built ", s.Ident(), " pll ", s.CRG.PLL())
	}

	var cycles uint64
	if v := parm.ByName["-cycles"]; v != "" {
		if cycles, err = parseCount("-cycles", v); err != nil {
			return err
		}
	}

	switch {
	case flag.ByName["-build"]:
		info := s.Info()
		if flag.ByName["-json"] || !isatty.IsTerminal(os.Stdout.Fd()) {
			return writeJSON(os.Stdout, info)
		}
		return writeReport(os.Stdout, info)
	case flag.ByName["-sim"] && flag.ByName["-edges"]:
		return simulateEdges(s, cycles, flag.ByName["-v"])
	case flag.ByName["-sim"]:
		simulate(s.CRG, cycles, flag.ByName["-v"])
		return nil
	case flag.ByName["-serve"]:
		return serve(s, device, crgCfg)
	}
	fmt.Println("usage:", usage)
	return nil
}

// parseHz accepts integers and exact float notation ("80e6").
func parseHz(s string) (uint64, error) {
	const op = "atx040.sys_clk_freq"
	if n, err := strconv.ParseUint(s, 10, 64); err == nil && n > 0 {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errcode.Wrap(errcode.InvalidParams, op, err)
	}
	if f <= 0 || f != float64(uint64(f)) {
		return 0, errcode.New(errcode.InvalidParams, op, "%q is not a whole number of Hz", s)
	}
	return uint64(f), nil
}

func parseCount(name, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errcode.Wrap(errcode.InvalidParams, "atx040"+name, err)
	}
	return n, nil
}

// simulate steps the controller without a kernel. The default run covers
// the power-on pulse and the relock after it.
func simulate(c *crg.CRG, cycles uint64, verbose bool) types.CRGStatus {
	if cycles == 0 {
		cycles = 2*c.Generator().Hi + 1
	}
	start := c.Status()
	if verbose {
		log.Print("info", "sim: ", cycles, " reference cycles from ", fmtStatus(start))
	}
	last := crgmon.Advance(c, cycles, start, func(st types.CRGStatus) {
		fmt.Println("sim:", fmtStatus(st))
	})
	fmt.Println("final:", fmtStatus(last))
	return last
}

// simulateEdges runs every clock on the kernel: the reset synchroniser,
// the DDR outputs and the CPU all see real edges.
func simulateEdges(s *soc.BaseSoC, cycles uint64, verbose bool) error {
	k, err := sim.NewKernel(s.CRG.Clocks()...)
	if err != nil {
		return err
	}
	if err := s.Attach(k); err != nil {
		return err
	}
	if cycles == 0 {
		cycles = s.Config().SysClkFreq / 1000 // 1ms of sys
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := k.RunCycles(ctx, crg.DomainSys, cycles); err != nil {
		return err
	}
	if verbose {
		for _, o := range s.CRG.Outputs() {
			log.Print("info", "sim: ", o.Pin().Name, " toggled ", o.Cycles(), " cycles")
		}
	}
	fmt.Println("final:", fmtStatus(s.CRG.Status()))
	fmt.Println("cpu:", s.CPU.Cycles(), "cycles out of reset,", s.CPU.Resets(), "resets")
	fmt.Println("time:", k.Now(), "ticks at", k.TicksPerSecond(), "ticks/s")
	return nil
}

func serve(s *soc.BaseSoC, device string, crgCfg types.CRGConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(32)
	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, device)
	config.NewConfigService().Start(cfgCtx, b.NewConnection("config"))
	if err := crgmon.New(s.CRG, crgCfg).Start(ctx, b.NewConnection("crgmon")); err != nil {
		return err
	}
	log.Print("daemon", "info", "atx040: serving ", s.Ident())
	<-ctx.Done()
	return nil
}

func fmtStatus(st types.CRGStatus) string {
	return fmt.Sprintf("cycle=%d counter=%d trigger=%t soft=%t ext=%t reset=%t locked=%t sys_rst=%t",
		st.Cycle, st.Counter, st.Trigger, st.SoftReset, st.ExtReset, st.Reset, st.Locked, st.SysReset)
}
