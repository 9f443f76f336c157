// Package crgmon runs the clock & reset controller on a ticker and
// publishes its state on the bus.
//
// Topics:
//
//	crg/state                  retained types.CRGStatus, on every transition
//	crg/domain/<name>          retained types.DomainInfo, at start
//	crg/pll                    retained types.PLLConfig, at start
//	crg/control/soft_reset     bool or {"assert": bool}; replies OK/Error
//	crg/control/rearm          any payload; replays the power-on pulse
//	crg/control/get            replies with the current types.CRGStatus
//	config/crg                 {"interval_ms": n, "batch": n}
package crgmon

import (
	"context"
	"time"

	"atx040-go/bus"
	"atx040-go/errcode"
	"atx040-go/types"

	"github.com/platinasystems/log"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultBatch    = 240_000 // 10ms of 24MHz reference cycles
)

var (
	topicConfigCRG = bus.T("config", "crg")
	topicState     = bus.T("crg", "state")
	topicPLL       = bus.T("crg", "pll")
	topicSoftReset = bus.T("crg", "control", "soft_reset")
	topicRearm     = bus.T("crg", "control", "rearm")
	topicGet       = bus.T("crg", "control", "get")
)

// TopicDomain is where a domain description is retained.
func TopicDomain(name string) bus.Topic { return bus.T("crg", "domain", name) }

// Controller is the part of *crg.CRG the service drives.
type Controller interface {
	Step() types.CRGStatus
	Status() types.CRGStatus
	SetSoftReset(on bool)
	Rearm()
	Domains() []types.DomainInfo
	PLL() types.PLLConfig
}

// Advance steps ctl n times and calls emit for every status that is not
// Same as the previous one. It returns the last status seen.
func Advance(ctl Controller, n uint64, prev types.CRGStatus, emit func(types.CRGStatus)) types.CRGStatus {
	for i := uint64(0); i < n; i++ {
		st := ctl.Step()
		if !st.Same(prev) {
			emit(st)
		}
		prev = st
	}
	return prev
}

type Service struct {
	ctl      Controller
	interval time.Duration
	batch    uint64
	last     types.CRGStatus
}

func New(ctl Controller, cfg types.CRGConfig) *Service {
	s := &Service{ctl: ctl, interval: DefaultInterval, batch: DefaultBatch}
	s.apply(cfg)
	return s
}

func (s *Service) apply(cfg types.CRGConfig) {
	if cfg.IntervalMs > 0 {
		s.interval = time.Duration(cfg.IntervalMs) * time.Millisecond
	}
	if cfg.Batch > 0 {
		s.batch = cfg.Batch
	}
}

func (s *Service) publishTopology(conn *bus.Connection) {
	for _, d := range s.ctl.Domains() {
		conn.Publish(conn.NewMessage(TopicDomain(d.Name), d, true))
	}
	conn.Publish(conn.NewMessage(topicPLL, s.ctl.PLL(), true))
}

func (s *Service) publishState(conn *bus.Connection, st types.CRGStatus) {
	conn.Publish(conn.NewMessage(topicState, st, true))
}

func (s *Service) transition(conn *bus.Connection) func(types.CRGStatus) {
	return func(st types.CRGStatus) {
		log.Print("daemon", "info", "crg: cycle ", st.Cycle,
			" trigger=", st.Trigger, " reset=", st.Reset,
			" locked=", st.Locked, " sys_rst=", st.SysReset)
		s.publishState(conn, st)
	}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigCRG)
	defer conn.Unsubscribe(cfgSub)
	softSub := conn.Subscribe(topicSoftReset)
	defer conn.Unsubscribe(softSub)
	rearmSub := conn.Subscribe(topicRearm)
	defer conn.Unsubscribe(rearmSub)
	getSub := conn.Subscribe(topicGet)
	defer conn.Unsubscribe(getSub)

	s.publishTopology(conn)
	s.last = s.ctl.Status()
	s.publishState(conn, s.last)
	emit := s.transition(conn)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Print("daemon", "info", "crgmon: stopping")
			return
		case <-tick.C:
			s.last = Advance(s.ctl, s.batch, s.last, emit)
		case msg := <-cfgSub.Channel():
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				log.Print("daemon", "err", "crgmon: ", err)
				continue
			}
			old := s.interval
			s.apply(cfg)
			if s.interval != old {
				tick.Reset(s.interval)
			}
			log.Print("daemon", "info", "crgmon: interval ", s.interval, " batch ", s.batch)
		case msg := <-softSub.Channel():
			on, err := decodeSoftReset(msg.Payload)
			if err != nil {
				conn.Reply(msg, types.ErrorReply{OK: false, Error: string(errcode.Of(err))}, false)
				continue
			}
			s.ctl.SetSoftReset(on)
			log.Print("daemon", "info", "crgmon: soft reset ", on)
			conn.Reply(msg, types.OKReply{OK: true}, false)
		case msg := <-rearmSub.Channel():
			s.ctl.Rearm()
			conn.Reply(msg, types.OKReply{OK: true}, false)
		case msg := <-getSub.Channel():
			conn.Reply(msg, s.ctl.Status(), false)
		}
	}
}

// Start the monitor service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
