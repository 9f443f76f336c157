// Package ddr models a double-data-rate output register: one output pin
// driven with one value on the rising edge of its source domain and
// another on the falling edge. Driven with (1, 0) it forwards the domain
// clock to a pin with 50% duty and no combinational path.
package ddr

import (
	"atx040-go/errcode"
	"atx040-go/signal"
)

type Output struct {
	rise, fall uint64
	pin        *signal.Signal
	domain     *signal.Domain

	rising uint64 // rising edges seen
}

// New wires a DDR output from domain cd to pin.
func New(rise, fall uint64, pin *signal.Signal, cd *signal.Domain) (*Output, error) {
	if pin == nil || cd == nil {
		return nil, errcode.New(errcode.InvalidParams, "ddr.new", "pin and domain are required")
	}
	return &Output{rise: rise, fall: fall, pin: pin, domain: cd}, nil
}

// Clock is the usual clock-forwarding configuration.
func Clock(pin *signal.Signal, cd *signal.Domain) (*Output, error) {
	return New(1, 0, pin, cd)
}

// Edge registers the value for one edge of the source domain.
func (o *Output) Edge(rising bool) {
	if rising {
		o.rising++
		o.pin.Set(o.rise)
		return
	}
	o.pin.Set(o.fall)
}

func (o *Output) Pin() *signal.Signal    { return o.pin }
func (o *Output) Domain() *signal.Domain { return o.domain }

// Cycles is the number of rising edges forwarded so far.
func (o *Output) Cycles() uint64 { return o.rising }
