package errcode

import "fmt"

// Code is a stable, machine-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	InvalidParams  Code = "invalid_params"
	InvalidConfig  Code = "invalid_config"
	Unsupported    Code = "unsupported"
	InvalidPayload Code = "invalid_payload"

	// Pin / topology provider
	UnknownPin    Code = "unknown_pin"
	PinInUse      Code = "pin_in_use"
	UnknownDomain Code = "unknown_domain"

	// Frequency synthesis
	ClkinRegistered Code = "clkin_registered"
	ClkinMissing    Code = "clkin_missing"
	ClkinOutOfRange Code = "clkin_out_of_range"
	TooManyOutputs  Code = "too_many_outputs"
	DomainConflict  Code = "domain_conflict"
	InvalidPhase    Code = "invalid_phase"
	InexactRatio    Code = "inexact_ratio"
	NoPLLConfig     Code = "no_pll_config"
	Finalized       Code = "finalized"

	// Simulation
	TimebaseOverflow Code = "timebase_overflow"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New builds an *E with a formatted message.
func New(c Code, op, format string, args ...any) *E {
	return &E{C: c, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and op to an underlying error.
func Wrap(c Code, op string, err error) *E {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
