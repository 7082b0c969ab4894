// Package negotiate implements the auto-negotiation engine: a
// priority-ordered pipeline of interchangeable strategies (C4) driven
// by an orchestrator (C5) that returns the first confident result.
package negotiate

import (
	"time"

	"github.com/mosaic-labs/serialmcp/internal/serialio"
)

// Hints is optional caller-supplied context that narrows detection
// (§4.3).
type Hints struct {
	VID                 string
	PID                 string
	SuggestedBauds      []uint32
	TimeoutPerAttempt    time.Duration
	RestrictToSuggested bool
}

// Params is the line-parameter result of a successful detection
// (§3 NegotiatedParams). All three strategies fix DataBits8/ParityNone
// /StopBitsOne — detecting those dimensions is an explicit non-goal.
type Params struct {
	BaudRate     uint32
	DataBits     serialio.DataBits
	Parity       serialio.Parity
	StopBits     serialio.StopBits
	FlowControl  serialio.FlowControl
	StrategyName string
	Confidence   float64
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ErrNotApplicable is returned by a strategy when its preconditions
// aren't met (e.g. S1 without a VID hint); the orchestrator treats
// this as "skip", not "fail".
var ErrNotApplicable = &Error{msg: "strategy not applicable"}

// Error is the negotiation error type; Unwrap exposes the underlying
// opener/handle failure when there is one.
type Error struct {
	msg string
	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func newError(msg string, cause error) *Error {
	return &Error{msg: msg, err: cause}
}

// Opener opens a short-lived handle for probing. Strategies never
// share a handle with the port service or with each other (§5).
type Opener func(name string, cfg serialio.Config) (serialio.Handle, error)

// Strategy is the capability every detector implements (§4.3).
type Strategy interface {
	Name() string
	Priority() int
	Detect(open Opener, portName string, hints Hints) (Params, error)
}

func attemptConfig(baud uint32, timeout time.Duration) serialio.Config {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	cfg := serialio.DefaultConfig(baud)
	cfg.Timeout = timeout
	return cfg
}
