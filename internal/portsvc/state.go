package portsvc

import (
	"time"

	"github.com/mosaic-labs/serialmcp/internal/serialio"
)

type variant int

const (
	variantClosed variant = iota
	variantOpen
)

// state is the tagged-struct stand-in for the spec's two-variant sum
// type (§3, §9): Closed carries no payload, Open inhabits the handle
// and every counter. All field access outside this file goes through
// Service methods, which is the isolation the design notes call for —
// nothing outside this package ever sees a half-valid Open struct.
type state struct {
	v variant

	handle      serialio.Handle
	config      Config
	openStarted time.Time

	lastActivity      time.Time
	timeoutStreak     uint32
	bytesReadTotal    uint64
	bytesWrittenTotal uint64
	idleCloseCount    uint32
}

func closedState() state {
	return state{v: variantClosed}
}

func (s state) isOpen() bool {
	return s.v == variantOpen
}
