// Package portsvc implements the single-port state machine (C2), the
// service operations over it (C3), and the idle-disconnect watchdog
// policy (C8). It is the sole point of mutation for process-wide port
// state: exactly one Open variant may exist at a time.
package portsvc

import (
	"time"

	"github.com/mosaic-labs/serialmcp/internal/serialio"
)

// Config is the immutable snapshot captured when a port opens (§3).
type Config struct {
	PortName          string
	BaudRate          uint32
	Timeout           time.Duration
	DataBits          serialio.DataBits
	Parity            serialio.Parity
	StopBits          serialio.StopBits
	FlowControl       serialio.FlowControl
	Terminator        string
	IdleDisconnectMs  uint64
	HasIdleDisconnect bool
}

// Partial carries optional fields for reconfigure, where an absent
// field means "keep the current value" (or "use the default" when
// there is no current value, i.e. the port is Closed).
type Partial struct {
	PortName          *string
	BaudRate          *uint32
	Timeout           *time.Duration
	DataBits          *serialio.DataBits
	Parity            *serialio.Parity
	StopBits          *serialio.StopBits
	FlowControl       *serialio.FlowControl
	Terminator        *string
	IdleDisconnectMs  *uint64
	HasIdleDisconnect *bool
}

// DefaultConfig returns a Config with the spec's documented defaults
// (§3): 8-N-1, no flow control, 1s timeout, no terminator, no idle
// watchdog.
func DefaultConfig(portName string, baudRate uint32) Config {
	return Config{
		PortName:    portName,
		BaudRate:    baudRate,
		Timeout:     time.Second,
		DataBits:    serialio.DataBits8,
		Parity:      serialio.ParityNone,
		StopBits:    serialio.StopBitsOne,
		FlowControl: serialio.FlowControlNone,
	}
}

// Merge applies p onto base, returning a new Config. Fields left nil
// in p keep base's value.
func (p Partial) Merge(base Config) Config {
	out := base
	if p.PortName != nil {
		out.PortName = *p.PortName
	}
	if p.BaudRate != nil {
		out.BaudRate = *p.BaudRate
	}
	if p.Timeout != nil {
		out.Timeout = *p.Timeout
	}
	if p.DataBits != nil {
		out.DataBits = *p.DataBits
	}
	if p.Parity != nil {
		out.Parity = *p.Parity
	}
	if p.StopBits != nil {
		out.StopBits = *p.StopBits
	}
	if p.FlowControl != nil {
		out.FlowControl = *p.FlowControl
	}
	if p.Terminator != nil {
		out.Terminator = *p.Terminator
	}
	if p.IdleDisconnectMs != nil {
		out.IdleDisconnectMs = *p.IdleDisconnectMs
		out.HasIdleDisconnect = true
	}
	if p.HasIdleDisconnect != nil {
		out.HasIdleDisconnect = *p.HasIdleDisconnect
	}
	return out
}

func (c Config) handleConfig() serialio.Config {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	return serialio.Config{
		BaudRate:    c.BaudRate,
		DataBits:    c.DataBits,
		Parity:      c.Parity,
		StopBits:    c.StopBits,
		FlowControl: c.FlowControl,
		Timeout:     timeout,
	}
}
