// Package serialio implements the polymorphic serial port handle layer
// (component C1): a blocking byte-stream with settable line parameters
// and timeout, with three interchangeable variants — a real OS-backed
// port, a scriptable mock for tests, and an async wrapper that offloads
// a blocking variant onto a dedicated worker goroutine.
package serialio

import "time"

// DataBits is the number of data bits per frame.
type DataBits int

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

// Parity selects the parity scheme.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// StopBits selects the number of stop bits.
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsTwo
)

// FlowControl selects the flow control discipline.
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlHardware
	FlowControlSoftware
)

// Config is the subset of line parameters the handle layer needs to
// open and configure an OS port. Terminator framing and idle-disconnect
// policy live one layer up, in the port service (C3), since they are
// protocol/policy concerns rather than handle-level line parameters.
type Config struct {
	BaudRate    uint32
	DataBits    DataBits
	Parity      Parity
	StopBits    StopBits
	FlowControl FlowControl
	Timeout     time.Duration
}

// DefaultConfig returns the line-parameter defaults named in the spec's
// data model: 8 data bits, no parity, one stop bit, no flow control, and
// a 1-second read timeout.
func DefaultConfig(baudRate uint32) Config {
	return Config{
		BaudRate:    baudRate,
		DataBits:    DataBits8,
		Parity:      ParityNone,
		StopBits:    StopBitsOne,
		FlowControl: FlowControlNone,
		Timeout:     time.Second,
	}
}

// Handle is the capability set every port variant implements: open is
// performed by each variant's constructor rather than a method, since
// Go has no way to express "the zero value plus Open" as cleanly as a
// factory function returning a ready handle.
type Handle interface {
	// Write transmits bytes and reports how many were actually
	// accepted by the driver.
	Write(data []byte) (int, error)

	// Read attempts a single read bounded by the handle's configured
	// timeout. It returns 0, nil on timeout — never blocks past the
	// configured duration, and never treats a timeout as an error.
	Read(buf []byte) (int, error)

	// SetTimeout changes the bound used by subsequent Read calls.
	SetTimeout(d time.Duration)

	// ClearInputBuffer discards bytes received but not yet read.
	ClearInputBuffer() error

	// ClearOutputBuffer discards bytes written but not yet transmitted.
	ClearOutputBuffer() error

	// BytesAvailable reports how many bytes are waiting to be read,
	// when the variant can determine this cheaply; variants that
	// cannot support it return 0, nil.
	BytesAvailable() (uint32, error)

	// Close releases the underlying OS resource. Closing a handle that
	// is already closed returns ErrClosed.
	Close() error
}
