package serialio

import (
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
	"golang.org/x/sys/unix"
)

// Termios2 mirrors struct termios2 from <asm-generic/termbits.h>. Using
// termios2 (rather than termios) lets configToTermios2 below program an
// arbitrary baud rate through BOTHER instead of being limited to the
// fixed Bxxxxx constants.
type Termios2 struct {
	Iflag  IFlag
	Oflag  OFlag
	Cflag  CFlag
	Lflag  LFlag
	Line   byte
	Cc     [19]byte
	ISpeed uint32
	OSpeed uint32
}

type IFlag uint32
type OFlag uint32
type CFlag uint32
type LFlag uint32

const (
	ICRNL IFlag = 0000400
	IXON  IFlag = 0002000
	IXOFF IFlag = 0010000

	OPOST OFlag = 0000001

	CSIZE   CFlag = 0000060
	CS5     CFlag = 0000000
	CS6     CFlag = 0000020
	CS7     CFlag = 0000040
	CS8     CFlag = 0000060
	CSTOPB  CFlag = 0000100
	CREAD   CFlag = 0000200
	PARENB  CFlag = 0000400
	PARODD  CFlag = 0001000
	HUPCL   CFlag = 0002000
	CLOCAL  CFlag = 0004000
	CBAUD   CFlag = 0010017
	BOTHER  CFlag = 0010000
	CRTSCTS CFlag = 020000000000

	ISIG   LFlag = 0000001
	ICANON LFlag = 0000002
	ECHO   LFlag = 0000010
	IEXTEN LFlag = 0100000
)

const (
	queueInput  = uintptr(0) // TCIFLUSH
	queueOutput = uintptr(1) // TCOFLUSH
)

var fionread = uintptr(0x541B)

func configToTermios2(cfg Config) Termios2 {
	var t Termios2
	t.Cflag = CREAD | CLOCAL
	switch cfg.DataBits {
	case DataBits5:
		t.Cflag |= CS5
	case DataBits6:
		t.Cflag |= CS6
	case DataBits7:
		t.Cflag |= CS7
	default:
		t.Cflag |= CS8
	}
	switch cfg.Parity {
	case ParityOdd:
		t.Cflag |= PARENB | PARODD
	case ParityEven:
		t.Cflag |= PARENB
	}
	if cfg.StopBits == StopBitsTwo {
		t.Cflag |= CSTOPB
	}
	if cfg.FlowControl == FlowControlHardware {
		t.Cflag |= CRTSCTS
	}
	if cfg.FlowControl == FlowControlSoftware {
		t.Iflag |= IXON | IXOFF
	}
	t.Cflag &^= CBAUD
	t.Cflag |= BOTHER
	t.ISpeed = cfg.BaudRate
	t.OSpeed = cfg.BaudRate
	// Raw mode: no canonical processing, no echo, no signal generation,
	// no output postprocessing — the agent owns framing (terminator),
	// not the tty line discipline.
	t.Iflag &^= ICRNL
	t.Oflag &^= OPOST
	t.Lflag &^= (ECHO | ICANON | ISIG | IEXTEN)
	t.Cc[6] = 0 // VMIN: return as soon as any bytes are available
	t.Cc[5] = 0 // VTIME: blocking read bound is enforced by waitReadable, not VTIME
	return t
}

// realHandle is the OS-backed Handle variant: a blocking byte-stream
// bounded by waitReadable (unix.Poll) before each read, and configured through
// termios2 ioctls.
type realHandle struct {
	fd      int
	timeout time.Duration
	closed  atomic.Bool
}

// Open opens name as a serial device and applies cfg's line parameters.
func Open(name string, cfg Config) (Handle, error) {
	fd, err := syscall.Open(name, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, openErr("open "+name, err)
	}
	t := configToTermios2(cfg)
	if err := ioctl.Ioctl(uintptr(fd), tcsets2, uintptr(unsafe.Pointer(&t))); err != nil {
		syscall.Close(fd)
		return nil, openErr("configure "+name, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	return &realHandle{fd: fd, timeout: timeout}, nil
}

func (p *realHandle) Write(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	n, err := syscall.Write(p.fd, data)
	if err != nil {
		return n, wrapErr("write", err)
	}
	return n, nil
}

// waitReadable blocks until the fd has input pending or the timeout
// elapses, returning (ready, error). A false/nil result means the
// timeout elapsed with nothing to read — the caller reports this as a
// Timeout, not an error (§4.2 read()).
func (p *realHandle) waitReadable(timeout time.Duration) (bool, error) {
	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, err
	}
	return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
}

func (p *realHandle) Read(buf []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	ready, err := p.waitReadable(p.timeout)
	if err != nil {
		return 0, wrapErr("read", err)
	}
	if !ready {
		return 0, nil
	}
	n, err := syscall.Read(p.fd, buf)
	if err != nil {
		return n, wrapErr("read", err)
	}
	return n, nil
}

func (p *realHandle) SetTimeout(d time.Duration) {
	p.timeout = d
}

func (p *realHandle) ClearInputBuffer() error {
	if p.closed.Load() {
		return ErrClosed
	}
	return ioctl.Ioctl(uintptr(p.fd), tcflsh, queueInput)
}

func (p *realHandle) ClearOutputBuffer() error {
	if p.closed.Load() {
		return ErrClosed
	}
	return ioctl.Ioctl(uintptr(p.fd), tcflsh, queueOutput)
}

func (p *realHandle) BytesAvailable() (uint32, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	var n int32
	if err := ioctl.Ioctl(uintptr(p.fd), fionread, uintptr(unsafe.Pointer(&n))); err != nil {
		return 0, wrapErr("bytes available", err)
	}
	return uint32(n), nil
}

func (p *realHandle) Close() error {
	if p.closed.Swap(true) {
		return ErrClosed
	}
	fd := p.fd
	p.fd = -1
	return syscall.Close(fd)
}
