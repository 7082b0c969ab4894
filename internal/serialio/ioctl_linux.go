package serialio

import (
	ioctl "github.com/daedaluz/goioctl"
	"unsafe"
)

// ioctl request codes, trimmed to the subset the real handle and its
// pty-backed test fixture actually issue: termios2 set (arbitrary
// baud via BOTHER), queue flush (buffer clear), and the ptmx dance for
// allocating a pseudoterminal pair.
var (
	tcsets2 = ioctl.IOW('T', 0x2B, unsafe.Sizeof(Termios2{}))

	tcflsh = uintptr(0x540B)

	tiocgptn   = ioctl.IOR('T', 0x30, unsafe.Sizeof(uint32(0)))
	tiocsptlck = ioctl.IOW('T', 0x31, unsafe.Sizeof(int32(0)))
)
