package serialio

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

// OpenTestPTY allocates a pseudoterminal pair for integration-testing
// the real, termios2-backed Handle variant without a physical UART:
// the returned master simulates "the device" (tests write/read on it
// directly), while slaveName is a path suitable for serialio.Open,
// exercising the exact ioctl path the production code uses. Adapted
// from the teacher's OpenPTY helper; it is fixture code used by this
// package's own real-handle tests.
func OpenTestPTY() (master *os.File, slaveName string, err error) {
	fd, err := syscall.Open("/dev/ptmx", syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, "", openErr("open /dev/ptmx", err)
	}
	var locked int32
	if err := ioctl.Ioctl(uintptr(fd), tiocsptlck, uintptr(unsafe.Pointer(&locked))); err != nil {
		syscall.Close(fd)
		return nil, "", openErr("unlock pty", err)
	}
	var n uint32
	if err := ioctl.Ioctl(uintptr(fd), tiocgptn, uintptr(unsafe.Pointer(&n))); err != nil {
		syscall.Close(fd)
		return nil, "", openErr("pty number", err)
	}
	slaveName = fmt.Sprintf("/dev/pts/%d", n)
	return os.NewFile(uintptr(fd), "/dev/ptmx"), slaveName, nil
}
