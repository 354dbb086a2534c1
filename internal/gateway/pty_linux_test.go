//go:build linux

package gateway

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// openPTYPair opens a PTY master/slave pair and returns the slave's device
// path, mirroring the mock PTY harness the original implementation used for
// its own end-to-end loopback test: the supervisor opens the slave path
// like any other serial device, while the test drives the master directly.
func openPTYPair() (master *os.File, slavePath string, err error) {
	masterFd, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, "", fmt.Errorf("open /dev/ptmx: %w", err)
	}
	master = os.NewFile(uintptr(masterFd), "/dev/ptmx")

	if err := unlockpt(masterFd); err != nil {
		master.Close()
		return nil, "", fmt.Errorf("unlockpt: %w", err)
	}
	name, err := ptsname(masterFd)
	if err != nil {
		master.Close()
		return nil, "", fmt.Errorf("ptsname: %w", err)
	}
	return master, name, nil
}

func unlockpt(fd int) error {
	var n int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.TIOCSPTLCK, uintptr(unsafe.Pointer(&n)))
	if errno != 0 {
		return errno
	}
	return nil
}

func ptsname(fd int) (string, error) {
	var n int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.TIOCGPTN, uintptr(unsafe.Pointer(&n)))
	if errno != 0 {
		return "", errno
	}
	return fmt.Sprintf("/dev/pts/%d", n), nil
}
