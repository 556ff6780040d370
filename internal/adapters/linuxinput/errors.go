//go:build linux

package linuxinput

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var (
	ErrDeviceNotFound = errors.New("input device not found")
	ErrLegacyDevice   = errors.New("legacy PS/2 device, use run-legacy")
	ErrAllMice        = errors.New("/dev/input/mice multiplexes every mouse and cannot be used")
)

func IsPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES)
}

// IsBusyError reports a grab refused because another client holds the device.
func IsBusyError(err error) bool {
	return errors.Is(err, unix.EBUSY)
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, os.ErrClosed) || errors.Is(err, unix.EBADF) || errors.Is(err, unix.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
