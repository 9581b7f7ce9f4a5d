//go:build unix

package protocol

import (
	"errors"

	"github.com/Swind/go-raster-runner/core"
	"golang.org/x/sys/unix"
)

// ChannelMode is the permission set used for new channels.
const ChannelMode = 0o600

// MakeChannel creates a named pipe at path.
func MakeChannel(path string) error {
	if err := unix.Mkfifo(path, ChannelMode); err != nil {
		return &core.IOError{Op: "create channel", Path: path, Err: err}
	}
	return nil
}

// IsChannel reports whether path exists and is a named pipe. A missing path
// is reported as (false, nil).
func IsChannel(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, &core.IOError{Op: "stat channel", Path: path, Err: err}
	}
	return st.Mode&unix.S_IFMT == unix.S_IFIFO, nil
}

// wakeChannel attaches both ends of the pipe at path without blocking, which
// completes any open parked on it. The returned func detaches again.
func wakeChannel(path string) (func(), error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return func() { unix.Close(fd) }, nil
}
