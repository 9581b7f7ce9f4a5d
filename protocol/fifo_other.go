//go:build !unix

package protocol

import (
	"errors"

	"github.com/Swind/go-raster-runner/core"
)

// ChannelMode is the permission set used for new channels.
const ChannelMode = 0o600

var errNoNamedPipes = errors.New("named pipes are not supported on this platform")

// MakeChannel always fails on platforms without POSIX named pipes.
func MakeChannel(path string) error {
	return &core.IOError{Op: "create channel", Path: path, Err: errNoNamedPipes}
}

// IsChannel always fails on platforms without POSIX named pipes.
func IsChannel(path string) (bool, error) {
	return false, &core.IOError{Op: "stat channel", Path: path, Err: errNoNamedPipes}
}

func wakeChannel(path string) (func(), error) {
	return nil, errNoNamedPipes
}
