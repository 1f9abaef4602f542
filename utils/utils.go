package utils

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsConnectionClosed reports whether err means the peer went away or the connection
// was closed locally, as opposed to a genuine I/O failure.
func IsConnectionClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
