package utils

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsConnectionClosed(t *testing.T) {
	for _, err := range []error{
		io.EOF,
		fmt.Errorf("read message size: %w", io.EOF),
		io.ErrClosedPipe,
		net.ErrClosed,
		&net.OpError{Op: "read", Err: syscall.ECONNRESET},
		syscall.EPIPE,
	} {
		require.True(t, IsConnectionClosed(err), "%v", err)
	}

	require.False(t, IsConnectionClosed(errors.New("boom")))
	require.False(t, IsConnectionClosed(io.ErrUnexpectedEOF))
}
