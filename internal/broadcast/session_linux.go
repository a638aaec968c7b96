//go:build linux

package broadcast

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// sendChunk transfers up to max bytes from file, starting at offset,
// directly to conn's socket using sendfile(2) — no user-space copy.
// Running it inside SyscallConn().Write lets the Go runtime's
// netpoller handle EAGAIN/writability waits for us: the call blocks
// this goroutine (not the OS thread) until the socket is writable or
// the transfer completes.
func sendChunk(conn *net.TCPConn, file *os.File, offset int64, max int) (int64, error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}

	var n int
	var sendErr error
	ctrlErr := rc.Write(func(fd uintptr) bool {
		off := offset
		n, sendErr = unix.Sendfile(int(fd), int(file.Fd()), &off, max)
		if sendErr == unix.EAGAIN {
			return false // not ready — let the poller wait and retry
		}
		return true
	})
	if ctrlErr != nil {
		return int64(n), ctrlErr
	}
	return int64(n), sendErr
}
