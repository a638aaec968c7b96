//go:build !linux

package broadcast

import (
	"net"
	"os"
)

// sendChunk is the non-Linux fallback: a plain pread + socket write.
// It is not zero-copy, but it preserves the explicit-offset contract
// the transfer loop relies on (the shared file handle's own cursor is
// never touched).
func sendChunk(conn *net.TCPConn, file *os.File, offset int64, max int) (int64, error) {
	buf := make([]byte, max)
	n, err := file.ReadAt(buf, offset)
	if n == 0 {
		return 0, err
	}
	written, werr := conn.Write(buf[:n])
	if werr != nil {
		return int64(written), werr
	}
	return int64(written), nil
}
