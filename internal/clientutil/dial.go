// Package clientutil holds the dial-and-handshake logic shared by the
// auxiliary client utilities (tscat, tssync, loadtest). These are the
// "external collaborators" spec.md §1 says are touched only through
// their interface: connect, send one header line, read bytes.
package clientutil

import (
	"fmt"
	"net"
	"time"
)

// dialTimeout bounds how long connecting to the server may take.
const dialTimeout = 10 * time.Second

// Dial connects to addr and sends the header line for offset,
// returning the live connection positioned to read the response
// stream starting at the resolved server-side offset.
func Dial(addr string, offset int64) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if _, err := fmt.Fprintf(conn, "%d\n", offset); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send header: %w", err)
	}
	return conn, nil
}
