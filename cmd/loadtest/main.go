// Command loadtest opens many concurrent connections to a tailsrv
// server, each reading as fast as possible from offset 0, and reports
// aggregate throughput once a second. Grounded on examples/loadtest.rs
// in the original source.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tailsrv/tailsrv/internal/clientutil"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: loadtest HOST:PORT N\n")
		os.Exit(1)
	}
	addr := os.Args[1]
	n, err := strconv.Atoi(os.Args[2])
	if err != nil || n <= 0 {
		fmt.Fprintf(os.Stderr, "loadtest: bad connection count %q\n", os.Args[2])
		os.Exit(1)
	}

	var totalBytes atomic.Int64

	for i := 0; i < n; i++ {
		go func(id int) {
			conn, err := clientutil.Dial(addr, 0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "loadtest[%d]: %v\n", id, err)
				return
			}
			defer func() { _ = conn.Close() }()

			buf := make([]byte, 64*1024)
			for {
				nread, err := conn.Read(buf)
				totalBytes.Add(int64(nread))
				if err != nil {
					if err != io.EOF {
						fmt.Fprintf(os.Stderr, "loadtest[%d]: %v\n", id, err)
					}
					return
				}
			}
		}(i)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var last int64
	for range ticker.C {
		current := totalBytes.Load()
		fmt.Printf("%d connections, %.2f MiB/s aggregate\n", n, float64(current-last)/(1<<20))
		last = current
	}
}
