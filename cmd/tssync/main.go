// Command tssync mirrors a tailsrv stream into a local file instead of
// stdout, and can resume where a previous run left off. Grounded on
// examples/tssync.rs in the original source.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tailsrv/tailsrv/internal/clientutil"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "usage: tssync HOST:PORT OFFSET|resume LOCAL_PATH\n")
		os.Exit(1)
	}
	addr, rawOffset, localPath := os.Args[1], os.Args[2], os.Args[3]

	out, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tssync: open %s: %v\n", localPath, err)
		os.Exit(1)
	}
	defer func() { _ = out.Close() }()

	var offset int64
	if rawOffset == "resume" {
		info, err := out.Stat()
		if err != nil {
			fmt.Fprintf(os.Stderr, "tssync: stat %s: %v\n", localPath, err)
			os.Exit(1)
		}
		offset = info.Size()
	} else {
		offset, err = strconv.ParseInt(rawOffset, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tssync: bad offset %q: %v\n", rawOffset, err)
			os.Exit(1)
		}
	}

	conn, err := clientutil.Dial(addr, offset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tssync: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	if _, err := io.Copy(out, conn); err != nil {
		fmt.Fprintf(os.Stderr, "tssync: %v\n", err)
		os.Exit(1)
	}
}
