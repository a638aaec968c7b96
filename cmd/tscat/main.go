// Command tscat connects to a tailsrv server, sends the header line,
// and copies the resulting byte stream to stdout. Grounded on
// examples/tscat.rs in the original source.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tailsrv/tailsrv/internal/clientutil"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: tscat HOST:PORT OFFSET\n")
		os.Exit(1)
	}

	offset, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tscat: bad offset %q: %v\n", os.Args[2], err)
		os.Exit(1)
	}

	conn, err := clientutil.Dial(os.Args[1], offset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tscat: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	if _, err := io.Copy(os.Stdout, conn); err != nil {
		fmt.Fprintf(os.Stderr, "tscat: %v\n", err)
		os.Exit(1)
	}
}
