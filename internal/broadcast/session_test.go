package broadcast

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// startTestServer opens a broadcast file at path and begins accepting
// connections on an ephemeral loopback port, running each session in
// its own goroutine exactly as cmd/tailsrv does. It returns the
// listener address, the broadcast file and the registry; the file is
// closed by a t.Cleanup hook.
func startTestServer(t *testing.T, ctx context.Context, path string) (addr string, bf *BroadcastFile, registry *Registry) {
	t.Helper()

	bf, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	registry = NewRegistry()

	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenTCP: %v", err)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	go func() {
		for {
			conn, err := ln.AcceptTCP()
			if err != nil {
				return
			}
			sess := NewSession(conn)
			go sess.Run(ctx, bf, registry)
		}
	}()

	t.Cleanup(func() { _ = bf.Close() })
	return ln.Addr().String(), bf, registry
}

func dialWithOffset(t *testing.T, addr string, offset int64) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if _, err := io.WriteString(conn, itoa(offset)+"\n"); err != nil {
		t.Fatalf("write header: %v", err)
	}
	return conn
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [32]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func readN(t *testing.T, conn net.Conn, n int, timeout time.Duration) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("readN: %v", err)
	}
	return buf
}

// S1: a client connected from the start sees bytes appended after it.
func TestSessionSimpleAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.log")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, bf, registry := startTestServer(t, ctx, path)

	conn := dialWithOffset(t, addr, 0)
	defer conn.Close()

	if got := readN(t, conn, 5, 2*time.Second); string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}

	// Wait for the session to register before appending, so the wake-up
	// isn't missed.
	deadline := time.Now().Add(2 * time.Second)
	for registry.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString(" world"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()
	bf.Length().Store(11)
	registry.WakeAll()

	if got := readN(t, conn, 6, 2*time.Second); string(got) != " world" {
		t.Fatalf("got %q, want %q", got, " world")
	}
}

// S2: a negative-offset header resolves against the file's length at
// connect time and serves only the tail.
func TestSessionNegativeOffsetTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.log")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, _, _ := startTestServer(t, ctx, path)

	conn := dialWithOffset(t, addr, -4)
	defer conn.Close()

	if got := readN(t, conn, 4, 2*time.Second); string(got) != "6789" {
		t.Fatalf("got %q, want %q", got, "6789")
	}
}

// A client may legally request an absolute offset past the current
// end of the file (spec.md §4.4.1: any h >= 0 is accepted as-is). The
// session must block exactly as if it were caught up, rather than
// computing a negative send length.
func TestSessionAbsoluteOffsetBeyondLengthBlocksThenCatchesUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.log")
	if err := os.WriteFile(path, []byte("abcd"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, bf, registry := startTestServer(t, ctx, path)

	conn := dialWithOffset(t, addr, 100)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected no data while offset is beyond the file's length")
	}

	deadline := time.Now().Add(2 * time.Second)
	for registry.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	padding := make([]byte, 96)
	for i := range padding {
		padding[i] = 'x'
	}
	if _, err := f.Write(append(padding, []byte("world")...)); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()
	bf.Length().Store(105)
	registry.WakeAll()

	if got := readN(t, conn, 5, 2*time.Second); string(got) != "world" {
		t.Fatalf("got %q, want %q", got, "world")
	}
}

// S5: when the client resets the connection, the session goroutine
// notices via the discard-reader and exits without blocking forever.
func TestSessionPeerResetUnblocksSession(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.log")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, _, registry := startTestServer(t, ctx, path)

	conn := dialWithOffset(t, addr, 0)
	_ = readN(t, conn, 3, 2*time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for registry.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if registry.Count() != 1 {
		t.Fatalf("Count = %d, want 1 before close", registry.Count())
	}

	_ = conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for registry.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if registry.Count() != 0 {
		t.Fatalf("Count = %d, want 0 after client disconnect", registry.Count())
	}
}
