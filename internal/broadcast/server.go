package broadcast

import (
	"context"
	"fmt"
	"net"

	"github.com/tailsrv/tailsrv/internal/logging"
)

// Server ties together the broadcast file, its watcher, the client
// registry, and the TCP listener. One Server exists per process.
//
// The listener and the broadcast file are acquired independently:
// clients may connect (and be retained) before the file exists. Each
// accepted connection waits on ready until the file appears, exactly
// as the watcher, once running, wakes every session already in the
// registry.
type Server struct {
	Registry *Registry
	File     *BroadcastFile
	Watcher  *Watcher

	path   string
	linger bool

	listener *net.TCPListener
	ready    chan struct{}
}

// NewServer constructs a Server for the broadcast file at path. It
// does not block: the file is opened lazily once Serve runs, so that
// Listen can bind the socket and start accepting clients before the
// file exists.
func NewServer(path string, linger bool) *Server {
	return &Server{
		Registry: NewRegistry(),
		path:     path,
		linger:   linger,
		ready:    make(chan struct{}),
	}
}

// Listen binds the TCP listener on all interfaces at the given port.
// A bind failure here is fatal per spec.md §7 (Fatal startup).
func (s *Server) Listen(port int) error {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{Port: port})
	if err != nil {
		return fmt.Errorf("bind :%d: %w", port, err)
	}
	s.listener = ln
	logging.Infof("listening on %s", ln.Addr())
	return nil
}

// AcquireFile blocks, polling, until the broadcast file exists, then
// initializes the watcher and marks the server ready: File and
// Watcher become non-nil and any session waiting on file readiness
// unblocks. It does not run the watcher's event loop — call
// Watcher.Run, or use Serve, for that.
func (s *Server) AcquireFile(ctx context.Context) error {
	file, err := Open(ctx, s.path)
	if err != nil {
		return err
	}

	watcher, err := NewWatcher(file, s.Registry, s.linger)
	if err != nil {
		_ = file.Close()
		return err
	}

	s.File = file
	s.Watcher = watcher
	close(s.ready)
	return nil
}

// Serve runs the file acquisition, the watcher, and the accept loop
// until ctx is canceled. The listener accepts connections immediately
// — before the broadcast file exists, if it doesn't yet — and each
// session blocks until the file is acquired before its handshake is
// processed, per spec.md §4.2 and §1's "clients that arrive before the
// file exists". If the listening socket dies for any reason other
// than ctx cancellation, or the file can never be acquired (e.g. the
// path names a non-regular file), Serve returns a non-nil error —
// callers should treat this as a fatal startup/runtime failure.
func (s *Server) Serve(ctx context.Context) error {
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	acquireErrCh := make(chan error, 1)
	go func() {
		err := s.AcquireFile(serveCtx)
		if err == nil {
			s.Watcher.Run(serveCtx)
		}
		acquireErrCh <- err
	}()

	go func() {
		<-serveCtx.Done()
		_ = s.listener.Close()
	}()

	acceptErrCh := make(chan error, 1)
	go func() { acceptErrCh <- s.acceptLoop(serveCtx) }()

	select {
	case err := <-acquireErrCh:
		if err != nil && ctx.Err() == nil {
			// The file could never be acquired for a reason unrelated
			// to shutdown (e.g. the path is a directory) — fatal.
			cancel()
			<-acceptErrCh
			return err
		}
		cancel()
		return <-acceptErrCh
	case err := <-acceptErrCh:
		cancel()
		<-acquireErrCh
		return err
	}
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

// handleConn retains the accepted connection until the broadcast file
// is ready, then hands it off to a session. A shutdown while still
// waiting simply closes the socket without ever reading a handshake.
func (s *Server) handleConn(ctx context.Context, conn *net.TCPConn) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		_ = conn.Close()
		return
	}
	session := NewSession(conn)
	session.Run(ctx, s.File, s.Registry)
}

// Close releases the broadcast file handle and the watcher's
// filesystem subscription, if they were ever acquired.
func (s *Server) Close() error {
	if s.Watcher != nil {
		if err := s.Watcher.Close(); err != nil {
			logging.Warnf("watcher close: %v", err)
		}
	}
	if s.File != nil {
		return s.File.Close()
	}
	return nil
}
