package broadcast

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"syscall"

	"github.com/tailsrv/tailsrv/internal/logging"
)

var nextSessionID atomic.Uint64

// Session is one connected client: its socket, its resolved read
// offset, and the wake-up it can block on when caught up. The offset
// and conn are touched only by this session's own goroutine.
type Session struct {
	id     uint64
	conn   *net.TCPConn
	offset int64
	waker  *Waker
}

// NewSession allocates a session id and wraps the accepted connection.
// The session is not yet registered — that happens after a successful
// handshake, in Run.
func NewSession(conn *net.TCPConn) *Session {
	return &Session{
		id:    nextSessionID.Add(1),
		conn:  conn,
		waker: NewWaker(),
	}
}

// ID returns the session's log-correlation id.
func (s *Session) ID() uint64 {
	return s.id
}

// Run performs the handshake, registers the session, and then streams
// file contents until the connection ends, the server shuts down, or
// an unrecoverable error occurs. Run always closes conn before
// returning.
func (s *Session) Run(ctx context.Context, bf *BroadcastFile, registry *Registry) {
	defer func() { _ = s.conn.Close() }()

	offset, err := ReadHeader(s.conn, bf.Length().Load())
	if err != nil {
		logging.Warnf("client %d: malformed header: %v", s.id, err)
		return
	}
	s.offset = offset
	logging.Infof("client %d: starting from offset %d", s.id, s.offset)

	registry.Register(s.id, s.waker)
	defer registry.Deregister(s.id)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Discard-reader: the only reliable way to notice a clean FIN or a
	// reset while we have nothing queued to send. See spec.md §4.4.4.
	go s.drainReads(sessionCtx, cancel)

	s.transferLoop(sessionCtx, bf)
}

func (s *Session) drainReads(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	buf := make([]byte, 4096)
	for {
		if _, err := s.conn.Read(buf); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (s *Session) transferLoop(ctx context.Context, bf *BroadcastFile) {
	for {
		if ctx.Err() != nil {
			return
		}

		length := int64(bf.Length().Load())
		if length <= s.offset {
			if err := s.waker.Wait(ctx); err != nil {
				return
			}
			continue
		}

		want := length - s.offset
		if want > ChunkSize {
			want = ChunkSize
		}

		n, err := sendChunk(s.conn, bf.Handle(), s.offset, int(want))
		s.offset += n
		if err != nil {
			if isPeerGone(err) {
				logging.Infof("client %d: socket closed by other side", s.id)
				return
			}
			logging.Errorf("client %d: write error: %v", s.id, err)
			return
		}
	}
}

func isPeerGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}

// FinalOffset returns the byte offset the session had reached when its
// run loop returned; used by callers that want to log total bytes sent.
func (s *Session) FinalOffset() int64 {
	return s.offset
}
