// Package server accepts Telnet-style connections, turns each one into
// an internal/session.Session, and enforces a max-active-connections
// ceiling. Grounded on original_source/booker/server.cpp's CServer —
// its add_listener/listener/close_listening_ports/close_all_sessions
// shape, translated from a shared acceptor-context vector plus a
// coroutine-per-listener into Go's net.Listener plus one goroutine per
// Accept loop, since Go's net package already serializes accept calls
// without the original's boost::asio acceptor bookkeeping.
package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/mstoyanov/booker/internal/engine"
	"github.com/mstoyanov/booker/internal/session"
)

// Logger is the subset of structured logging this package needs.
type Logger interface {
	Printf(format string, args ...any)
}

// SessionFactory builds a *session.Session for a freshly accepted
// connection carrying the given booker UID.
type SessionFactory func(conn net.Conn, uid string) *session.Session

// Server owns the listening socket, the booker registry, and the set
// of currently running sessions. Mirrors CServer's m_current_connections
// admission check and m_active_sessions bookkeeping — including the
// original's on_session_close_cb, which only erases the closed session
// from m_active_sessions and never decrements m_current_connections.
// The admitted-connection counter here is therefore monotonically
// increasing: once maxConnections admissions have happened, no further
// connection is ever admitted for the rest of the process's lifetime,
// even after every prior session has closed.
type Server struct {
	ln             net.Listener
	registry       *engine.Registry
	maxConnections int
	newSession     SessionFactory
	log            Logger

	mu       sync.Mutex
	sessions map[*session.Session]struct{}
	active   int
	closed   bool

	wg sync.WaitGroup
}

// New wraps an already-bound listener. maxConnections <= 0 means
// unlimited.
func New(ln net.Listener, registry *engine.Registry, maxConnections int, newSession SessionFactory, log Logger) *Server {
	return &Server{
		ln:             ln,
		registry:       registry,
		maxConnections: maxConnections,
		newSession:     newSession,
		log:            log,
		sessions:       make(map[*session.Session]struct{}),
	}
}

// Serve runs the accept loop until the listener is closed. ctx is
// handed to every session it starts; cancelling ctx ends those
// sessions but does not close the listener or stop the accept loop.
// It returns nil on a clean shutdown (listener closed by
// CloseListener) and the accept error otherwise.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && !ne.Timeout() {
				return err
			}
			return err
		}

		if !s.admit(conn) {
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.runSession(ctx, conn)
	}
}

// admit enforces the connection ceiling, exactly as CServer's listener
// coroutine increments m_current_connections before the session is
// allowed to start. The counter is never decremented — see the Server
// doc comment.
func (s *Server) admit(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if s.maxConnections > 0 && s.active >= s.maxConnections {
		return false
	}
	s.active++
	return true
}

func (s *Server) runSession(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	booker := engine.NewBooker(conn.RemoteAddr().String())
	seq, err := s.registry.Join(booker)
	if err != nil {
		s.log.Printf("registry join refused for %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	defer s.registry.Leave(booker)

	uid := uidFor(conn.RemoteAddr().String(), seq)
	sess := s.newSession(conn, uid)

	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
	}()

	if err := sess.Run(ctx); err != nil {
		s.log.Printf("session %s ended: %v", uid, err)
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CloseListener stops accepting new connections without touching
// sessions already in flight. Mirrors close_listening_ports.
func (s *Server) CloseListener() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.ln.Close()
}

// CloseSessions evicts every session currently in flight and waits for
// their goroutines to exit. Mirrors close_all_sessions.
func (s *Server) CloseSessions() {
	s.mu.Lock()
	victims := make([]*session.Session, 0, len(s.sessions))
	for sess := range s.sessions {
		victims = append(victims, sess)
	}
	s.mu.Unlock()

	for _, sess := range victims {
		sess.Close()
	}
	s.wg.Wait()
}

// ActiveConnections reports the total number of connections admitted
// over the process lifetime. It never decreases — see the Server doc
// comment.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func uidFor(addr string, seq uint32) string {
	return addr + "@" + strconv.FormatUint(uint64(seq), 10)
}
