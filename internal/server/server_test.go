package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/mstoyanov/booker/internal/engine"
	"github.com/mstoyanov/booker/internal/session"
)

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

func testCatalog(t *testing.T) *engine.Catalog {
	t.Helper()
	cat, err := engine.Load(engine.CatalogConfig{Movies: []engine.MovieConfig{
		{Movie: "GodFather", Theatres: []string{"Tokyo"}},
	}})
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func newTestServer(t *testing.T) (*Server, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	cat := testCatalog(t)
	eng := engine.New(cat)
	registry := engine.NewRegistry()

	factory := func(conn net.Conn, uid string) *session.Session {
		return session.New(conn, uid, eng, cat, nil, nil, nopLogger{})
	}

	s := New(ln, registry, 1, factory, nopLogger{})
	return s, ln
}

func TestServerAdmitsUpToMaxConnections(t *testing.T) {
	s, ln := newTestServer(t)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	c1, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial 1: %v", err)
	}
	defer c1.Close()

	waitForActive(t, s, 1)

	c2, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial 2: %v", err)
	}
	defer c2.Close()

	buf := make([]byte, 1)
	c2.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c2.Read(buf); err == nil {
		t.Fatalf("expected second connection to be refused, got a read")
	}

	s.CloseListener()
	s.CloseSessions()
	<-done
}

func TestServerShutdownEvictsSessions(t *testing.T) {
	s, ln := newTestServer(t)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	c1, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c1.Close()

	waitForActive(t, s, 1)

	coord := NewCoordinator([]*Server{s})
	coord.pause = time.Millisecond
	coord.Shutdown(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}

	// The admitted-connection counter is never decremented, even once
	// every session has been evicted — see the Server doc comment.
	if got := s.ActiveConnections(); got != 1 {
		t.Fatalf("ActiveConnections after shutdown = %d, want 1", got)
	}
}

// TestServerNeverReadmitsAfterCeilingOnce confirms the ceiling stays
// hit for the rest of the process lifetime: once maxConnections
// admissions have happened, a new connection is refused even after
// every prior session has closed and freed no capacity back.
func TestServerNeverReadmitsAfterCeilingOnce(t *testing.T) {
	s, ln := newTestServer(t)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	c1, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial 1: %v", err)
	}
	waitForActive(t, s, 1)
	c1.Close()

	// Give the server goroutine time to notice the closed connection
	// and tear the session down; the counter must still hold at 1.
	time.Sleep(50 * time.Millisecond)
	if got := s.ActiveConnections(); got != 1 {
		t.Fatalf("ActiveConnections after session close = %d, want 1", got)
	}

	c2, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial 2: %v", err)
	}
	defer c2.Close()

	buf := make([]byte, 1)
	c2.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c2.Read(buf); err == nil {
		t.Fatalf("expected connection to be refused after the ceiling was hit once, got a read")
	}

	s.CloseListener()
	s.CloseSessions()
	<-done
}

func waitForActive(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.ActiveConnections() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ActiveConnections never reached %d (got %d)", want, s.ActiveConnections())
}
