package server

import (
	"context"
	"time"
)

// Closer is anything with a stoppable lifecycle the shutdown
// coordinator should tear down after the session servers (Redis
// clients, the audit publisher/consumer, MySQL pool, the admin HTTP
// server). Implementations should make Close idempotent.
type Closer interface {
	Close() error
}

// Coordinator sequences a graceful shutdown across one or more
// *Server instances plus an arbitrary list of auxiliary closers.
// Mirrors playd/main.cpp's on_shut_down coroutine: close listeners,
// pause, evict sessions, pause, then tear down everything else — the
// two 100ms pauses give in-flight writes (the banner, a final prompt)
// a chance to flush before the socket disappears under them.
type Coordinator struct {
	servers []*Server
	closers []Closer
	pause   time.Duration
}

// NewCoordinator builds a Coordinator over servers, closing aux after
// every session has been evicted. pause defaults to 100ms, matching
// the original's std::chrono::milliseconds(100) between phases.
func NewCoordinator(servers []*Server, aux ...Closer) *Coordinator {
	return &Coordinator{servers: servers, closers: aux, pause: 100 * time.Millisecond}
}

// Shutdown runs the close-listeners / wait / close-sessions / wait /
// close-aux sequence. It never returns an error from a listener close
// failure — by the time shutdown starts, the process is going down
// regardless, matching the original swallowing close_listening_ports'
// return value.
func (c *Coordinator) Shutdown(ctx context.Context) {
	for _, s := range c.servers {
		_ = s.CloseListener()
	}
	sleepOrDone(ctx, c.pause)

	for _, s := range c.servers {
		s.CloseSessions()
	}
	sleepOrDone(ctx, c.pause)

	for _, cl := range c.closers {
		_ = cl.Close()
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
