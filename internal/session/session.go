// Package session owns one booker's connection lifecycle: Telnet
// negotiation, line buffering, CLI dispatch, and the banners and
// prompts a terminal client sees. Grounded on
// original_source/booker/session.cpp's CSession — its constructor/
// start/on_recv/on_send/cli_enter_cb/cli_exit_cb shape translated into
// a single goroutine per connection instead of two coroutines sharing
// a deque, since a Go net.Conn already serializes writes without the
// original's outbound message queue and timer-wake dance.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/mstoyanov/booker/internal/cli"
	"github.com/mstoyanov/booker/internal/engine"
	"github.com/mstoyanov/booker/internal/parser"
	"github.com/mstoyanov/booker/internal/protocol"
)

// AuditPublisher records a confirmed booking to an external sink. The
// session never blocks on it failing — a publish error is logged, not
// surfaced to the booker, since an audit trail gap is not a reason to
// fail a seat grant that already happened.
type AuditPublisher interface {
	PublishBookingConfirmed(ctx context.Context, bookerUID, movie, theatre string, seats []int) error
}

// RateLimiter gates how often one booker UID may issue a command.
// Consulted once per dispatched line, before the command runs.
type RateLimiter interface {
	Allow(ctx context.Context, bookerUID string) (bool, error)
}

// Logger is the subset of logging this package needs, satisfied by
// the standard library's *log.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

// Session drives a single connection from accept to close.
type Session struct {
	conn   net.Conn
	proto  *protocol.Protocol
	tree   *cli.Engine
	colors *palette

	booker   *engine.Booker
	eng      *engine.Engine
	catalog  *engine.Catalog
	audit    AuditPublisher
	limiter  RateLimiter
	log      Logger

	lineBuf []byte
	closing bool

	// statusProvider renders the root "status" command's output,
	// defaulting to eng.DumpStatus. WithStatusCache overrides it with
	// a cached provider and wires an invalidation hook run after every
	// successful book/unbook.
	statusProvider   func() string
	invalidateStatus func(context.Context)

	closeOnce sync.Once
	done      chan struct{}
}

// WithStatusCache overrides the "status" command's data source and
// registers a hook to invalidate it after a successful book/unbook.
// Call before Run.
func (s *Session) WithStatusCache(provider func() string, invalidate func(context.Context)) {
	s.statusProvider = provider
	s.invalidateStatus = invalidate
}

// New builds a Session for an accepted connection. uid is the
// booker's pretty identifier ("ip:port@seq"), already assigned by the
// caller via Registry.Join.
func New(conn net.Conn, uid string, eng *engine.Engine, catalog *engine.Catalog, audit AuditPublisher, limiter RateLimiter, log Logger) *Session {
	s := &Session{
		conn:    conn,
		booker:  engine.NewBooker(uid),
		eng:     eng,
		catalog: catalog,
		audit:   audit,
		limiter: limiter,
		log:     log,
		colors:  newPalette(),
		done:    make(chan struct{}),
	}
	s.statusProvider = eng.DumpStatus

	s.proto = protocol.New()
	s.proto.OnApplicationData = s.onApplicationData
	s.proto.OnSend = s.writeRaw

	s.tree = buildCommandTree(s, catalog)
	s.tree.OnUnknown = s.onUnknownCommand
	s.tree.OnRootExit = s.onRootExit

	return s
}

// Run negotiates Telnet options, sends the entry banner, and then
// blocks reading from the connection until it closes or ctx is
// cancelled. It always closes conn before returning.
func (s *Session) Run(ctx context.Context) error {
	defer s.conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-s.done:
		}
	}()

	s.proto.Start()
	s.writeText(fmt.Sprintf("Hello: %s\n", s.booker.UID()))
	s.writePrompt()

	reader := bufio.NewReaderSize(s.conn, 4096)
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			s.proto.Feed(buf[:n])
		}
		if s.closing {
			return nil
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Close unblocks a pending Run from another goroutine (used by the
// server's shutdown coordinator to evict sessions).
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.conn.Close()
}

// UID returns the booker identity this session was constructed with.
func (s *Session) UID() string { return s.booker.UID() }

// Booker exposes the underlying booker identity for registry bookkeeping.
func (s *Session) Booker() *engine.Booker { return s.booker }

func (s *Session) onApplicationData(data []byte) {
	s.lineBuf = append(s.lineBuf, data...)

	for {
		idx := indexNewline(s.lineBuf)
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(s.lineBuf[:idx]), "\r")
		s.lineBuf = s.lineBuf[idx+1:]
		s.dispatch(line)
		if s.closing {
			return
		}
	}
}

func (s *Session) dispatch(line string) {
	if strings.TrimSpace(line) == "" {
		s.writePrompt()
		return
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(context.Background(), s.booker.UID())
		if err != nil && s.log != nil {
			s.log.Printf("session %s: rate limiter error: %v", s.booker.UID(), err)
		}
		if err == nil && !allowed {
			s.writeText(s.colors.warn("Too many commands, slow down.\n"))
			s.writePrompt()
			return
		}
	}

	var out strings.Builder
	s.tree.Dispatch(&out, line)
	if out.Len() > 0 {
		s.writeText(out.String())
	}
	if !s.closing {
		s.writePrompt()
	}
}

func (s *Session) onUnknownCommand(out io.Writer, line string) {
	fmt.Fprintf(out, "%s\n", s.colors.errorf(fmt.Sprintf("Unknown command or incorrect parameters: %s.", line)))
}

func (s *Session) onRootExit(out io.Writer) {
	fmt.Fprint(out, "Bye ...\n")
	s.closing = true
}

func (s *Session) writePrompt() {
	s.writeText(s.tree.Prompt() + "> ")
}

func (s *Session) writeText(msg string) {
	s.writeRaw(protocol.Encode([]byte(msg)))
}

func (s *Session) writeRaw(b []byte) {
	if _, err := s.conn.Write(b); err != nil && s.log != nil {
		s.log.Printf("session %s: write error: %v", s.booker.UID(), err)
	}
}

func indexNewline(b []byte) int {
	for i, c := range b {
		if c == '\n' {
			return i
		}
	}
	return -1
}

// parseArgSeats parses a command argument string as a seat list,
// clamping to the engine's fixed seat-index range.
func parseArgSeats(arg string) ([]int, error) {
	return parser.ParseSeatList(arg, engine.MaxSeats)
}
