// Command booker runs the cinema seat reservation daemon: a Telnet-
// style TCP surface for bookers plus a small admin HTTP surface for
// operators. Grounded on original_source/playd/main.cpp's main() —
// its default in-memory catalog literal, daemonize call, signal
// handling, and on_shut_down sequencing all carried over, rebuilt
// around net.Listener/echo.Echo instead of a shared boost::asio
// io_context.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mstoyanov/booker/internal/admin"
	"github.com/mstoyanov/booker/internal/audit"
	"github.com/mstoyanov/booker/internal/config"
	"github.com/mstoyanov/booker/internal/daemonize"
	"github.com/mstoyanov/booker/internal/engine"
	"github.com/mstoyanov/booker/internal/ratelimit"
	"github.com/mstoyanov/booker/internal/server"
	"github.com/mstoyanov/booker/internal/session"
	"github.com/mstoyanov/booker/internal/statuscache"
)

// defaultCatalogJSON is the same three-movie, five-theatre fixture
// playd/main.cpp hardcodes when no configuration file is supplied.
const defaultCatalogJSON = `{
	"movies": [
		{"movie": "GodFather", "theatres": ["Tokyo", "Delhi", "Shanghai", "SaoPaulo", "MexicoCity"]},
		{"movie": "Matrix", "theatres": ["Tokyo", "MexicoCity"]},
		{"movie": "Inception", "theatres": ["Shanghai", "SaoPaulo", "MexicoCity"]}
	]
}`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("info: .env not found; using defaults/env")
	}

	cfg := config.Load()

	if cfg.Daemonize {
		isParent, err := daemonize.Daemonize(cfg.PIDFile)
		if err != nil {
			log.Fatalf("daemonize: %v", err)
		}
		if isParent {
			os.Exit(0)
		}
	}

	logger := newLogger(cfg.LogFile)
	logger.Printf("booker starting (env=%s)", cfg.Env)

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Printf("fatal: load catalog: %v", err)
		os.Exit(1)
	}

	eng := engine.New(catalog)
	registry := engine.NewRegistry()

	rdb := config.NewRedisClient()
	limiter := ratelimit.New(config.LoadRateLimitConfig(), rdb)
	statusCache := statuscache.New(config.LoadStatusCacheConfig(), rdb, eng.DumpStatus)

	var (
		rawPublisher   *audit.Publisher
		auditPublisher session.AuditPublisher
	)
	if cfg.RabbitMQURL != "" {
		p, err := audit.NewPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Printf("warn: audit publisher disabled: %v", err)
		} else {
			rawPublisher = p
			auditPublisher = p
		}
	}

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	if db, err := audit.OpenStore(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName); err != nil {
		logger.Printf("warn: audit store disabled: %v", err)
	} else if err := audit.EnsureSchema(db); err != nil {
		logger.Printf("warn: audit schema setup failed: %v", err)
		db.Close()
	} else {
		store := audit.NewStore(db)
		go func() {
			if err := audit.StartConsumer(consumerCtx, cfg.RabbitMQURL, store, logger); err != nil {
				logger.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	newSession := func(conn net.Conn, uid string) *session.Session {
		sess := session.New(conn, uid, eng, catalog, auditPublisher, limiter, logger)
		sess.WithStatusCache(
			func() string { return statusCache.Get(context.Background()) },
			statusCache.Invalidate,
		)
		return sess
	}

	ln, err := net.Listen("tcp", ":"+cfg.BookingPort)
	if err != nil {
		logger.Printf("fatal: listen on :%s: %v", cfg.BookingPort, err)
		os.Exit(1)
	}
	srv := server.New(ln, registry, cfg.MaxConnections, newSession, logger)

	serveCtx, cancelServe := context.WithCancel(context.Background())
	go func() {
		if err := srv.Serve(serveCtx); err != nil {
			logger.Printf("booking listener stopped: %v", err)
		}
	}()
	logger.Printf("booking surface listening on :%s", cfg.BookingPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// POST /admin/shutdown signals the same channel an OS SIGTERM would,
	// so it drives the exact same shutdown coordinator below rather than
	// a separate code path.
	adminHandler := admin.NewHandler(cfg, statusAdapter{statusCache}, func() {
		sig <- syscall.SIGTERM
	})
	adminHandler.Register(e)

	go func() {
		if err := e.Start(":" + cfg.AdminPort); err != nil {
			logger.Printf("admin surface stopped: %v", err)
		}
	}()
	logger.Printf("admin surface listening on :%s", cfg.AdminPort)

	<-sig
	logger.Printf("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	coord := server.NewCoordinator([]*server.Server{srv})
	coord.Shutdown(shutdownCtx)

	cancelServe()
	stopConsumer()
	_ = e.Shutdown(shutdownCtx)
	if rawPublisher != nil {
		_ = rawPublisher.Close()
	}

	logger.Printf("booker stopped")
}

// statusAdapter satisfies admin.StatusProvider over the status cache.
type statusAdapter struct {
	cache *statuscache.Cache
}

func (a statusAdapter) Status() string {
	return a.cache.Get(context.Background())
}

func loadCatalog(path string) (*engine.Catalog, error) {
	raw := []byte(defaultCatalogJSON)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	var cfg engine.CatalogConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return engine.Load(cfg)
}

func newLogger(logFile string) *log.Logger {
	if logFile == "" {
		return log.New(os.Stdout, "", log.LstdFlags)
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("warn: cannot open log file %s: %v; logging to stdout", logFile, err)
		return log.New(os.Stdout, "", log.LstdFlags)
	}
	return log.New(f, "", log.LstdFlags)
}
