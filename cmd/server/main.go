// Package main runs the launchpad ledger service: the HTTP API, the event
// stream and the periodic lifecycle sweep.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"launchpad-ledger/internal/api"
	"launchpad-ledger/internal/config"
	"launchpad-ledger/internal/events"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/platform"
	"launchpad-ledger/internal/storage"
	chstore "launchpad-ledger/internal/storage/clickhouse"
	"launchpad-ledger/internal/storage/memory"
	"launchpad-ledger/internal/storage/migrations"
	pebblestore "launchpad-ledger/internal/storage/pebble"
	pgstore "launchpad-ledger/internal/storage/postgres"
)

// Server holds the running components.
type Server struct {
	cfg    config.Config
	logger *zap.Logger

	platform *platform.Platform
	hub      *events.Hub
	journal  storage.EventJournal

	mu        sync.Mutex
	started   time.Time
	lastSweep time.Time
	sweeps    int
	lastErr   string
}

func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("open backend", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer backend.close()

	hub := events.NewHub(nil, logger.Named("hub"))
	defer hub.Close()

	sinks := []events.Sink{hub}
	if backend.journal != nil {
		sinks = append(sinks, events.NewJournalSink(backend.journal))
	}
	bus := events.NewBus(logger.Named("events"), sinks...)

	runner := ledger.NewRunner(ledger.Options{
		Ledger:      backend.ledger,
		Publisher:   bus,
		Logger:      logger.Named("ledger"),
		MaxAttempts: cfg.MaxAttempts,
	})

	s := &Server{
		cfg:    cfg,
		logger: logger,
		platform: platform.New(platform.Options{
			Runner:             runner,
			Authority:          cfg.PlatformAuthority,
			Treasury:           cfg.Treasury,
			FeeRateBps:         cfg.FeeRateBps,
			Rules:              cfg.Rules(),
			PlatformCutPercent: cfg.PlatformCutPercent,
			Logger:             logger,
		}),
		hub:     hub,
		journal: backend.journal,
		started: time.Now(),
	}

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.Stringer("signal", sig))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = s.Run(ctx)
	close(done)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type backend struct {
	ledger  storage.Ledger
	journal storage.EventJournal
	closers []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend opens the configured ledger store and the optional ClickHouse
// event journal.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}
	switch cfg.Backend {
	case config.BackendMemory:
		b.ledger = memory.NewLedger()
		b.journal = memory.NewEventJournal()
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			b.close()
			return nil, err
		}
		b.ledger = pgstore.NewLedger(pool)
	case config.BackendPebble:
		l, err := pebblestore.Open(cfg.PebbleDir)
		if err != nil {
			return nil, fmt.Errorf("open pebble: %w", err)
		}
		b.closers = append(b.closers, func() { l.Close() })
		b.ledger = l
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("clickhouse journal: %w", err)
		}
		b.closers = append(b.closers, func() { conn.Close() })
		b.journal = chstore.NewEventJournal(conn)
	}
	return b, nil
}

// Run serves HTTP and sweeps until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: s.cfg.HTTPAddr,
		Handler: api.NewRouter(api.Options{
			Platform:     s.platform,
			Journal:      s.journal,
			Events:       s.hub,
			Status:       func() interface{} { return s.status() },
			EnableFaucet: s.cfg.Faucet,
			Logger:       s.logger.Named("api"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("starting HTTP server", zap.String("addr", s.cfg.HTTPAddr), zap.String("backend", s.cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return s.runSweeper(ctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// runSweeper flags dead tokens and liquidates them on every tick.
func (s *Server) runSweeper(ctx context.Context) error {
	s.logger.Info("starting sweeper", zap.Duration("interval", s.cfg.SweepInterval))
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Server) sweep(ctx context.Context) {
	report, err := s.platform.Sweep(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSweep = time.Now()
	s.sweeps++
	if err != nil {
		s.lastErr = err.Error()
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("sweep failed", zap.Error(err))
		}
		return
	}
	s.lastErr = ""
	for mint, err := range report.Failed {
		s.logger.Warn("sweep mint failed", zap.String("mint", mint), zap.Error(err))
	}
	if report.Transitions > 0 || len(report.Liquidated) > 0 {
		s.logger.Info("sweep",
			zap.Int("checked", report.Checked),
			zap.Int("transitions", report.Transitions),
			zap.Strings("liquidated", report.Liquidated),
		)
	}
}

// StatusResponse is the JSON body of /status.
type StatusResponse struct {
	Status    string    `json:"status"`
	Backend   string    `json:"backend"`
	Uptime    string    `json:"uptime"`
	Started   time.Time `json:"started"`
	LastSweep time.Time `json:"last_sweep,omitempty"`
	Sweeps    int       `json:"sweeps"`
	LastError string    `json:"last_error,omitempty"`
	WSClients int       `json:"ws_clients"`
}

func (s *Server) status() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatusResponse{
		Status:    "running",
		Backend:   s.cfg.Backend,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Started:   s.started,
		LastSweep: s.lastSweep,
		Sweeps:    s.sweeps,
		LastError: s.lastErr,
		WSClients: s.hub.Clients(),
	}
}
