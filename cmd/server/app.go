package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ganot/wardbudget/internal/config"
	"github.com/ganot/wardbudget/internal/domain/activity"
	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/domain/ward"
	"github.com/ganot/wardbudget/internal/mcp"
	"github.com/ganot/wardbudget/internal/metrics"
	"github.com/ganot/wardbudget/internal/notice"
	"github.com/ganot/wardbudget/internal/sqlite"
	"github.com/ganot/wardbudget/internal/storage/local"
	"github.com/ganot/wardbudget/internal/storage/remote"
	"github.com/ganot/wardbudget/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// app holds the long-lived dependencies shared by the commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlite.DB
	conn     *remote.Conn
	storage  session.Storage
	mode     notice.Mode
	wards    *ward.Service
	activity *activity.Service
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		wards:    ward.NewService(sqlite.NewWardRepository(db), logger),
		activity: activity.NewService(sqlite.NewActivityRepository(db), logger),
	}

	if !cfg.Sync.Enabled {
		votes := ledger.NewService(sqlite.NewLedgerRepository(db), logger)
		a.storage = local.New(a.wards, votes, logger)
		a.mode = notice.ModeLocal
		logger.Info("using local storage", "db", cfg.DB.Path)
		return a, nil
	}

	conn, err := remote.Connect(cfg.Sync.NATSURL, cfg.Sync.Embedded, cfg.Sync.StoreDir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.conn = conn

	store, err := remote.New(ctx, conn.JS, cfg.Sync.Bucket, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.storage = store
	a.mode = notice.ModeRemote
	logger.Info("using shared store", "bucket", cfg.Sync.Bucket, "embedded", cfg.Sync.Embedded)
	return a, nil
}

func (a *app) Close() {
	if a.conn != nil {
		a.conn.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, closeLog := newLogger(cfg)
	defer closeLog()

	for _, warning := range cfg.Warnings() {
		logger.Warn("unsafe configuration", "detail", warning)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.Close()

	recorder := metrics.New()
	manager := session.NewManager(a.storage, logger,
		session.WithObserver(session.Observers{activity.NewRecorder(a.activity), recorder}),
		session.WithIdleTimeout(time.Duration(cfg.Session.IdleTimeout)),
	)
	defer manager.Close(context.WithoutCancel(ctx))
	go manager.Run(ctx)

	handler := mcp.NewHandler(mcp.Services{
		Sessions: manager,
		Activity: a.activity,
		Wards:    a.wards,
		Budgets:  recorder,
	}, a.mode, logger)
	mcpServer := mcp.NewServer(mcp.Config{Handler: handler, Version: Version, Logger: logger})

	if cfg.Server.Mode == config.ModeStdio {
		return runStdioMode(ctx, logger, mcpServer)
	}

	router := transport.NewServer(handler, transport.Options{
		Cookies: transport.NewCookieStore([]byte(cfg.Session.Secret), cfg.Session.SecureCookie),
		Metrics: recorder.Handler(),
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		),
		Logger: logger,
	})
	return runHTTPMode(ctx, logger, router, cfg.Server.Host, cfg.Server.Port)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	return shutdown(logger, httpServer)
}

func shutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
