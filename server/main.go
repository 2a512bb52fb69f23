package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/darkan/pkg/actions"
	"github.com/haasonsaas/darkan/pkg/admin"
	"github.com/haasonsaas/darkan/pkg/config"
	"github.com/haasonsaas/darkan/pkg/hosts"
	"github.com/haasonsaas/darkan/pkg/ingest"
	"github.com/haasonsaas/darkan/pkg/logging"
	"github.com/haasonsaas/darkan/pkg/store"
	"github.com/haasonsaas/darkan/pkg/telemetry"
	"github.com/haasonsaas/darkan/pkg/triggers"
)

var (
	configPath  = flag.String("config", "/etc/darkan/server.yaml", "Config file path")
	listen      = flag.String("listen", "", "Ingestion listen address (overrides config)")
	socketPath  = flag.String("socket", "", "Admin unix socket path (overrides config)")
	dbDSN       = flag.String("db", "", "Database DSN (overrides config)")
	softDecline = flag.Bool("soft-decline", false, "Keep declined hosts and reject their submissions")
	Version     = "dev"
)

const shutdownTimeout = 5 * time.Second

func main() {
	flag.Parse()

	logging.Bootstrap("DARKAN_LOG_LEVEL")
	log.Info().Str("version", Version).Msg("Darkan server starting")

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// CLI overrides
	if *listen != "" {
		cfg.Ingest.Listen = *listen
	}
	if *socketPath != "" {
		cfg.Admin.Socket = *socketPath
	}
	if *dbDSN != "" {
		cfg.Database.DSN = *dbDSN
	}
	if *softDecline {
		cfg.Admission.SoftDecline = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	logger := logging.Apply(cfg.Logging)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped")
	}
	logger.Info().Msg("Server stopped")
}

func run(cfg *config.ServerConfig, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.SetupTracing(ctx, "darkan-server", Version, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()
	logger.Info().Str("driver", cfg.Database.Driver).Msg("Database ready")

	alerts, closeActions, err := buildActions(cfg.Actions, logger)
	if err != nil {
		return err
	}
	defer closeActions()

	registry := hosts.NewRegistry(st, hosts.WithSoftDecline(cfg.Admission.SoftDecline))
	srv := NewServer(
		ingest.NewService(st, registry, logger),
		admin.NewDispatcher(st, registry, alerts, logger),
		NewRateLimiter(cfg.Ingest.RateLimitPerMinute, time.Minute),
		logger,
	)
	loop := triggers.NewLoop(st, alerts, time.Duration(cfg.Triggers.Interval)*time.Second, logger)

	ingestLn, err := net.Listen("tcp", cfg.Ingest.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Ingest.Listen, err)
	}
	adminLn, err := listenUnix(cfg.Admin.Socket)
	if err != nil {
		ingestLn.Close()
		return err
	}
	defer os.Remove(cfg.Admin.Socket)

	gin.SetMode(gin.ReleaseMode)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("listen", ingestLn.Addr().String()).Msg("PackageListener started")
		return serve(gctx, &http.Server{Handler: srv.ingestRouter(), ReadHeaderTimeout: 10 * time.Second}, ingestLn)
	})
	g.Go(func() error {
		logger.Info().Str("socket", cfg.Admin.Socket).Msg("AdminListener started")
		return serve(gctx, &http.Server{Handler: srv.adminRouter(), ReadHeaderTimeout: 10 * time.Second}, adminLn)
	})
	g.Go(func() error {
		return loop.Run(gctx)
	})
	return g.Wait()
}

// serve runs srv on ln until ctx is done.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// listenUnix replaces a stale socket file and restricts the new one to the
// owner, since the admin endpoint has no other access control.
func listenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod %s: %w", path, err)
	}
	return ln, nil
}

// buildActions registers the alert backends enabled in cfg. Log is always
// available.
func buildActions(cfg config.ActionsConfig, logger zerolog.Logger) (*actions.Registry, func(), error) {
	var list []actions.Action
	closers := []func(){}
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if cfg.Email.Enabled() {
		mail, err := actions.NewEMail(actions.EmailSettings{
			SMTPHost: cfg.Email.SMTPHost,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
			Timeout:  time.Duration(cfg.Email.TimeoutS) * time.Second,
		})
		if err != nil {
			return nil, closeAll, fmt.Errorf("e-mail action: %w", err)
		}
		list = append(list, mail)
	}
	if cfg.NATS.Enabled() {
		publisher, err := actions.NewNATS(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return nil, closeAll, fmt.Errorf("nats action: %w", err)
		}
		closers = append(closers, func() { _ = publisher.Close() })
		list = append(list, publisher)
	}
	list = append(list, actions.NewLog(logger))

	registry, err := actions.NewRegistry(logger, list...)
	if err != nil {
		closeAll()
		return nil, func() {}, err
	}
	for _, info := range registry.Enumerate() {
		logger.Info().Str("action", info.Name).Msg("Action registered")
	}
	return registry, closeAll, nil
}
