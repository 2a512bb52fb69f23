package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haasonsaas/darkan/pkg/auth"
	"github.com/haasonsaas/darkan/pkg/collector"
	"github.com/haasonsaas/darkan/pkg/config"
	"github.com/haasonsaas/darkan/pkg/health"
	"github.com/haasonsaas/darkan/pkg/logging"
	"github.com/haasonsaas/darkan/pkg/telemetry"
)

var (
	configPath = flag.String("config", "/etc/darkan/agent.yaml", "Config file path")
	serverURL  = flag.String("server", "", "Darkan server URL (overrides config)")
	interval   = flag.Duration("interval", 0, "Report interval (overrides config)")
	setKey     = flag.String("set-key", "", "Store the key issued by the operator and exit")
	Version    = "dev"
)

func main() {
	flag.Parse()

	logging.Bootstrap("DARKAN_LOG_LEVEL")
	log.Info().Str("version", Version).Msg("Darkan agent starting")

	cfg, err := config.LoadAgent(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// CLI overrides
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}
	if *interval > 0 {
		cfg.Reporting.Interval = int(interval.Seconds())
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	logger := logging.Apply(cfg.Logging)

	hostname, err := cfg.ResolveHostname()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to determine hostname")
	}

	if *setKey != "" {
		if err := storeKey(cfg, hostname, *setKey); err != nil {
			logger.Fatal().Err(err).Msg("Failed to store key")
		}
		logger.Info().Str("path", cfg.Host.KeyFile).Msg("Key stored")
		return
	}

	if err := run(cfg, hostname, logger); err != nil {
		logger.Fatal().Err(err).Msg("Agent stopped")
	}
	logger.Info().Msg("Agent stopped")
}

func storeKey(cfg *config.AgentConfig, hostname, key string) error {
	if cfg.Host.KeyFile == "" {
		return fmt.Errorf("no host.key_file configured")
	}
	creds := auth.Credentials{Hostname: hostname, Key: key}
	return creds.Save(cfg.Host.KeyFile)
}

func run(cfg *config.AgentConfig, hostname string, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.SetupTracing(ctx, "darkan-agent", Version, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("hostname", hostname).
		Str("server", cfg.Server.URL).
		Int("interval_s", cfg.Reporting.Interval).
		Strs("mounts", cfg.Collect.Mounts).
		Msg("Configuration loaded")

	client := &http.Client{Timeout: time.Duration(cfg.Server.RequestTimeout) * time.Second}
	status := health.Check(ctx, client, cfg.Server.URL, cfg.Health.TimeDriftMaxS)
	if !status.Healthy {
		logger.Warn().Strs("issues", status.Issues).Msg("Health check reported issues")
	}

	c := collector.New(collector.DefaultSources(), cfg.Collect.Mounts, 10*time.Second)
	agent := NewAgent(cfg, hostname, c, logger.With().Str("component", "agent").Logger())
	return agent.Run(ctx)
}
