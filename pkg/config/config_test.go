package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, ":12345", cfg.Ingest.Listen)
	require.Equal(t, "/tmp/darkan.sck", cfg.Admin.Socket)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 30, cfg.Triggers.Interval)
	require.False(t, cfg.Admission.SoftDecline)
	require.False(t, cfg.Actions.Email.Enabled())
	require.False(t, cfg.Actions.NATS.Enabled())
}

func TestLoadServerFileAndEnv(t *testing.T) {
	path := writeFile(t, "server.yaml", `
ingest:
  listen: ":9000"
  rate_limit_per_minute: 12
database:
  driver: postgres
  dsn: "host=db user=darkan"
admission:
  soft_decline: true
actions:
  email:
    smtp_host: mail:25
    from: darkan@example.com
    to: [ops@example.com]
  nats:
    url: nats://localhost:4222
`)
	t.Setenv("DARKAN_ADMIN_SOCKET", "/run/darkan.sck")
	t.Setenv("DARKAN_TRIGGER_INTERVAL_S", "5")

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, ":9000", cfg.Ingest.Listen)
	require.Equal(t, 12, cfg.Ingest.RateLimitPerMinute)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Admission.SoftDecline)
	require.Equal(t, "/run/darkan.sck", cfg.Admin.Socket)
	require.Equal(t, 5, cfg.Triggers.Interval)
	require.True(t, cfg.Actions.Email.Enabled())
	require.Equal(t, 10, cfg.Actions.Email.TimeoutS)
	require.Equal(t, "darkan.alerts", cfg.Actions.NATS.Subject)
}

func TestLoadServerRejectsBadEnv(t *testing.T) {
	t.Setenv("DARKAN_SOFT_DECLINE", "maybe")
	_, err := LoadServer("")
	require.Error(t, err)
}

func TestServerValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Database.Driver = "mysql"
	require.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.Actions.Email.SMTPHost = "mail"
	require.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.Admin.Socket = ""
	require.ErrorIs(t, cfg.Validate(), ErrMissingSocket)

	cfg = DefaultServerConfig()
	cfg.Triggers.Interval = 0
	cfg.Tracing.SampleRatio = 7
	require.NoError(t, cfg.Validate())
	require.Equal(t, 30, cfg.Triggers.Interval)
	require.Equal(t, 1.0, cfg.Tracing.SampleRatio)
}

func TestLoadAgent(t *testing.T) {
	path := writeFile(t, "agent.yaml", `
server:
  url: http://monitor:12345
reporting:
  interval_s: 30
`)
	t.Setenv("DARKAN_HOSTNAME", "web1")

	cfg, err := LoadAgent(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://monitor:12345", cfg.Server.URL)
	require.Equal(t, 30, cfg.Reporting.Interval)
	require.Equal(t, filepath.Join(filepath.Dir(path), "host.key"), cfg.Host.KeyFile)

	hostname, err := cfg.ResolveHostname()
	require.NoError(t, err)
	require.Equal(t, "web1", hostname)
}

func TestAgentValidate(t *testing.T) {
	cfg := DefaultAgentConfig()
	cfg.Reporting.Interval = 5
	require.ErrorIs(t, cfg.Validate(), ErrInvalidInterval)

	cfg = DefaultAgentConfig()
	cfg.Server.URL = "ftp://monitor"
	require.Error(t, cfg.Validate())

	cfg = DefaultAgentConfig()
	cfg.Server.URL = ""
	require.ErrorIs(t, cfg.Validate(), ErrMissingServerURL)

	cfg = DefaultAgentConfig()
	cfg.Server.RetryInitialMs = 8000
	require.NoError(t, cfg.Validate())
	require.Equal(t, 8000, cfg.Server.RetryMaxMs)
}
