package config

import (
	"errors"
	"strings"
)

type ServerConfig struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Admission AdmissionConfig `yaml:"admission"`
	Triggers  TriggersConfig  `yaml:"triggers"`
	Actions   ActionsConfig   `yaml:"actions"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type IngestConfig struct {
	Listen             string `yaml:"listen"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type AdminConfig struct {
	Socket string `yaml:"socket"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type AdmissionConfig struct {
	SoftDecline bool `yaml:"soft_decline"`
}

type TriggersConfig struct {
	Interval int `yaml:"interval_s"`
}

type ActionsConfig struct {
	Email EmailConfig `yaml:"email"`
	NATS  NATSConfig  `yaml:"nats"`
}

type EmailConfig struct {
	SMTPHost string   `yaml:"smtp_host"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	TimeoutS int      `yaml:"timeout_s"`
}

// Enabled reports whether enough is configured to register the E-Mail action.
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != ""
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

// DefaultServerConfig returns a config with sensible defaults
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Ingest: IngestConfig{
			Listen: ":12345",
		},
		Admin: AdminConfig{
			Socket: "/tmp/darkan.sck",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "darkan.db",
		},
		Triggers: TriggersConfig{
			Interval: 30,
		},
		Actions: ActionsConfig{
			NATS: NATSConfig{Subject: "darkan.alerts"},
		},
		Logging: defaultLogging(),
		Tracing: defaultTracing(),
	}
}

// LoadServer reads the server config from file with env var overrides
func LoadServer(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}

	envString("DARKAN_INGEST_LISTEN", &cfg.Ingest.Listen)
	envString("DARKAN_ADMIN_SOCKET", &cfg.Admin.Socket)
	envString("DARKAN_DB_DRIVER", &cfg.Database.Driver)
	envString("DARKAN_DB_DSN", &cfg.Database.DSN)
	envString("DARKAN_LOG_LEVEL", &cfg.Logging.Level)
	envString("DARKAN_NATS_URL", &cfg.Actions.NATS.URL)
	envString("DARKAN_SMTP_HOST", &cfg.Actions.Email.SMTPHost)
	envString("DARKAN_SMTP_PASSWORD", &cfg.Actions.Email.Password)
	envString("DARKAN_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	if err := errors.Join(
		envBool("DARKAN_SOFT_DECLINE", &cfg.Admission.SoftDecline),
		envInt("DARKAN_TRIGGER_INTERVAL_S", &cfg.Triggers.Interval),
		envInt("DARKAN_RATE_LIMIT_PER_MINUTE", &cfg.Ingest.RateLimitPerMinute),
	); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ServerConfig) Validate() error {
	if c.Ingest.Listen == "" {
		return ErrMissingListen
	}
	if c.Admin.Socket == "" {
		return ErrMissingSocket
	}
	switch strings.ToLower(c.Database.Driver) {
	case "", "sqlite", "postgres":
	default:
		return &Error{"database driver must be sqlite or postgres"}
	}
	if c.Database.DSN == "" {
		return &Error{"database dsn is required"}
	}
	if c.Ingest.RateLimitPerMinute < 0 {
		c.Ingest.RateLimitPerMinute = 0
	}
	if c.Triggers.Interval <= 0 {
		c.Triggers.Interval = 30
	}
	if c.Actions.Email.Enabled() && (c.Actions.Email.From == "" || len(c.Actions.Email.To) == 0) {
		return &Error{"e-mail action needs from and to addresses"}
	}
	if c.Actions.Email.TimeoutS <= 0 {
		c.Actions.Email.TimeoutS = 10
	}
	if c.Actions.NATS.Subject == "" {
		c.Actions.NATS.Subject = "darkan.alerts"
	}
	c.Tracing.normalize()
	return nil
}
