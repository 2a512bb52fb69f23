package config

import (
	"net/url"
	"os"
	"path/filepath"
)

type AgentConfig struct {
	Server    EndpointConfig  `yaml:"server"`
	Host      HostConfig      `yaml:"host"`
	Reporting ReportingConfig `yaml:"reporting"`
	Collect   CollectConfig   `yaml:"collect"`
	Health    HealthConfig    `yaml:"health"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type EndpointConfig struct {
	URL             string `yaml:"url"`
	RequestTimeout  int    `yaml:"request_timeout_s"`
	RetryInitialMs  int    `yaml:"retry_initial_ms"`
	RetryMaxMs      int    `yaml:"retry_max_ms"`
	RetryMaxRetries int    `yaml:"retry_max_attempts"`
}

type HostConfig struct {
	// Hostname overrides the name reported by the OS.
	Hostname string `yaml:"hostname"`
	Key      string `yaml:"key"`
	KeyFile  string `yaml:"key_file"`
}

type ReportingConfig struct {
	Interval int `yaml:"interval_s"`
	Jitter   int `yaml:"jitter_s"`
}

type HealthConfig struct {
	TimeDriftMaxS int `yaml:"time_drift_max_s"`
}

type CollectConfig struct {
	Mounts []string `yaml:"mounts"`
}

// DefaultAgentConfig returns a config with sensible defaults
func DefaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		Server: EndpointConfig{
			URL:             "http://localhost:12345",
			RequestTimeout:  10,
			RetryInitialMs:  500,
			RetryMaxMs:      5000,
			RetryMaxRetries: 5,
		},
		Reporting: ReportingConfig{
			Interval: 60,
			Jitter:   5,
		},
		Collect: CollectConfig{
			Mounts: []string{"/"},
		},
		Health: HealthConfig{
			TimeDriftMaxS: 120,
		},
		Logging: defaultLogging(),
		Tracing: defaultTracing(),
	}
}

// LoadAgent reads the agent config from file with env var overrides
func LoadAgent(path string) (*AgentConfig, error) {
	cfg := DefaultAgentConfig()
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}

	envString("DARKAN_SERVER_URL", &cfg.Server.URL)
	envString("DARKAN_HOSTNAME", &cfg.Host.Hostname)
	envString("DARKAN_HOST_KEY", &cfg.Host.Key)
	envString("DARKAN_HOST_KEY_FILE", &cfg.Host.KeyFile)
	envString("DARKAN_LOG_LEVEL", &cfg.Logging.Level)
	if err := envInt("DARKAN_REPORT_INTERVAL_S", &cfg.Reporting.Interval); err != nil {
		return nil, err
	}
	if cfg.Host.Key == "" && cfg.Host.KeyFile == "" {
		cfg.Host.KeyFile = defaultKeyPath(path)
	}

	return cfg, nil
}

func defaultKeyPath(configPath string) string {
	if configPath == "" {
		return ""
	}
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "host.key")
}

func (c *AgentConfig) Validate() error {
	if c.Server.URL == "" {
		return ErrMissingServerURL
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &Error{"server URL must be an http(s) URL"}
	}
	if c.Reporting.Interval < 10 {
		return ErrInvalidInterval
	}
	if c.Reporting.Jitter < 0 {
		c.Reporting.Jitter = 0
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 10
	}
	if c.Server.RetryInitialMs <= 0 {
		c.Server.RetryInitialMs = 500
	}
	if c.Server.RetryMaxMs <= 0 {
		c.Server.RetryMaxMs = 5000
	}
	if c.Server.RetryMaxRetries < 0 {
		c.Server.RetryMaxRetries = 5
	}
	if c.Server.RetryMaxMs < c.Server.RetryInitialMs {
		c.Server.RetryMaxMs = c.Server.RetryInitialMs
	}
	c.Tracing.normalize()
	return nil
}

// ResolveHostname returns the configured hostname or the one the OS reports.
func (c *AgentConfig) ResolveHostname() (string, error) {
	if c.Host.Hostname != "" {
		return c.Host.Hostname, nil
	}
	return os.Hostname()
}
