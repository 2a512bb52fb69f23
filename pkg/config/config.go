package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoggingConfig struct {
	Level         string `yaml:"level"`
	JSON          bool   `yaml:"json"`
	HumanReadable bool   `yaml:"human_readable"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" json:"sample_ratio"`
	LogSpans    bool    `yaml:"log_spans" json:"log_spans"`
}

func defaultLogging() LoggingConfig {
	return LoggingConfig{Level: "info", HumanReadable: true}
}

func defaultTracing() TracingConfig {
	return TracingConfig{SampleRatio: 1}
}

// readYAML decodes path into cfg. A missing file leaves the defaults alone.
func readYAML(path string, cfg any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err != nil {
		return nil
	}
	return yaml.Unmarshal(data, cfg)
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &Error{name + " must be an integer"}
	}
	*dst = n
	return nil
}

func envBool(name string, dst *bool) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return &Error{name + " must be a boolean"}
	}
	*dst = b
	return nil
}

func (t *TracingConfig) normalize() {
	if t.SampleRatio <= 0 || t.SampleRatio > 1 {
		t.SampleRatio = 1
	}
}

var (
	ErrMissingServerURL = &Error{"server URL is required"}
	ErrInvalidInterval  = &Error{"reporting interval must be >= 10s"}
	ErrMissingListen    = &Error{"ingest listen address is required"}
	ErrMissingSocket    = &Error{"admin socket path is required"}
)

type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
