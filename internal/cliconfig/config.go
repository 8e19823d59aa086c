package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/batcher/internal/domain"
)

// DefaultServiceURL is the default ingest endpoint for the http sink.
const DefaultServiceURL = "http://127.0.0.1:8080"

// DefaultKafkaTopic is the topic used by the kafka sink when none is set.
const DefaultKafkaTopic = "batchship.changes"

// Sink names.
const (
	SinkHTTP  = "http"
	SinkKafka = "kafka"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatZap     = "zap"
)

// Config holds CLI configuration for batchship.
type Config struct {
	WatchDirs []string
	Patterns  []string

	Capacity       int
	Delay          time.Duration
	Workers        int
	SerialDispatch bool

	Sink        string
	ServiceURL  string
	AuthKey     string
	HTTPTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	MaxRetries int
	RetryBase  time.Duration
	RetryMax   time.Duration

	MetricsAddr    string
	StatusInterval time.Duration

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Capacity:       100,
		Delay:          500 * time.Millisecond,
		Workers:        4,
		Sink:           SinkHTTP,
		ServiceURL:     DefaultServiceURL,
		HTTPTimeout:    15 * time.Second,
		KafkaTopic:     DefaultKafkaTopic,
		MaxRetries:     3,
		RetryBase:      500 * time.Millisecond,
		RetryMax:       10 * time.Second,
		StatusInterval: 30 * time.Second,
		LogLevel:       "info",
		LogFormat:      FormatConsole,
	}
}

// Validate checks the configuration for errors and normalizes derived values.
// Every returned error wraps domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	if len(c.WatchDirs) == 0 {
		return invalid("at least one watch directory is required")
	}
	if c.Capacity <= 0 {
		return invalid("capacity must be positive")
	}
	if c.Delay < 0 {
		return invalid("delay must not be negative")
	}
	if c.Workers <= 0 {
		return invalid("workers must be positive")
	}
	if c.MaxRetries < 0 {
		return invalid("max retries must not be negative")
	}
	if c.RetryBase <= 0 || c.RetryMax < c.RetryBase {
		return invalid("retry backoff must satisfy 0 < base <= max")
	}

	switch c.Sink {
	case SinkHTTP:
		if c.ServiceURL == "" {
			c.ServiceURL = DefaultServiceURL
		}
		c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")
		if c.HTTPTimeout <= 0 {
			return invalid("http timeout must be positive")
		}
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return invalid("kafka sink requires at least one broker")
		}
		if c.KafkaTopic == "" {
			c.KafkaTopic = DefaultKafkaTopic
		}
	default:
		return invalid(fmt.Sprintf("unknown sink %q (want %s or %s)", c.Sink, SinkHTTP, SinkKafka))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return invalid(fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case FormatConsole, FormatJSON, FormatZap:
	default:
		return invalid(fmt.Sprintf("unknown log format %q", c.LogFormat))
	}

	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AuthKey != "" {
		c.AuthKey = "*****"
	}
	return c
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, msg)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list value if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setStringsFromString splits a comma-separated list and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
