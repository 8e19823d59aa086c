package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	WatchDirs      []string `toml:"watch_dirs"`
	Patterns       []string `toml:"patterns"`
	Capacity       int      `toml:"capacity"`
	Delay          string   `toml:"delay"`
	Workers        int      `toml:"workers"`
	SerialDispatch *bool    `toml:"serial_dispatch"`
	Sink           string   `toml:"sink"`
	ServiceURL     string   `toml:"service_url"`
	AuthKey        string   `toml:"auth_key"`
	HTTPTimeout    string   `toml:"http_timeout"`
	KafkaBrokers   []string `toml:"kafka_brokers"`
	KafkaTopic     string   `toml:"kafka_topic"`
	MaxRetries     int      `toml:"max_retries"`
	RetryBase      string   `toml:"retry_base"`
	RetryMax       string   `toml:"retry_max"`
	MetricsAddr    string   `toml:"metrics_addr"`
	StatusInterval string   `toml:"status_interval"`
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.batchship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".batchship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStrings("watch", fc.WatchDirs, &cfg.WatchDirs)
	s.setStrings("pattern", fc.Patterns, &cfg.Patterns)
	s.setStrings("kafka-brokers", fc.KafkaBrokers, &cfg.KafkaBrokers)

	s.setString("sink", fc.Sink, &cfg.Sink)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("kafka-topic", fc.KafkaTopic, &cfg.KafkaTopic)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("delay", fc.Delay, &cfg.Delay); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("retry-base", fc.RetryBase, &cfg.RetryBase); err != nil {
		return err
	}
	if err := s.setDuration("retry-max", fc.RetryMax, &cfg.RetryMax); err != nil {
		return err
	}
	if err := s.setDuration("status-interval", fc.StatusInterval, &cfg.StatusInterval); err != nil {
		return err
	}

	s.setInt("capacity", fc.Capacity, &cfg.Capacity)
	s.setInt("workers", fc.Workers, &cfg.Workers)
	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)

	s.setBool("serial", fc.SerialDispatch, &cfg.SerialDispatch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
