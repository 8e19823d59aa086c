package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (BATCHSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStringsFromString("watch", os.Getenv("BATCHSHIP_WATCH_DIRS"), &cfg.WatchDirs)
	s.setStringsFromString("pattern", os.Getenv("BATCHSHIP_PATTERNS"), &cfg.Patterns)
	s.setStringsFromString("kafka-brokers", os.Getenv("BATCHSHIP_KAFKA_BROKERS"), &cfg.KafkaBrokers)

	s.setString("sink", os.Getenv("BATCHSHIP_SINK"), &cfg.Sink)
	s.setString("service-url", os.Getenv("BATCHSHIP_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", os.Getenv("BATCHSHIP_AUTH_KEY"), &cfg.AuthKey)
	s.setString("kafka-topic", os.Getenv("BATCHSHIP_KAFKA_TOPIC"), &cfg.KafkaTopic)
	s.setString("metrics-addr", os.Getenv("BATCHSHIP_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("BATCHSHIP_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("BATCHSHIP_LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setDuration("delay", os.Getenv("BATCHSHIP_DELAY"), &cfg.Delay); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("BATCHSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("retry-base", os.Getenv("BATCHSHIP_RETRY_BASE"), &cfg.RetryBase); err != nil {
		return err
	}
	if err := s.setDuration("retry-max", os.Getenv("BATCHSHIP_RETRY_MAX"), &cfg.RetryMax); err != nil {
		return err
	}
	if err := s.setDuration("status-interval", os.Getenv("BATCHSHIP_STATUS_INTERVAL"), &cfg.StatusInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("capacity", os.Getenv("BATCHSHIP_CAPACITY"), &cfg.Capacity); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("BATCHSHIP_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", os.Getenv("BATCHSHIP_MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}

	s.setBoolFromString("serial", os.Getenv("BATCHSHIP_SERIAL_DISPATCH"), &cfg.SerialDispatch)

	return nil
}
