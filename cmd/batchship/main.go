package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/bft-labs/batcher/internal/adapters/http"
	kafkaAdapter "github.com/bft-labs/batcher/internal/adapters/kafka"
	"github.com/bft-labs/batcher/internal/app"
	"github.com/bft-labs/batcher/internal/cliconfig"
	"github.com/bft-labs/batcher/internal/ports"
	"github.com/bft-labs/batcher/pkg/log"
	"github.com/bft-labs/batcher/pkg/metrics"
)

const longHelp = `
Watch directories and ship file change events downstream in adaptive batches.

Bursts of changes are coalesced into batches of at most --capacity events.
A change after a quiet period is shipped immediately; changes that follow
closely behind a shipment wait up to --delay so they travel together.

Batches go to an HTTP ingest endpoint or a Kafka topic, with retries.
Configure via file, env (BATCHSHIP_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  batchship --watch /var/log/app --pattern '*.log' --service-url https://ingest.example.com
  batchship --watch /srv/data --sink kafka --kafka-brokers k1:9092,k2:9092 --metrics-addr :9100
  batchship --config $HOME/.batchship/config.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	boot := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "batchship",
		Short:   "Ship file change events downstream in adaptive batches",
		Long:    strings.TrimSpace(longHelp),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file; flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, flush, err := cliconfig.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer flush()

			logger.Info("configuration", log.Any("config", cfg.Redacted()))

			return run(cmd.Context(), cfg, logger)
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.batchship/config.toml)")
	root.Flags().StringSliceVar(&cfg.WatchDirs, "watch", cfg.WatchDirs, "directory to watch, recursively (repeatable)")
	root.Flags().StringSliceVar(&cfg.Patterns, "pattern", cfg.Patterns, "glob matched against file names (repeatable; default all files)")

	root.Flags().IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "maximum events per batch")
	root.Flags().DurationVar(&cfg.Delay, "delay", cfg.Delay, "coalescing delay after a shipment")
	root.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "maximum concurrent shipments")
	root.Flags().BoolVar(&cfg.SerialDispatch, "serial", cfg.SerialDispatch, "ship one batch at a time")

	root.Flags().StringVar(&cfg.Sink, "sink", cfg.Sink, "destination: http or kafka")
	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "base URL of the ingest service (http sink)")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for authentication (http sink)")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "send timeout (HTTP request or Kafka write)")
	root.Flags().StringSliceVar(&cfg.KafkaBrokers, "kafka-brokers", cfg.KafkaBrokers, "Kafka broker addresses (kafka sink)")
	root.Flags().StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic (kafka sink)")

	root.Flags().IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "retries per batch before it is dropped")
	root.Flags().DurationVar(&cfg.RetryBase, "retry-base", cfg.RetryBase, "initial retry backoff")
	root.Flags().DurationVar(&cfg.RetryMax, "retry-max", cfg.RetryMax, "maximum retry backoff")

	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address for the Prometheus /metrics endpoint (empty disables)")
	root.Flags().DurationVar(&cfg.StatusInterval, "status-interval", cfg.StatusInterval, "interval between status log lines (0 disables)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace, debug, info, warn, error")
	root.Flags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console, json, zap")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		boot.Error().Err(err).Msg("batchship")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, logger log.Logger) error {
	recorder, err := metrics.NewPrometheusRecorder("batchship", prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	agent, err := app.NewAgent(app.AgentConfig{
		WatchDirs:      cfg.WatchDirs,
		Patterns:       cfg.Patterns,
		Capacity:       cfg.Capacity,
		Delay:          cfg.Delay,
		Workers:        cfg.Workers,
		SerialDispatch: cfg.SerialDispatch,
		MaxRetries:     cfg.MaxRetries,
		RetryBase:      cfg.RetryBase,
		RetryMax:       cfg.RetryMax,
		StatusInterval: cfg.StatusInterval,
	}, newSender(cfg, logger), logger, recorder)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}

	if err := agent.Start(ctx); err != nil {
		return fmt.Errorf("start agent: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", log.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping")

		stopErr := agent.Stop()
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", log.Err(err))
			}
		}
		if stopErr != nil {
			return fmt.Errorf("stop agent: %w", stopErr)
		}
		return nil
	})

	return g.Wait()
}

func newSender(cfg cliconfig.Config, logger log.Logger) ports.BatchSender {
	if cfg.Sink == cliconfig.SinkKafka {
		return kafkaAdapter.NewBatchSender(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.HTTPTimeout, logger)
	}
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	return httpAdapter.NewBatchSender(client, cfg.ServiceURL, cfg.AuthKey, logger)
}
