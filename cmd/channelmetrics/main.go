package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"channel-metrics/pkg/config"
	"channel-metrics/pkg/etl"
	"channel-metrics/pkg/httpclient"
	"channel-metrics/pkg/logging"
	"channel-metrics/pkg/pipeline"
	"channel-metrics/pkg/sink"
	"channel-metrics/pkg/telemetry"
	"channel-metrics/pkg/youtube"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var (
		channels        = flag.String("channels", strings.Join(cfg.Channels, ","), "Comma separated channel ids or @handles")
		table           = flag.String("table", cfg.DestinationTable, "Destination table for the monthly metrics")
		workers         = flag.Int("workers", cfg.Workers, "Number of channels extracted in parallel")
		filterProcessed = flag.Bool("filter-processed", cfg.FilterProcessed, "Keep only videos whose upload status is processed (one extra request per video)")
	)
	flag.Parse()

	cfg.Channels = config.SplitList(*channels)
	cfg.DestinationTable = *table
	cfg.Workers = *workers
	cfg.FilterProcessed = *filterProcessed

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Channels) == 0 {
		return fmt.Errorf("no channels given: use -channels or CHANNELS")
	}

	metrics := telemetry.New()

	api, err := youtube.Dial(ctx, cfg.APIKey, cfg.APIBaseURL, httpclient.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.RequestTimeout,
	}, metrics)
	if err != nil {
		return err
	}

	writer, err := sink.Open(ctx, cfg.Sink, sink.Options{Logger: logger, Metrics: metrics})
	if err != nil {
		return fmt.Errorf("open %s sink: %w", cfg.Sink.Driver, err)
	}
	defer func() {
		if err := writer.Close(context.Background()); err != nil {
			logger.Warn("close sink", zap.Error(err))
		}
	}()

	extractor := pipeline.NewExtractor(api, pipeline.Options{
		Workers:         cfg.Workers,
		FilterProcessed: cfg.FilterProcessed,
		Logger:          logger,
		Metrics:         metrics,
	})
	service := etl.New(extractor, writer, logger)

	report, runErr := service.Run(ctx, cfg.Channels, cfg.DestinationTable)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, "channelmetrics"); err != nil {
			logger.Warn("push metrics", zap.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}
	if report.Empty {
		logger.Info("no channel found, tables left untouched", zap.String("run_id", report.RunID))
		return nil
	}
	logger.Info("done",
		zap.String("run_id", report.RunID),
		zap.String("table", report.Table),
		zap.Int("metric_rows", report.MetricRows),
		zap.Duration("duration", report.Duration),
	)
	return nil
}
