package etl

import (
	"context"
	"fmt"
	"time"

	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/pipeline"
	"channel-metrics/pkg/sink"
	"channel-metrics/pkg/transform"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service runs extract, transform and load for a list of channels.
type Service struct {
	extractor *pipeline.Extractor
	writer    sink.Writer
	log       *zap.Logger
}

// Report summarizes a finished run.
type Report struct {
	RunID string

	// Empty is set when no requested channel was found. Nothing is persisted then.
	Empty bool

	Channels   int
	Videos     int
	Edges      int
	MetricRows int
	Table      string
	Duration   time.Duration
}

// New creates a service.
func New(extractor *pipeline.Extractor, writer sink.Writer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		extractor: extractor,
		writer:    writer,
		log:       log,
	}
}

// Run extracts channelIDs, aggregates the monthly metrics and replaces the
// channel, video, association and metrics tables. The metrics table is named
// table, or domain.DefaultMetricsTableName when empty. Every fallible step
// before the first write completes before anything is persisted.
func (s *Service) Run(ctx context.Context, channelIDs []string, table string) (Report, error) {
	start := time.Now()
	if table == "" {
		table = domain.DefaultMetricsTableName
	}
	report := Report{RunID: uuid.NewString(), Table: table}
	log := s.log.With(zap.String("run_id", report.RunID))

	log.Info("run started", zap.Strings("channels", channelIDs), zap.String("table", table))

	ext, err := s.extractor.Extract(ctx, channelIDs)
	if err != nil {
		return report, fmt.Errorf("extract: %w", err)
	}
	if ext.Empty() {
		report.Empty = true
		report.Duration = time.Since(start)
		log.Warn("no channels extracted, nothing to persist")
		return report, nil
	}

	metrics, err := transform.Aggregate(ext)
	if err != nil {
		return report, fmt.Errorf("transform: %w", err)
	}

	tables := append(ext.Tables(), domain.MetricsTable(table, metrics))
	for _, t := range tables {
		if err := s.writer.Replace(ctx, t); err != nil {
			return report, fmt.Errorf("load %s: %w", t.Name, err)
		}
	}

	report.Channels = len(ext.Channels)
	report.Videos = len(ext.Videos)
	report.Edges = len(ext.Edges)
	report.MetricRows = len(metrics)
	report.Duration = time.Since(start)

	log.Info("run finished",
		zap.Int("channels", report.Channels),
		zap.Int("videos", report.Videos),
		zap.Int("edges", report.Edges),
		zap.Int("metric_rows", report.MetricRows),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
