package pipeline

import (
	"channel-metrics/pkg/telemetry"
	"channel-metrics/pkg/worker"
	"channel-metrics/pkg/youtube"

	"go.uber.org/zap"
)

// Options configures NewExtractor.
type Options struct {
	// Workers is the number of channels extracted concurrently. Values below two
	// extract sequentially.
	Workers int

	// FilterProcessed keeps only videos whose upload status is "processed".
	FilterProcessed bool

	Logger  *zap.Logger
	Metrics *telemetry.Metrics
}

// NewExtractor wires the fetchers of an extraction run around api.
func NewExtractor(api youtube.API, opts Options) *Extractor {
	log := orNop(opts.Logger)

	playlists := NewPlaylistFetcher(api, log)
	if opts.FilterProcessed {
		playlists = NewPlaylistFetcherWithFilters(api, log, NewUploadStatusFilter(api))
	}

	return &Extractor{
		api:       api,
		playlists: playlists,
		videos:    NewBatchFetcher(api),
		pool:      worker.NewPool(opts.Workers),
		log:       log,
		metrics:   opts.Metrics,
	}
}
