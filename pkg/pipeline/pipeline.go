package pipeline

import (
	"context"
	"fmt"

	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/telemetry"
	"channel-metrics/pkg/worker"
	"channel-metrics/pkg/youtube"

	"go.uber.org/zap"
)

// Extraction is the raw result of one run: the three record collections.
type Extraction struct {
	Channels []domain.Channel
	Videos   []domain.Video
	Edges    []domain.ChannelVideo
}

// Empty reports whether no channel was extracted.
func (e Extraction) Empty() bool {
	return len(e.Channels) == 0
}

// Tables converts the extraction to its three destination tables.
func (e Extraction) Tables() []domain.Table {
	return []domain.Table{
		domain.ChannelsTable(e.Channels),
		domain.VideosTable(e.Videos),
		domain.ChannelVideosTable(e.Edges),
	}
}

// Extractor pulls channels, their upload playlists and the videos in them.
type Extractor struct {
	api       youtube.API
	playlists *PlaylistFetcher
	videos    *BatchFetcher
	pool      *worker.Pool
	log       *zap.Logger
	metrics   *telemetry.Metrics
}

// channelResult is what one channel contributes to an Extraction.
type channelResult struct {
	found   bool
	channel domain.Channel
	videos  []domain.Video
	edges   []domain.ChannelVideo
}

// Extract processes channelIDs in input order. Unknown channels are skipped with a
// warning; any other failure aborts the whole extraction.
func (x *Extractor) Extract(ctx context.Context, channelIDs []string) (Extraction, error) {
	x.log.Info("extraction started",
		zap.Int("channels", len(channelIDs)),
		zap.Int("workers", x.pool.Size()),
	)

	results, err := worker.Map(ctx, x.pool, len(channelIDs), func(ctx context.Context, i int) (channelResult, error) {
		res, err := x.extractChannel(ctx, channelIDs[i])
		if err != nil {
			x.metrics.ObserveChannel(telemetry.OutcomeFailed)
			return channelResult{}, err
		}
		return res, nil
	})
	if err != nil {
		return Extraction{}, err
	}

	var ext Extraction
	for _, res := range results {
		if !res.found {
			continue
		}
		ext.Channels = append(ext.Channels, res.channel)
		ext.Videos = append(ext.Videos, res.videos...)
		ext.Edges = append(ext.Edges, res.edges...)
	}

	x.log.Info("extraction finished",
		zap.Int("channels", len(ext.Channels)),
		zap.Int("videos", len(ext.Videos)),
		zap.Int("edges", len(ext.Edges)),
	)
	return ext, nil
}

func (x *Extractor) extractChannel(ctx context.Context, ref string) (channelResult, error) {
	log := x.log.With(zap.String("channel_id", ref))

	res, found, err := x.api.Channel(ctx, ref)
	if err != nil {
		return channelResult{}, fmt.Errorf("fetch channel %s: %w", ref, err)
	}
	if !found {
		log.Warn("channel not found, skipping")
		x.metrics.ObserveChannel(telemetry.OutcomeNotFound)
		return channelResult{}, nil
	}

	channel, uploads, err := NormalizeChannel(res)
	if err != nil {
		return channelResult{}, err
	}

	ids, err := x.playlists.Fetch(ctx, uploads)
	if err != nil {
		return channelResult{}, fmt.Errorf("channel %s: %w", channel.ID, err)
	}

	items, err := x.videos.Fetch(ctx, ids)
	if err != nil {
		return channelResult{}, fmt.Errorf("channel %s: %w", channel.ID, err)
	}
	videos := make([]domain.Video, 0, len(items))
	for _, item := range items {
		v, err := NormalizeVideo(item)
		if err != nil {
			return channelResult{}, fmt.Errorf("channel %s: %w", channel.ID, err)
		}
		videos = append(videos, v)
	}

	if channel.VideoCount != nil && *channel.VideoCount != int64(len(ids)) {
		log.Warn("reported video count differs from retrieved uploads",
			zap.Int64("video_count", *channel.VideoCount),
			zap.Int("retrieved", len(ids)),
		)
	}

	log.Info("channel extracted",
		zap.String("playlist_id", uploads),
		zap.Int("video_ids", len(ids)),
		zap.Int("videos", len(videos)),
	)
	x.metrics.ObserveChannel(telemetry.OutcomeExtracted)

	return channelResult{
		found:   true,
		channel: channel,
		videos:  videos,
		edges:   buildEdges(channel.ID, channel.VideoCount, ids),
	}, nil
}

// buildEdges pairs the channel id, repeated videoCount times, with the retrieved
// ids by position. Missing positions get an empty video id and surplus ids get no
// edge. Without a reported count every retrieved id gets one edge.
func buildEdges(channelID string, videoCount *int64, ids []string) []domain.ChannelVideo {
	n := len(ids)
	if videoCount != nil {
		n = int(max(*videoCount, 0))
	}
	edges := make([]domain.ChannelVideo, n)
	for i := range edges {
		edges[i].ChannelID = channelID
		if i < len(ids) {
			edges[i].VideoID = ids[i]
		}
	}
	return edges
}
