package pipeline

import (
	"context"
	"fmt"

	"channel-metrics/pkg/resource"
	"channel-metrics/pkg/youtube"

	"go.uber.org/zap"
)

// PageSize is the number of playlist items requested per page.
const PageSize = youtube.MaxResults

// ChunkSize is the maximum number of ids sent in one videos request.
const ChunkSize = youtube.MaxResults

// IDFilter decides whether a retrieved video id is kept.
type IDFilter interface {
	ShouldKeep(ctx context.Context, id string) (bool, error)
}

// PlaylistFetcher lists every video id of a playlist by following continuation tokens.
type PlaylistFetcher struct {
	api     youtube.API
	filters []IDFilter
	log     *zap.Logger
}

// NewPlaylistFetcher creates a fetcher that returns all ids regardless of processing status.
func NewPlaylistFetcher(api youtube.API, log *zap.Logger) *PlaylistFetcher {
	return &PlaylistFetcher{
		api:     api,
		filters: nil,
		log:     orNop(log),
	}
}

// NewPlaylistFetcherWithFilters creates a fetcher that drops ids rejected by any filter.
// Each filter may cost one extra request per id.
func NewPlaylistFetcherWithFilters(api youtube.API, log *zap.Logger, filters ...IDFilter) *PlaylistFetcher {
	return &PlaylistFetcher{
		api:     api,
		filters: filters,
		log:     orNop(log),
	}
}

// Fetch returns the video ids of playlistID in page order, then item order.
// It stops at the first response without a continuation token.
func (f *PlaylistFetcher) Fetch(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	pageToken := ""
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.api.PlaylistItems(ctx, playlistID, pageToken, PageSize)
		if err != nil {
			return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
		}
		pages++

		pageIDs, err := extractVideoIDs(page.Items)
		if err != nil {
			return nil, fmt.Errorf("playlist %s page %d: %w", playlistID, pages, err)
		}
		ids = append(ids, pageIDs...)

		if page.NextPageToken == "" {
			break
		}
		if page.NextPageToken == pageToken {
			return nil, fmt.Errorf("playlist %s: continuation token %q repeated", playlistID, pageToken)
		}
		pageToken = page.NextPageToken
	}

	f.log.Debug("playlist listed",
		zap.String("playlist_id", playlistID),
		zap.Int("pages", pages),
		zap.Int("video_ids", len(ids)),
	)

	if len(f.filters) > 0 {
		return f.applyFilters(ctx, ids)
	}
	return ids, nil
}

// extractVideoIDs reads contentDetails.videoId from each playlist item.
func extractVideoIDs(items []resource.Resource) ([]string, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id, err := item.MustString("contentDetails", "videoId")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// applyFilters keeps the ids every filter accepts, preserving order.
func (f *PlaylistFetcher) applyFilters(ctx context.Context, ids []string) ([]string, error) {
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		keep, err := f.shouldKeepID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		if keep {
			filtered = append(filtered, id)
		}
	}
	if dropped := len(ids) - len(filtered); dropped > 0 {
		f.log.Info("video ids filtered out", zap.Int("dropped", dropped), zap.Int("kept", len(filtered)))
	}
	return filtered, nil
}

func (f *PlaylistFetcher) shouldKeepID(ctx context.Context, id string) (bool, error) {
	for _, filter := range f.filters {
		keep, err := filter.ShouldKeep(ctx, id)
		if err != nil {
			return false, err
		}
		if !keep {
			return false, nil
		}
	}
	return true, nil
}

// UploadStatusFilter keeps only videos whose upload has finished processing.
// It issues one status request per id.
type UploadStatusFilter struct {
	api youtube.API
}

// NewUploadStatusFilter creates the processed-only filter.
func NewUploadStatusFilter(api youtube.API) *UploadStatusFilter {
	return &UploadStatusFilter{api: api}
}

// ShouldKeep returns true when the video's upload status is "processed".
func (f *UploadStatusFilter) ShouldKeep(ctx context.Context, id string) (bool, error) {
	status, err := f.api.UploadStatus(ctx, id)
	if err != nil {
		return false, fmt.Errorf("upload status of %s: %w", id, err)
	}
	return status == youtube.UploadStatusProcessed, nil
}

// BatchFetcher retrieves resources by id, one request per chunk of ids.
type BatchFetcher struct {
	api       youtube.API
	chunkSize int
}

// NewBatchFetcher creates a fetcher using ChunkSize.
func NewBatchFetcher(api youtube.API) *BatchFetcher {
	return &BatchFetcher{api: api, chunkSize: ChunkSize}
}

// Fetch requests ids in contiguous chunks and concatenates the results in chunk order.
func (b *BatchFetcher) Fetch(ctx context.Context, ids []string) ([]resource.Resource, error) {
	chunks := Chunk(ids, b.chunkSize)
	var out []resource.Resource
	for i, chunk := range chunks {
		items, err := b.api.Videos(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("videos chunk %d/%d: %w", i+1, len(chunks), err)
		}
		out = append(out, items...)
	}
	return out, nil
}

// Chunk splits ids into ceil(len(ids)/size) contiguous groups of at most size.
// An empty input yields no groups, and an exact multiple yields no trailing empty group.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = ChunkSize
	}
	n := (len(ids) + size - 1) / size
	chunks := make([][]string, 0, n)
	for start := 0; start < len(ids); start += size {
		end := calculateChunkEnd(start, size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func calculateChunkEnd(start, size, total int) int {
	end := start + size
	if end > total {
		return total
	}
	return end
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
