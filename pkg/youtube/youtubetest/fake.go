// Package youtubetest provides an in-memory youtube.API for tests.
package youtubetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"channel-metrics/pkg/resource"
	"channel-metrics/pkg/youtube"
)

// Fake serves canned resources and records the requests it receives.
type Fake struct {
	mu sync.Mutex

	channels map[string]resource.Resource
	pages    map[string][]youtube.Page
	videos   map[string]resource.Resource
	statuses map[string]string

	// Err, when set, is returned by every call.
	Err error

	ChannelCalls      []string
	PageTokens        []string
	VideoBatches      [][]string
	UploadStatusCalls []string
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		channels: map[string]resource.Resource{},
		pages:    map[string][]youtube.Page{},
		videos:   map[string]resource.Resource{},
		statuses: map[string]string{},
	}
}

// AddChannel registers a channel resource under ref.
func (f *Fake) AddChannel(ref string, res resource.Resource) {
	f.channels[ref] = res
}

// AddPages registers the pages of a playlist. Page i is served for the token of page i-1.
func (f *Fake) AddPages(playlistID string, pages ...youtube.Page) {
	f.pages[playlistID] = pages
}

// AddPlaylist splits ids into pages of pageSize and registers them with generated tokens.
func (f *Fake) AddPlaylist(playlistID string, ids []string, pageSize int) {
	var pages []youtube.Page
	for start := 0; start < len(ids) || start == 0; start += pageSize {
		end := min(start+pageSize, len(ids))
		page := youtube.Page{Items: PlaylistItems(ids[start:end]...)}
		if end < len(ids) {
			page.NextPageToken = fmt.Sprintf("%s-page-%d", playlistID, len(pages)+1)
		}
		pages = append(pages, page)
		if end == len(ids) {
			break
		}
	}
	f.AddPages(playlistID, pages...)
}

// AddVideo registers a video resource under its id.
func (f *Fake) AddVideo(res resource.Resource) {
	id, _ := res.MustString("id")
	f.videos[id] = res
}

// SetUploadStatus sets status.uploadStatus of a video.
func (f *Fake) SetUploadStatus(videoID, status string) {
	f.statuses[videoID] = status
}

func (f *Fake) Channel(ctx context.Context, ref string) (resource.Resource, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ChannelCalls = append(f.ChannelCalls, ref)
	if f.Err != nil {
		return nil, false, f.Err
	}
	res, ok := f.channels[ref]
	return res, ok, nil
}

func (f *Fake) PlaylistItems(ctx context.Context, playlistID, pageToken string, maxResults int) (youtube.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PageTokens = append(f.PageTokens, pageToken)
	if f.Err != nil {
		return youtube.Page{}, f.Err
	}
	pages, ok := f.pages[playlistID]
	if !ok {
		return youtube.Page{}, &youtube.APIError{Endpoint: "playlistItems", StatusCode: 404, Body: "playlistNotFound"}
	}
	if pageToken == "" {
		return pages[0], nil
	}
	for i := 0; i < len(pages)-1; i++ {
		if pages[i].NextPageToken == pageToken {
			return pages[i+1], nil
		}
	}
	return youtube.Page{}, &youtube.APIError{Endpoint: "playlistItems", StatusCode: 400, Body: "invalidPageToken"}
}

func (f *Fake) Videos(ctx context.Context, ids []string) ([]resource.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VideoBatches = append(f.VideoBatches, append([]string(nil), ids...))
	if f.Err != nil {
		return nil, f.Err
	}
	if len(ids) > youtube.MaxResults {
		return nil, fmt.Errorf("youtube videos: %d ids exceeds the limit of %d", len(ids), youtube.MaxResults)
	}
	var out []resource.Resource
	for _, id := range ids {
		if res, ok := f.videos[id]; ok {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *Fake) UploadStatus(ctx context.Context, videoID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UploadStatusCalls = append(f.UploadStatusCalls, videoID)
	if f.Err != nil {
		return "", f.Err
	}
	return f.statuses[videoID], nil
}

var _ youtube.API = (*Fake)(nil)

// Channel builds a channels resource. stats holds statistics fields, omitted when absent.
func Channel(id, title, publishedAt, uploads string, stats map[string]any) resource.Resource {
	snippet := map[string]any{"title": title}
	if publishedAt != "" {
		snippet["publishedAt"] = publishedAt
	}
	return resource.Resource{
		"id":      id,
		"snippet": snippet,
		"contentDetails": map[string]any{
			"relatedPlaylists": map[string]any{"uploads": uploads},
		},
		"statistics": stats,
	}
}

// Video builds a videos resource. An empty title or publishedAt is omitted.
func Video(id, title, publishedAt, duration string, stats map[string]any) resource.Resource {
	snippet := map[string]any{}
	if title != "" {
		snippet["title"] = title
	}
	if publishedAt != "" {
		snippet["publishedAt"] = publishedAt
	}
	return resource.Resource{
		"id":             id,
		"snippet":        snippet,
		"contentDetails": map[string]any{"duration": duration},
		"statistics":     stats,
	}
}

// PlaylistItems builds playlistItems entries for ids.
func PlaylistItems(ids ...string) []resource.Resource {
	items := make([]resource.Resource, len(ids))
	for i, id := range ids {
		items[i] = resource.Resource{"contentDetails": map[string]any{"videoId": id}}
	}
	return items
}

// IDs returns n ids of the form prefix0, prefix1, ...
func IDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = prefix + fmt.Sprint(i)
	}
	return ids
}

// Stats builds a statistics object from alternating key/value pairs, values as decimal strings.
func Stats(kv ...string) map[string]any {
	stats := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		stats[kv[i]] = strings.TrimSpace(kv[i+1])
	}
	return stats
}
