package pipeline

import (
	"fmt"
	"time"

	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/duration"
	"channel-metrics/pkg/resource"
)

// DayLayout is the layout of normalized publication dates.
const DayLayout = "2006-01-02"

// NormalizeChannel flattens a channel resource. It also returns the id of the
// channel's uploads playlist.
func NormalizeChannel(res resource.Resource) (domain.Channel, string, error) {
	var ch domain.Channel
	var err error

	if ch.ID, err = res.MustString("id"); err != nil {
		return domain.Channel{}, "", fmt.Errorf("channel: %w", err)
	}
	if ch.Name, err = res.MustString("snippet", "title"); err != nil {
		return domain.Channel{}, "", fmt.Errorf("channel %s: %w", ch.ID, err)
	}
	uploads, err := res.MustString("contentDetails", "relatedPlaylists", "uploads")
	if err != nil {
		return domain.Channel{}, "", fmt.Errorf("channel %s: %w", ch.ID, err)
	}

	if ch.PublishedAt, err = NormalizeDate(res.String("snippet", "publishedAt")); err != nil {
		return domain.Channel{}, "", fmt.Errorf("channel %s: %w", ch.ID, err)
	}
	if ch.VideoCount, err = res.Count("statistics", "videoCount"); err != nil {
		return domain.Channel{}, "", fmt.Errorf("channel %s: %w", ch.ID, err)
	}
	if ch.SubscriberCount, err = res.Count("statistics", "subscriberCount"); err != nil {
		return domain.Channel{}, "", fmt.Errorf("channel %s: %w", ch.ID, err)
	}
	if ch.ViewCount, err = res.Count("statistics", "viewCount"); err != nil {
		return domain.Channel{}, "", fmt.Errorf("channel %s: %w", ch.ID, err)
	}

	return ch, uploads, nil
}

// NormalizeVideo flattens a video resource. Missing optional fields stay nil.
func NormalizeVideo(res resource.Resource) (domain.Video, error) {
	var v domain.Video
	var err error

	if v.ID, err = res.MustString("id"); err != nil {
		return domain.Video{}, fmt.Errorf("video: %w", err)
	}
	token, err := res.MustString("contentDetails", "duration")
	if err != nil {
		return domain.Video{}, fmt.Errorf("video %s: %w", v.ID, err)
	}
	v.Duration = duration.Seconds(token)

	v.Title = res.String("snippet", "title")
	if v.PublishedAt, err = NormalizeDate(res.String("snippet", "publishedAt")); err != nil {
		return domain.Video{}, fmt.Errorf("video %s: %w", v.ID, err)
	}
	if v.ViewCount, err = res.Count("statistics", "viewCount"); err != nil {
		return domain.Video{}, fmt.Errorf("video %s: %w", v.ID, err)
	}
	if v.LikeCount, err = res.Count("statistics", "likeCount"); err != nil {
		return domain.Video{}, fmt.Errorf("video %s: %w", v.ID, err)
	}
	if v.CommentCount, err = res.Count("statistics", "commentCount"); err != nil {
		return domain.Video{}, fmt.Errorf("video %s: %w", v.ID, err)
	}

	return v, nil
}

// NormalizeDate converts an RFC 3339 timestamp to its calendar day. nil stays nil.
func NormalizeDate(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("parse publication date %q: %w", *raw, err)
	}
	day := t.Format(DayLayout)
	return &day, nil
}
