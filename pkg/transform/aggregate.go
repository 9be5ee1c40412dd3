package transform

import (
	"fmt"
	"math"
	"sort"
	"time"

	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/pipeline"
)

// bucketKey identifies one output row.
type bucketKey struct {
	name  string
	year  int
	month int
}

type bucket struct {
	videos   int64
	views    int64
	rateSum  float64
	rateSeen int
}

// EngagementRate returns (likes+comments)/views rounded half-to-even to three
// decimals. ok is false when views is zero or any count is unknown.
func EngagementRate(v domain.Video) (rate float64, ok bool) {
	if v.ViewCount == nil || v.LikeCount == nil || v.CommentCount == nil || *v.ViewCount == 0 {
		return 0, false
	}
	raw := float64(*v.LikeCount+*v.CommentCount) / float64(*v.ViewCount)
	return math.RoundToEven(raw*1000) / 1000, true
}

// Aggregate joins channels to videos through the edges and summarizes each
// (channel name, year, month). Rows are ordered by year and month descending,
// then by channel name. Videos without a publication date are left out.
func Aggregate(ext pipeline.Extraction) ([]domain.MonthlyMetric, error) {
	channelsByID := make(map[string][]domain.Channel, len(ext.Channels))
	for _, c := range ext.Channels {
		channelsByID[c.ID] = append(channelsByID[c.ID], c)
	}
	videosByID := make(map[string][]domain.Video, len(ext.Videos))
	for _, v := range ext.Videos {
		videosByID[v.ID] = append(videosByID[v.ID], v)
	}

	buckets := map[bucketKey]*bucket{}
	for _, edge := range ext.Edges {
		if edge.VideoID == "" {
			continue
		}
		for _, c := range channelsByID[edge.ChannelID] {
			for _, v := range videosByID[edge.VideoID] {
				if v.PublishedAt == nil {
					continue
				}
				day, err := time.Parse(pipeline.DayLayout, *v.PublishedAt)
				if err != nil {
					return nil, fmt.Errorf("video %s: parse publication day: %w", v.ID, err)
				}

				key := bucketKey{name: c.Name, year: day.Year(), month: int(day.Month())}
				b, ok := buckets[key]
				if !ok {
					b = &bucket{}
					buckets[key] = b
				}
				b.add(v)
			}
		}
	}

	metrics := make([]domain.MonthlyMetric, 0, len(buckets))
	for key, b := range buckets {
		metrics = append(metrics, domain.MonthlyMetric{
			ChannelName:    key.name,
			Year:           key.year,
			Month:          key.month,
			NumberOfVideos: b.videos,
			TotalViewCount: b.views,
			EngagementRate: b.meanRate(),
		})
	}
	sortMetrics(metrics)
	return metrics, nil
}

func (b *bucket) add(v domain.Video) {
	b.videos++
	if v.ViewCount != nil {
		b.views += *v.ViewCount
	}
	if rate, ok := EngagementRate(v); ok {
		b.rateSum += rate
		b.rateSeen++
	}
}

func (b *bucket) meanRate() *float64 {
	if b.rateSeen == 0 {
		return nil
	}
	mean := b.rateSum / float64(b.rateSeen)
	return &mean
}

func sortMetrics(metrics []domain.MonthlyMetric) {
	sort.SliceStable(metrics, func(i, j int) bool {
		a, b := metrics[i], metrics[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.ChannelName < b.ChannelName
	})
}
