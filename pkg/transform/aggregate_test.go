package transform

import (
	"testing"

	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func video(id, day string, views, likes, comments int64) domain.Video {
	return domain.Video{
		ID:           id,
		Title:        ptr("t " + id),
		PublishedAt:  ptr(day),
		ViewCount:    ptr(views),
		LikeCount:    ptr(likes),
		CommentCount: ptr(comments),
	}
}

func edges(channelID string, videoIDs ...string) []domain.ChannelVideo {
	out := make([]domain.ChannelVideo, len(videoIDs))
	for i, id := range videoIDs {
		out[i] = domain.ChannelVideo{ChannelID: channelID, VideoID: id}
	}
	return out
}

// twoChannels has two channels with three videos each, spread over two months.
func twoChannels() pipeline.Extraction {
	return pipeline.Extraction{
		Channels: []domain.Channel{
			{ID: "C1", Name: "Beta"},
			{ID: "C2", Name: "Alpha"},
		},
		Videos: []domain.Video{
			video("a1", "2024-01-10", 1000, 40, 10),
			video("a2", "2024-01-20", 500, 10, 0),
			video("a3", "2024-02-01", 200, 2, 2),
			video("b1", "2024-01-05", 300, 3, 0),
			video("b2", "2024-02-14", 100, 10, 5),
			video("b3", "2024-02-28", 400, 4, 4),
		},
		Edges: append(edges("C1", "a1", "a2", "a3"), edges("C2", "b1", "b2", "b3")...),
	}
}

func TestAggregateGroupsByChannelAndMonth(t *testing.T) {
	got, err := Aggregate(twoChannels())
	require.NoError(t, err)
	require.Len(t, got, 4)

	type row struct {
		name   string
		year   int
		month  int
		videos int64
		views  int64
		rate   float64
	}
	want := []row{
		{"Alpha", 2024, 2, 2, 500, (0.15 + 0.02) / 2},
		{"Beta", 2024, 2, 1, 200, 0.02},
		{"Alpha", 2024, 1, 1, 300, 0.01},
		{"Beta", 2024, 1, 2, 1500, (0.05 + 0.02) / 2},
	}
	for i, w := range want {
		m := got[i]
		assert.Equal(t, w.name, m.ChannelName, "row %d", i)
		assert.Equal(t, w.year, m.Year, "row %d", i)
		assert.Equal(t, w.month, m.Month, "row %d", i)
		assert.Equal(t, w.videos, m.NumberOfVideos, "row %d", i)
		assert.Equal(t, w.views, m.TotalViewCount, "row %d", i)
		require.NotNil(t, m.EngagementRate, "row %d", i)
		assert.InDelta(t, w.rate, *m.EngagementRate, 1e-3, "row %d", i)
	}
}

func TestAggregateZeroViewsExcludedFromMean(t *testing.T) {
	ext := pipeline.Extraction{
		Channels: []domain.Channel{{ID: "C1", Name: "One"}},
		Videos: []domain.Video{
			video("a", "2023-07-01", 0, 5, 5),
			video("b", "2023-07-02", 100, 10, 10),
		},
		Edges: edges("C1", "a", "b"),
	}

	got, err := Aggregate(ext)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].NumberOfVideos)
	assert.Equal(t, int64(100), got[0].TotalViewCount)
	assert.InDelta(t, 0.2, *got[0].EngagementRate, 1e-9)
}

func TestAggregateNoDefinedRate(t *testing.T) {
	v := video("a", "2023-07-01", 10, 1, 1)
	v.LikeCount = nil
	ext := pipeline.Extraction{
		Channels: []domain.Channel{{ID: "C1", Name: "One"}},
		Videos:   []domain.Video{v},
		Edges:    edges("C1", "a"),
	}

	got, err := Aggregate(ext)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].EngagementRate)
	assert.Equal(t, int64(10), got[0].TotalViewCount)
}

func TestAggregateInnerJoinDropsUnmatched(t *testing.T) {
	undated := video("u", "", 10, 1, 1)
	undated.PublishedAt = nil
	ext := pipeline.Extraction{
		Channels: []domain.Channel{{ID: "C1", Name: "One"}},
		Videos: []domain.Video{
			video("a", "2022-03-03", 10, 1, 0),
			video("orphan", "2022-03-03", 999, 1, 0),
			undated,
		},
		Edges: []domain.ChannelVideo{
			{ChannelID: "C1", VideoID: "a"},
			{ChannelID: "C1", VideoID: "u"},
			{ChannelID: "C1", VideoID: ""},
			{ChannelID: "ghost", VideoID: "a"},
		},
	}

	got, err := Aggregate(ext)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].NumberOfVideos)
	assert.Equal(t, int64(10), got[0].TotalViewCount)
}

func TestAggregateEmpty(t *testing.T) {
	got, err := Aggregate(pipeline.Extraction{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngagementRateRounding(t *testing.T) {
	rate, ok := EngagementRate(video("a", "2020-01-01", 3, 1, 0))
	require.True(t, ok)
	assert.Equal(t, 0.333, rate)

	rate, ok = EngagementRate(video("b", "2020-01-01", 8, 1, 0))
	require.True(t, ok)
	assert.Equal(t, 0.125, rate)

	rate, ok = EngagementRate(video("c", "2020-01-01", 16, 1, 0))
	require.True(t, ok)
	assert.Equal(t, 0.062, rate, "half rounds to even")

	_, ok = EngagementRate(video("d", "2020-01-01", 0, 1, 0))
	assert.False(t, ok)
}
