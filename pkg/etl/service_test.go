package etl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"channel-metrics/pkg/db"
	"channel-metrics/pkg/domain"
	"channel-metrics/pkg/pipeline"
	"channel-metrics/pkg/sink"
	"channel-metrics/pkg/youtube/youtubetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureAPI() *youtubetest.Fake {
	api := youtubetest.New()

	api.AddChannel("UC1", youtubetest.Channel("UC1", "Beta", "2012-03-04T05:06:07Z", "UU1",
		youtubetest.Stats("videoCount", "3", "subscriberCount", "100", "viewCount", "5000")))
	api.AddPlaylist("UU1", []string{"a1", "a2", "a3"}, 2)
	api.AddVideo(youtubetest.Video("a1", "First", "2024-01-10T10:00:00Z", "PT4M13S",
		youtubetest.Stats("viewCount", "1000", "likeCount", "40", "commentCount", "10")))
	api.AddVideo(youtubetest.Video("a2", "", "2024-01-20T10:00:00Z", "PT1H",
		youtubetest.Stats("viewCount", "500", "likeCount", "10", "commentCount", "0")))
	api.AddVideo(youtubetest.Video("a3", "Third", "2024-02-01T10:00:00Z", "PT30S",
		youtubetest.Stats("viewCount", "0", "likeCount", "0", "commentCount", "0")))

	api.AddChannel("UC2", youtubetest.Channel("UC2", "Alpha", "2019-01-01T00:00:00Z", "UU2",
		youtubetest.Stats("videoCount", "2", "viewCount", "300")))
	api.AddPlaylist("UU2", []string{"b1"}, 50)
	api.AddVideo(youtubetest.Video("b1", "Only", "2024-02-14T10:00:00Z", "PT2M",
		youtubetest.Stats("viewCount", "300", "likeCount", "3", "commentCount", "0")))

	return api
}

func newSQLite(t *testing.T) (*sink.SQLWriter, *sql.DB) {
	t.Helper()
	client := db.NewSQLClient(db.SQLConfig{Driver: db.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, client.Connect(context.Background()))
	w := sink.NewSQLWriter(client, sink.SQLite, sink.Options{})
	t.Cleanup(func() { _ = w.Close(context.Background()) })
	return w, client.DB()
}

// dump renders every row of table in storage order.
func dump(t *testing.T, conn *sql.DB, table string) string {
	t.Helper()
	rows, err := conn.Query(`SELECT * FROM "` + table + `"`)
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString(strings.Join(cols, "|") + "\n")
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		for i, v := range values {
			if i > 0 {
				b.WriteString("|")
			}
			fmt.Fprintf(&b, "%v", v)
		}
		b.WriteString("\n")
	}
	require.NoError(t, rows.Err())
	return b.String()
}

func TestRunPersistsAllTables(t *testing.T) {
	w, conn := newSQLite(t)
	svc := New(pipeline.NewExtractor(newFixtureAPI(), pipeline.Options{}), w, nil)

	report, err := svc.Run(context.Background(), []string{"UC1", "UC2", "UCmissing"}, "")
	require.NoError(t, err)
	assert.False(t, report.Empty)
	assert.Equal(t, 2, report.Channels)
	assert.Equal(t, 4, report.Videos)
	assert.Equal(t, 5, report.Edges)
	assert.Equal(t, domain.DefaultMetricsTableName, report.Table)
	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)

	assert.Equal(t, "id|name|published_at|video_count|subscriber_count|view_count\n"+
		"UC1|Beta|2012-03-04|3|100|5000\n"+
		"UC2|Alpha|2019-01-01|2|<nil>|300\n", dump(t, conn, domain.ChannelTableName))

	assert.Equal(t, "channel_id|video_id\n"+
		"UC1|a1\nUC1|a2\nUC1|a3\nUC2|b1\nUC2|<nil>\n", dump(t, conn, domain.ChannelVideoTableName))

	assert.Contains(t, dump(t, conn, domain.VideoTableName), "a2|<nil>|2024-01-20|3600|500|10|0\n")

	assert.Equal(t, "name|year|month|number_of_videos|total_view_count|engagement_rate\n"+
		"Alpha|2024|2|1|300|0.01\n"+
		"Beta|2024|2|1|0|<nil>\n"+
		"Beta|2024|1|2|1500|0.035\n", dump(t, conn, domain.DefaultMetricsTableName))
}

func TestRunIsIdempotent(t *testing.T) {
	w, conn := newSQLite(t)
	channels := []string{"UC1", "UC2"}

	snapshot := func() map[string]string {
		tables := []string{domain.ChannelTableName, domain.VideoTableName, domain.ChannelVideoTableName, "engagement"}
		out := map[string]string{}
		for _, name := range tables {
			out[name] = dump(t, conn, name)
		}
		return out
	}

	svc := New(pipeline.NewExtractor(newFixtureAPI(), pipeline.Options{}), w, nil)
	_, err := svc.Run(context.Background(), channels, "engagement")
	require.NoError(t, err)
	first := snapshot()

	svc = New(pipeline.NewExtractor(newFixtureAPI(), pipeline.Options{Workers: 2}), w, nil)
	_, err = svc.Run(context.Background(), channels, "engagement")
	require.NoError(t, err)

	assert.Equal(t, first, snapshot())
}

func TestRunWithNoKnownChannelIsEmpty(t *testing.T) {
	w, conn := newSQLite(t)
	svc := New(pipeline.NewExtractor(youtubetest.New(), pipeline.Options{}), w, nil)

	report, err := svc.Run(context.Background(), []string{"UCnobody"}, "m")
	require.NoError(t, err)
	assert.True(t, report.Empty)

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`).Scan(&n))
	assert.Zero(t, n)
}

func TestRunTransportErrorPersistsNothing(t *testing.T) {
	w, conn := newSQLite(t)
	api := newFixtureAPI()
	api.Err = errors.New("quotaExceeded")
	svc := New(pipeline.NewExtractor(api, pipeline.Options{}), w, nil)

	_, err := svc.Run(context.Background(), []string{"UC1"}, "m")
	require.ErrorIs(t, err, api.Err)

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`).Scan(&n))
	assert.Zero(t, n)
}
