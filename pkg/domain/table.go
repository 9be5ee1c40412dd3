package domain

// Destination table names for the extraction output.
const (
	ChannelTableName      = "channel_data"
	VideoTableName        = "video_data"
	ChannelVideoTableName = "channel_to_video"

	// DefaultMetricsTableName is used when the caller does not pick a name.
	DefaultMetricsTableName = "monthly_metrics"
)

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindReal
)

// Column describes one column of a Table.
type Column struct {
	Name string
	Kind Kind
}

// Table is a named tabular result handed to a sink. Every row has one value
// per column; nil values are stored as NULL.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ChannelsTable builds the channel_data table.
func ChannelsTable(channels []Channel) Table {
	t := Table{
		Name: ChannelTableName,
		Columns: []Column{
			{"id", KindText},
			{"name", KindText},
			{"published_at", KindText},
			{"video_count", KindInteger},
			{"subscriber_count", KindInteger},
			{"view_count", KindInteger},
		},
		Rows: make([][]any, 0, len(channels)),
	}
	for _, c := range channels {
		t.Rows = append(t.Rows, []any{
			c.ID, c.Name, str(c.PublishedAt), num(c.VideoCount), num(c.SubscriberCount), num(c.ViewCount),
		})
	}
	return t
}

// VideosTable builds the video_data table.
func VideosTable(videos []Video) Table {
	t := Table{
		Name: VideoTableName,
		Columns: []Column{
			{"id", KindText},
			{"title", KindText},
			{"published_at", KindText},
			{"duration", KindInteger},
			{"view_count", KindInteger},
			{"like_count", KindInteger},
			{"comment_count", KindInteger},
		},
		Rows: make([][]any, 0, len(videos)),
	}
	for _, v := range videos {
		t.Rows = append(t.Rows, []any{
			v.ID, str(v.Title), str(v.PublishedAt), v.Duration, num(v.ViewCount), num(v.LikeCount), num(v.CommentCount),
		})
	}
	return t
}

// ChannelVideosTable builds the channel_to_video table. Empty video IDs are stored as NULL.
func ChannelVideosTable(edges []ChannelVideo) Table {
	t := Table{
		Name: ChannelVideoTableName,
		Columns: []Column{
			{"channel_id", KindText},
			{"video_id", KindText},
		},
		Rows: make([][]any, 0, len(edges)),
	}
	for _, e := range edges {
		var videoID any
		if e.VideoID != "" {
			videoID = e.VideoID
		}
		t.Rows = append(t.Rows, []any{e.ChannelID, videoID})
	}
	return t
}

// MetricsTable builds the monthly metrics table under name, keeping the row order of metrics.
func MetricsTable(name string, metrics []MonthlyMetric) Table {
	if name == "" {
		name = DefaultMetricsTableName
	}
	t := Table{
		Name: name,
		Columns: []Column{
			{"name", KindText},
			{"year", KindInteger},
			{"month", KindInteger},
			{"number_of_videos", KindInteger},
			{"total_view_count", KindInteger},
			{"engagement_rate", KindReal},
		},
		Rows: make([][]any, 0, len(metrics)),
	}
	for _, m := range metrics {
		var rate any
		if m.EngagementRate != nil {
			rate = *m.EngagementRate
		}
		t.Rows = append(t.Rows, []any{
			m.ChannelName, int64(m.Year), int64(m.Month), m.NumberOfVideos, m.TotalViewCount, rate,
		})
	}
	return t
}

func str(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func num(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}
