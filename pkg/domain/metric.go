package domain

// MonthlyMetric is one (channel, year, month) bucket of the transform output.
type MonthlyMetric struct {
	ChannelName    string `bson:"name" json:"name"`
	Year           int    `bson:"year" json:"year"`
	Month          int    `bson:"month" json:"month"`
	NumberOfVideos int64  `bson:"number_of_videos" json:"number_of_videos"`
	TotalViewCount int64  `bson:"total_view_count" json:"total_view_count"`

	// EngagementRate is nil when no video in the bucket had a defined rate.
	EngagementRate *float64 `bson:"engagement_rate" json:"engagement_rate"`
}
