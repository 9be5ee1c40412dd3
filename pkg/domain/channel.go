package domain

// Channel is the flat record of one channel resource.
type Channel struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`

	// PublishedAt is a YYYY-MM-DD day string once the extraction is finished.
	PublishedAt *string `bson:"published_at" json:"published_at"`

	// VideoCount is the count reported by the API. It may differ from the
	// number of video IDs the upload playlist actually returns.
	VideoCount      *int64 `bson:"video_count" json:"video_count"`
	SubscriberCount *int64 `bson:"subscriber_count" json:"subscriber_count"`
	ViewCount       *int64 `bson:"view_count" json:"view_count"`
}

// ChannelVideo associates a channel with one of its uploads.
// VideoID is empty when the channel reported more videos than were retrieved.
type ChannelVideo struct {
	ChannelID string `bson:"channel_id" json:"channel_id"`
	VideoID   string `bson:"video_id" json:"video_id"`
}
