package domain

// Video is the flat record of one video resource.
type Video struct {
	ID          string  `bson:"id" json:"id"`
	Title       *string `bson:"title" json:"title"`
	PublishedAt *string `bson:"published_at" json:"published_at"`

	// Duration in seconds.
	Duration int64 `bson:"duration" json:"duration"`

	ViewCount    *int64 `bson:"view_count" json:"view_count"`
	LikeCount    *int64 `bson:"like_count" json:"like_count"`
	CommentCount *int64 `bson:"comment_count" json:"comment_count"`
}
