package model

// VideoMetadata is display-only information about the analyzed video,
// scraped via yt-dlp. Like and comment counts may be hidden by the
// uploader, hence optional.
type VideoMetadata struct {
	Title        string `json:"title" bson:"title"`
	Duration     int64  `json:"duration" bson:"duration"`
	ViewCount    int64  `json:"viewCount" bson:"viewCount"`
	LikeCount    *int64 `json:"likeCount,omitempty" bson:"likeCount,omitempty"`
	CommentCount *int64 `json:"commentCount,omitempty" bson:"commentCount,omitempty"`
	UploadDate   string `json:"uploadDate,omitempty" bson:"uploadDate,omitempty"`
	Thumbnail    string `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	URL          string `json:"url,omitempty" bson:"url,omitempty"`
}
