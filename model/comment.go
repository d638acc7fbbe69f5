package model

// CommentRecord is one top-level comment plus the replies the YouTube API
// inlines with it. Identity is positional within fetch order; no persisted
// ID is kept. Records are never mutated after the fetcher builds them.
type CommentRecord struct {
	Text      string        `json:"text"`
	LikeCount *int64        `json:"likeCount,omitempty"`
	Replies   []ReplyRecord `json:"replies,omitempty"`
}

// ReplyRecord is a single reply under a top-level comment. A reply without
// a like count or with empty text is kept for display but excluded from
// ranking.
type ReplyRecord struct {
	Text      string `json:"text"`
	LikeCount *int64 `json:"likeCount,omitempty"`
}

// Likes returns the like count and whether one is known. Absence and zero
// are different signals: only comments with a known count are rankable.
func (c CommentRecord) Likes() (int64, bool) {
	if c.LikeCount == nil {
		return 0, false
	}
	return *c.LikeCount, true
}

// Likes returns the reply's like count and whether one is known.
func (r ReplyRecord) Likes() (int64, bool) {
	if r.LikeCount == nil {
		return 0, false
	}
	return *r.LikeCount, true
}
