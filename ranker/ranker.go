package ranker

import (
	"sort"
	"strings"

	"comment-insights-service/model"
)

// Default truncation points used by the pipeline.
const (
	TopCommentCount = 10
	TopReplyCount   = 5
)

// TopComments returns the k most-liked comments in descending like order.
// Comments with no known like count are excluded entirely rather than
// treated as zero. The sort is stable, so engagement ties keep original
// fetch order.
func TopComments(comments []model.CommentRecord, k int) []model.CommentRecord {
	ranked := make([]model.CommentRecord, 0, len(comments))
	for _, c := range comments {
		if _, ok := c.Likes(); ok {
			ranked = append(ranked, c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].LikeCount > *ranked[j].LikeCount
	})

	if k >= 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// TopReplies returns the k most-liked replies. A reply must have both a
// known like count and non-empty text to be rankable.
func TopReplies(replies []model.ReplyRecord, k int) []model.ReplyRecord {
	ranked := make([]model.ReplyRecord, 0, len(replies))
	for _, r := range replies {
		if _, ok := r.Likes(); !ok {
			continue
		}
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].LikeCount > *ranked[j].LikeCount
	})

	if k >= 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
