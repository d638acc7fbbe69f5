package model

import "time"

// Sentiment labels used across the analyzer and the parser.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentTally holds aggregated sentiment counts for a batch of comments.
// Error is informative, not exclusive: a tally can carry partial counts and
// an error note when parsing was degraded. Callers must distinguish
// "analyzed, found nothing" from "could not analyze".
type SentimentTally struct {
	Positive int    `json:"positive" bson:"positive"`
	Neutral  int    `json:"neutral" bson:"neutral"`
	Negative int    `json:"negative" bson:"negative"`
	Error    string `json:"error,omitempty" bson:"error,omitempty"`
}

// Total returns the sum of all sentiment counts.
func (t SentimentTally) Total() int {
	return t.Positive + t.Neutral + t.Negative
}

// TopicEntry is one topic cluster extracted from the sampled comments.
// Order within a result set is relevance as judged by the model; the
// service never re-sorts topics.
type TopicEntry struct {
	Topic     string `json:"topic" bson:"topic"`
	Summary   string `json:"summary" bson:"summary"`
	Sentiment string `json:"sentiment" bson:"sentiment"`
}

// RankedComment is a top comment selected by like count, together with its
// most-liked replies and the model's hypothesis for why it is popular.
type RankedComment struct {
	Rank       int           `json:"rank" bson:"rank"`
	Text       string        `json:"text" bson:"text"`
	LikeCount  int64         `json:"likeCount" bson:"likeCount"`
	Rationale  string        `json:"rationale,omitempty" bson:"rationale,omitempty"`
	TopReplies []ReplyRecord `json:"topReplies,omitempty" bson:"topReplies,omitempty"`
}

// AnalysisReport is the full output of one pipeline run for a video.
// Raw fetched comments are never persisted; the report carries only the
// derived analytics and the ranked excerpts.
type AnalysisReport struct {
	VideoID        string          `json:"videoId" bson:"videoId"`
	Metadata       *VideoMetadata  `json:"metadata,omitempty" bson:"metadata,omitempty"`
	MetadataNote   string          `json:"metadataNote,omitempty" bson:"metadataNote,omitempty"`
	FetchedCount   int             `json:"fetchedCount" bson:"fetchedCount"`
	SampleFraction float64         `json:"sampleFraction" bson:"sampleFraction"`
	SampleSize     int             `json:"sampleSize" bson:"sampleSize"`
	FetchNote      string          `json:"fetchNote,omitempty" bson:"fetchNote,omitempty"`
	Sentiment      SentimentTally  `json:"sentiment" bson:"sentiment"`
	Topics         []TopicEntry    `json:"topics,omitempty" bson:"topics,omitempty"`
	Summary        string          `json:"summary,omitempty" bson:"summary,omitempty"`
	TopComments    []RankedComment `json:"topComments,omitempty" bson:"topComments,omitempty"`
	GeneratedAt    time.Time       `json:"generatedAt" bson:"generatedAt"`
}

// AnalyzeRequest is an async analysis request published via NATS.
type AnalyzeRequest struct {
	VideoRef  string `json:"videoRef"`
	Sample    string `json:"sample,omitempty"`
	RequestID string `json:"requestId"`
}

// AnalyzeResult is the outcome of an async analysis request.
type AnalyzeResult struct {
	Success     bool      `json:"success"`
	VideoID     string    `json:"videoId,omitempty"`
	RequestID   string    `json:"requestId"`
	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processedAt"`
}
