package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"comment-insights-service/analyzer"
	"comment-insights-service/fetcher"
	"comment-insights-service/metrics"
	"comment-insights-service/model"
	"comment-insights-service/ranker"
	"comment-insights-service/sampler"
)

// CommentSource pages through all comments of one video.
type CommentSource interface {
	Fetch(ctx context.Context, videoID string) ([]model.CommentRecord, error)
}

// MetadataSource scrapes display metadata for one video.
type MetadataSource interface {
	Scrape(ctx context.Context, videoID string) (*model.VideoMetadata, error)
}

// Service runs the whole analysis pipeline for a single video. Stages run
// sequentially; each blocks until its network or model call returns. No
// state survives a run besides the injected clients.
type Service struct {
	comments CommentSource
	meta     MetadataSource // nil disables metadata scraping
	analysis *analyzer.Analyzer

	// rng drives sampling and is injectable so tests can seed it. It is
	// not safe for concurrent use; mu guards it across requests.
	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a Service.
func New(comments CommentSource, meta MetadataSource, analysis *analyzer.Analyzer, rng *rand.Rand) *Service {
	return &Service{
		comments: comments,
		meta:     meta,
		analysis: analysis,
		rng:      rng,
	}
}

// Analyze fetches, samples, analyzes and ranks the comments of the video
// referenced by videoRef, keeping sampleSpec of them for text analysis.
//
// Identifier and fraction validation failures are terminal: nothing useful
// can run without them. Source and analysis failures are local to their
// stage; the report carries a note in place of the missing piece and the
// remaining stages still run.
func (s *Service) Analyze(ctx context.Context, videoRef, sampleSpec string) (*model.AnalysisReport, error) {
	videoID, err := fetcher.ResolveVideoID(videoRef)
	if err != nil {
		metrics.ReportsGenerated.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	fraction, err := sampler.ParseFraction(sampleSpec)
	if err != nil {
		metrics.ReportsGenerated.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	log.Printf("[INFO] Analyzing videoId=%s with sample fraction %.2f", videoID, fraction)

	report := &model.AnalysisReport{
		VideoID:        videoID,
		SampleFraction: fraction,
		GeneratedAt:    time.Now().UTC(),
	}

	comments, err := s.comments.Fetch(ctx, videoID)
	if err != nil {
		// Partial pages gathered before the failure still count.
		report.FetchNote = err.Error()
		log.Printf("[WARN] Proceeding with %d comments for videoId=%s after fetch failure", len(comments), videoID)
	}
	report.FetchedCount = len(comments)

	s.mu.Lock()
	sample := sampler.Sample(comments, fraction, s.rng)
	s.mu.Unlock()
	report.SampleSize = len(sample)
	texts := commentTexts(sample)

	report.Sentiment = s.analysis.Sentiment(ctx, texts)
	report.Topics = s.analysis.Topics(ctx, texts)

	summary, err := s.analysis.Summarize(ctx, texts)
	if err != nil {
		summary = fmt.Sprintf("summary unavailable: %v", err)
	}
	report.Summary = summary

	// Ranking always runs over the full fetched set, not the sample.
	report.TopComments = s.rankWithRationales(ctx, comments)

	if s.meta != nil {
		md, err := s.meta.Scrape(ctx, videoID)
		if err != nil {
			report.MetadataNote = err.Error()
		} else {
			report.Metadata = md
		}
	}

	metrics.ReportsGenerated.WithLabelValues("ok").Inc()
	log.Printf("[INFO] Report ready for videoId=%s: fetched=%d sampled=%d topComments=%d",
		videoID, report.FetchedCount, report.SampleSize, len(report.TopComments))
	return report, nil
}

// rankWithRationales selects the top comments and asks the model, one
// sequential call per comment, why each is popular. Up to TopCommentCount
// calls; a failed call leaves its message in place of the rationale.
func (s *Service) rankWithRationales(ctx context.Context, comments []model.CommentRecord) []model.RankedComment {
	top := ranker.TopComments(comments, ranker.TopCommentCount)

	ranked := make([]model.RankedComment, 0, len(top))
	for i, c := range top {
		replies := ranker.TopReplies(c.Replies, ranker.TopReplyCount)

		replyTexts := make([]string, 0, len(replies))
		for _, r := range replies {
			replyTexts = append(replyTexts, r.Text)
		}

		ranked = append(ranked, model.RankedComment{
			Rank:       i + 1,
			Text:       c.Text,
			LikeCount:  *c.LikeCount,
			Rationale:  s.analysis.Rationale(ctx, c.Text, replyTexts),
			TopReplies: replies,
		})
	}
	return ranked
}

func commentTexts(comments []model.CommentRecord) []string {
	texts := make([]string, 0, len(comments))
	for _, c := range comments {
		texts = append(texts, c.Text)
	}
	return texts
}
