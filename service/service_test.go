package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"comment-insights-service/analyzer"
	"comment-insights-service/fetcher"
	"comment-insights-service/model"
	"comment-insights-service/sampler"
)

type fakeSource struct {
	comments []model.CommentRecord
	err      error
}

func (f *fakeSource) Fetch(ctx context.Context, videoID string) ([]model.CommentRecord, error) {
	return f.comments, f.err
}

type fakeMeta struct {
	md  *model.VideoMetadata
	err error
}

func (f *fakeMeta) Scrape(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	return f.md, f.err
}

type scriptedChat struct {
	response string
	calls    int
}

func (c *scriptedChat) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int64) (string, error) {
	c.calls++
	return c.response, nil
}

func likes(n int64) *int64 {
	return &n
}

func newTestService(src CommentSource, meta MetadataSource, chat analyzer.ChatClient) *Service {
	a := analyzer.NewWithLimit(chat, rand.New(rand.NewSource(1)), rate.Inf)
	return New(src, meta, a, rand.New(rand.NewSource(1)))
}

func TestAnalyzeInvalidIdentifier(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil, &scriptedChat{})

	_, err := svc.Analyze(context.Background(), "not a video", "all")
	if !errors.Is(err, fetcher.ErrInvalidIdentifier) {
		t.Errorf("err = %v, want ErrInvalidIdentifier", err)
	}
}

func TestAnalyzeInvalidFraction(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil, &scriptedChat{})

	_, err := svc.Analyze(context.Background(), "dQw4w9WgXcQ", "150%")
	if !errors.Is(err, sampler.ErrInvalidFraction) {
		t.Errorf("err = %v, want ErrInvalidFraction", err)
	}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	src := &fakeSource{comments: []model.CommentRecord{
		{Text: "love it", LikeCount: likes(9), Replies: []model.ReplyRecord{
			{Text: "same", LikeCount: likes(2)},
		}},
		{Text: "meh", LikeCount: likes(1)},
		{Text: "great video", LikeCount: likes(4)},
	}}
	chat := &scriptedChat{response: `{"positive": 2, "neutral": 1, "negative": 0}`}
	svc := newTestService(src, nil, chat)

	report, err := svc.Analyze(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "all")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q", report.VideoID)
	}
	if report.FetchedCount != 3 || report.SampleSize != 3 {
		t.Errorf("FetchedCount = %d, SampleSize = %d, want 3 and 3", report.FetchedCount, report.SampleSize)
	}
	if report.Sentiment.Positive != 2 {
		t.Errorf("Sentiment = %+v", report.Sentiment)
	}
	if report.Summary == "" {
		t.Error("Summary is empty")
	}

	if len(report.TopComments) != 3 {
		t.Fatalf("TopComments = %d, want 3", len(report.TopComments))
	}
	first := report.TopComments[0]
	if first.Rank != 1 || first.Text != "love it" || first.LikeCount != 9 {
		t.Errorf("top comment = %+v", first)
	}
	if len(first.TopReplies) != 1 || first.TopReplies[0].Text != "same" {
		t.Errorf("top replies = %+v", first.TopReplies)
	}
	if report.TopComments[2].Text != "meh" {
		t.Errorf("last ranked = %q, want the least-liked comment", report.TopComments[2].Text)
	}

	// sentiment + topics + summary + one rationale per ranked comment
	if chat.calls != 6 {
		t.Errorf("model calls = %d, want 6", chat.calls)
	}
}

func TestAnalyzeSampleFractionAppliesToAnalysisOnly(t *testing.T) {
	src := &fakeSource{comments: []model.CommentRecord{
		{Text: "a", LikeCount: likes(3)},
		{Text: "b", LikeCount: likes(2)},
		{Text: "c", LikeCount: likes(1)},
	}}
	svc := newTestService(src, nil, &scriptedChat{response: "ok"})

	report, err := svc.Analyze(context.Background(), "dQw4w9WgXcQ", "50%")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.SampleFraction != 0.5 {
		t.Errorf("SampleFraction = %v", report.SampleFraction)
	}
	if report.SampleSize != 1 {
		t.Errorf("SampleSize = %d, want floor(3*0.5) = 1", report.SampleSize)
	}
	// Ranking is unaffected by sampling.
	if len(report.TopComments) != 3 {
		t.Errorf("TopComments = %d, want all 3 ranked", len(report.TopComments))
	}
}

func TestAnalyzeFetchFailureDegrades(t *testing.T) {
	src := &fakeSource{
		comments: []model.CommentRecord{{Text: "partial", LikeCount: likes(5)}},
		err:      fetcher.ErrSourceUnavailable,
	}
	svc := newTestService(src, nil, &scriptedChat{response: "ok"})

	report, err := svc.Analyze(context.Background(), "dQw4w9WgXcQ", "all")
	if err != nil {
		t.Fatalf("Analyze: %v, want nil with a fetch note", err)
	}
	if report.FetchNote == "" {
		t.Error("FetchNote is empty")
	}
	if report.FetchedCount != 1 || len(report.TopComments) != 1 {
		t.Errorf("FetchedCount = %d, TopComments = %d, want the partial page used", report.FetchedCount, len(report.TopComments))
	}
}

func TestAnalyzeMetadataFailureIsSoft(t *testing.T) {
	src := &fakeSource{comments: []model.CommentRecord{{Text: "a", LikeCount: likes(1)}}}
	meta := &fakeMeta{err: errors.New("yt-dlp: not found")}
	svc := newTestService(src, meta, &scriptedChat{response: "ok"})

	report, err := svc.Analyze(context.Background(), "dQw4w9WgXcQ", "all")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Metadata != nil {
		t.Error("Metadata set despite scrape failure")
	}
	if !strings.Contains(report.MetadataNote, "yt-dlp") {
		t.Errorf("MetadataNote = %q", report.MetadataNote)
	}
}

func TestAnalyzeMetadata(t *testing.T) {
	src := &fakeSource{comments: []model.CommentRecord{{Text: "a", LikeCount: likes(1)}}}
	meta := &fakeMeta{md: &model.VideoMetadata{Title: "Demo", ViewCount: 1200}}
	svc := newTestService(src, meta, &scriptedChat{response: "ok"})

	report, err := svc.Analyze(context.Background(), "dQw4w9WgXcQ", "all")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Metadata == nil || report.Metadata.Title != "Demo" {
		t.Errorf("Metadata = %+v", report.Metadata)
	}
}
