package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"comment-insights-service/metrics"
	"comment-insights-service/model"
)

const (
	// MaxComments bounds latency and API quota for a single video fetch.
	// Enforced even when the caller asks for everything.
	MaxComments = 1000

	// pageSize is the largest page the commentThreads API allows.
	pageSize = 100
)

var (
	// ErrInvalidIdentifier means the video reference is neither a bare
	// 11-character ID nor a recognized URL shape.
	ErrInvalidIdentifier = errors.New("invalid video identifier")

	// ErrSourceUnavailable means a comment-source call failed, possibly
	// mid-pagination. Comments gathered before the failure are still
	// returned alongside it.
	ErrSourceUnavailable = errors.New("comment source unavailable")
)

var (
	urlIDPattern  = regexp.MustCompile(`(?:v=|youtu\.be/|shorts/|embed/|watch\?v=|&v=)([\w-]{11})`)
	bareIDPattern = regexp.MustCompile(`^[\w-]{11}$`)
)

// ResolveVideoID extracts the 11-character video ID from a raw ID or any
// recognized URL shape (watch, shorts, embed, youtu.be share links).
func ResolveVideoID(ref string) (string, error) {
	if m := urlIDPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if bareIDPattern.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, ref)
}

// ThreadLister is the single page call the fetcher needs from the YouTube
// Data API, narrowed to an interface so tests can fake pagination.
type ThreadLister interface {
	ListPage(ctx context.Context, videoID, pageToken string) (*youtube.CommentThreadListResponse, error)
}

type apiThreadLister struct {
	svc *youtube.Service
}

func (l *apiThreadLister) ListPage(ctx context.Context, videoID, pageToken string) (*youtube.CommentThreadListResponse, error) {
	call := l.svc.CommentThreads.List([]string{"snippet", "replies"}).
		VideoId(videoID).
		MaxResults(pageSize).
		TextFormat("plainText").
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

// Fetcher pages through the comment threads of a single video.
type Fetcher struct {
	lister ThreadLister
}

// New builds a Fetcher backed by the YouTube Data API v3.
func New(ctx context.Context, apiKey string) (*Fetcher, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &Fetcher{lister: &apiThreadLister{svc: svc}}, nil
}

// NewWithLister builds a Fetcher around a custom page source.
func NewWithLister(l ThreadLister) *Fetcher {
	return &Fetcher{lister: l}
}

// Fetch collects top-level comments (with their inline replies) for the
// video, requesting full pages until the continuation token runs out or
// MaxComments is reached. A page that fails after earlier pages produced
// comments still yields those comments together with the error, so the
// caller can degrade instead of discarding partial progress. No per-page
// retry.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) ([]model.CommentRecord, error) {
	log.Printf("[INFO] Fetching comments for videoId=%s", videoID)

	var comments []model.CommentRecord
	pageToken := ""

	for {
		resp, err := f.lister.ListPage(ctx, videoID, pageToken)
		if err != nil {
			log.Printf("[ERROR] commentThreads page failed for videoId=%s after %d comments: %v", videoID, len(comments), err)
			metrics.CommentPagesFetched.WithLabelValues("error").Inc()
			return comments, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		metrics.CommentPagesFetched.WithLabelValues("ok").Inc()

		for _, item := range resp.Items {
			comments = append(comments, toRecord(item))
			if len(comments) >= MaxComments {
				break
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || len(comments) >= MaxComments {
			break
		}
	}

	log.Printf("[INFO] Fetched %d comments for videoId=%s", len(comments), videoID)
	metrics.CommentsFetched.Add(float64(len(comments)))
	return comments, nil
}

func toRecord(item *youtube.CommentThread) model.CommentRecord {
	var rec model.CommentRecord
	if item.Snippet != nil && item.Snippet.TopLevelComment != nil && item.Snippet.TopLevelComment.Snippet != nil {
		s := item.Snippet.TopLevelComment.Snippet
		rec.Text = s.TextDisplay
		likes := s.LikeCount
		rec.LikeCount = &likes
	}
	if item.Replies != nil {
		for _, r := range item.Replies.Comments {
			if r.Snippet == nil {
				continue
			}
			likes := r.Snippet.LikeCount
			rec.Replies = append(rec.Replies, model.ReplyRecord{
				Text:      r.Snippet.TextDisplay,
				LikeCount: &likes,
			})
		}
	}
	return rec
}
