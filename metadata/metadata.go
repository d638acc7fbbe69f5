package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"

	"comment-insights-service/model"
)

// Scraper extracts display metadata for a video by shelling out to the
// yt-dlp extraction tool. The output is consumed read-only for display;
// the pipeline works fine without it.
type Scraper struct {
	binPath string
}

// NewScraper builds a Scraper. An empty binPath means yt-dlp is resolved
// from PATH.
func NewScraper(binPath string) *Scraper {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Scraper{binPath: binPath}
}

// ytdlpInfo mirrors the subset of `yt-dlp -J` output the report displays.
// like_count and comment_count may be null when the uploader hides them.
type ytdlpInfo struct {
	Title        string  `json:"title"`
	Duration     float64 `json:"duration"`
	ViewCount    int64   `json:"view_count"`
	LikeCount    *int64  `json:"like_count"`
	CommentCount *int64  `json:"comment_count"`
	UploadDate   string  `json:"upload_date"`
	Thumbnail    string  `json:"thumbnail"`
	WebpageURL   string  `json:"webpage_url"`
}

// Scrape runs yt-dlp against the video's watch URL and maps its JSON dump.
func (s *Scraper) Scrape(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	url := "https://www.youtube.com/watch?v=" + videoID

	cmd := exec.CommandContext(ctx, s.binPath, "-J", "--skip-download", "--no-warnings", url)
	out, err := cmd.Output()
	if err != nil {
		log.Printf("[ERROR] %s failed for videoId=%s: %v", s.binPath, videoID, err)
		return nil, fmt.Errorf("running %s: %w", s.binPath, err)
	}

	md, err := parseInfo(out, url)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Scraped metadata for videoId=%s: title=%q", videoID, md.Title)
	return md, nil
}

func parseInfo(data []byte, fallbackURL string) (*model.VideoMetadata, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding yt-dlp output: %w", err)
	}

	url := info.WebpageURL
	if url == "" {
		url = fallbackURL
	}

	return &model.VideoMetadata{
		Title:        info.Title,
		Duration:     int64(info.Duration),
		ViewCount:    info.ViewCount,
		LikeCount:    info.LikeCount,
		CommentCount: info.CommentCount,
		UploadDate:   info.UploadDate,
		Thumbnail:    info.Thumbnail,
		URL:          url,
	}, nil
}
