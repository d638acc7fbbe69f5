package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"comment-insights-service/analyzer"
	"comment-insights-service/config"
	"comment-insights-service/fetcher"
	"comment-insights-service/metadata"
	"comment-insights-service/model"
	"comment-insights-service/service"
)

var sampleFlag string

var rootCmd = &cobra.Command{
	Use:           "insightctl",
	Short:         "Run comment analysis for a YouTube video from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <video URL or ID>",
	Short: "Fetch, sample and analyze the comments of one video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), args[0], sampleFlag)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&sampleFlag, "sample", "all", `fraction of comments to analyze ("all", "50%", "0.1")`)
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(ctx context.Context, videoRef, sample string) error {
	cfg := config.Load()

	comments, err := fetcher.New(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	svc := service.New(
		comments,
		metadata.NewScraper(cfg.YtDlpPath),
		analyzer.New(analyzer.NewOpenAIChat(cfg.OpenAIAPIKey, cfg.OpenAIModel), rng),
		rand.New(rand.NewSource(time.Now().UnixNano())),
	)

	color.Cyan("Analyzing %s (sample: %s)...", videoRef, sample)
	report, err := svc.Analyze(ctx, videoRef, sample)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func printReport(r *model.AnalysisReport) {
	if r.Metadata != nil {
		color.White("\n%s", r.Metadata.Title)
		fmt.Printf("  duration %s | %d views", formatDuration(r.Metadata.Duration), r.Metadata.ViewCount)
		if r.Metadata.LikeCount != nil {
			fmt.Printf(" | %d likes", *r.Metadata.LikeCount)
		}
		if r.Metadata.UploadDate != "" {
			fmt.Printf(" | uploaded %s", r.Metadata.UploadDate)
		}
		fmt.Println()
	} else if r.MetadataNote != "" {
		color.Yellow("metadata unavailable: %s", r.MetadataNote)
	}

	fmt.Printf("\nFetched %d comments, analyzed a sample of %d\n", r.FetchedCount, r.SampleSize)
	if r.FetchNote != "" {
		color.Yellow("fetch degraded: %s", r.FetchNote)
	}

	color.Cyan("\nSentiment")
	printSentiment(r.Sentiment)

	if len(r.Topics) > 0 {
		color.Cyan("\nTopics")
		for _, t := range r.Topics {
			fmt.Printf("  - %s (%s): %s\n", t.Topic, t.Sentiment, t.Summary)
		}
	}

	if r.Summary != "" {
		color.Cyan("\nSummary")
		fmt.Println(r.Summary)
	}

	if len(r.TopComments) > 0 {
		color.Cyan("\nTop comments")
		for _, c := range r.TopComments {
			fmt.Printf("\n%d. [%d likes] %s\n", c.Rank, c.LikeCount, c.Text)
			if c.Rationale != "" {
				fmt.Printf("   why popular: %s\n", c.Rationale)
			}
			for _, reply := range c.TopReplies {
				likes, _ := reply.Likes()
				fmt.Printf("   > [%d likes] %s\n", likes, reply.Text)
			}
		}
	}
}

func printSentiment(t model.SentimentTally) {
	total := t.Total()
	if total == 0 {
		if t.Error != "" {
			color.Yellow("  unavailable: %s", t.Error)
		} else {
			fmt.Println("  no sentiment data")
		}
		return
	}

	pos := 100 * t.Positive / total
	neu := 100 * t.Neutral / total
	neg := 100 * t.Negative / total
	fmt.Printf("  positive %d%% | neutral %d%% | negative %d%%\n", pos, neu, neg)
	if t.Error != "" {
		color.Yellow("  note: %s", t.Error)
	}
}

func formatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
