package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"comment-insights-service/metrics"
	"comment-insights-service/model"
)

// Prompt-size caps per operation. Sentiment truncates earliest-first so
// its prompt is deterministic; topics and summary draw a fresh random
// sub-sample to cover more material.
const (
	sentimentCap      = 100
	topicCap          = 200
	summaryCap        = 100
	rationaleReplyCap = 5
)

const sentimentPrompt = `Analyze the following YouTube comments. Count approximately how many are positive, neutral and negative.
Respond with a single JSON object and nothing else, in this exact shape:
{"positive": X, "neutral": Y, "negative": Z}
where X, Y, Z are integers.

Comments:
%s`

const topicsPrompt = `You are given YouTube comments from a single video. Identify the main topics viewers discuss, at most %d, ordered by relevance.
Respond with a JSON array and nothing else. Each element must be an object with:
- "topic": a short label
- "summary": 1-2 sentences describing what viewers say about it
- "sentiment": one of "positive", "neutral", "negative"

Comments:
%s`

const rationalePrompt = `This YouTube comment received a lot of likes. Based on the comment and the replies under it, give a short hypothesis (2-3 sentences) for why viewers found it so appealing.

Comment:
%s

Replies:
%s`

const summaryPrompt = `You are given comments from under a YouTube video.

1. Write a short analysis of the most popular themes or moods in these comments (2-3 sentences).
2. Summarize (1-2 sentences per point):
   - What did viewers like the most, if visible from the comments?
   - What left a neutral impression?
   - What drew negativity or criticism?
3. Close with a short conclusion (1-2 sentences) about the audience's overall impression of the video.

Structure the answer clearly.

Comments:
%s`

// ChatClient issues one prompt to the text-generation collaborator and
// returns its raw free-form output.
type ChatClient interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int64) (string, error)
}

type openAIChat struct {
	client *openai.Client
	model  string
}

// NewOpenAIChat builds a ChatClient backed by the OpenAI chat completions API.
func NewOpenAIChat(apiKey, chatModel string) ChatClient {
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &openAIChat{client: &c, model: chatModel}
}

func (o *openAIChat) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int64) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Analyzer runs the model-backed analysis operations. Every operation
// fails soft: transport and parse failures come back as typed results
// carrying a description, never as a panic or a pipeline-aborting error.
type Analyzer struct {
	chat    ChatClient
	limiter *rate.Limiter

	// rng is not safe for concurrent use; mu guards it because one
	// Analyzer is shared across requests.
	mu  sync.Mutex
	rng *rand.Rand
}

// New builds an Analyzer with the default one-call-per-second limit.
// rng drives the per-operation sub-sampling and is injectable for tests.
func New(chat ChatClient, rng *rand.Rand) *Analyzer {
	return NewWithLimit(chat, rng, rate.Every(time.Second))
}

// NewWithLimit builds an Analyzer with a custom spacing between model calls.
func NewWithLimit(chat ChatClient, rng *rand.Rand, limit rate.Limit) *Analyzer {
	return &Analyzer{
		chat:    chat,
		limiter: rate.NewLimiter(limit, 1),
		rng:     rng,
	}
}

// Sentiment counts positive/neutral/negative comments across the first
// sentimentCap non-empty texts. Truncation is earliest-first so the prompt
// is bounded deterministically.
func (a *Analyzer) Sentiment(ctx context.Context, texts []string) model.SentimentTally {
	clean := nonEmpty(texts)
	if len(clean) == 0 {
		return model.SentimentTally{Error: "no comment texts to analyze"}
	}
	if len(clean) > sentimentCap {
		clean = clean[:sentimentCap]
	}

	raw, err := a.complete(ctx, "sentiment", fmt.Sprintf(sentimentPrompt, strings.Join(clean, "\n")), 0.3, 100)
	if err != nil {
		return model.SentimentTally{Error: err.Error()}
	}
	return ParseSentiment(raw)
}

// Topics extracts up to maxTopics topic clusters from a random sub-sample
// of the texts. Failure yields a single synthetic entry describing it.
func (a *Analyzer) Topics(ctx context.Context, texts []string) []model.TopicEntry {
	clean := nonEmpty(texts)
	if len(clean) == 0 {
		return errorTopics("no comment texts to analyze")
	}
	clean = a.subsample(clean, topicCap)

	raw, err := a.complete(ctx, "topics", fmt.Sprintf(topicsPrompt, maxTopics, strings.Join(clean, "\n")), 0.4, 500)
	if err != nil {
		return errorTopics(err.Error())
	}

	entries, err := ParseTopics(raw)
	if err != nil {
		return errorTopics(err.Error())
	}
	return entries
}

// Rationale asks the model why one top-ranked comment is popular, feeding
// it the comment plus at most rationaleReplyCap of its replies. A failure
// returns a user-facing message so one bad call never aborts the batch.
func (a *Analyzer) Rationale(ctx context.Context, comment string, replies []string) string {
	if len(replies) > rationaleReplyCap {
		replies = replies[:rationaleReplyCap]
	}
	repliesBlock := "(no replies)"
	if len(replies) > 0 {
		repliesBlock = strings.Join(replies, "\n")
	}

	raw, err := a.complete(ctx, "rationale", fmt.Sprintf(rationalePrompt, comment, repliesBlock), 0.5, 200)
	if err != nil {
		return fmt.Sprintf("rationale unavailable: %v", err)
	}
	return raw
}

// Summarize produces a display-only narrative over a random sub-sample of
// the texts. There is no machine-parseable contract on the output.
func (a *Analyzer) Summarize(ctx context.Context, texts []string) (string, error) {
	clean := nonEmpty(texts)
	if len(clean) == 0 {
		return "", errors.New("no comment texts to summarize")
	}
	clean = a.subsample(clean, summaryCap)

	return a.complete(ctx, "summary", fmt.Sprintf(summaryPrompt, strings.Join(clean, "\n")), 0.7, 800)
}

func (a *Analyzer) complete(ctx context.Context, op, prompt string, temperature float64, maxTokens int64) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}
	raw, err := a.chat.Complete(ctx, prompt, temperature, maxTokens)
	if err != nil {
		log.Printf("[ERROR] %s analysis call failed: %v", op, err)
		metrics.AnalysisCalls.WithLabelValues(op, "error").Inc()
		return "", err
	}
	metrics.AnalysisCalls.WithLabelValues(op, "ok").Inc()
	return raw, nil
}

// subsample randomly keeps up to n texts. Independent of the pipeline's
// sample fraction; this only bounds prompt size.
func (a *Analyzer) subsample(texts []string, n int) []string {
	if len(texts) <= n {
		return texts
	}
	shuffled := make([]string, len(texts))
	copy(shuffled, texts)
	a.mu.Lock()
	a.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	a.mu.Unlock()
	return shuffled[:n]
}

func nonEmpty(texts []string) []string {
	clean := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			clean = append(clean, t)
		}
	}
	return clean
}

func errorTopics(desc string) []model.TopicEntry {
	return []model.TopicEntry{{
		Topic:     "analysis unavailable",
		Summary:   desc,
		Sentiment: model.SentimentNeutral,
	}}
}
