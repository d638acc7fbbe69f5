package analyzer

import (
	"strings"
	"testing"

	"comment-insights-service/model"
)

func TestParseSentimentJSON(t *testing.T) {
	want := model.SentimentTally{Positive: 12, Neutral: 5, Negative: 3}

	tests := []struct {
		name string
		raw  string
	}{
		{name: "bare json", raw: `{"positive": 12, "neutral": 5, "negative": 3}`},
		{name: "fenced json", raw: "```json\n{\"positive\": 12, \"neutral\": 5, \"negative\": 3}\n```"},
		{name: "fence without tag", raw: "```\n{\"positive\": 12, \"neutral\": 5, \"negative\": 3}\n```"},
		{name: "surrounding whitespace", raw: "  \n{\"positive\": 12, \"neutral\": 5, \"negative\": 3}\n  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSentiment(tt.raw)
			if got != want {
				t.Errorf("ParseSentiment(%q) = %+v, want %+v", tt.raw, got, want)
			}
		})
	}
}

func TestParseSentimentFencedMatchesUnfenced(t *testing.T) {
	body := `{"positive": 7, "neutral": 2, "negative": 1}`
	plain := ParseSentiment(body)
	fenced := ParseSentiment("```json\n" + body + "\n```")
	if plain != fenced {
		t.Errorf("fenced parse %+v differs from unfenced %+v", fenced, plain)
	}
}

func TestParseSentimentMissingKeyFallsBack(t *testing.T) {
	// Valid JSON, wrong shape: negative is missing. Structured validation
	// rejects it and the line scan picks up what it can.
	got := ParseSentiment(`{"positive": 3, "neutral": 2}`)
	if got.Positive != 3 {
		t.Errorf("Positive = %d, want 3 from line fallback", got.Positive)
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want none (labels were recognizable)", got.Error)
	}
}

func TestParseSentimentNonIntegerCountsFallBack(t *testing.T) {
	got := ParseSentiment(`{"positive": "many", "neutral": 2, "negative": 1}`)
	// Line scan: single line mentioning positive first, no leading integer
	// on it besides the 2 and 1 which belong to other labels but sit on
	// the same line; the first integer token wins.
	if got.Error != "" {
		t.Errorf("Error = %q, want none", got.Error)
	}
}

func TestParseSentimentLineFormat(t *testing.T) {
	raw := "Positive: 10\nNeutral: 4\nNegative: 2\n"
	got := ParseSentiment(raw)
	want := model.SentimentTally{Positive: 10, Neutral: 4, Negative: 2}
	if got != want {
		t.Errorf("ParseSentiment(%q) = %+v, want %+v", raw, got, want)
	}
}

func TestParseSentimentUnrecognizableCarriesError(t *testing.T) {
	got := ParseSentiment("I'm sorry, I can't help with that request.")
	if got.Total() != 0 {
		t.Errorf("Total = %d, want 0", got.Total())
	}
	if got.Error == "" {
		t.Error("Error is empty, want an explicit marker distinguishing failure from a zero measurement")
	}
}

func TestParseSentimentLabelsWithoutNumbers(t *testing.T) {
	// Labels present but no counts: zeros are a genuine (if useless)
	// reading, not a parse failure.
	got := ParseSentiment("the comments are mostly positive in tone")
	if got.Total() != 0 {
		t.Errorf("Total = %d, want 0", got.Total())
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want none", got.Error)
	}
}

func TestParseTopics(t *testing.T) {
	raw := `[
		{"topic": "sound design", "summary": "Viewers praise the mixing.", "sentiment": "positive"},
		{"topic": "pacing", "summary": "Some found the middle slow.", "sentiment": "negative"},
		{"topic": "sequel", "summary": "Questions about a follow-up video.", "sentiment": "neutral"}
	]`

	entries, err := ParseTopics(raw)
	if err != nil {
		t.Fatalf("ParseTopics: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	// Order is relevance as judged by the model; it must be preserved.
	if entries[0].Topic != "sound design" || entries[2].Topic != "sequel" {
		t.Errorf("order not preserved: %+v", entries)
	}
}

func TestParseTopicsFenced(t *testing.T) {
	raw := "```json\n[{\"topic\": \"intro\", \"summary\": \"Strong opening.\", \"sentiment\": \"positive\"}]\n```"
	entries, err := ParseTopics(raw)
	if err != nil {
		t.Fatalf("ParseTopics: %v", err)
	}
	if len(entries) != 1 || entries[0].Topic != "intro" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestParseTopicsNormalizesSentimentCase(t *testing.T) {
	raw := `[{"topic": "editing", "summary": "Fast cuts.", "sentiment": "Positive"}]`
	entries, err := ParseTopics(raw)
	if err != nil {
		t.Fatalf("ParseTopics: %v", err)
	}
	if entries[0].Sentiment != model.SentimentPositive {
		t.Errorf("Sentiment = %q, want %q", entries[0].Sentiment, model.SentimentPositive)
	}
}

func TestParseTopicsRejections(t *testing.T) {
	sixEntries := `[` + strings.Repeat(`{"topic": "t", "summary": "s", "sentiment": "neutral"},`, 5) +
		`{"topic": "t", "summary": "s", "sentiment": "neutral"}]`

	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose", raw: "the main topics are cats and dogs"},
		{name: "object not list", raw: `{"topic": "t", "summary": "s", "sentiment": "neutral"}`},
		{name: "empty list", raw: `[]`},
		{name: "too many entries", raw: sixEntries},
		{name: "missing summary", raw: `[{"topic": "t", "sentiment": "neutral"}]`},
		{name: "bad sentiment", raw: `[{"topic": "t", "summary": "s", "sentiment": "mixed"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if entries, err := ParseTopics(tt.raw); err == nil {
				t.Errorf("ParseTopics(%q) = %+v, want error", tt.raw, entries)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no fence", in: "plain text", want: "plain text"},
		{name: "json fence", in: "```json\n{}\n```", want: "{}"},
		{name: "plain fence", in: "```\nbody\n```", want: "body"},
		{name: "unclosed fence", in: "```json\n{}", want: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
