package analyzer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"comment-insights-service/model"
)

// maxTopics bounds how many topic clusters a single response may carry.
const maxTopics = 5

var intPattern = regexp.MustCompile(`\d+`)

// stripCodeFence removes a markdown code block wrapper from text. Models
// frequently wrap JSON payloads in ```json ... ``` fences.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// ParseSentiment extracts a sentiment tally from untrusted model output.
// It first attempts strict JSON decoding of the (fence-stripped) text,
// requiring all three labels with integer counts. On any decode or shape
// failure it degrades to a line scan pulling the first integer from lines
// mentioning a label. If that also finds nothing recognizable, the tally
// carries an error note so zeros are not mistaken for a measurement.
func ParseSentiment(raw string) model.SentimentTally {
	if tally, ok := decodeSentimentJSON(stripCodeFence(raw)); ok {
		return tally
	}
	return scanSentimentLines(raw)
}

func decodeSentimentJSON(text string) (model.SentimentTally, bool) {
	var fields map[string]json.Number
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return model.SentimentTally{}, false
	}

	var tally model.SentimentTally
	for _, label := range []string{model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative} {
		num, ok := fields[label]
		if !ok {
			return model.SentimentTally{}, false
		}
		v, err := strconv.Atoi(num.String())
		if err != nil || v < 0 {
			return model.SentimentTally{}, false
		}
		switch label {
		case model.SentimentPositive:
			tally.Positive = v
		case model.SentimentNeutral:
			tally.Neutral = v
		case model.SentimentNegative:
			tally.Negative = v
		}
	}
	return tally, true
}

func scanSentimentLines(raw string) model.SentimentTally {
	var tally model.SentimentTally
	lower := strings.ToLower(raw)

	for _, line := range strings.Split(lower, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, model.SentimentPositive):
			if n, ok := firstInt(line); ok {
				tally.Positive = n
			}
		case strings.Contains(line, model.SentimentNeutral):
			if n, ok := firstInt(line); ok {
				tally.Neutral = n
			}
		case strings.Contains(line, model.SentimentNegative):
			if n, ok := firstInt(line); ok {
				tally.Negative = n
			}
		}
	}

	if tally.Total() == 0 && !containsAnyLabel(lower) {
		tally.Error = fmt.Sprintf("unrecognized sentiment response: %s", strings.TrimSpace(raw))
	}
	return tally
}

func containsAnyLabel(lower string) bool {
	return strings.Contains(lower, model.SentimentPositive) ||
		strings.Contains(lower, model.SentimentNeutral) ||
		strings.Contains(lower, model.SentimentNegative)
}

func firstInt(line string) (int, bool) {
	m := intPattern.FindString(line)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseTopics decodes a topic list from model output. Unlike the sentiment
// case there is no line-oriented fallback: a response that is not a valid
// list of 1-5 complete entries is an error and the caller substitutes a
// synthetic entry describing the failure.
func ParseTopics(raw string) ([]model.TopicEntry, error) {
	text := stripCodeFence(raw)

	var entries []model.TopicEntry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, fmt.Errorf("decoding topic list: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("topic list is empty")
	}
	if len(entries) > maxTopics {
		return nil, fmt.Errorf("topic list has %d entries, want at most %d", len(entries), maxTopics)
	}

	for i := range entries {
		entries[i].Sentiment = strings.ToLower(strings.TrimSpace(entries[i].Sentiment))
		if entries[i].Topic == "" || entries[i].Summary == "" || !validSentiment(entries[i].Sentiment) {
			return nil, fmt.Errorf("topic entry %d is incomplete", i)
		}
	}
	return entries, nil
}

func validSentiment(s string) bool {
	switch s {
	case model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative:
		return true
	}
	return false
}
