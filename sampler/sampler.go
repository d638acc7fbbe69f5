package sampler

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"comment-insights-service/model"
)

// ErrInvalidFraction means the sampling request could not be parsed or is
// out of range.
var ErrInvalidFraction = errors.New("invalid sample fraction")

// ParseFraction turns a user-supplied sampling request into a fraction in
// (0, 1]. Accepted forms: "all", "50%", "0.5". An empty string means all.
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return 1.0, nil
	}

	raw := s
	pct := strings.HasSuffix(s, "%")
	if pct {
		raw = strings.TrimSuffix(s, "%")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFraction, s)
	}
	if pct {
		v /= 100
	}
	if v <= 0 || v > 1 {
		return 0, fmt.Errorf("%w: %q not in (0, 1]", ErrInvalidFraction, s)
	}
	return v, nil
}

// Sample keeps floor(len(comments) * fraction) records, chosen without
// regard to original order so the result is not biased toward the
// earliest-fetched (usually most recent) comments.
//
// fraction == 1 is an identity pass: the input is returned as-is, order
// preserved, never shuffled. fraction <= 0 yields an empty slice. For
// anything in between the selection is randomized through rng, so two
// calls on the same input may return different subsets; seed rng when a
// test needs exact membership.
func Sample(comments []model.CommentRecord, fraction float64, rng *rand.Rand) []model.CommentRecord {
	if fraction >= 1 {
		return comments
	}
	if fraction <= 0 || len(comments) == 0 {
		return []model.CommentRecord{}
	}

	shuffled := make([]model.CommentRecord, len(comments))
	copy(shuffled, comments)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := int(float64(len(comments)) * fraction)
	return shuffled[:n]
}
