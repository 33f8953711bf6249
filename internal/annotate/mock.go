package annotate

import (
	"context"
	"strings"

	"github.com/IshaanNene/newsharvest/internal/types"
)

var (
	positiveWords = []string{
		"growth", "increase", "success", "breakthrough", "innovation",
		"partnership", "investment", "expansion", "revenue", "profit",
	}
	negativeWords = []string{
		"decline", "loss", "failure", "crisis", "problem", "concern",
		"decrease", "fall", "issue", "challenge",
	}
)

const (
	mockSummaryLimit    = 80
	mockSummaryFallback = "Brief summary of semiconductor industry news."
)

// MockAnnotator labels content with word-count rules and makes no network call.
type MockAnnotator struct {
	keywords []string
}

// NewMockAnnotator creates a mock that marks content relevant when any of
// the keywords occurs in it.
func NewMockAnnotator(keywords []string) *MockAnnotator {
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lower = append(lower, k)
		}
	}
	return &MockAnnotator{keywords: lower}
}

// Annotate implements Annotator. The result depends only on content.
func (m *MockAnnotator) Annotate(ctx context.Context, content string) (*Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.AnnotationError{Kind: types.KindTransport, Err: err}
	}

	lower := strings.ToLower(content)
	positive := countContained(lower, positiveWords)
	negative := countContained(lower, negativeWords)

	sentiment := types.SentimentNeutral
	switch {
	case positive > negative:
		sentiment = types.SentimentPositive
	case negative > positive:
		sentiment = types.SentimentNegative
	}

	relevant := types.RelevantNo
	if countContained(lower, m.keywords) > 0 {
		relevant = types.RelevantYes
	}

	return &Annotation{
		Sentiment: sentiment,
		Summary:   mockSummary(content),
		Relevant:  relevant,
	}, nil
}

// mockSummary joins the first three "."-fragments and caps the result at
// mockSummaryLimit runes.
func mockSummary(content string) string {
	parts := strings.Split(content, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	summary := strings.TrimSpace(strings.Join(parts, ". "))
	if r := []rune(summary); len(r) > mockSummaryLimit {
		summary = string(r[:mockSummaryLimit-3]) + "..."
	}
	if summary == "" {
		return mockSummaryFallback
	}
	return summary
}

func countContained(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
