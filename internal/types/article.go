package types

import (
	"strings"
	"unicode/utf8"
)

// MinContentLength is the shortest body, in characters, that counts as a usable article.
const MinContentLength = 200

// Status is the terminal processing outcome of an article.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusNoContent  Status = "no_content"
	StatusLowQuality Status = "low_quality"
	StatusError      Status = "error"
)

// Localized annotation values written to processed output.
const (
	SentimentPositive = "利好"
	SentimentNeutral  = "中立"
	SentimentNegative = "利弊"

	RelevantYes = "是"
	RelevantNo  = "否"
)

// Article is the record threaded through extraction, scoring and annotation.
type Article struct {
	Date       string `json:"date"`
	Headline   string `json:"headline"`
	Content    string `json:"content,omitempty"`
	ArticleURL string `json:"article_url"`
	SourceURL  string `json:"source_url"`

	// Backend names the extraction strategy that produced the record.
	Backend string `json:"backend,omitempty"`

	// Set by quality assessment.
	ContentHash      string   `json:"content_hash,omitempty"`
	QualityScore     int      `json:"quality_score"`
	QualityFactors   []string `json:"quality_factors,omitempty"`
	ContentLength    int      `json:"content_length"`
	SentenceCount    int      `json:"sentence_count"`
	TechKeywordCount int      `json:"tech_keyword_count"`

	// Set by annotation.
	Sentiment        string `json:"sentiment,omitempty"`
	Summary          string `json:"summary,omitempty"`
	Relevant         string `json:"relevant,omitempty"`
	ProcessingStatus Status `json:"processing_status,omitempty"`
}

// Usable reports whether the article has a headline and enough body text.
func Usable(a *Article) bool {
	if a == nil {
		return false
	}
	if strings.TrimSpace(a.Headline) == "" {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(a.Content)) >= MinContentLength
}

// FilterUsable returns the usable articles in their original order.
func FilterUsable(articles []*Article) []*Article {
	out := make([]*Article, 0, len(articles))
	for _, a := range articles {
		if Usable(a) {
			out = append(out, a)
		}
	}
	return out
}

// Finalized reports whether a processing status has been assigned.
func (a *Article) Finalized() bool {
	return a.ProcessingStatus != ""
}

// SetStatus assigns the terminal status together with its annotation fields.
// It returns false and leaves the article untouched if a status is already set.
func (a *Article) SetStatus(status Status, sentiment, summary, relevant string) bool {
	if a.Finalized() {
		return false
	}
	a.ProcessingStatus = status
	a.Sentiment = sentiment
	a.Summary = summary
	a.Relevant = relevant
	return true
}

// StripContent drops the body so it is never persisted twice.
func (a *Article) StripContent() {
	a.Content = ""
}

// NormalizeSentiment maps English or localized sentiment labels onto the
// localized set. ok is false for anything outside the enumeration.
func NormalizeSentiment(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case SentimentPositive, "positive":
		return SentimentPositive, true
	case SentimentNeutral, "neutral":
		return SentimentNeutral, true
	case SentimentNegative, "negative":
		return SentimentNegative, true
	}
	return "", false
}

// NormalizeRelevant maps yes/no style answers onto the localized set.
func NormalizeRelevant(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case RelevantYes, "yes":
		return RelevantYes, true
	case RelevantNo, "no":
		return RelevantNo, true
	}
	return "", false
}
