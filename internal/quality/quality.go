// Package quality computes content hashes, removes duplicate articles and
// scores article content.
package quality

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// Factor tags attached to scored articles.
const (
	FactorExcellentLength    = "excellent_length"
	FactorGoodLength         = "good_length"
	FactorAdequateLength     = "adequate_length"
	FactorInsufficientLength = "insufficient_length"

	FactorExcellentStructure = "excellent_structure"
	FactorGoodStructure      = "good_structure"
	FactorPoorStructure      = "poor_structure"

	FactorHighlyTechnical = "highly_technical"
	FactorTechnical       = "technical_content"
	FactorSomeTechnical   = "some_technical"
	FactorNonTechnical    = "non_technical"

	FactorHasDate = "has_date"
	FactorHasURL  = "has_url"
)

// MaxScore is the highest score Assess can produce.
const MaxScore = 10

// ContentHash returns the md5 hex digest of content after lowercasing and
// collapsing all whitespace runs to single spaces.
func ContentHash(content string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Deduplicate keeps the first article for each content hash and returns the
// number of later duplicates dropped. Articles with blank content are dropped
// without being counted. Kept articles have ContentHash set.
func Deduplicate(articles []*types.Article) ([]*types.Article, int) {
	seen := make(map[string]bool, len(articles))
	unique := make([]*types.Article, 0, len(articles))
	duplicates := 0

	for _, a := range articles {
		if a == nil || strings.TrimSpace(a.Content) == "" {
			continue
		}
		hash := ContentHash(a.Content)
		if seen[hash] {
			duplicates++
			continue
		}
		seen[hash] = true
		a.ContentHash = hash
		unique = append(unique, a)
	}
	return unique, duplicates
}

// Metrics is the result of scoring one article.
type Metrics struct {
	ContentLength    int
	SentenceCount    int
	TechKeywordCount int
	HasDate          bool
	HasURL           bool
	Score            int
	Factors          []string
}

// Assessor scores articles against a keyword vocabulary.
type Assessor struct {
	keywords  []string
	threshold int
}

// NewAssessor creates an Assessor from quality configuration.
func NewAssessor(cfg config.QualityConfig) *Assessor {
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Assessor{keywords: keywords, threshold: cfg.Threshold}
}

// Threshold returns the minimum score for annotation.
func (s *Assessor) Threshold() int { return s.threshold }

// Assess scores an article. The result depends only on the article's
// content, date and URL.
func (s *Assessor) Assess(a *types.Article) Metrics {
	var m Metrics

	m.ContentLength = utf8.RuneCountInString(a.Content)
	switch {
	case m.ContentLength >= 1000:
		m.add(3, FactorExcellentLength)
	case m.ContentLength >= 500:
		m.add(2, FactorGoodLength)
	case m.ContentLength >= 200:
		m.add(1, FactorAdequateLength)
	default:
		m.add(0, FactorInsufficientLength)
	}

	m.SentenceCount = CountSentences(a.Content)
	switch {
	case m.SentenceCount > 5:
		m.add(2, FactorExcellentStructure)
	case m.SentenceCount >= 3:
		m.add(1, FactorGoodStructure)
	default:
		m.add(0, FactorPoorStructure)
	}

	m.TechKeywordCount = s.CountKeywords(a.Content)
	switch {
	case m.TechKeywordCount > 4:
		m.add(3, FactorHighlyTechnical)
	case m.TechKeywordCount >= 3:
		m.add(2, FactorTechnical)
	case m.TechKeywordCount >= 1:
		m.add(1, FactorSomeTechnical)
	default:
		m.add(0, FactorNonTechnical)
	}

	if strings.TrimSpace(a.Date) != "" {
		m.HasDate = true
		m.add(1, FactorHasDate)
	}
	if strings.TrimSpace(a.ArticleURL) != "" {
		m.HasURL = true
		m.add(1, FactorHasURL)
	}

	return m
}

func (m *Metrics) add(points int, factor string) {
	m.Score += points
	m.Factors = append(m.Factors, factor)
}

// Apply copies the metrics onto the article.
func (s *Assessor) Apply(a *types.Article, m Metrics) {
	a.QualityScore = m.Score
	a.QualityFactors = append([]string(nil), m.Factors...)
	a.ContentLength = m.ContentLength
	a.SentenceCount = m.SentenceCount
	a.TechKeywordCount = m.TechKeywordCount
}

// LowQuality reports whether the score falls below the annotation threshold.
func (s *Assessor) LowQuality(m Metrics) bool {
	return m.Score < s.threshold
}

// CountKeywords returns how many vocabulary terms occur in content,
// ignoring case. Each term counts once.
func (s *Assessor) CountKeywords(content string) int {
	lower := strings.ToLower(content)
	n := 0
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			n++
		}
	}
	return n
}

// CountSentences splits on "." and counts non-blank fragments.
func CountSentences(content string) int {
	n := 0
	for _, part := range strings.Split(content, ".") {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}
