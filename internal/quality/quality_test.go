package quality

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/types"
)

func defaultAssessor() *Assessor {
	return NewAssessor(config.DefaultConfig().Quality)
}

func TestContentHashNormalizesWhitespaceAndCase(t *testing.T) {
	a := ContentHash("Wafer  prices\n\tclimbed. ")
	b := ContentHash("  wafer prices climbed.")
	assert.Equal(t, a, b)
	assert.Equal(t, a, ContentHash("Wafer  prices\n\tclimbed. "), "hash must be deterministic")
	assert.NotEqual(t, a, ContentHash("wafer prices fell."))
	assert.Len(t, a, 32)
}

func TestDeduplicate(t *testing.T) {
	articles := []*types.Article{
		{Headline: "first", Content: "Chip output rose sharply this year."},
		{Headline: "empty", Content: "   "},
		{Headline: "dup", Content: "chip OUTPUT rose   sharply this year."},
		{Headline: "other", Content: "Foundry margins narrowed."},
	}

	unique, dups := Deduplicate(articles)
	require.Len(t, unique, 2)
	assert.Equal(t, 1, dups, "blank content must not count as a duplicate")
	assert.Equal(t, "first", unique[0].Headline)
	assert.Equal(t, ContentHash(articles[0].Content), unique[0].ContentHash)

	again, dups := Deduplicate(unique)
	assert.Len(t, again, 2)
	assert.Zero(t, dups, "dedup must be idempotent")
}

// Scenario: 250 characters, 4 sentences, 2 keywords, a date and no URL.
func TestAssessScenarioScoresFour(t *testing.T) {
	prefix := "The wafer shipment left the port on time. " +
		"Silicon supply was steady for the quarter. " +
		"Buyers were pleased with the delivery schedule. Filler "
	content := prefix + strings.Repeat("z", 250-len(prefix)-1) + "."
	require.Equal(t, 250, utf8.RuneCountInString(content))

	a := &types.Article{Date: "05.01.2024", Content: content}
	m := defaultAssessor().Assess(a)

	assert.Equal(t, 250, m.ContentLength)
	assert.Equal(t, 4, m.SentenceCount)
	assert.Equal(t, 2, m.TechKeywordCount)
	assert.Equal(t, 4, m.Score)
	assert.Equal(t, []string{FactorAdequateLength, FactorGoodStructure, FactorSomeTechnical, FactorHasDate}, m.Factors)
	assert.False(t, defaultAssessor().LowQuality(m))
}

func TestAssessBands(t *testing.T) {
	s := defaultAssessor()
	tests := []struct {
		name    string
		article types.Article
		score   int
		factor  string
	}{
		{"insufficient", types.Article{Content: strings.Repeat("z", 199)}, 0, FactorInsufficientLength},
		{"good length", types.Article{Content: strings.Repeat("z", 500)}, 2, FactorGoodLength},
		{"excellent length", types.Article{Content: strings.Repeat("z", 1000)}, 3, FactorExcellentLength},
		{"excellent structure", types.Article{Content: "a. b. c. d. e. f."}, 2, FactorExcellentStructure},
		{"technical", types.Article{Content: "wafer silicon transistor"}, 2, FactorTechnical},
		{"highly technical", types.Article{Content: "wafer silicon transistor quantum gallium"}, 3, FactorHighlyTechnical},
		{"metadata", types.Article{Content: "z", Date: "x", ArticleURL: "https://e.com/a"}, 2, FactorHasURL},
	}
	for _, tt := range tests {
		m := s.Assess(&tt.article)
		assert.Equal(t, tt.score, m.Score, tt.name)
		assert.Contains(t, m.Factors, tt.factor, tt.name)
	}
}

func TestAssessBoundedAndMonotonic(t *testing.T) {
	s := defaultAssessor()

	prev := -1
	for _, n := range []int{0, 199, 200, 499, 500, 999, 1000, 5000} {
		m := s.Assess(&types.Article{Content: strings.Repeat("z", n), Date: "d", ArticleURL: "u"})
		assert.GreaterOrEqual(t, m.Score, prev, "length %d", n)
		prev = m.Score
	}

	prev = -1
	for n := 0; n <= 8; n++ {
		m := s.Assess(&types.Article{Content: strings.Repeat("sentence. ", n)})
		assert.GreaterOrEqual(t, m.Score, prev, "sentences %d", n)
		prev = m.Score
	}

	keywords := []string{"wafer", "silicon", "transistor", "quantum", "gallium", "nitride"}
	prev = -1
	for n := 0; n <= len(keywords); n++ {
		m := s.Assess(&types.Article{Content: strings.Join(keywords[:n], " ")})
		assert.GreaterOrEqual(t, m.Score, prev, "keywords %d", n)
		prev = m.Score
	}

	rich := strings.Repeat("Quantum wafer silicon transistor gallium nitride chip. ", 40)
	m := s.Assess(&types.Article{Content: rich, Date: "d", ArticleURL: "u"})
	assert.Equal(t, MaxScore, m.Score)
}

func TestAssessorConfigurable(t *testing.T) {
	s := NewAssessor(config.QualityConfig{Threshold: 5, Keywords: []string{"  Lithium ", ""}})
	assert.Equal(t, 1, s.CountKeywords("LITHIUM reserves"))
	assert.Zero(t, s.CountKeywords("cobalt"))
	assert.True(t, s.LowQuality(Metrics{Score: 4}))
	assert.False(t, s.LowQuality(Metrics{Score: 5}))
}

func TestApplyCopiesMetrics(t *testing.T) {
	s := defaultAssessor()
	a := &types.Article{Content: strings.Repeat("z", 300), ArticleURL: "u"}
	m := s.Assess(a)
	s.Apply(a, m)

	assert.Equal(t, m.Score, a.QualityScore)
	assert.Equal(t, 300, a.ContentLength)
	assert.Equal(t, m.Factors, a.QualityFactors)
}
