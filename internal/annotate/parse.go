package annotate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IshaanNene/newsharvest/internal/types"
)

type rawAnnotation struct {
	Sentiment string `json:"sentiment"`
	Summary   string `json:"summary"`
	Relevant  string `json:"relevant"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseResponse validates a response body and returns localized labels.
// Every failure wraps types.ErrMalformedOutput or types.ErrEmptyResponse.
func ParseResponse(body []byte) (*Annotation, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return nil, types.ErrEmptyResponse
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body: %v", types.ErrMalformedOutput, err)
	}

	var result rawAnnotation
	_, hasSentiment := fields["sentiment"]
	_, hasSummary := fields["summary"]

	var envelope chatResponse
	_ = json.Unmarshal(raw, &envelope)

	switch {
	case len(envelope.Choices) > 0:
		content := envelope.Choices[0].Message.Content
		span := extractJSON(stripReasoning(content))
		if span == "" {
			return nil, fmt.Errorf("%w: no JSON object in message content %q", types.ErrMalformedOutput, truncateForLog(content))
		}
		if err := json.Unmarshal([]byte(span), &result); err != nil {
			return nil, fmt.Errorf("%w: cannot decode %q: %v", types.ErrMalformedOutput, truncateForLog(span), err)
		}
	case hasSentiment && hasSummary:
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("%w: cannot decode flat object: %v", types.ErrMalformedOutput, err)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected response shape", types.ErrMalformedOutput)
	}

	return result.validate()
}

func (r rawAnnotation) validate() (*Annotation, error) {
	sentiment, ok := types.NormalizeSentiment(r.Sentiment)
	if !ok {
		return nil, fmt.Errorf("%w: sentiment %q not recognized", types.ErrMalformedOutput, r.Sentiment)
	}
	summary := strings.TrimSpace(r.Summary)
	if summary == "" || strings.EqualFold(summary, "none") || strings.EqualFold(summary, "null") {
		return nil, fmt.Errorf("%w: summary missing", types.ErrMalformedOutput)
	}
	relevant, ok := types.NormalizeRelevant(r.Relevant)
	if !ok {
		return nil, fmt.Errorf("%w: relevant %q not recognized", types.ErrMalformedOutput, r.Relevant)
	}
	return &Annotation{Sentiment: sentiment, Summary: summary, Relevant: relevant}, nil
}

// stripReasoning drops a leading <think>...</think> block some models emit.
func stripReasoning(s string) string {
	if i := strings.LastIndex(s, "</think>"); i >= 0 {
		return s[i+len("</think>"):]
	}
	return s
}

// extractJSON returns the first balanced {...} span in s, ignoring braces
// inside string literals, or "" if there is none.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func truncateForLog(s string) string {
	const max = 200
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
