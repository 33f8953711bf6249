package orchestrator

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/newsharvest/internal/config"
)

// ParseSource parses a "URL=N" argument. Without a numeric suffix the whole
// argument is the URL and the count is 1.
func ParseSource(arg string) (Source, error) {
	src := Source{URL: strings.TrimSpace(arg), Count: 1}
	if i := strings.LastIndex(arg, "="); i > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(arg[i+1:])); err == nil {
			src = Source{URL: strings.TrimSpace(arg[:i]), Count: n}
		}
	}
	return src, src.validate()
}

// LoadSources reads a YAML or JSON list of {url, count} entries.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	var sources []Source
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("decode sources %s: %w", path, err)
	}
	for i := range sources {
		sources[i].URL = strings.TrimSpace(sources[i].URL)
		if err := sources[i].validate(); err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", path, i+1, err)
		}
	}
	return sources, nil
}

func (s Source) validate() error {
	if err := config.ValidateURL(s.URL); err != nil {
		return fmt.Errorf("source url %q: %w", s.URL, err)
	}
	if s.Count < 1 {
		return fmt.Errorf("source %s: count must be >= 1, got %d", s.URL, s.Count)
	}
	return nil
}
