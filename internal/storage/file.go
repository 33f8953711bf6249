package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/IshaanNene/newsharvest/internal/types"
)

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// newEncoder returns an encoder that keeps non-ASCII and markup characters verbatim.
func newEncoder(f *os.File) *json.Encoder {
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return enc
}

// --- JSON Storage ---

// JSONStorage buffers articles and writes them as one indented JSON array on Close.
type JSONStorage struct {
	path     string
	articles []*types.Article
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewJSONStorage creates a JSON array sink at path.
func NewJSONStorage(path string, logger *slog.Logger) (*JSONStorage, error) {
	if err := ensureDir(path); err != nil {
		return nil, &types.StorageError{Backend: "json", Err: fmt.Errorf("create output dir: %w", err)}
	}
	return &JSONStorage{
		path:     path,
		articles: make([]*types.Article, 0),
		logger:   logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(articles []*types.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = append(s.articles, articles...)
	s.logger.Debug("articles buffered", "count", len(articles), "total", len(s.articles))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("create output file: %w", err)}
	}
	defer f.Close()

	enc := newEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.articles); err != nil {
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("encode JSON: %w", err)}
	}

	s.logger.Info("JSON written", "path", s.path, "articles", len(s.articles))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage streams one article object per line.
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a newline-delimited JSON sink at path.
func NewJSONLStorage(path string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := ensureDir(path); err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("create output dir: %w", err)}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("create output file: %w", err)}
	}
	return &JSONLStorage{
		path:   path,
		file:   f,
		enc:    newEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(articles []*types.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range articles {
		if err := s.enc.Encode(a); err != nil {
			return &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("encode JSONL: %w", err)}
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "articles", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// --- CSV Storage ---

// csvHeaders is the fixed column order of CSV output.
var csvHeaders = []string{
	"date", "headline", "article_url", "source_url", "backend",
	"content_hash", "quality_score", "quality_factors", "content_length",
	"sentence_count", "tech_keyword_count",
	"sentiment", "summary", "relevant", "processing_status",
}

func csvRow(a *types.Article) []string {
	return []string{
		a.Date, a.Headline, a.ArticleURL, a.SourceURL, a.Backend,
		a.ContentHash,
		strconv.Itoa(a.QualityScore),
		strings.Join(a.QualityFactors, ";"),
		strconv.Itoa(a.ContentLength),
		strconv.Itoa(a.SentenceCount),
		strconv.Itoa(a.TechKeywordCount),
		a.Sentiment, a.Summary, a.Relevant, string(a.ProcessingStatus),
	}
}

// CSVStorage writes one row per article. Article bodies are not exported.
type CSVStorage struct {
	path          string
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
	mu            sync.Mutex
	count         int
	logger        *slog.Logger
}

// NewCSVStorage creates a CSV sink at path.
func NewCSVStorage(path string, logger *slog.Logger) (*CSVStorage, error) {
	if err := ensureDir(path); err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output dir: %w", err)}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output file: %w", err)}
	}
	return &CSVStorage{
		path:   path,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(articles []*types.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.headerWritten {
		if err := s.writer.Write(csvHeaders); err != nil {
			return &types.StorageError{Backend: "csv", Err: fmt.Errorf("write CSV header: %w", err)}
		}
		s.headerWritten = true
	}

	for _, a := range articles {
		if err := s.writer.Write(csvRow(a)); err != nil {
			return &types.StorageError{Backend: "csv", Err: fmt.Errorf("write CSV row: %w", err)}
		}
		s.count++
	}

	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVStorage) Close() error {
	s.logger.Info("CSV written", "path", s.path, "articles", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
