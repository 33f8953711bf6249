package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/newsharvest/internal/types"
)

// Storage is the interface for all article sinks.
type Storage interface {
	// Store persists a batch of articles.
	Store(articles []*types.Article) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the sink identifier.
	Name() string
}

// NewFileStorage creates a file sink for the given format.
func NewFileStorage(format, path string, logger *slog.Logger) (Storage, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return NewJSONStorage(path, logger)
	case "jsonl":
		return NewJSONLStorage(path, logger)
	case "csv":
		return NewCSVStorage(path, logger)
	default:
		return nil, fmt.Errorf("unsupported storage format: %q", format)
	}
}

// --- Multi Storage ---

// MultiStorage writes to several sinks at once.
type MultiStorage struct {
	sinks  []Storage
	logger *slog.Logger
}

// NewMultiStorage fans out to every given sink.
func NewMultiStorage(logger *slog.Logger, sinks ...Storage) *MultiStorage {
	return &MultiStorage{
		sinks:  sinks,
		logger: logger.With("component", "multi_storage"),
	}
}

func (m *MultiStorage) Name() string { return "multi" }

// Store hands the batch to every sink and returns the first error.
// A failing sink does not stop the others.
func (m *MultiStorage) Store(articles []*types.Article) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Store(articles); err != nil {
			m.logger.Error("sink store failed", "sink", s.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *MultiStorage) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			m.logger.Error("sink close failed", "sink", s.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
