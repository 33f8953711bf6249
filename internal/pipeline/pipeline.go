// Package pipeline assigns every article a terminal processing status by
// running it through scoring, gating and annotation stages.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/newsharvest/internal/types"
)

// Middleware is one processing stage.
type Middleware interface {
	// Name returns the stage identifier.
	Name() string

	// Process works on the article in place. Return nil to stop the chain
	// once a terminal status has been set.
	Process(ctx context.Context, a *types.Article) (*types.Article, error)
}

// Pipeline chains stages together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates an empty Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use appends a stage to the chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through each stage in order. A stage error or
// panic is returned as a *types.PipelineError naming the stage.
func (p *Pipeline) Process(ctx context.Context, a *types.Article) (out *types.Article, err error) {
	current := a
	stage := ""

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &types.PipelineError{Stage: stage, Article: a, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	for _, mw := range p.middlewares {
		stage = mw.Name()
		result, err := mw.Process(ctx, current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:   stage,
				Article: current,
				Err:     err,
			}
		}
		if result == nil {
			p.logger.Debug("chain stopped", "stage", stage, "url", a.ArticleURL, "status", a.ProcessingStatus)
			return a, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of stages in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
