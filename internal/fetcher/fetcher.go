// Package fetcher retrieves homepages and article pages, either over plain
// HTTP or through a headless browser.
package fetcher

import (
	"context"

	"github.com/IshaanNene/newsharvest/internal/types"
)

// Fetcher retrieves a page. Non-2xx statuses are returned as responses;
// errors are reserved for pages that never arrived.
type Fetcher interface {
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)
	Close() error
}
