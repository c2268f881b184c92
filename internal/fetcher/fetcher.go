// Package fetcher downloads provider pages with retry, backoff, identity
// rotation, and typed failures. A chromedp-backed renderer handles pages
// that only reveal content after interaction.
package fetcher

import (
	"context"

	"github.com/sells-group/propscan/internal/model"
)

// Fetcher retrieves the default view of a source.
type Fetcher interface {
	Fetch(ctx context.Context, src model.Source) (*model.RawDocument, error)
}

// Renderer retrieves a source view in a headless browser, optionally
// executing one interaction pass (e.g. clicking a pricing tab) first.
type Renderer interface {
	Render(ctx context.Context, src model.Source, pass model.Pass) (*model.RawDocument, error)
}
