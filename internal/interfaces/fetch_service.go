package interfaces

import (
	"context"

	"github.com/smartduke/metaseek/internal/models"
)

// FetchService retrieves a web page and extracts its text as one or more
// documents. Implementations handle HTML extraction; a JavaScript-rendering
// variant exists for pages that build their content client-side.
type FetchService interface {
	// Fetch downloads url and returns the extracted documents. Multiple
	// documents mean the page was split into fragments. An empty slice
	// with nil error means the page had no extractable text.
	Fetch(ctx context.Context, url string) ([]models.Document, error)
}
