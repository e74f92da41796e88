package interfaces

import (
	"context"

	"github.com/smartduke/metaseek/internal/models"
)

// SearchService queries the external web search backend. Implementations
// translate provider responses into normalized results; they do not rank.
type SearchService interface {
	// Search runs the query against the backend and returns raw hits in
	// backend order. opts may be nil for backend defaults. A failed call
	// returns an error; the caller decides whether that is fatal.
	Search(ctx context.Context, query string, opts *models.SearchOptions) ([]models.SearchResult, error)
}
