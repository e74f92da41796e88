// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"github.com/smartduke/metaseek/internal/models"
)

// PageCacheService stores fetched pages so repeated link lookups skip the
// network. Entries expire on a freshness window; a background job prunes
// stale rows.
type PageCacheService interface {
	// Get returns the cached page for url and true when a fresh entry
	// exists.
	Get(url string) (*models.CachedPage, bool)

	// Put stores the extracted documents for url, stamping the fetch time.
	Put(url string, docs []models.Document) error

	// Prune removes entries older than the freshness window and returns
	// the number removed.
	Prune() (int, error)

	// Close releases the underlying store.
	Close() error
}
