// Package cache stores fetched pages so repeated link lookups skip the
// network.
package cache

import (
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// Service implements PageCacheService on a badgerhold store with a
// cron-driven prune job.
type Service struct {
	config *common.CacheConfig
	logger arbor.ILogger
	store  *badgerhold.Store
	cron   *cron.Cron
}

// NewService opens the store at the configured path and schedules pruning.
func NewService(config *common.CacheConfig, logger arbor.ILogger) (*Service, error) {
	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open page cache database: %w", err)
	}

	s := &Service{
		config: config,
		logger: logger,
		store:  store,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := config.PruneSchedule
	if schedule == "" {
		schedule = "0 0 * * * *"
	}
	if _, err := s.cron.AddFunc(schedule, s.pruneJob); err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	s.cron.Start()

	logger.Debug().
		Str("path", config.Path).
		Dur("freshness", config.Freshness.Std()).
		Str("prune_schedule", schedule).
		Msg("Page cache initialized")

	return s, nil
}

// Get returns the cached page for url when a fresh entry exists. Stale
// entries are reported as misses and left for the prune job.
func (s *Service) Get(url string) (*models.CachedPage, bool) {
	var page models.CachedPage
	if err := s.store.Get(url, &page); err != nil {
		if err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("url", url).Msg("Page cache read failed")
		}
		return nil, false
	}

	if time.Since(page.FetchedAt) > s.freshness() {
		return nil, false
	}
	return &page, true
}

// Put stores the extracted documents for url, stamping the fetch time.
func (s *Service) Put(url string, docs []models.Document) error {
	page := models.CachedPage{
		URL:       url,
		Documents: docs,
		FetchedAt: time.Now().UTC(),
	}
	if err := s.store.Upsert(url, page); err != nil {
		return fmt.Errorf("failed to cache page %s: %w", url, err)
	}
	return nil
}

// Prune removes entries older than the freshness window.
func (s *Service) Prune() (int, error) {
	cutoff := time.Now().UTC().Add(-s.freshness())
	query := badgerhold.Where("FetchedAt").Lt(cutoff)

	count, err := s.store.Count(&models.CachedPage{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count stale cache entries: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := s.store.DeleteMatching(&models.CachedPage{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete stale cache entries: %w", err)
	}
	return int(count), nil
}

// Close stops the prune schedule and releases the store.
func (s *Service) Close() error {
	s.cron.Stop()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Service) pruneJob() {
	removed, err := s.Prune()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Page cache prune failed")
		return
	}
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Pruned stale page cache entries")
	}

	// Reclaim value log space freed by the deletes. ErrNoRewrite just means
	// nothing was worth compacting.
	if err := s.store.Badger().RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
		s.logger.Warn().Err(err).Msg("Page cache value log GC failed")
	}
}

func (s *Service) freshness() time.Duration {
	if d := s.config.Freshness.Std(); d > 0 {
		return d
	}
	return time.Hour
}

var _ interfaces.PageCacheService = (*Service)(nil)
