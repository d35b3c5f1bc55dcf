package usecase

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"NewsCourier/internal/ports"
)

// fallbackCategories keeps dependents bootable when neither a scrape nor a
// persisted snapshot is available.
var fallbackCategories = map[string]string{
	"aall": "即時",
	"ait":  "科技",
}

// CategoryRegistry serves the category key→name mapping. Snapshots are cached
// in memory and persisted through the category repository so they survive
// restarts.
type CategoryRegistry struct {
	menu   ports.MenuScraper
	repo   ports.CategoryRepository
	logger *slog.Logger

	mu     sync.Mutex
	cached map[string]string
}

// NewCategoryRegistry wires the menu scraper and snapshot store.
func NewCategoryRegistry(menu ports.MenuScraper, repo ports.CategoryRepository, logger *slog.Logger) *CategoryRegistry {
	return &CategoryRegistry{menu: menu, repo: repo, logger: logger}
}

// GetMapping returns the category mapping. The cached snapshot is served
// unless forceRefresh; a failed refresh degrades to the last good snapshot,
// then to the built-in fallback. Callers treat the map as read-only.
func (r *CategoryRegistry) GetMapping(ctx context.Context, forceRefresh bool) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && !forceRefresh {
		return r.cached
	}

	if !forceRefresh {
		if snapshot := r.loadSnapshot(ctx); len(snapshot) > 0 {
			r.cached = snapshot
			return r.cached
		}
	}

	categories, err := r.menu.ScrapeCategories(ctx)
	if err != nil {
		r.logger.Error("category scrape failed", "error", err)
		return r.lastGood(ctx)
	}

	mapping := make(map[string]string, len(categories))
	for _, category := range categories {
		mapping[category.Key] = category.Name
	}

	if err := r.repo.Replace(ctx, categories); err != nil {
		// The fresh mapping is still usable; only persistence failed.
		r.logger.Error("category snapshot persist failed", "error", err)
	}

	r.logger.Info("category mapping refreshed", "count", len(mapping))
	r.cached = mapping
	return r.cached
}

// lastGood falls back: in-memory snapshot, then persisted one, then built-in.
func (r *CategoryRegistry) lastGood(ctx context.Context) map[string]string {
	if r.cached != nil {
		return r.cached
	}
	if snapshot := r.loadSnapshot(ctx); len(snapshot) > 0 {
		r.cached = snapshot
		return r.cached
	}

	r.logger.Warn("serving built-in fallback categories")
	r.cached = maps.Clone(fallbackCategories)
	return r.cached
}

func (r *CategoryRegistry) loadSnapshot(ctx context.Context) map[string]string {
	categories, err := r.repo.List(ctx)
	if err != nil {
		r.logger.Error("category snapshot load failed", "error", err)
		return nil
	}
	if len(categories) == 0 {
		return nil
	}

	mapping := make(map[string]string, len(categories))
	for _, category := range categories {
		mapping[category.Key] = category.Name
	}
	return mapping
}
