package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG CACHE
// ══════════════════════════════════════════════════════════════════════════════

// catalogSnapshot is the cached form of a curriculum.Catalog.
type catalogSnapshot struct {
	CareerID   string              `json:"career_id"`
	CareerName string              `json:"career_name"`
	Courses    []curriculum.Course `json:"courses"`
	CachedAt   time.Time           `json:"cached_at"`
}

func snapshotOf(c *curriculum.Catalog) catalogSnapshot {
	return catalogSnapshot{
		CareerID:   c.CareerID,
		CareerName: c.CareerName,
		Courses:    c.Courses(),
		CachedAt:   time.Now().UTC(),
	}
}

func (s catalogSnapshot) catalog() *curriculum.Catalog {
	return curriculum.NewCatalog(s.CareerID, s.CareerName, s.Courses)
}

// CatalogCache implements curriculum.CatalogCache on Redis.
type CatalogCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewCatalogCache creates a catalog cache. A non-positive ttl uses TTLCatalogSnapshot.
func NewCatalogCache(cache *Cache, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = TTLCatalogSnapshot
	}
	return &CatalogCache{cache: cache, ttl: ttl}
}

// Get returns a cached snapshot or ErrCacheMiss.
func (c *CatalogCache) Get(ctx context.Context, careerID string) (*curriculum.Catalog, error) {
	var snap catalogSnapshot
	if err := c.cache.Get(ctx, CatalogKey(careerID), &snap); err != nil {
		return nil, err
	}
	return snap.catalog(), nil
}

// Set stores a snapshot under its career id.
func (c *CatalogCache) Set(ctx context.Context, catalog *curriculum.Catalog) error {
	if catalog == nil {
		return ErrCacheNilValue
	}
	return c.cache.Set(ctx, CatalogKey(catalog.CareerID), snapshotOf(catalog), c.ttl)
}

// Invalidate drops the snapshot of a career.
func (c *CatalogCache) Invalidate(ctx context.Context, careerID string) error {
	return c.cache.Delete(ctx, CatalogKey(careerID))
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHED REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// CachedRepository serves GetCatalog from a catalog cache and delegates
// everything else to the underlying repository. Cache failures degrade to
// a direct read. With a breaker, cache calls are skipped while it is open.
type CachedRepository struct {
	curriculum.Repository
	cache   curriculum.CatalogCache
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// CachedOption configures a CachedRepository.
type CachedOption func(*CachedRepository)

// WithBreaker guards cache calls with cb.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) CachedOption {
	return func(r *CachedRepository) {
		r.breaker = cb
	}
}

// NewCachedRepository wraps repo with cache.
func NewCachedRepository(repo curriculum.Repository, cache curriculum.CatalogCache, logger *slog.Logger, opts ...CachedOption) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &CachedRepository{Repository: repo, cache: cache, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsCacheFailure reports whether err means the cache itself is unhealthy.
// Misses and argument errors do not count.
func IsCacheFailure(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrCacheMiss), errors.Is(err, ErrCacheKeyEmpty),
		errors.Is(err, ErrCacheNilValue), errors.Is(err, ErrCacheInvalidTTL):
		return false
	case errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

func (r *CachedRepository) guard(ctx context.Context, fn func(context.Context) error) error {
	if r.breaker == nil {
		return fn(ctx)
	}
	return r.breaker.Execute(ctx, fn)
}

// GetCatalog reads through the cache.
func (r *CachedRepository) GetCatalog(ctx context.Context, careerID string) (*curriculum.Catalog, error) {
	var cached *curriculum.Catalog
	err := r.guard(ctx, func(ctx context.Context) error {
		var getErr error
		cached, getErr = r.cache.Get(ctx, careerID)
		return getErr
	})
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) && !circuitbreaker.IsRejected(err) {
		r.logger.Warn("catalog cache read failed", "career_id", careerID, "error", err)
	}

	catalog, err := r.Repository.GetCatalog(ctx, careerID)
	if err != nil {
		return nil, err
	}

	err = r.guard(ctx, func(ctx context.Context) error {
		return r.cache.Set(ctx, catalog)
	})
	if err != nil && !circuitbreaker.IsRejected(err) {
		r.logger.Warn("catalog cache write failed", "career_id", careerID, "error", err)
	}
	return catalog, nil
}

// ImportCareer writes through to storage and drops the cached snapshot.
// Invalidation bypasses the breaker so a recovering cache never keeps a stale catalog.
func (r *CachedRepository) ImportCareer(ctx context.Context, data curriculum.CareerImport) (string, error) {
	careerID, err := r.Repository.ImportCareer(ctx, data)
	if err != nil {
		return "", err
	}
	if err := r.cache.Invalidate(ctx, careerID); err != nil {
		r.logger.Warn("catalog cache invalidation failed", "career_id", careerID, "error", err)
	}
	return careerID, nil
}
