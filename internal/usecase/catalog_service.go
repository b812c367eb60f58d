package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/catalogrecon/backend/internal/domain"
)

// Catalog snapshot defaults
const (
	DefaultCatalogTTL      = 5 * time.Minute
	DefaultCatalogPageSize = 100
	DefaultCatalogMaxPages = 100
)

const catalogCacheKey = "catalog:snapshot"

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL           time.Duration
	PageSize           int
	MaxPages           int
	MinSKUPrefixLength int
}

// CatalogService loads the full catalog snapshot and runs the batch
// reconciliation operations (priority ordering, variation detection) over it.
type CatalogService struct {
	cache    domain.CacheRepository
	source   domain.CatalogSource
	detector *VariationDetector
	cacheTTL time.Duration
	pageSize int
	maxPages int
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	cache domain.CacheRepository,
	source domain.CatalogSource,
	config CatalogServiceConfig,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCatalogTTL
	}
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = DefaultCatalogPageSize
	}
	maxPages := config.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultCatalogMaxPages
	}

	return &CatalogService{
		cache:    cache,
		source:   source,
		detector: NewVariationDetector(VariationConfig{MinSKUPrefixLength: config.MinSKUPrefixLength}, logger),
		cacheTTL: cacheTTL,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Products returns the full catalog snapshot.
// Flow: check cache -> page through upstream -> cache -> return
func (s *CatalogService) Products(ctx context.Context) ([]domain.UnifiedProduct, error) {
	var cached []domain.UnifiedProduct
	if s.cache != nil {
		if err := s.cache.Get(ctx, catalogCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	products, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, catalogCacheKey, products, s.cacheTTL); err != nil {
			// Log but don't fail if caching fails
			s.logger.Warn("failed to cache catalog snapshot", zap.Error(err))
		}
	}
	return products, nil
}

// PrioritizedProducts returns the catalog in display order, truncated to limit
// when limit is positive.
func (s *CatalogService) PrioritizedProducts(ctx context.Context, limit int) ([]domain.UnifiedProduct, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	sorted := SortProductsByPriority(products)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// DetectVariations runs variation detection over the full catalog snapshot
func (s *CatalogService) DetectVariations(ctx context.Context) (*DetectionResult, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	result := s.detector.Detect(products)
	s.logger.Info("variation detection run",
		zap.Int("products", len(products)),
		zap.Int("candidates", result.Candidates),
		zap.Int("skipped", result.Skipped),
		zap.Int("groups", len(result.Groups)),
	)
	return result, nil
}

// Invalidate drops the cached catalog snapshot
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, catalogCacheKey)
}

func (s *CatalogService) loadAll(ctx context.Context) ([]domain.UnifiedProduct, error) {
	var products []domain.UnifiedProduct
	cursor := ""
	skipped := 0

	for page := 0; ; page++ {
		if page >= s.maxPages {
			s.logger.Warn("catalog page ceiling reached, returning partial catalog",
				zap.Int("max_pages", s.maxPages),
				zap.Int("products", len(products)),
			)
			break
		}

		result, err := s.source.ListProducts(ctx, cursor, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: catalog page %d: %v", domain.ErrUpstreamFailure, page+1, err)
		}
		products = append(products, result.Products...)
		skipped += result.Skipped

		if !result.HasNextPage || result.EndCursor == "" {
			break
		}
		cursor = result.EndCursor
	}

	if skipped > 0 {
		s.logger.Info("catalog load skipped malformed records", zap.Int("skipped", skipped))
	}
	if products == nil {
		products = []domain.UnifiedProduct{}
	}
	return products, nil
}
