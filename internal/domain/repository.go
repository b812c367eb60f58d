package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are JSON-encoded by every backend so memory and redis behave the same.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SlugPage is one page of slug summaries from the catalog
type SlugPage struct {
	Slugs       []SlugSummary
	HasNextPage bool
	EndCursor   string
	Skipped     int
}

// ProductPage is one page of unified products from the catalog
type ProductPage struct {
	Products    []UnifiedProduct
	HasNextPage bool
	EndCursor   string
	Skipped     int
}

// DistributorPage is one page of the wholesale distributor feed
type DistributorPage struct {
	Items    []DistributorItem
	Page     int
	LastPage int
}

// SlugSource supplies paged slug summaries
type SlugSource interface {
	ListSlugs(ctx context.Context, after string, first int) (*SlugPage, error)
}

// CatalogSource supplies paged unified products
type CatalogSource interface {
	ListProducts(ctx context.Context, after string, first int) (*ProductPage, error)
}

// DistributorFeed supplies the distributor's stock feed by page number (1-based)
type DistributorFeed interface {
	ListStock(ctx context.Context, page, perPage int) (*DistributorPage, error)
}

// StockRepository persists merged stock records
type StockRepository interface {
	GetBySKUs(ctx context.Context, skus []string) (map[string]*StockRecord, error)
	UpsertBatch(ctx context.Context, records []StockRecord) error
}
