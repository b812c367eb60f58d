package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/catalogrecon/backend/internal/domain"
)

// Stock sync defaults
const (
	DefaultDistributorPageSize = 100
	DefaultDistributorMaxPages = 200
)

// StockSyncConfig holds configuration for the stock sync service
type StockSyncConfig struct {
	PageSize          int
	MaxPages          int
	LowStockThreshold int
}

// SyncReport summarizes one stock sync run
type SyncReport struct {
	RunID      string        `json:"runId"`
	Pages      int           `json:"pages"`
	FeedItems  int           `json:"feedItems"`
	Merged     int           `json:"merged"`
	SharedSKUs int           `json:"sharedSkus"`
	Skipped    int           `json:"skipped"`
	Truncated  bool          `json:"truncated"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
}

// StockSyncService reconciles the native catalog's stock with the distributor
// feed and writes the merged result into the local stock cache.
type StockSyncService struct {
	catalog           *CatalogService
	feed              domain.DistributorFeed
	repo              domain.StockRepository
	pageSize          int
	maxPages          int
	lowStockThreshold int
	logger            *zap.Logger
	now               func() time.Time

	running sync.Mutex
}

// NewStockSyncService creates a new stock sync service with dependencies
func NewStockSyncService(
	catalog *CatalogService,
	feed domain.DistributorFeed,
	repo domain.StockRepository,
	config StockSyncConfig,
	logger *zap.Logger,
) *StockSyncService {
	if config.PageSize <= 0 {
		config.PageSize = DefaultDistributorPageSize
	}
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultDistributorMaxPages
	}
	if config.LowStockThreshold <= 0 {
		config.LowStockThreshold = DefaultLowStockThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StockSyncService{
		catalog:           catalog,
		feed:              feed,
		repo:              repo,
		pageSize:          config.PageSize,
		maxPages:          config.MaxPages,
		lowStockThreshold: config.LowStockThreshold,
		logger:            logger,
		now:               time.Now,
	}
}

// RunOnce performs one full sync. Only one run may be active at a time;
// a concurrent call returns ErrSyncInProgress.
func (s *StockSyncService) RunOnce(ctx context.Context) (*SyncReport, error) {
	if !s.running.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer s.running.Unlock()

	report := &SyncReport{RunID: uuid.NewString(), StartedAt: s.now()}
	log := s.logger.With(zap.String("run_id", report.RunID))

	native, err := s.nativeStock(ctx)
	if err != nil {
		return nil, err
	}

	distributor, err := s.distributorStock(ctx, report)
	if err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(native)+len(distributor))
	seen := make(map[string]bool)
	for sku := range native {
		if !seen[sku] {
			seen[sku] = true
			skus = append(skus, sku)
		}
	}
	for sku := range distributor {
		if !seen[sku] {
			seen[sku] = true
			skus = append(skus, sku)
		}
	}

	existing, err := s.repo.GetBySKUs(ctx, skus)
	if err != nil {
		return nil, fmt.Errorf("loading stock records: %w", err)
	}

	now := s.now()
	records := make([]domain.StockRecord, 0, len(skus))
	for _, sku := range skus {
		nativeLevel, inNative := native[sku]
		distLevel, inDist := distributor[sku]
		if inNative && inDist {
			report.SharedSKUs++
		}

		// a SKU missing from this run's native catalog keeps its last known native count
		if !inNative {
			if prev, ok := existing[sku]; ok && prev.NativeQuantity != nil {
				nativeLevel = &domain.StockLevel{Quantity: prev.NativeQuantity}
			}
		}

		merge := MergeStock(nativeLevel, distLevel, s.lowStockThreshold)
		record := domain.StockRecord{
			SKU:                sku,
			SharedQuantity:     merge.SharedQuantity,
			StockStatus:        merge.Status,
			FulfillmentHint:    merge.FulfillmentHint,
			PreferredFulfiller: merge.PreferredFulfiller,
			UpdatedAt:          now,
		}
		if nativeLevel != nil {
			record.NativeQuantity = copyInt(nativeLevel.Quantity)
		}
		if distLevel != nil {
			record.DistributorQuantity = copyInt(distLevel.Quantity)
		}
		records = append(records, record)
	}

	if len(records) > 0 {
		if err := s.repo.UpsertBatch(ctx, records); err != nil {
			return nil, fmt.Errorf("writing stock records: %w", err)
		}
	}
	report.Merged = len(records)
	report.Duration = s.now().Sub(report.StartedAt)

	log.Info("stock sync finished",
		zap.Int("pages", report.Pages),
		zap.Int("feed_items", report.FeedItems),
		zap.Int("merged", report.Merged),
		zap.Int("shared_skus", report.SharedSKUs),
		zap.Int("skipped", report.Skipped),
		zap.Bool("truncated", report.Truncated),
	)
	return report, nil
}

func (s *StockSyncService) nativeStock(ctx context.Context) (map[string]*domain.StockLevel, error) {
	levels := make(map[string]*domain.StockLevel)
	if s.catalog == nil {
		return levels, nil
	}

	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		sku := normalizeSKU(p.SKU)
		if sku == "" || p.Source == domain.SourceDistributor {
			continue
		}
		levels[sku] = &domain.StockLevel{Quantity: p.StockQuantity, Status: p.StockStatus}
	}
	return levels, nil
}

func (s *StockSyncService) distributorStock(ctx context.Context, report *SyncReport) (map[string]*domain.StockLevel, error) {
	levels := make(map[string]*domain.StockLevel)

	for page := 1; ; page++ {
		if page > s.maxPages {
			report.Truncated = true
			s.logger.Warn("distributor page ceiling reached, keeping partial feed",
				zap.Int("max_pages", s.maxPages),
				zap.Int("items", report.FeedItems),
			)
			break
		}

		result, err := s.feed.ListStock(ctx, page, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: distributor page %d: %v", domain.ErrUpstreamFailure, page, err)
		}
		report.Pages++

		for _, item := range result.Items {
			sku := normalizeSKU(item.SKU)
			if sku == "" || item.Quantity == nil {
				report.Skipped++
				continue
			}
			report.FeedItems++
			levels[sku] = &domain.StockLevel{Quantity: copyInt(item.Quantity)}
		}

		if len(result.Items) == 0 || result.LastPage == 0 || page >= result.LastPage {
			break
		}
	}
	return levels, nil
}

func normalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// RunLoop runs a sync immediately and then every interval until ctx is done.
// Failed runs are logged and retried on the next tick.
func (s *StockSyncService) RunLoop(ctx context.Context, interval time.Duration) {
	s.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *StockSyncService) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			s.logger.Debug("scheduled stock sync skipped, run already active")
			return
		}
		s.logger.Error("scheduled stock sync failed", zap.Error(err))
	}
}
