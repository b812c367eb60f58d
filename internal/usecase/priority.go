package usecase

import (
	"sort"

	"github.com/catalogrecon/backend/internal/domain"
)

// Source tiers used as the last sort key; lower ranks first
const (
	tierPreferred   = 0
	tierDefault     = 1
	tierDistributor = 2
)

// SourceTier ranks a feed by fulfillment reliability. Native and
// wholesale-confirmed records come first, distributor-only records last;
// anything unrecognized sits in the middle with wholesale-prefix records.
func SourceTier(s domain.Source) int {
	switch s {
	case domain.SourceCombined, domain.SourceNative:
		return tierPreferred
	case domain.SourceWholesalePrefix:
		return tierDefault
	case domain.SourceDistributor:
		return tierDistributor
	default:
		return tierDefault
	}
}

// SortProductsByPriority returns a new slice ordered for display: available
// products before OUT_OF_STOCK ones, then by popularity (highest first), then by
// source tier. Remaining ties keep input order. The input is not modified.
func SortProductsByPriority(products []domain.UnifiedProduct) []domain.UnifiedProduct {
	sorted := make([]domain.UnifiedProduct, len(products))
	copy(sorted, products)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]

		aAvail, bAvail := a.StockStatus.IsAvailable(), b.StockStatus.IsAvailable()
		if aAvail != bAvail {
			return aAvail
		}

		if a.PopularityScore != b.PopularityScore {
			return a.PopularityScore > b.PopularityScore
		}

		return SourceTier(a.Source) < SourceTier(b.Source)
	})

	return sorted
}
