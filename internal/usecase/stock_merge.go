package usecase

import "github.com/catalogrecon/backend/internal/domain"

// DefaultLowStockThreshold is the quantity at or below which stock counts as low
const DefaultLowStockThreshold = 5

// StockMerge is the outcome of reconciling both feeds for one SKU.
// SharedQuantity answers "can a customer buy this"; FulfillmentHint and
// PreferredFulfiller answer "who should ship it".
type StockMerge struct {
	SharedQuantity     *int
	Status             domain.StockStatus
	FulfillmentHint    *int
	PreferredFulfiller domain.Source
}

// MergeStock combines the native catalog's and the distributor's view of a SKU.
// When the distributor reports a quantity it is authoritative for the shared
// stock, and the same count is kept as the fulfillment hint. Either side may be nil.
func MergeStock(native, distributor *domain.StockLevel, lowStockThreshold int) StockMerge {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}

	var nativeQty, distQty *int
	var nativeStatus domain.StockStatus
	if native != nil {
		nativeQty = native.Quantity
		nativeStatus = native.Status
	}
	if distributor != nil {
		distQty = distributor.Quantity
	}

	merge := StockMerge{PreferredFulfiller: domain.SourceNative}

	switch {
	case distQty != nil:
		merge.SharedQuantity = copyInt(distQty)
		merge.FulfillmentHint = copyInt(distQty)
		if nativeQty == nil || *distQty > *nativeQty {
			merge.PreferredFulfiller = domain.SourceDistributor
		}
	case nativeQty != nil:
		merge.SharedQuantity = copyInt(nativeQty)
	}

	merge.Status = statusFor(merge.SharedQuantity, nativeStatus, lowStockThreshold)
	return merge
}

func statusFor(qty *int, nativeStatus domain.StockStatus, lowStockThreshold int) domain.StockStatus {
	if qty == nil {
		// no count from either feed: trust the native bookkeeping flag
		if nativeStatus == "" {
			return domain.StockOutOfStock
		}
		return nativeStatus
	}
	switch {
	case *qty <= 0:
		if nativeStatus == domain.StockOnBackorder {
			return domain.StockOnBackorder
		}
		return domain.StockOutOfStock
	case *qty <= lowStockThreshold:
		return domain.StockLow
	default:
		return domain.StockInStock
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
