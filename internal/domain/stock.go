package domain

import "time"

// StockLevel is one feed's view of a SKU's stock
type StockLevel struct {
	Quantity *int
	Status   StockStatus
}

// DistributorItem is a single row of the wholesale distributor feed
type DistributorItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity *int   `json:"quantity"`
	Price    string `json:"price,omitempty"`
}

// StockRecord is the persisted, merged stock for a SKU in the local stock cache
type StockRecord struct {
	SKU                 string      `gorm:"primaryKey;size:100" json:"sku"`
	NativeQuantity      *int        `json:"nativeQuantity,omitempty"`
	DistributorQuantity *int        `json:"distributorQuantity,omitempty"`
	SharedQuantity      *int        `json:"sharedQuantity,omitempty"`
	StockStatus         StockStatus `gorm:"size:20;index" json:"stockStatus"`
	FulfillmentHint     *int        `json:"fulfillmentHint,omitempty"`
	PreferredFulfiller  Source      `gorm:"size:40" json:"preferredFulfiller"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}
