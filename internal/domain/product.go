package domain

// StockStatus is the normalized availability of a product
type StockStatus string

const (
	StockInStock     StockStatus = "IN_STOCK"
	StockLow         StockStatus = "LOW_STOCK"
	StockOutOfStock  StockStatus = "OUT_OF_STOCK"
	StockOnBackorder StockStatus = "ON_BACKORDER"
)

// IsAvailable reports whether the status counts as "in stock" for ordering.
// Only OUT_OF_STOCK is demoted; low stock and backorder remain purchasable.
func (s StockStatus) IsAvailable() bool {
	return s != StockOutOfStock
}

// ProductType mirrors the WooCommerce product type
type ProductType string

const (
	ProductSimple   ProductType = "SIMPLE"
	ProductVariable ProductType = "VARIABLE"
	ProductGrouped  ProductType = "GROUPED"
	ProductExternal ProductType = "EXTERNAL"
)

// Source identifies which upstream feed produced a record
type Source string

const (
	// SourceNative is the WordPress/WooCommerce catalog on its own
	SourceNative Source = "wordpress"
	// SourceCombined is a native record confirmed against the wholesale feed
	SourceCombined Source = "wordpress+wt"
	// SourceWholesalePrefix is a native record recognized only by its wholesale SKU prefix
	SourceWholesalePrefix Source = "wt-prefix"
	// SourceDistributor is a record that exists only in the distributor feed
	SourceDistributor Source = "williams-trading"
)

// ProductAttribute is a named attribute with its option values (e.g. "Size" -> S, M, L)
type ProductAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// TermRef is a lightweight reference to a taxonomy term (brand, material)
type TermRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// ImageRef points at a product image
type ImageRef struct {
	SourceURL string `json:"sourceUrl"`
	AltText   string `json:"altText,omitempty"`
}

// UnifiedProduct is the canonical product shape all reconciliation logic operates on.
// ID is unique within a single Source only; cross-source identity goes through SKU.
type UnifiedProduct struct {
	ID              string             `json:"id"`
	DatabaseID      int                `json:"databaseId"`
	Name            string             `json:"name"`
	Slug            string             `json:"slug"`
	SKU             string             `json:"sku"`
	Price           string             `json:"price,omitempty"`
	RegularPrice    string             `json:"regularPrice,omitempty"`
	SalePrice       string             `json:"salePrice,omitempty"`
	StockStatus     StockStatus        `json:"stockStatus"`
	StockQuantity   *int               `json:"stockQuantity,omitempty"`
	Type            ProductType        `json:"type"`
	Source          Source             `json:"source,omitempty"`
	Attributes      []ProductAttribute `json:"attributes,omitempty"`
	Brands          []TermRef          `json:"brands,omitempty"`
	Materials       []TermRef          `json:"materials,omitempty"`
	Image           *ImageRef          `json:"image,omitempty"`
	PopularityScore int                `json:"popularityScore"`

	// DistributorStock is the side-channel copy of the distributor count,
	// used only for fulfillment routing.
	DistributorStock *int `json:"distributorStock,omitempty"`
}

// PrimaryBrand returns the first brand name, or "" when none is attached
func (p *UnifiedProduct) PrimaryBrand() string {
	if len(p.Brands) == 0 {
		return ""
	}
	return p.Brands[0].Name
}

// SlugSummary is the lightweight projection held by the slug index
type SlugSummary struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// SlugMatch is a scored candidate for an unresolved slug
type SlugMatch struct {
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Image string  `json:"image,omitempty"`
	Score float64 `json:"score"`
}

// VariationAttribute is one inferred attribute axis of a variation group
type VariationAttribute struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// VariationGroup is an inferred cluster of simple products that are variants of
// one logical product. Members are a read-only view; the group never mutates them.
type VariationGroup struct {
	BaseName       string               `json:"baseName"`
	BaseSKUPattern string               `json:"baseSkuPattern"`
	Products       []UnifiedProduct     `json:"products"`
	Attributes     []VariationAttribute `json:"attributes"`
}

// ProductCount returns the number of members in the group
func (g *VariationGroup) ProductCount() int {
	return len(g.Products)
}
