package wordpress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogrecon/backend/internal/domain"
)

func intPtr(v int) *int {
	return &v
}

func fullNode() ProductNode {
	node := ProductNode{
		ID:            "cHJvZHVjdDoxMjM=",
		DatabaseID:    123,
		Name:          " Widget - Small ",
		Slug:          "widget-small",
		Type:          "SIMPLE",
		SKU:           "WID-S",
		Price:         "$1,299.5",
		RegularPrice:  "1299.50",
		SalePrice:     "",
		StockStatus:   "IN_STOCK",
		StockQuantity: intPtr(4),
		Image:         &ImageNode{SourceURL: "https://cdn.example.com/w.jpg", AltText: "Widget"},
		MetaData: []MetaNode{
			{Key: MetaPopularityScore, Value: "42"},
			{Key: MetaDistributorStock, Value: "12"},
		},
	}
	node.Attributes = &struct {
		Nodes []AttributeNode `json:"nodes"`
	}{Nodes: []AttributeNode{{Name: "pa_size", Options: []string{"Small"}}, {Name: "", Options: []string{"x"}}}}
	node.Brands = &struct {
		Nodes []TermNode `json:"nodes"`
	}{Nodes: []TermNode{{ID: "b1", Name: "Acme", Slug: "acme"}, {Name: " "}}}
	return node
}

func TestMapProduct(t *testing.T) {
	product, err := MapProduct(fullNode())

	require.NoError(t, err)
	assert.Equal(t, "cHJvZHVjdDoxMjM=", product.ID)
	assert.Equal(t, 123, product.DatabaseID)
	assert.Equal(t, "Widget - Small", product.Name)
	assert.Equal(t, "WID-S", product.SKU)
	assert.Equal(t, "1299.50", product.Price)
	assert.Equal(t, "1299.50", product.RegularPrice)
	assert.Equal(t, "", product.SalePrice)
	assert.Equal(t, domain.StockInStock, product.StockStatus)
	assert.Equal(t, intPtr(4), product.StockQuantity)
	assert.Equal(t, domain.ProductSimple, product.Type)
	assert.Equal(t, 42, product.PopularityScore)
	assert.Equal(t, intPtr(12), product.DistributorStock)
	assert.Equal(t, domain.SourceCombined, product.Source)
	require.Len(t, product.Attributes, 1)
	assert.Equal(t, "pa_size", product.Attributes[0].Name)
	require.Len(t, product.Brands, 1)
	assert.Equal(t, "Acme", product.PrimaryBrand())
	require.NotNil(t, product.Image)
	assert.Equal(t, "https://cdn.example.com/w.jpg", product.Image.SourceURL)
}

func TestMapProduct_Malformed(t *testing.T) {
	tests := []struct {
		name string
		edit func(n *ProductNode)
	}{
		{"missing id", func(n *ProductNode) { n.ID = "" }},
		{"missing name", func(n *ProductNode) { n.Name = "  " }},
		{"missing slug", func(n *ProductNode) { n.Slug = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := fullNode()
			tt.edit(&node)
			_, err := MapProduct(node)
			assert.ErrorIs(t, err, domain.ErrMalformedRecord)
		})
	}
}

func TestMapProduct_MinimalNode(t *testing.T) {
	product, err := MapProduct(ProductNode{ID: "1", Name: "Bare", Slug: "bare"})

	require.NoError(t, err)
	assert.Equal(t, domain.ProductSimple, product.Type)
	assert.Equal(t, domain.StockInStock, product.StockStatus)
	assert.Equal(t, domain.SourceNative, product.Source)
	assert.Equal(t, 0, product.PopularityScore)
	assert.Nil(t, product.Image)
	assert.Nil(t, product.DistributorStock)
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"12", "12.00"},
		{"12.5", "12.50"},
		{"$1,299.99", "1299.99"},
		{"12.99, 24.99", "12.99"},
		{"$10 - $20", "10.00"},
		{"$10–$20", "10.00"},
		{"-5", "-5.00"},
		{"free", ""},
		{"  7.10  ", "7.10"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePrice(tt.raw))
		})
	}
}

func TestNormalizeStockStatus(t *testing.T) {
	tests := []struct {
		raw  string
		qty  *int
		want domain.StockStatus
	}{
		{"IN_STOCK", nil, domain.StockInStock},
		{"instock", nil, domain.StockInStock},
		{"out-of-stock", nil, domain.StockOutOfStock},
		{"OUT_OF_STOCK", intPtr(3), domain.StockOutOfStock},
		{"onbackorder", nil, domain.StockOnBackorder},
		{"LOW_STOCK", nil, domain.StockLow},
		{"", intPtr(0), domain.StockOutOfStock},
		{"", intPtr(5), domain.StockInStock},
		{"weird", nil, domain.StockInStock},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeStockStatus(tt.raw, tt.qty))
		})
	}
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, domain.ProductSimple, normalizeType(""))
	assert.Equal(t, domain.ProductSimple, normalizeType("simple"))
	assert.Equal(t, domain.ProductVariable, normalizeType("VARIABLE"))
	assert.Equal(t, domain.ProductGrouped, normalizeType("GROUP"))
	assert.Equal(t, domain.ProductExternal, normalizeType("external"))
	assert.Equal(t, domain.ProductType("BUNDLE"), normalizeType("bundle"))
}

func TestDetectSource(t *testing.T) {
	tests := []struct {
		name     string
		meta     string
		sku      string
		hasStock bool
		want     domain.Source
	}{
		{"explicit meta wins", "williams-trading", "WT-1", true, domain.SourceDistributor},
		{"meta is case-insensitive", "WordPress+WT", "", false, domain.SourceCombined},
		{"distributor stock implies combined", "", "ABC", true, domain.SourceCombined},
		{"wholesale prefix", "", "wt-123", false, domain.SourceWholesalePrefix},
		{"native default", "", "ABC", false, domain.SourceNative},
		{"unknown meta falls through", "mystery", "ABC", false, domain.SourceNative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectSource(tt.meta, tt.sku, tt.hasStock))
		})
	}
}

func TestMapSlug(t *testing.T) {
	t.Run("full node", func(t *testing.T) {
		summary, err := MapSlug(SlugNode{Slug: " pink-rabbit ", Name: "Pink Rabbit", Image: &ImageNode{SourceURL: "https://cdn.example.com/t.jpg"}})
		require.NoError(t, err)
		assert.Equal(t, "pink-rabbit", summary.Slug)
		assert.Equal(t, "Pink Rabbit", summary.Name)
		assert.Equal(t, "https://cdn.example.com/t.jpg", summary.Thumbnail)
	})

	t.Run("name falls back to slug", func(t *testing.T) {
		summary, err := MapSlug(SlugNode{Slug: "anonymous"})
		require.NoError(t, err)
		assert.Equal(t, "anonymous", summary.Name)
		assert.Empty(t, summary.Thumbnail)
	})

	t.Run("missing slug", func(t *testing.T) {
		_, err := MapSlug(SlugNode{Name: "No Slug"})
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	})
}
