package wordpress

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/catalogrecon/backend/internal/domain"
)

// WholesaleSKUPrefix marks SKUs imported from the distributor catalog
const WholesaleSKUPrefix = "WT-"

// anything that cannot be part of a plain decimal number
var priceNoise = regexp.MustCompile(`[^0-9.\-]`)

var priceRangeSeparators = []string{", ", " - ", " – ", "–"}

// MapProduct converts a WPGraphQL product node into the unified product shape.
// Nodes without an id, name or slug are rejected with ErrMalformedRecord.
func MapProduct(node ProductNode) (domain.UnifiedProduct, error) {
	if strings.TrimSpace(node.ID) == "" || strings.TrimSpace(node.Name) == "" || strings.TrimSpace(node.Slug) == "" {
		return domain.UnifiedProduct{}, fmt.Errorf("%w: product %q (id %q) lacks id, name or slug",
			domain.ErrMalformedRecord, node.Name, node.ID)
	}

	meta := metaMap(node.MetaData)

	product := domain.UnifiedProduct{
		ID:            node.ID,
		DatabaseID:    node.DatabaseID,
		Name:          strings.TrimSpace(node.Name),
		Slug:          strings.TrimSpace(node.Slug),
		SKU:           strings.TrimSpace(node.SKU),
		Price:         normalizePrice(node.Price),
		RegularPrice:  normalizePrice(node.RegularPrice),
		SalePrice:     normalizePrice(node.SalePrice),
		StockQuantity: node.StockQuantity,
		Type:          normalizeType(node.Type),
	}
	product.StockStatus = normalizeStockStatus(node.StockStatus, node.StockQuantity)

	if node.Attributes != nil {
		for _, a := range node.Attributes.Nodes {
			if strings.TrimSpace(a.Name) == "" || len(a.Options) == 0 {
				continue
			}
			product.Attributes = append(product.Attributes, domain.ProductAttribute{Name: a.Name, Options: a.Options})
		}
	}
	if node.Brands != nil {
		product.Brands = mapTerms(node.Brands.Nodes)
	}
	if node.Materials != nil {
		product.Materials = mapTerms(node.Materials.Nodes)
	}
	if node.Image != nil && node.Image.SourceURL != "" {
		product.Image = &domain.ImageRef{SourceURL: node.Image.SourceURL, AltText: node.Image.AltText}
	}

	product.PopularityScore = parseInt(meta[MetaPopularityScore])
	if wt, ok := meta[MetaDistributorStock]; ok {
		if qty, err := decimal.NewFromString(strings.TrimSpace(wt)); err == nil {
			v := int(qty.IntPart())
			product.DistributorStock = &v
		}
	}
	product.Source = detectSource(meta[MetaProductSource], product.SKU, product.DistributorStock != nil)

	return product, nil
}

// MapSlug converts a slug listing node. Nodes without a slug are rejected.
func MapSlug(node SlugNode) (domain.SlugSummary, error) {
	slug := strings.TrimSpace(node.Slug)
	if slug == "" {
		return domain.SlugSummary{}, fmt.Errorf("%w: slug node %q has no slug", domain.ErrMalformedRecord, node.Name)
	}

	summary := domain.SlugSummary{Slug: slug, Name: strings.TrimSpace(node.Name)}
	if summary.Name == "" {
		summary.Name = slug
	}
	if node.Image != nil {
		summary.Thumbnail = node.Image.SourceURL
	}
	return summary, nil
}

func metaMap(entries []MetaNode) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, seen := m[e.Key]; !seen {
			m[e.Key] = e.Value
		}
	}
	return m
}

func mapTerms(nodes []TermNode) []domain.TermRef {
	var terms []domain.TermRef
	for _, n := range nodes {
		if strings.TrimSpace(n.Name) == "" {
			continue
		}
		terms = append(terms, domain.TermRef{ID: n.ID, Name: n.Name, Slug: n.Slug})
	}
	return terms
}

// normalizePrice turns "$1,299.5", "12.99, 24.99" or "$10 - $20" (variable
// ranges) into a fixed two-decimal string. Unparseable input yields "".
func normalizePrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// the first value of a range is the "from" price
	for _, sep := range priceRangeSeparators {
		if idx := strings.Index(raw, sep); idx >= 0 {
			raw = raw[:idx]
		}
	}
	cleaned := priceNoise.ReplaceAllString(raw, "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return ""
	}
	return d.StringFixed(2)
}

func normalizeStockStatus(raw string, qty *int) domain.StockStatus {
	key := strings.ToUpper(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(raw)))
	switch key {
	case "INSTOCK":
		return domain.StockInStock
	case "LOWSTOCK":
		return domain.StockLow
	case "OUTOFSTOCK":
		return domain.StockOutOfStock
	case "ONBACKORDER":
		return domain.StockOnBackorder
	}
	if qty != nil && *qty <= 0 {
		return domain.StockOutOfStock
	}
	return domain.StockInStock
}

func normalizeType(raw string) domain.ProductType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "SIMPLE":
		return domain.ProductSimple
	case "VARIABLE":
		return domain.ProductVariable
	case "GROUPED", "GROUP":
		return domain.ProductGrouped
	case "EXTERNAL":
		return domain.ProductExternal
	default:
		return domain.ProductType(strings.ToUpper(strings.TrimSpace(raw)))
	}
}

func detectSource(metaSource, sku string, hasDistributorStock bool) domain.Source {
	switch domain.Source(strings.ToLower(strings.TrimSpace(metaSource))) {
	case domain.SourceNative:
		return domain.SourceNative
	case domain.SourceCombined:
		return domain.SourceCombined
	case domain.SourceWholesalePrefix:
		return domain.SourceWholesalePrefix
	case domain.SourceDistributor:
		return domain.SourceDistributor
	}
	if hasDistributorStock {
		return domain.SourceCombined
	}
	if strings.HasPrefix(strings.ToUpper(sku), WholesaleSKUPrefix) {
		return domain.SourceWholesalePrefix
	}
	return domain.SourceNative
}

// parseInt reads integer-ish meta values ("12", "12.0"); anything else is 0
func parseInt(raw string) int {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}
