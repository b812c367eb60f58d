package usecase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/catalogrecon/backend/internal/domain"
)

// DefaultMinSKUPrefixLength is the shortest shared SKU prefix that still counts
// as evidence two products belong to one family.
const DefaultMinSKUPrefixLength = 3

// Inferred attribute axis names
const (
	AxisSize     = "Size"
	AxisColor    = "Color"
	AxisMaterial = "Material"
	AxisOption   = "Option"
)

var (
	// trailing separators between a product name and its variant descriptor
	variantSeparators = []string{" - ", " – ", " — ", " | ", ", "}

	// measurement tokens like 7", 7in, 8.5oz, 100ml, 3-pack
	measurementRegex = regexp.MustCompile(`(?i)^\d+(\.\d+)?\s*("|in|inch|inches|ft|mm|cm|m|oz|fl\.?oz|ml|l|g|kg|lb|lbs|pk|pack|ct|count|pc|pcs)?$`)

	// anything that is not a letter or digit collapses in base-name keys
	keyNoiseRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)

	skuSeparators = "-_./ "
)

var sizeTerms = map[string]bool{
	"xxs": true, "xs": true, "s": true, "m": true, "l": true, "xl": true, "xxl": true, "xxxl": true,
	"2xl": true, "3xl": true, "4xl": true, "os": true, "o/s": true, "one size": true,
	"small": true, "medium": true, "large": true, "x-large": true, "xx-large": true,
	"extra small": true, "extra large": true, "mini": true, "petite": true, "plus": true,
	"queen": true, "king": true, "regular": true, "tall": true, "short": true, "long": true,
	"slim": true, "wide": true, "narrow": true, "jumbo": true, "travel": true,
}

var colorTerms = map[string]bool{
	"black": true, "white": true, "red": true, "blue": true, "green": true, "yellow": true,
	"pink": true, "purple": true, "orange": true, "brown": true, "grey": true, "gray": true,
	"silver": true, "gold": true, "beige": true, "navy": true, "teal": true, "violet": true,
	"magenta": true, "lavender": true, "burgundy": true, "ivory": true, "nude": true,
	"clear": true, "transparent": true, "rose": true, "coral": true, "turquoise": true,
	"aqua": true, "lilac": true, "fuchsia": true, "charcoal": true, "chocolate": true,
	"tan": true, "mint": true, "cream": true, "multicolor": true, "rainbow": true,
}

var materialTerms = map[string]bool{
	"silicone": true, "leather": true, "faux leather": true, "vegan leather": true,
	"cotton": true, "polyester": true, "nylon": true, "lace": true, "satin": true,
	"silk": true, "latex": true, "glass": true, "steel": true, "stainless steel": true,
	"metal": true, "wood": true, "bamboo": true, "rubber": true, "vinyl": true,
	"plastic": true, "abs": true, "tpe": true, "tpr": true, "pvc": true, "mesh": true,
	"velvet": true, "spandex": true, "wool": true, "ceramic": true, "aluminum": true,
}

// VariationConfig holds configuration for variation detection
type VariationConfig struct {
	MinSKUPrefixLength int
}

// DetectionResult is the outcome of one detection pass
type DetectionResult struct {
	Groups     []domain.VariationGroup
	Candidates int // simple products considered
	Skipped    int // records dropped for missing required fields
}

// VariationDetector infers variable-product groups among simple products
type VariationDetector struct {
	minSKUPrefix int
	logger       *zap.Logger
}

// NewVariationDetector creates a detector with the given configuration
func NewVariationDetector(config VariationConfig, logger *zap.Logger) *VariationDetector {
	minPrefix := config.MinSKUPrefixLength
	if minPrefix <= 0 {
		minPrefix = DefaultMinSKUPrefixLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariationDetector{minSKUPrefix: minPrefix, logger: logger}
}

// variantCandidate is a simple product with its name split into base and qualifiers
type variantCandidate struct {
	product    domain.UnifiedProduct
	base       string
	qualifiers []string
}

// skuCluster is a set of candidates sharing a SKU prefix
type skuCluster struct {
	prefix  string
	members []variantCandidate
}

// Detect partitions the simple products in the catalog into variation groups.
// Groups are ordered by member count (largest first); ties keep catalog order.
func (d *VariationDetector) Detect(products []domain.UnifiedProduct) *DetectionResult {
	result := &DetectionResult{Groups: []domain.VariationGroup{}}

	var bucketOrder []string
	buckets := make(map[string][]*skuCluster)

	for _, p := range products {
		if p.Type != domain.ProductSimple {
			continue
		}
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.SKU) == "" {
			result.Skipped++
			continue
		}
		result.Candidates++

		base, qualifiers := SplitVariantName(p.Name)
		key := baseNameKey(base) + "|" + strings.ToLower(strings.TrimSpace(p.PrimaryBrand()))
		c := variantCandidate{product: p, base: base, qualifiers: qualifiers}

		clusters, exists := buckets[key]
		if !exists {
			bucketOrder = append(bucketOrder, key)
		}
		buckets[key] = d.addToCluster(clusters, c)
	}

	for _, key := range bucketOrder {
		for _, cluster := range buckets[key] {
			if len(cluster.members) < 2 {
				continue
			}
			result.Groups = append(result.Groups, buildGroup(cluster))
		}
	}

	sort.SliceStable(result.Groups, func(i, j int) bool {
		return result.Groups[i].ProductCount() > result.Groups[j].ProductCount()
	})

	d.logger.Debug("variation detection finished",
		zap.Int("candidates", result.Candidates),
		zap.Int("skipped", result.Skipped),
		zap.Int("groups", len(result.Groups)),
	)
	return result
}

// addToCluster places c in the first cluster whose shared SKU prefix stays long
// enough, or opens a new cluster. Unrelated products that merely share a name
// end up in separate clusters.
func (d *VariationDetector) addToCluster(clusters []*skuCluster, c variantCandidate) []*skuCluster {
	sku := strings.ToUpper(strings.TrimSpace(c.product.SKU))
	for _, cluster := range clusters {
		prefix := commonPrefix(cluster.prefix, sku)
		if len([]rune(strings.TrimRight(prefix, skuSeparators))) >= d.minSKUPrefix {
			cluster.prefix = prefix
			cluster.members = append(cluster.members, c)
			return clusters
		}
	}
	return append(clusters, &skuCluster{prefix: sku, members: []variantCandidate{c}})
}

func buildGroup(cluster *skuCluster) domain.VariationGroup {
	members := make([]domain.UnifiedProduct, len(cluster.members))
	for i, m := range cluster.members {
		members[i] = m.product
	}

	return domain.VariationGroup{
		BaseName:       cluster.members[0].base,
		BaseSKUPattern: cluster.prefix + "*",
		Products:       members,
		Attributes:     inferAttributes(cluster.members),
	}
}

// axisValues collects distinct values per axis in first-seen order
type axisValues struct {
	order  []string
	values map[string][]string
	seen   map[string]map[string]bool
}

func newAxisValues() *axisValues {
	return &axisValues{values: make(map[string][]string), seen: make(map[string]map[string]bool)}
}

func (a *axisValues) add(axis, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, ok := a.seen[axis]; !ok {
		a.seen[axis] = make(map[string]bool)
		a.order = append(a.order, axis)
	}
	norm := strings.ToLower(value)
	if a.seen[axis][norm] {
		return
	}
	a.seen[axis][norm] = true
	a.values[axis] = append(a.values[axis], value)
}

// inferAttributes diffs member qualifiers and explicit attributes into axes.
// Only axes with at least two distinct values are reported.
func inferAttributes(members []variantCandidate) []domain.VariationAttribute {
	axes := newAxisValues()

	for _, m := range members {
		for _, attr := range m.product.Attributes {
			for _, opt := range attr.Options {
				axes.add(canonicalAxisName(attr.Name), opt)
			}
		}

		unnamed := 0
		for _, q := range m.qualifiers {
			axis := ClassifyQualifier(q)
			if axis == AxisOption {
				unnamed++
				if unnamed > 1 {
					axis = AxisOption + " " + strconv.Itoa(unnamed)
				}
			}
			axes.add(axis, q)
		}
	}

	attributes := make([]domain.VariationAttribute, 0, len(axes.order))
	for _, axis := range axes.order {
		if len(axes.values[axis]) < 2 {
			continue
		}
		attributes = append(attributes, domain.VariationAttribute{Name: axis, Values: axes.values[axis]})
	}

	sort.SliceStable(attributes, func(i, j int) bool {
		return axisRank(attributes[i].Name) < axisRank(attributes[j].Name)
	})
	return attributes
}

func axisRank(name string) int {
	switch name {
	case AxisSize:
		return 0
	case AxisColor:
		return 1
	case AxisMaterial:
		return 2
	default:
		return 3
	}
}

// canonicalAxisName maps WooCommerce attribute names ("pa_size", "colour") onto axis names
func canonicalAxisName(name string) string {
	n := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "pa_")))
	switch n {
	case "size", "sizes", "length", "width", "dimensions":
		return AxisSize
	case "color", "colour", "colors", "colours":
		return AxisColor
	case "material", "materials":
		return AxisMaterial
	}
	if n == "" {
		return AxisOption
	}
	r := []rune(n)
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// ClassifyQualifier names the attribute axis a variant descriptor belongs to
func ClassifyQualifier(q string) string {
	n := strings.ToLower(strings.TrimSpace(q))
	switch {
	case sizeTerms[n] || measurementRegex.MatchString(n):
		return AxisSize
	case colorTerms[n] || colorTerms[lastWord(n)]:
		return AxisColor
	case materialTerms[n]:
		return AxisMaterial
	default:
		return AxisOption
	}
}

// SplitVariantName strips trailing size/color/material qualifiers from a product
// name and returns the base name with the qualifiers in name order.
// "Widget - Small / Red" -> "Widget", [Small Red]; "Tee (XL)" -> "Tee", [XL].
func SplitVariantName(name string) (string, []string) {
	base := strings.TrimSpace(name)
	var qualifiers []string

	if strings.HasSuffix(base, ")") {
		if open := strings.LastIndex(base, "("); open > 0 {
			inner := base[open+1 : len(base)-1]
			qualifiers = append(splitQualifiers(inner), qualifiers...)
			base = strings.TrimSpace(base[:open])
		}
	}

	// a separator suffix is a variant descriptor only if it names a size, color
	// or material; "Brand - Product Name" keeps its suffix
	if idx, sep := lastSeparator(base); idx > 0 {
		if parts := splitQualifiers(base[idx+len(sep):]); hasClassifiedQualifier(parts) {
			qualifiers = append(parts, qualifiers...)
			base = strings.TrimSpace(base[:idx])
		}
	}

	// trailing descriptor tokens without a separator: "Widget Small Red"
	words := strings.Fields(base)
	for len(words) > 1 {
		last := words[len(words)-1]
		if ClassifyQualifier(last) == AxisOption {
			break
		}
		qualifiers = append([]string{last}, qualifiers...)
		words = words[:len(words)-1]
	}
	base = strings.Join(words, " ")

	return strings.TrimRight(base, " -–—|,"), qualifiers
}

func hasClassifiedQualifier(parts []string) bool {
	for _, p := range parts {
		if ClassifyQualifier(p) != AxisOption {
			return true
		}
	}
	return false
}

func lastSeparator(s string) (int, string) {
	bestIdx, bestSep := -1, ""
	for _, sep := range variantSeparators {
		if idx := strings.LastIndex(s, sep); idx > bestIdx {
			bestIdx, bestSep = idx, sep
		}
	}
	return bestIdx, bestSep
}

func splitQualifiers(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ',' || r == '|'
	})
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func baseNameKey(base string) string {
	return strings.TrimSpace(keyNoiseRegex.ReplaceAllString(strings.ToLower(base), " "))
}

func commonPrefix(a, b string) string {
	ra, rb := []rune(a), []rune(b)
	n := min(len(ra), len(rb))
	i := 0
	for i < n && ra[i] == rb[i] {
		i++
	}
	return string(ra[:i])
}

func lastWord(s string) string {
	if idx := strings.LastIndex(s, " "); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
