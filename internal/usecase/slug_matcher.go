package usecase

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/catalogrecon/backend/internal/domain"
)

// Scoring defaults for slug similarity
const (
	DefaultSegmentWeight     = 0.7 // structural (segment) similarity share of the final score
	DefaultCharWeight        = 0.3 // raw character similarity share of the final score
	DefaultFuzzySegmentScore = 0.7 // credit for a fuzzy (non-exact) segment pair
	DefaultRelevanceFloor    = 0.3 // matches at or below this score are dropped
	DefaultSuggestionLimit   = 5
)

const slugDelimiter = "-"

// MatchConfig holds configuration for the slug matcher
type MatchConfig struct {
	SegmentWeight      float64
	CharWeight         float64
	FuzzySegmentScore  float64
	RelevanceFloor     float64
	DefaultLimit       int
	EnableDebugLogging bool
}

// SlugMatcher scores unresolved slugs against the slug index
type SlugMatcher struct {
	index  SlugSnapshotter
	config MatchConfig
	logger *zap.Logger
}

// SlugSnapshotter yields the current slug snapshot; *SlugIndex implements it
type SlugSnapshotter interface {
	Get(ctx context.Context) []domain.SlugSummary
}

// NewSlugMatcher creates a slug matcher, falling back to defaults for unset values
func NewSlugMatcher(index SlugSnapshotter, config MatchConfig, logger *zap.Logger) *SlugMatcher {
	if config.SegmentWeight <= 0 && config.CharWeight <= 0 {
		config.SegmentWeight = DefaultSegmentWeight
		config.CharWeight = DefaultCharWeight
	}
	if config.FuzzySegmentScore <= 0 {
		config.FuzzySegmentScore = DefaultFuzzySegmentScore
	}
	if config.RelevanceFloor <= 0 {
		config.RelevanceFloor = DefaultRelevanceFloor
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultSuggestionLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlugMatcher{index: index, config: config, logger: logger}
}

// ComputeSlugSimilarity scores two slugs in [0,1] using the default weights
func ComputeSlugSimilarity(slugA, slugB string) float64 {
	return slugSimilarity(slugA, slugB, DefaultSegmentWeight, DefaultCharWeight, DefaultFuzzySegmentScore)
}

// Similarity scores two slugs in [0,1] using the matcher's configured weights
func (m *SlugMatcher) Similarity(slugA, slugB string) float64 {
	return slugSimilarity(slugA, slugB, m.config.SegmentWeight, m.config.CharWeight, m.config.FuzzySegmentScore)
}

// FindSimilarProducts returns the catalog products whose slugs best resemble
// failedSlug, highest score first, excluding anything at or below the relevance floor.
func (m *SlugMatcher) FindSimilarProducts(ctx context.Context, failedSlug string, limit int) []domain.SlugMatch {
	failedSlug = normalizeSlug(failedSlug)
	if failedSlug == "" {
		return []domain.SlugMatch{}
	}
	if limit <= 0 {
		limit = m.config.DefaultLimit
	}

	summaries := m.index.Get(ctx)
	matches := make([]domain.SlugMatch, 0)
	for _, s := range summaries {
		score := m.Similarity(failedSlug, s.Slug)
		if score <= m.config.RelevanceFloor {
			continue
		}
		matches = append(matches, domain.SlugMatch{
			Name:  s.Name,
			Slug:  s.Slug,
			Image: s.Thumbnail,
			Score: score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	if m.config.EnableDebugLogging {
		m.logger.Debug("slug suggestions computed",
			zap.String("slug", failedSlug),
			zap.Int("candidates", len(summaries)),
			zap.Int("returned", len(matches)),
		)
	}
	return matches
}

func normalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func splitSegments(slug string) []string {
	parts := strings.Split(slug, slugDelimiter)
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func slugSimilarity(slugA, slugB string, segmentWeight, charWeight, fuzzyScore float64) float64 {
	a, b := normalizeSlug(slugA), normalizeSlug(slugB)
	if a == b {
		return 1.0
	}

	score := segmentWeight*segmentScore(splitSegments(a), splitSegments(b), fuzzyScore) +
		charWeight*charScore(a, b)
	return clamp01(score)
}

// segmentScore pairs exact segments first, then pairs as many of the remaining
// segments fuzzily as possible. The pairing size is independent of argument
// order, so the score is symmetric.
func segmentScore(segsA, segsB []string, fuzzyScore float64) float64 {
	denominator := max(len(segsA), len(segsB))
	if denominator == 0 {
		return 0
	}

	usedB := make([]bool, len(segsB))
	var restA []string
	exact := 0
	for _, sa := range segsA {
		found := false
		for j, sb := range segsB {
			if !usedB[j] && sa == sb {
				usedB[j] = true
				exact++
				found = true
				break
			}
		}
		if !found {
			restA = append(restA, sa)
		}
	}

	var restB []string
	for j, sb := range segsB {
		if !usedB[j] {
			restB = append(restB, sb)
		}
	}

	fuzzy := maxFuzzyPairs(restA, restB)
	return (float64(exact) + float64(fuzzy)*fuzzyScore) / float64(denominator)
}

// maxFuzzyPairs returns the size of a maximum one-to-one pairing between a and b
// where each pair satisfies IsFuzzyMatch (augmenting-path bipartite matching).
func maxFuzzyPairs(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	edges := make([][]int, len(a))
	for i, sa := range a {
		for j, sb := range b {
			if IsFuzzyMatch(sa, sb) {
				edges[i] = append(edges[i], j)
			}
		}
	}

	owner := make([]int, len(b))
	for j := range owner {
		owner[j] = -1
	}

	var augment func(i int, seen []bool) bool
	augment = func(i int, seen []bool) bool {
		for _, j := range edges[i] {
			if seen[j] {
				continue
			}
			seen[j] = true
			if owner[j] == -1 || augment(owner[j], seen) {
				owner[j] = i
				return true
			}
		}
		return false
	}

	pairs := 0
	for i := range a {
		if augment(i, make([]bool, len(b))) {
			pairs++
		}
	}
	return pairs
}

func charScore(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(LevenshteinDistance(a, b))/float64(maxLen)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
