package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogrecon/backend/internal/domain"
)

// staticSnapshot is a SlugSnapshotter over a fixed slice
type staticSnapshot []domain.SlugSummary

func (s staticSnapshot) Get(ctx context.Context) []domain.SlugSummary {
	return s
}

var similarityPairs = [][2]string{
	{"blue-dildo-7-inch", "blue-dildo-7in"},
	{"pink-rabbit-vibrator", "rabbit-vibrator-pink"},
	{"leather-harness-large", "leather-harnes-lg"},
	{"a-b-c", "c"},
	{"", "anal-beads"},
	{"--double--dash--", "double-dash"},
	{"7-inch-7-inch", "7in"},
	{"silicone-plug-small", "glass-plug-small-clear"},
	{"x", "y"},
}

func TestComputeSlugSimilarity_Scenario(t *testing.T) {
	score := ComputeSlugSimilarity("blue-dildo-7-inch", "blue-dildo-7in")
	assert.Greater(t, score, 0.7)
	assert.Less(t, score, 1.0)
}

func TestComputeSlugSimilarity_Identity(t *testing.T) {
	slugs := []string{"", "a", "blue-dildo-7-inch", "Blue-Dildo", "  spaced-slug  ", "--"}
	for _, s := range slugs {
		assert.Equal(t, 1.0, ComputeSlugSimilarity(s, s), "slug %q", s)
	}
	assert.Equal(t, 1.0, ComputeSlugSimilarity("Blue-Dildo", "blue-dildo"), "case-insensitive identity")
}

func TestComputeSlugSimilarity_Symmetric(t *testing.T) {
	for _, pair := range similarityPairs {
		ab := ComputeSlugSimilarity(pair[0], pair[1])
		ba := ComputeSlugSimilarity(pair[1], pair[0])
		assert.Equal(t, ab, ba, "%q vs %q", pair[0], pair[1])
	}
}

func TestComputeSlugSimilarity_Bounds(t *testing.T) {
	for _, pair := range similarityPairs {
		score := ComputeSlugSimilarity(pair[0], pair[1])
		assert.GreaterOrEqual(t, score, 0.0, "%q vs %q", pair[0], pair[1])
		assert.LessOrEqual(t, score, 1.0, "%q vs %q", pair[0], pair[1])
	}
}

func TestComputeSlugSimilarity_Ordering(t *testing.T) {
	near := ComputeSlugSimilarity("pink-rabbit-vibrator", "pink-rabbit-vibrater")
	far := ComputeSlugSimilarity("pink-rabbit-vibrator", "black-leather-collar")
	assert.Greater(t, near, far)

	// reordered segments keep full structural credit
	reordered := ComputeSlugSimilarity("pink-rabbit-vibrator", "rabbit-vibrator-pink")
	assert.GreaterOrEqual(t, reordered, 0.7)
}

func TestSegmentScore(t *testing.T) {
	testCases := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"all exact", []string{"a", "b"}, []string{"b", "a"}, 1.0},
		{"one fuzzy", []string{"plug", "red"}, []string{"plg", "red"}, (1 + 0.7) / 2},
		{"no match", []string{"plug"}, []string{"harness"}, 0},
		{"uneven lengths", []string{"a"}, []string{"a", "b", "c", "d"}, 0.25},
		{"both empty", nil, nil, 0},
		{"exact before fuzzy", []string{"7", "7in"}, []string{"7in"}, 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, segmentScore(tc.a, tc.b, DefaultFuzzySegmentScore), 1e-9)
		})
	}
}

func TestMaxFuzzyPairs(t *testing.T) {
	// a greedy pass would pair "7in" with "7" and leave "7cm" unpaired
	a := []string{"7in", "7cm"}
	b := []string{"7", "7i"}
	assert.Equal(t, 2, maxFuzzyPairs(a, b))
	assert.Equal(t, 2, maxFuzzyPairs(b, a))
	assert.Equal(t, 0, maxFuzzyPairs(nil, b))
}

func TestFindSimilarProducts(t *testing.T) {
	index := staticSnapshot{
		{Slug: "blue-dildo-7-inch", Name: "Blue Dildo 7\"", Thumbnail: "https://cdn.example.com/blue.jpg"},
		{Slug: "blue-dildo-8-inch", Name: "Blue Dildo 8\""},
		{Slug: "blue-dildo-7in", Name: "Blue Dildo 7in"},
		{Slug: "pink-rabbit-vibrator", Name: "Pink Rabbit"},
		{Slug: "leather-harness-large", Name: "Leather Harness"},
	}
	matcher := NewSlugMatcher(index, MatchConfig{}, nil)
	ctx := context.Background()

	t.Run("best match first and image carried over", func(t *testing.T) {
		matches := matcher.FindSimilarProducts(ctx, "Blue-Dildo-7-Inch", 3)
		require.NotEmpty(t, matches)
		assert.Equal(t, "blue-dildo-7-inch", matches[0].Slug)
		assert.Equal(t, 1.0, matches[0].Score)
		assert.Equal(t, "https://cdn.example.com/blue.jpg", matches[0].Image)
		assert.LessOrEqual(t, len(matches), 3)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	})

	t.Run("never returns scores at or below the floor", func(t *testing.T) {
		for _, query := range []string{"blue-dildo", "rabbit", "harness-xl", "q"} {
			for _, m := range matcher.FindSimilarProducts(ctx, query, 10) {
				assert.Greater(t, m.Score, DefaultRelevanceFloor, "query %q slug %q", query, m.Slug)
			}
		}
	})

	t.Run("unrelated slug yields empty list", func(t *testing.T) {
		matches := matcher.FindSimilarProducts(ctx, "totally-unrelated-zzz", 3)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	})

	t.Run("empty slug yields empty list", func(t *testing.T) {
		matches := matcher.FindSimilarProducts(ctx, "   ", 3)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	})

	t.Run("limit truncates", func(t *testing.T) {
		matches := matcher.FindSimilarProducts(ctx, "blue-dildo-7-inch", 1)
		assert.Len(t, matches, 1)
	})

	t.Run("non-positive limit uses default", func(t *testing.T) {
		big := make(staticSnapshot, 0, 10)
		for i := 0; i < 10; i++ {
			big = append(big, domain.SlugSummary{Slug: "blue-dildo-" + string(rune('a'+i))})
		}
		m := NewSlugMatcher(big, MatchConfig{}, nil)
		assert.Len(t, m.FindSimilarProducts(ctx, "blue-dildo-a", 0), DefaultSuggestionLimit)
	})
}

func TestNewSlugMatcher_Config(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		m := NewSlugMatcher(staticSnapshot{}, MatchConfig{}, nil)
		assert.Equal(t, DefaultSegmentWeight, m.config.SegmentWeight)
		assert.Equal(t, DefaultCharWeight, m.config.CharWeight)
		assert.Equal(t, DefaultFuzzySegmentScore, m.config.FuzzySegmentScore)
		assert.Equal(t, DefaultRelevanceFloor, m.config.RelevanceFloor)
		assert.Equal(t, DefaultSuggestionLimit, m.config.DefaultLimit)
		assert.NotNil(t, m.logger)
	})

	t.Run("custom floor filters more", func(t *testing.T) {
		index := staticSnapshot{{Slug: "blue-dildo-7-inch"}, {Slug: "blue-dildo-7in"}}
		m := NewSlugMatcher(index, MatchConfig{RelevanceFloor: 0.99}, nil)
		matches := m.FindSimilarProducts(context.Background(), "blue-dildo-7-inch", 5)
		require.Len(t, matches, 1)
		assert.Equal(t, "blue-dildo-7-inch", matches[0].Slug)
	})

	t.Run("char-only weighting", func(t *testing.T) {
		m := NewSlugMatcher(staticSnapshot{}, MatchConfig{SegmentWeight: 0, CharWeight: 1}, nil)
		assert.InDelta(t, charScore("plug", "plg"), m.Similarity("plug", "plg"), 1e-9)
	})
}
