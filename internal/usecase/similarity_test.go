package usecase

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	testCases := []struct {
		s1   string
		s2   string
		want int
	}{
		{"", "", 0},
		{"a", "", 1},
		{"", "a", 1},
		{"abc", "abc", 0},
		{"abc", "abd", 1},        // substitution
		{"abc", "abcd", 1},       // insertion
		{"abcd", "abc", 1},       // deletion
		{"kitten", "sitting", 3}, // classic example
		{"plug", "pulg", 2},      // transposition (2 edits)
		{"Blue", "blue", 1},      // case-sensitive
		{"café", "cafe", 1},      // rune-wise, not byte-wise
	}

	for _, tc := range testCases {
		t.Run(tc.s1+"_"+tc.s2, func(t *testing.T) {
			got := LevenshteinDistance(tc.s1, tc.s2)
			if got != tc.want {
				t.Errorf("LevenshteinDistance(%q, %q) = %v, want %v", tc.s1, tc.s2, got, tc.want)
			}
		})
	}
}

func TestIsFuzzyMatch(t *testing.T) {
	testCases := []struct {
		a    string
		b    string
		want bool
	}{
		{"dildo", "dildo", true},          // identical
		{"abc", "abd", false},             // too short for fuzzy
		{"plug", "plg", true},             // 4 chars, edit distance 1
		{"plug", "pulg", false},           // 4 chars, edit distance 2
		{"vibrator", "vibratr", true},     // 8 chars, budget 2
		{"vibrator", "vbratr", true},      // edit distance 2
		{"strawberry", "strawbery", true}, // missing letter
		{"rabbit", "robot", false},        // different words
		{"7", "7in", true},                // bare number vs unit
		{"7in", "7inch", true},            // unit prefix
		{"7.5in", "7.5", true},            // decimal measurement
		{"7in", "8in", false},             // different number
		{"10ml", "10oz", false},           // unrelated units
		{"", "a", false},                  // empty side
	}

	for _, tc := range testCases {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			got := IsFuzzyMatch(tc.a, tc.b)
			if got != tc.want {
				t.Errorf("IsFuzzyMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if reverse := IsFuzzyMatch(tc.b, tc.a); reverse != got {
				t.Errorf("IsFuzzyMatch not symmetric for %q/%q: %v vs %v", tc.a, tc.b, got, reverse)
			}
		})
	}
}

func TestFuzzyBudget(t *testing.T) {
	testCases := []struct {
		maxLen int
		want   int
	}{
		{1, 0},
		{3, 0},
		{4, 1},
		{7, 1},
		{8, 2},
		{13, 2},
		{14, 3},
		{40, 3},
	}

	for _, tc := range testCases {
		if got := fuzzyBudget(tc.maxLen); got != tc.want {
			t.Errorf("fuzzyBudget(%d) = %d, want %d", tc.maxLen, got, tc.want)
		}
	}
}

func TestSplitLeadingNumber(t *testing.T) {
	testCases := []struct {
		in         string
		wantNumber string
		wantRest   string
	}{
		{"7in", "7", "in"},
		{"7.5oz", "7.5", "oz"},
		{"inch", "", "inch"},
		{"100", "100", ""},
		{".5in", "", ".5in"},
	}

	for _, tc := range testCases {
		number, rest := splitLeadingNumber(tc.in)
		if number != tc.wantNumber || rest != tc.wantRest {
			t.Errorf("splitLeadingNumber(%q) = (%q, %q), want (%q, %q)",
				tc.in, number, rest, tc.wantNumber, tc.wantRest)
		}
	}
}
