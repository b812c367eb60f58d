package usecase

import "unicode"

// fuzzyBudget returns the edit distance allowed between two tokens whose longer
// side has maxLen runes. Tokens of 3 runes or fewer never fuzzy-match on distance.
func fuzzyBudget(maxLen int) int {
	switch {
	case maxLen <= 3:
		return 0
	case maxLen <= 7:
		return 1
	case maxLen <= 13:
		return 2
	default:
		return 3
	}
}

// IsFuzzyMatch reports whether two short slug segments are close enough to be
// treated as the same token. The relation is symmetric and deterministic.
// Callers normalize case beforehand.
func IsFuzzyMatch(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}

	if sameMeasurement(a, b) {
		return true
	}

	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	budget := fuzzyBudget(maxLen)
	if budget == 0 {
		return false
	}

	// Quick length check - if lengths differ by more than the budget, can't match
	lenDiff := len(ra) - len(rb)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > budget {
		return false
	}

	return LevenshteinDistance(a, b) <= budget
}

// sameMeasurement matches "7" ~ "7in" ~ "7inch": same leading number, and unit
// suffixes where one is empty or a prefix of the other.
func sameMeasurement(a, b string) bool {
	numA, unitA := splitLeadingNumber(a)
	numB, unitB := splitLeadingNumber(b)
	if numA == "" || numA != numB {
		return false
	}
	if unitA == "" || unitB == "" {
		return true
	}
	if len(unitA) > len(unitB) {
		unitA, unitB = unitB, unitA
	}
	return unitB[:len(unitA)] == unitA
}

func splitLeadingNumber(s string) (number, rest string) {
	i := 0
	for i < len(s) && (unicode.IsDigit(rune(s[i])) || (s[i] == '.' && i > 0)) {
		i++
	}
	return s[:i], s[i:]
}

// LevenshteinDistance calculates the edit distance between two strings.
// Comparison is rune-wise and case-sensitive.
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len([]rune(s2))
	}
	if len(s2) == 0 {
		return len([]rune(s1))
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
