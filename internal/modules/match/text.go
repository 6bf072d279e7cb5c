// README: Normalized-string similarity helpers for fuzzy city-name comparison.
package match

import "strings"

const (
	// DefaultTextThreshold applies to general free-text comparison.
	DefaultTextThreshold = 0.7
	// DefaultCityThreshold is looser: city names tolerate more spelling
	// variance ("New York" vs "NewYork").
	DefaultCityThreshold = 0.6
)

// Normalize lowercases, trims, strips punctuation, and collapses runs of
// non-word characters to single spaces.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// EditDistance returns the Levenshtein distance between the normalized forms
// of a and b; case-insensitive by construction.
func EditDistance(a, b string) int {
	a = Normalize(a)
	b = Normalize(b)
	if a == b {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity maps edit distance into [0,1]; two empty strings are identical.
func Similarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(EditDistance(na, nb))/float64(longest)
}

// FuzzyEquals reports whether two strings are similar enough at the given
// threshold.
func FuzzyEquals(a, b string, threshold float64) bool {
	return Similarity(a, b) >= threshold
}

// MatchCity compares city names at the looser city threshold.
func MatchCity(a, b string) bool {
	return FuzzyEquals(a, b, DefaultCityThreshold)
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
