package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// NameSimilarity scores how alike two account names are, 0-100. It is
// token-based and case/whitespace-insensitive: names are lowercased,
// punctuation is stripped, tokens are sorted, and the score blends the
// levenshtein ratio of the sorted-token strings with the token overlap
// ratio. Either name empty scores zero.
func NameSimilarity(a, b string) decimal.Decimal {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return decimal.Zero
	}

	joinedA := strings.Join(tokensA, " ")
	joinedB := strings.Join(tokensB, " ")
	if joinedA == joinedB {
		return decimal.NewFromInt(100)
	}

	edit := levenshteinRatio(joinedA, joinedB)
	overlap := tokenOverlapRatio(tokensA, tokensB)

	// Equal blend of edit similarity and token overlap. Overlap rescues
	// reordered or partially abbreviated names that edit distance punishes.
	blended := (edit + overlap) / 2
	return decimal.NewFromFloat(blended * 100).Round(2)
}

func tokenize(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return tokens
}

func levenshteinRatio(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

func tokenOverlapRatio(a, b []string) float64 {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	shared := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			shared++
		}
	}
	total := len(a)
	if len(b) > total {
		total = len(b)
	}
	return float64(shared) / float64(total)
}
