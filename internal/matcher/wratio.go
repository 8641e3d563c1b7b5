package matcher

import (
	"sort"
	"strings"
	"unicode"
)

// Scorer rates the similarity of two strings on a 0-100 scale
type Scorer func(a, b string) float64

const (
	unbaseScale      = 0.95
	partialScale     = 0.90
	longPartialScale = 0.60
	partialLenRatio  = 1.5
	longLenRatio     = 8.0
)

// WRatio is a weighted ratio that tolerates reordered and partially
// overlapping tokens. It takes the best of the plain ratio, the token sort
// and token set ratios and, when the lengths differ enough, their partial
// (best window) variants scaled down.
func WRatio(a, b string) float64 {
	p1, p2 := process(a), process(b)
	if p1 == "" || p2 == "" {
		return 0
	}

	base := ratio(p1, p2)
	l1, l2 := float64(runeLen(p1)), float64(runeLen(p2))
	lenRatio := max(l1, l2) / min(l1, l2)

	if lenRatio < partialLenRatio {
		tsor := tokenSortRatio(p1, p2) * unbaseScale
		tser := tokenSetRatio(p1, p2) * unbaseScale
		return max(base, tsor, tser)
	}

	scale := partialScale
	if lenRatio > longLenRatio {
		scale = longPartialScale
	}
	partial := partialRatio(p1, p2) * scale
	ptsor := partialTokenSortRatio(p1, p2) * unbaseScale * scale
	ptser := partialTokenSetRatio(p1, p2) * unbaseScale * scale
	return max(base, partial, ptsor, ptser)
}

// process lowercases and turns everything that is not a letter or digit
// into a single space.
func process(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

func runeLen(s string) int {
	return len([]rune(s))
}

// ratio is the normalized indel similarity: insertions and deletions cost 1,
// substitutions count as both, so the distance is l1+l2-2*lcs.
func ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	d := total - 2*lcsLen(ra, rb)
	return 100 * (1 - float64(d)/float64(total))
}

// lcsLen is the length of the longest common subsequence of a and b.
func lcsLen(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// partialRatio compares the shorter string with every equally long window
// of the longer one and keeps the best score.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratio(s, string(long[i:i+len(short)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func partialTokenSortRatio(a, b string) float64 {
	return partialRatio(sortedTokens(a), sortedTokens(b))
}

// tokenSets splits both strings into the sorted common tokens and the
// sorted tokens unique to each side.
func tokenSets(a, b string) (common, onlyA, onlyB []string) {
	setA := make(map[string]bool)
	for _, t := range strings.Fields(a) {
		setA[t] = true
	}
	setB := make(map[string]bool)
	for _, t := range strings.Fields(b) {
		setB[t] = true
	}
	for t := range setA {
		if setB[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return common, onlyA, onlyB
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func tokenSetRatio(a, b string) float64 {
	common, onlyA, onlyB := tokenSets(a, b)
	sect := strings.Join(common, " ")
	combinedA := joinNonEmpty(sect, strings.Join(onlyA, " "))
	combinedB := joinNonEmpty(sect, strings.Join(onlyB, " "))

	if sect != "" && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}
	best := ratio(combinedA, combinedB)
	if sect != "" {
		best = max(best, ratio(sect, combinedA), ratio(sect, combinedB))
	}
	return best
}

func partialTokenSetRatio(a, b string) float64 {
	common, onlyA, onlyB := tokenSets(a, b)
	if len(common) > 0 {
		return 100
	}
	return partialRatio(strings.Join(onlyA, " "), strings.Join(onlyB, " "))
}
