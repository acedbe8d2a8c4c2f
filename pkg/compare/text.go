package compare

import "strings"

// FuzzyMatch reports whether two free-text values describe the same thing:
// case-normalized, punctuation-stripped substring containment in either
// direction, or token overlap above TokenOverlapThreshold.
func FuzzyMatch(a, b string) bool {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return na == nb
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return TokenOverlap(a, b) >= TokenOverlapThreshold
}

// TokenOverlap returns the ratio of shared whitespace-delimited tokens to
// the larger token count of the two inputs.
func TokenOverlap(a, b string) float64 {
	ta := strings.Fields(normalizeText(a))
	tb := strings.Fields(normalizeText(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(ta))
	for _, tok := range ta {
		set[tok] = struct{}{}
	}

	shared := 0
	seen := make(map[string]struct{}, len(tb))
	for _, tok := range tb {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := set[tok]; ok {
			shared++
		}
	}

	maxLen := len(ta)
	if len(tb) > maxLen {
		maxLen = len(tb)
	}
	return float64(shared) / float64(maxLen)
}

// normalizeText lowercases and strips punctuation, collapsing runs of
// non-alphanumeric characters to single spaces.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
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
	return strings.TrimSpace(b.String())
}
