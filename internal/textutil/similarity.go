package textutil

// PositionMatchRatio counts runes that are equal at the same index and divides
// by the length of the shorter string. Empty input yields 0.
func PositionMatchRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	shorter := min(len(ra), len(rb))
	if shorter == 0 {
		return 0
	}
	matches := 0
	for i := range shorter {
		if ra[i] == rb[i] {
			matches++
		}
	}
	return float64(matches) / float64(shorter)
}

// RunePrefix returns the first n runes of s, or s when it is shorter.
func RunePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
