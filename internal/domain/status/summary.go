package status

// Summarize folds counts keyed by raw status into counts per group. Every
// group is present in the result, zero when no status maps to it.
func Summarize(counts map[string]int) map[Group]int {
	out := make(map[Group]int, len(Groups))
	for _, g := range Groups {
		out[g] = 0
	}
	for raw, n := range counts {
		out[Classify(raw)] += n
	}
	return out
}
