package qa

import "strings"

// PlanRetrievalCount decides how many chunks to fetch for a question.
// Short queries are keyword-like and want fewer, higher-precision
// matches; long descriptive queries benefit from wider recall. The word
// count is taken on the raw question, not the normalized query.
func PlanRetrievalCount(rawQuestion string) int {
	wordCount := len(strings.Fields(rawQuestion))

	switch {
	case wordCount <= 3:
		return 3
	case wordCount <= 8:
		return 5
	default:
		return 7
	}
}
