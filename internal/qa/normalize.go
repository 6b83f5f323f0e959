package qa

import (
	"strings"
	"unicode"
)

// Short function words dropped during query normalization. Tokens longer
// than three characters survive even when listed here, so content words
// that collide with a stop-word ("with", "for input named 'android'")
// are not discarded.
var queryStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

// NormalizeQuery canonicalizes a raw question into a retrieval-friendly
// query: lower-cased, punctuation stripped, whitespace collapsed, short
// stop-words removed. If filtering removes so much that the result drops
// under 30% of the raw length, the raw query is returned lower-cased and
// trimmed instead. Always returns a string; empty only for empty input.
func NormalizeQuery(raw string) string {
	query := strings.ToLower(strings.TrimSpace(raw))

	var builder strings.Builder
	builder.Grow(len(query))
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	words := strings.Fields(builder.String())
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if _, isStop := queryStopwords[word]; isStop && len(word) <= 3 {
			continue
		}
		filtered = append(filtered, word)
	}

	processed := strings.Join(filtered, " ")

	// Filtering that removes over 70% of the input is judged too
	// aggressive; fall back to the unfiltered query.
	if float64(len(processed)) < float64(len(raw))*0.3 {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	return processed
}
