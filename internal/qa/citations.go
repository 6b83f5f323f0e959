package qa

import (
	"sort"
	"strings"
	"unicode"
)

const (
	queryOverlapWeight  = 0.3
	answerOverlapWeight = 0.7
	phraseBonusStep     = 0.1

	// Citations scoring at or below this are dropped; the cutoff is
	// strict, so a score of exactly 0.3 is excluded.
	citationScoreCutoff = 0.3

	// Score assigned when query or answer text is unavailable and
	// overlap cannot be computed.
	defaultRelevance = 0.5

	maxCitations = 5
)

// RankCitations scores chunks by lexical overlap with the query and the
// generated answer, then returns the top citations in descending score
// order. The answer overlap is weighted higher than the query overlap:
// the generated answer reflects what actually mattered in the chunk
// better than the raw question does.
func RankCitations(chunks []Chunk, query, answer string) []Citation {
	citations := make([]Citation, 0, len(chunks))

	for _, chunk := range chunks {
		score := defaultRelevance
		if query != "" && answer != "" {
			score = citationRelevance(chunk.Text, query, answer)
		}

		filename := chunk.SourceFilename
		if filename == "" {
			filename = "Unknown"
		}

		citations = append(citations, Citation{
			Filename:       filename,
			Page:           chunk.Page,
			ChunkID:        chunk.ChunkID,
			ContentPreview: strings.TrimSpace(chunk.Text),
			RelevanceScore: score,
		})
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].RelevanceScore > citations[j].RelevanceScore
	})

	ranked := make([]Citation, 0, maxCitations)
	for _, c := range citations {
		if c.RelevanceScore <= citationScoreCutoff {
			continue
		}
		ranked = append(ranked, c)
		if len(ranked) == maxCitations {
			break
		}
	}

	return ranked
}

// citationRelevance computes the lexical relevance of a chunk to the
// query and answer. Word overlap uses sets of tokens of length >= 3;
// the phrase bonus counts query tokens longer than 3 characters that
// appear verbatim inside the chunk content.
func citationRelevance(content, query, answer string) float64 {
	contentLower := strings.ToLower(content)
	queryLower := strings.ToLower(query)
	answerLower := strings.ToLower(answer)

	contentWords := wordSet(contentLower)
	queryWords := wordSet(queryLower)
	answerWords := wordSet(answerLower)

	queryOverlap := float64(intersectionSize(queryWords, contentWords)) / float64(max(len(queryWords), 1))
	answerOverlap := float64(intersectionSize(answerWords, contentWords)) / float64(max(len(answerWords), 1))

	score := queryOverlapWeight*queryOverlap + answerOverlapWeight*answerOverlap

	for _, phrase := range strings.Fields(queryLower) {
		phrase = strings.TrimSpace(phrase)
		if len(phrase) > 3 && strings.Contains(contentLower, phrase) {
			score += phraseBonusStep
		}
	}

	return min(score, 1.0)
}

// wordSet tokenizes text into the set of lower-case words of length >= 3.
// The input is assumed to be lower-cased already.
func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	for _, token := range strings.Fields(builder.String()) {
		if len(token) >= 3 {
			set[token] = struct{}{}
		}
	}
	return set
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	var n int
	for token := range a {
		if _, ok := b[token]; ok {
			n++
		}
	}
	return n
}
