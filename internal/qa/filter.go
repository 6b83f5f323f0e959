package qa

import (
	"context"
)

// fallbackCitationCount is how many of the original candidates survive
// when nothing clears the similarity threshold.
const fallbackCitationCount = 3

// filterRelevant re-scores retrieval candidates against the normalized
// query and keeps those whose similarity clears the threshold. The store
// is re-queried for twice the candidate count, so the accepted set can
// surface chunks that were not in the original candidates. Distances are
// converted to similarities via 1/(1+d); a zero distance is an exact
// match with similarity 1.
//
// If nothing clears the threshold but candidates existed, the first
// three candidates are returned unfiltered so an answer is never
// presented without its supporting context. The accepted set is never
// larger than the original candidate set.
func (s *Session) filterRelevant(ctx context.Context, candidates []Chunk, query string, threshold float64) []Chunk {
	logger := s.getLogger(ctx)

	if len(candidates) == 0 {
		return nil
	}

	scored, err := s.store.Nearest(ctx, query, len(candidates)*2)
	if err != nil {
		// A re-query failure degrades to the same fallback as the
		// no-survivors case; the answer already exists at this point.
		logger.WarnContext(ctx, "chunk store re-query failed, keeping top candidates", "error", err)
		return candidates[:min(fallbackCitationCount, len(candidates))]
	}

	accepted := make([]Chunk, 0, len(scored))
	for _, sc := range scored {
		similarity := 1.0
		if sc.Distance > 0 {
			similarity = 1.0 / (1.0 + sc.Distance)
		}

		if similarity >= threshold {
			accepted = append(accepted, sc.Chunk)
			logger.DebugContext(ctx, "chunk accepted", "similarity", similarity, "filename", sc.Chunk.SourceFilename)
		} else {
			logger.DebugContext(ctx, "chunk filtered", "similarity", similarity, "filename", sc.Chunk.SourceFilename)
		}
	}

	if len(accepted) == 0 {
		logger.WarnContext(ctx, "no chunks met similarity threshold, using top candidates",
			"threshold", threshold, "candidates", len(candidates))
		return candidates[:min(fallbackCitationCount, len(candidates))]
	}

	if len(accepted) > len(candidates) {
		accepted = accepted[:len(candidates)]
	}
	return accepted
}
