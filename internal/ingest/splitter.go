package ingest

import "strings"

const (
	// DefaultChunkSize is the target chunk length in bytes.
	DefaultChunkSize = 500
	// DefaultOverlap is the number of bytes carried over between
	// consecutive chunks.
	DefaultOverlap = 200
)

// defaultSeparators is ordered from strongest to weakest boundary. The
// empty string is the last resort: a fixed-width hard split.
var defaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", " ", ""}

// Splitter breaks text into overlapping chunks, preferring to cut on
// the strongest boundary (paragraph, line, sentence) that keeps each
// chunk within the size limit.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. Non-positive sizes fall back to the
// defaults; the overlap is clamped below the chunk size.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split breaks text into chunks of at most the configured size. Chunks
// are trimmed; empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.split(text, defaultSeparators)
}

func (s *Splitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	sep, rest := pickSeparator(text, separators)
	if sep == "" {
		return s.hardSplit(text)
	}

	pieces := splitKeepSeparator(text, sep)

	var chunks []string
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending)...)
			pending = nil
		}
	}
	for _, piece := range pieces {
		if len(piece) <= s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		// Oversized piece: recurse with the weaker separators.
		flush()
		chunks = append(chunks, s.split(piece, rest)...)
	}
	flush()
	return chunks
}

// merge packs small pieces into chunks up to the size limit, carrying a
// tail of trailing pieces into the next chunk as overlap.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var buf []string
	bufLen := 0

	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(buf, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		if bufLen+len(piece) > s.chunkSize && bufLen > 0 {
			emit()
			for len(buf) > 0 && (bufLen > s.overlap || bufLen+len(piece) > s.chunkSize) {
				bufLen -= len(buf[0])
				buf = buf[1:]
			}
		}
		buf = append(buf, piece)
		bufLen += len(piece)
	}
	emit()
	return chunks
}

// hardSplit cuts text into fixed-width windows when no separator fits.
func (s *Splitter) hardSplit(text string) []string {
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}

// pickSeparator returns the strongest separator present in text and the
// weaker ones to recurse with.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitKeepSeparator splits text after each occurrence of sep, keeping
// the separator attached so joins reconstruct the original text.
func splitKeepSeparator(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	pieces := parts[:0]
	for _, part := range parts {
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}
