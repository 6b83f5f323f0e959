package ingest

import (
	"strings"
	"testing"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(500, 200)

	got := s.Split("  A short paragraph.  ")

	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0] != "A short paragraph." {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestSplitEmpty(t *testing.T) {
	s := NewSplitter(500, 200)
	if got := s.Split("   \n\n  "); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Sentence number one is here. ")
	}

	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d has length %d, want <= 100", i, len(chunk))
		}
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(60, 0)

	text := "First paragraph stands alone here.\n\nSecond paragraph stands alone here."
	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != "First paragraph stands alone here." {
		t.Errorf("chunks[0] = %q", chunks[0])
	}
	if chunks[1] != "Second paragraph stands alone here." {
		t.Errorf("chunks[1] = %q", chunks[1])
	}
}

func TestSplitOverlapCarriesText(t *testing.T) {
	s := NewSplitter(80, 40)

	text := "Alpha sentence here. Bravo sentence here. Charlie sentence here. Delta sentence here. Echo sentence here."
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Consecutive chunks share at least one sentence.
	overlapFound := false
	for i := 1; i < len(chunks); i++ {
		words := strings.Fields(chunks[i])
		if len(words) > 0 && strings.Contains(chunks[i-1], words[0]) {
			overlapFound = true
		}
	}
	if !overlapFound {
		t.Errorf("no overlap between consecutive chunks: %q", chunks)
	}
}

func TestSplitHardSplitsUnbrokenText(t *testing.T) {
	s := NewSplitter(50, 10)

	text := strings.Repeat("x", 130)
	chunks := s.Split(text)

	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Errorf("chunk %d has length %d, want <= 50", i, len(chunk))
		}
	}
}

func TestNewSplitterClampsOverlap(t *testing.T) {
	s := NewSplitter(100, 500)
	if s.overlap >= s.chunkSize {
		t.Errorf("overlap %d not clamped below chunk size %d", s.overlap, s.chunkSize)
	}
}
