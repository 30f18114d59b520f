package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(100, 20)
	if got := s.Split("   "); got != nil {
		t.Fatalf("expected nil for blank text, got %v", got)
	}
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	got := s.Split("short passage")
	if len(got) != 1 || got[0] != "short passage" {
		t.Fatalf("unexpected chunks %v", got)
	}
}

func TestSplitProducesOverlap(t *testing.T) {
	words := strings.Repeat("alpha beta gamma delta ", 40)
	s := NewSplitter(100, 30)
	chunks := s.Split(words)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 100 {
			t.Fatalf("chunk %d exceeds size limit: %d runes", i, len([]rune(chunk)))
		}
	}
	// Overlap means consecutive chunks share a suffix/prefix region.
	tail := chunks[0][len(chunks[0])-10:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Fatalf("expected overlap between chunks, tail %q not in %q", tail, chunks[1])
	}
}

func TestSplitBreaksAtWhitespace(t *testing.T) {
	words := strings.Repeat("engineering ", 50)
	s := NewSplitter(64, 0)
	for i, chunk := range s.Split(words) {
		if strings.Contains(chunk, "engineerin g") || !strings.HasSuffix(chunk, "engineering") {
			t.Fatalf("chunk %d split mid-word: %q", i, chunk)
		}
	}
}

func TestSplitUnbrokenRunHardCuts(t *testing.T) {
	blob := strings.Repeat("x", 500)
	s := NewSplitter(100, 0)
	chunks := s.Split(blob)
	if len(chunks) != 5 {
		t.Fatalf("expected 5 hard-cut chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) != 100 {
			t.Fatalf("chunk %d has %d runes", i, len(chunk))
		}
	}
}
