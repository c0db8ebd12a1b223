package ingest

import (
	"strings"
	"testing"
)

func TestChunkShortText(t *testing.T) {
	rc := NewRecursiveChunker(100, 20)
	chunks := rc.Chunk("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("chunks = %v, want single chunk", chunks)
	}
}

func TestChunkEmpty(t *testing.T) {
	rc := NewRecursiveChunker(100, 20)
	if chunks := rc.Chunk("  \n\n "); chunks != nil {
		t.Errorf("chunks = %v, want nil", chunks)
	}
}

func TestChunkRespectsSize(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("This is a sentence in a long paragraph about billing policies.\n\n")
	}
	rc := NewRecursiveChunker(200, 40)
	chunks := rc.Chunk(sb.String())
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Errorf("chunk %d has %d chars, exceeds size", i, len(c))
		}
	}
}

func TestChunkOverlapCarriesText(t *testing.T) {
	var paras []string
	for i := 0; i < 10; i++ {
		paras = append(paras, strings.Repeat("x", 80))
	}
	rc := NewRecursiveChunker(100, 30)
	chunks := rc.Chunk(strings.Join(paras, "\n\n"))
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-10:]
		if !strings.Contains(chunks[i], tail) {
			t.Errorf("chunk %d does not carry overlap from chunk %d", i, i-1)
		}
	}
}

func TestChunkHardCutsLongRuns(t *testing.T) {
	rc := NewRecursiveChunker(50, 0)
	chunks := rc.Chunk(strings.Repeat("a", 500))
	for i, c := range chunks {
		if len(c) > 50 {
			t.Errorf("chunk %d has %d chars", i, len(c))
		}
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != 500 {
		t.Errorf("total chars = %d, want 500", total)
	}
}

func TestChunkerClampsBadConfig(t *testing.T) {
	rc := NewRecursiveChunker(100, 100)
	if rc.overlap >= rc.size {
		t.Errorf("overlap %d not clamped below size %d", rc.overlap, rc.size)
	}
	rc = NewRecursiveChunker(0, -1)
	if rc.size != defaultChunkSize || rc.overlap != defaultChunkOverlap {
		t.Errorf("defaults not applied: size=%d overlap=%d", rc.size, rc.overlap)
	}
}
