// Package ingest provides document loading for the knowledge base: extract
// text from files, split it into overlapping chunks, embed them in
// batches, and write vectors plus payloads into the index.
package ingest

import (
	"strings"
)

// Chunker splits text into chunks suitable for embedding.
type Chunker interface {
	Chunk(text string) []string
}

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// RecursiveChunker splits on paragraph boundaries first, then lines, then
// hard character cuts, and merges segments back together with a trailing
// overlap carried into the next chunk.
type RecursiveChunker struct {
	size    int
	overlap int
}

// NewRecursiveChunker creates a chunker with the given chunk size and
// overlap in characters. Non-positive values fall back to the defaults;
// an overlap at or beyond the size is clamped to half the size.
func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = defaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &RecursiveChunker{size: size, overlap: overlap}
}

var _ Chunker = (*RecursiveChunker)(nil)

// Chunk splits text into overlapping chunks of roughly the configured size.
func (rc *RecursiveChunker) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= rc.size {
		return []string{text}
	}
	segments := splitSegments(text, rc.size)
	return mergeWithOverlap(segments, rc.size, rc.overlap)
}

// splitSegments breaks text into pieces no larger than maxChars, preferring
// paragraph boundaries, then line boundaries, then hard cuts.
func splitSegments(text string, maxChars int) []string {
	var segments []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= maxChars {
			segments = append(segments, para)
			continue
		}
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if len(line) <= maxChars {
				segments = append(segments, line)
				continue
			}
			segments = append(segments, hardCut(line, maxChars)...)
		}
	}
	return segments
}

// hardCut slices a single oversized run at word boundaries where possible.
func hardCut(text string, maxChars int) []string {
	var out []string
	for len(text) > maxChars {
		cut := maxChars
		if idx := strings.LastIndexByte(text[:maxChars], ' '); idx > maxChars/2 {
			cut = idx
		}
		out = append(out, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// mergeWithOverlap packs segments into chunks of roughly maxChars,
// carrying the last overlapChars of each chunk into the start of the next.
// A chunk is never just carried overlap: flushing requires fresh content.
func mergeWithOverlap(segments []string, maxChars, overlapChars int) []string {
	var chunks []string
	var current strings.Builder
	carried := 0

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		carried = 0
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if overlapChars > 0 && len(chunk) > overlapChars {
			tail := chunk[len(chunk)-overlapChars:]
			// Start the overlap on a word boundary when one exists.
			if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx+1 < len(tail) {
				tail = tail[idx+1:]
			}
			current.WriteString(tail)
			carried = current.Len()
		}
	}

	for _, seg := range segments {
		if current.Len() > carried && current.Len()+2+len(seg) > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(seg)
	}
	if current.Len() > carried {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}
