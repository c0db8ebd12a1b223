// Package index implements a flat exact nearest-neighbor index over
// fixed-dimension vectors with co-located opaque payloads.
//
// Vectors are scanned brute-force with Euclidean distance (lower is
// closer); ids are sequential integers assigned at insertion time. The
// index and its payload map persist as a file pair that is always loaded
// and saved together.
package index

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/pratama/lumen"
)

// ErrNotFound is returned by Load when no index file exists at the path.
var ErrNotFound = errors.New("index: not found")

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a structured logger for desynchronization warnings and
// load diagnostics. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// Index is a flat vector index. Searches may run concurrently; Upsert and
// Save take the write lock and must not race with a bulk ingest from
// another process.
type Index struct {
	mu       sync.RWMutex
	dim      int
	vectors  [][]float64
	payloads map[int64]json.RawMessage
	logger   *slog.Logger
}

var _ lumen.VectorSearcher = (*Index)(nil)

// New creates an empty index for vectors of the given dimension.
func New(dimension int, opts ...Option) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("index: dimension must be positive, got %d", dimension)
	}
	ix := &Index{
		dim:      dimension,
		payloads: make(map[int64]json.RawMessage),
		logger:   slog.New(discardHandler{}),
	}
	for _, o := range opts {
		o(ix)
	}
	return ix, nil
}

// Dimension returns the vector size the index was created for.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// Count returns the number of stored vectors.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Upsert appends vectors with their payloads. Ids are assigned sequentially
// starting at the current count. The call is all-or-nothing: a length
// mismatch or a wrong-dimension vector leaves the index unchanged, and
// the two collections stay the same size at all times.
func (ix *Index) Upsert(vectors [][]float32, payloads []json.RawMessage) error {
	if len(vectors) != len(payloads) {
		return fmt.Errorf("index: %d vectors but %d payloads", len(vectors), len(payloads))
	}
	if len(vectors) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	converted := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("index: vector %d has dimension %d, want %d", i, len(v), ix.dim)
		}
		converted[i] = toFloat64(v)
	}

	start := int64(len(ix.vectors))
	ix.vectors = append(ix.vectors, converted...)
	for i, p := range payloads {
		ix.payloads[start+int64(i)] = p
	}
	return nil
}

// Search returns up to k hits ordered by ascending Euclidean distance,
// ties broken by ascending id. An empty index yields an empty result.
// Slots whose payload is missing are dropped from the output with a
// warning log; that signals index/payload desynchronization from a bad
// bulk load, not a caller error.
func (ix *Index) Search(query []float32, k int) ([]lumen.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(query) != ix.dim {
		return nil, fmt.Errorf("index: query has dimension %d, want %d", len(query), ix.dim)
	}
	if len(ix.vectors) == 0 {
		return nil, nil
	}

	q := toFloat64(query)
	type candidate struct {
		id   int64
		dist float64
	}
	cands := make([]candidate, len(ix.vectors))
	for i, v := range ix.vectors {
		cands[i] = candidate{id: int64(i), dist: floats.Distance(q, v, 2)}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].id < cands[j].id
	})

	if k > len(cands) {
		k = len(cands)
	}

	hits := make([]lumen.SearchHit, 0, k)
	for _, c := range cands[:k] {
		payload, ok := ix.payloads[c.id]
		if !ok {
			ix.logger.Warn("no payload for vector, dropping from results", "id", c.id)
			continue
		}
		hits = append(hits, lumen.SearchHit{Payload: payload, Score: float32(c.dist), ID: c.id})
	}
	return hits, nil
}

// toFloat64 widens an embedding vector for distance math.
func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// --- persistence ---

// vectorFile is the gob-encoded on-disk form of the vector block.
type vectorFile struct {
	Dim     int
	Vectors [][]float64
}

// payloadPath derives the payload file for an index file. The two form one
// logical aggregate and are never loaded or saved independently.
func payloadPath(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + ".docs.json"
}

// Save persists the vector block and the payload map as a pair. Both are
// written to temp files in the target directory first and renamed only
// after both writes succeed, so a failed save leaves the on-disk index
// unchanged.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	dir := filepath.Dir(path)

	vecTmp, err := os.CreateTemp(dir, ".lumen-index-*")
	if err != nil {
		return fmt.Errorf("index: create temp: %w", err)
	}
	defer os.Remove(vecTmp.Name())

	if err := gob.NewEncoder(vecTmp).Encode(vectorFile{Dim: ix.dim, Vectors: ix.vectors}); err != nil {
		vecTmp.Close()
		return fmt.Errorf("index: encode vectors: %w", err)
	}
	if err := vecTmp.Close(); err != nil {
		return fmt.Errorf("index: close temp: %w", err)
	}

	// Payload map is keyed by decimal id strings on disk.
	encoded := make(map[string]json.RawMessage, len(ix.payloads))
	for id, p := range ix.payloads {
		encoded[strconv.FormatInt(id, 10)] = p
	}
	payloadBytes, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("index: encode payloads: %w", err)
	}

	docTmp, err := os.CreateTemp(dir, ".lumen-docs-*")
	if err != nil {
		return fmt.Errorf("index: create temp: %w", err)
	}
	defer os.Remove(docTmp.Name())

	if _, err := docTmp.Write(payloadBytes); err != nil {
		docTmp.Close()
		return fmt.Errorf("index: write payloads: %w", err)
	}
	if err := docTmp.Close(); err != nil {
		return fmt.Errorf("index: close temp: %w", err)
	}

	// Both temp files exist; promote the pair.
	if err := os.Rename(vecTmp.Name(), path); err != nil {
		return fmt.Errorf("index: rename vectors: %w", err)
	}
	if err := os.Rename(docTmp.Name(), payloadPath(path)); err != nil {
		return fmt.Errorf("index: rename payloads: %w", err)
	}
	return nil
}

// Load reads a previously saved index and its payload map. A missing index
// file yields ErrNotFound. A present index whose payload file is missing
// or corrupt is recoverable-to-empty: the vectors load but resolve to no
// payloads, so searches return no usable results until the next ingest.
func Load(path string, opts ...Option) (*Index, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: open: %w", err)
	}
	defer f.Close()

	var vf vectorFile
	if err := gob.NewDecoder(f).Decode(&vf); err != nil {
		return nil, fmt.Errorf("index: decode vectors: %w", err)
	}
	if vf.Dim <= 0 {
		return nil, fmt.Errorf("index: invalid stored dimension %d", vf.Dim)
	}

	ix, err := New(vf.Dim, opts...)
	if err != nil {
		return nil, err
	}
	ix.vectors = vf.Vectors

	payloadBytes, err := os.ReadFile(payloadPath(path))
	if err != nil {
		ix.logger.Warn("payload file unreadable, loading index with empty payload map",
			"path", payloadPath(path), "error", err)
		return ix, nil
	}
	var encoded map[string]json.RawMessage
	if err := json.Unmarshal(payloadBytes, &encoded); err != nil {
		ix.logger.Warn("payload file corrupt, loading index with empty payload map",
			"path", payloadPath(path), "error", err)
		return ix, nil
	}
	for key, p := range encoded {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			ix.logger.Warn("skipping payload with non-numeric id", "id", key)
			continue
		}
		ix.payloads[id] = p
	}
	return ix, nil
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
