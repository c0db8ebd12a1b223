package lumen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/unicode/norm"
)

// SearchHit is one nearest-neighbor result from a vector index: the opaque
// payload stored at insertion time plus the distance score and internal id.
type SearchHit struct {
	Payload json.RawMessage
	Score   float32
	ID      int64
}

// VectorSearcher is the read side of a vector index. The index package
// provides the durable implementation; tests substitute in-memory fakes.
// Implementations must be safe for concurrent Search calls.
type VectorSearcher interface {
	Search(query []float32, k int) ([]SearchHit, error)
}

// Retriever embeds a query and resolves nearest-neighbor hits into
// RetrievedDocuments. It is the RETRIEVE step's only collaborator.
type Retriever struct {
	searcher  VectorSearcher
	embedding EmbeddingProvider
	topK      int
	timeout   time.Duration
	logger    *slog.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets how many documents Retrieve returns. Default is 5.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) { r.topK = k }
}

// WithEmbedTimeout bounds the embedding call. Default is 10s.
func WithEmbedTimeout(d time.Duration) RetrieverOption {
	return func(r *Retriever) { r.timeout = d }
}

// WithRetrieverLogger sets a structured logger. Default discards.
func WithRetrieverLogger(l *slog.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a Retriever over the given searcher and embedding
// provider.
func NewRetriever(searcher VectorSearcher, embedding EmbeddingProvider, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		searcher:  searcher,
		embedding: embedding,
		topK:      5,
		timeout:   10 * time.Second,
		logger:    nopLogger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Retrieve embeds the query and returns the closest stored documents,
// best-first. Hits whose payload cannot be decoded are dropped with a
// warning: a vector without a readable payload signals an ingest bug, not
// a user-facing error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]RetrievedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Normalize to NFC so visually identical queries embed identically.
	embs, err := r.embedding.Embed(ctx, []string{norm.NFC.String(query)})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embs) == 0 {
		return nil, fmt.Errorf("embed query: no embedding returned")
	}

	hits, err := r.searcher.Search(embs[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]RetrievedDocument, 0, len(hits))
	for _, h := range hits {
		var p DocumentPayload
		if err := json.Unmarshal(h.Payload, &p); err != nil {
			r.logger.Warn("dropping hit with undecodable payload", "id", h.ID, "error", err)
			continue
		}
		docs = append(docs, RetrievedDocument{Content: p.Content, Source: p.Source, Score: h.Score})
	}
	return docs, nil
}
