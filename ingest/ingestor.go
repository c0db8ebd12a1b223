package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lumen "github.com/pratama/lumen"
)

// Upserter is the write side of a vector index.
type Upserter interface {
	Upsert(vectors [][]float32, payloads []json.RawMessage) error
}

// Result holds the outcome of an ingest operation.
type Result struct {
	Files  int
	Chunks int
}

// Ingestor runs the pipeline: extract, chunk, embed, upsert.
type Ingestor struct {
	index      Upserter
	embedding  lumen.EmbeddingProvider
	chunker    Chunker
	extractors map[ContentType]Extractor
	batchSize  int
	logger     *slog.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithChunker replaces the default chunker.
func WithChunker(c Chunker) Option {
	return func(ing *Ingestor) { ing.chunker = c }
}

// WithBatchSize sets how many chunks are embedded per provider call.
func WithBatchSize(n int) Option {
	return func(ing *Ingestor) {
		if n > 0 {
			ing.batchSize = n
		}
	}
}

// WithLogger sets a structured logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(ing *Ingestor) { ing.logger = l }
}

// NewIngestor creates an Ingestor with default extractors and chunking.
func NewIngestor(index Upserter, emb lumen.EmbeddingProvider, opts ...Option) *Ingestor {
	ing := &Ingestor{
		index:     index,
		embedding: emb,
		chunker:   NewRecursiveChunker(defaultChunkSize, defaultChunkOverlap),
		extractors: map[ContentType]Extractor{
			TypePlainText: PlainTextExtractor{},
			TypeMarkdown:  MarkdownExtractor{},
			TypePDF:       PDFExtractor{},
		},
		batchSize: 64,
		logger:    slog.New(discardHandler{}),
	}
	for _, o := range opts {
		o(ing)
	}
	return ing
}

// IngestText chunks and embeds plain text, writing each chunk into the
// index with the given source label.
func (ing *Ingestor) IngestText(ctx context.Context, text, source string) (Result, error) {
	chunks := ing.chunker.Chunk(text)
	if len(chunks) == 0 {
		return Result{}, nil
	}

	payloads := make([]json.RawMessage, len(chunks))
	for i, c := range chunks {
		p, err := json.Marshal(lumen.DocumentPayload{Content: c, Source: source})
		if err != nil {
			return Result{}, fmt.Errorf("encode payload: %w", err)
		}
		payloads[i] = p
	}

	vectors, err := ing.batchEmbed(ctx, chunks)
	if err != nil {
		return Result{}, err
	}
	if err := ing.index.Upsert(vectors, payloads); err != nil {
		return Result{}, fmt.Errorf("upsert: %w", err)
	}
	return Result{Files: 1, Chunks: len(chunks)}, nil
}

// IngestFile extracts content by file extension, then chunks and embeds it.
func (ing *Ingestor) IngestFile(ctx context.Context, content []byte, filename string) (Result, error) {
	ct := ContentTypeFromExtension(strings.TrimPrefix(filepath.Ext(filename), "."))
	extractor, ok := ing.extractors[ct]
	if !ok {
		extractor = PlainTextExtractor{}
	}
	text, err := extractor.Extract(content)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", ct, err)
	}
	return ing.IngestText(ctx, text, filepath.Base(filename))
}

// IngestDir walks a directory tree and ingests every .md, .txt, and .pdf
// file. A file that fails to extract is logged and skipped; embedding
// failures abort the walk since later files would fail the same way.
func (ing *Ingestor) IngestDir(ctx context.Context, dir string) (Result, error) {
	var total Result
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown", ".txt", ".pdf":
		default:
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			ing.logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		res, err := ing.IngestFile(ctx, content, path)
		if err != nil {
			if strings.HasPrefix(err.Error(), "extract") {
				ing.logger.Warn("skipping file that failed extraction", "path", path, "error", err)
				return nil
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		ing.logger.Info("ingested file", "path", path, "chunks", res.Chunks)
		total.Files++
		total.Chunks += res.Chunks
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, nil
}

// batchEmbed embeds chunk texts in batches of batchSize.
func (ing *Ingestor) batchEmbed(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += ing.batchSize {
		end := i + ing.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := ing.embedding.Embed(ctx, chunks[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", i, end, err)
		}
		if len(batch) != end-i {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors for %d texts", i, end, len(batch), end-i)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
