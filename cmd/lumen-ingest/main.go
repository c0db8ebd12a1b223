// Command lumen-ingest builds the knowledge base: it walks a document
// directory, embeds every chunk, and writes the vector index the serving
// process loads at startup.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	lumen "github.com/pratama/lumen"
	"github.com/pratama/lumen/index"
	"github.com/pratama/lumen/ingest"
	"github.com/pratama/lumen/internal/config"
	"github.com/pratama/lumen/provider/gemini"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var (
		docsPath  = flag.String("docs", "", "directory of .md/.txt/.pdf files (default from config)")
		indexPath = flag.String("index", "", "index file to write (default from config)")
		fresh     = flag.Bool("fresh", false, "ignore an existing index and rebuild from scratch")
	)
	flag.Parse()

	cfg := config.Load(os.Getenv("LUMEN_CONFIG"))
	if *docsPath != "" {
		cfg.Ingest.DocsPath = *docsPath
	}
	if *indexPath != "" {
		cfg.Index.Path = *indexPath
	}
	if cfg.Embedding.APIKey == "" {
		logger.Error("no embedding api key configured, set LUMEN_EMBEDDING_API_KEY")
		os.Exit(1)
	}

	embedding := lumen.WithEmbeddingRetry(
		gemini.NewEmbedding(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions),
		lumen.RetryLogger(logger),
	)

	var idx *index.Index
	var err error
	if *fresh {
		idx, err = index.New(cfg.Embedding.Dimensions, index.WithLogger(logger))
	} else {
		idx, err = index.Load(cfg.Index.Path, index.WithLogger(logger))
		if errors.Is(err, index.ErrNotFound) {
			idx, err = index.New(cfg.Embedding.Dimensions, index.WithLogger(logger))
		}
	}
	if err != nil {
		logger.Error("index setup failed", "error", err)
		os.Exit(1)
	}

	ing := ingest.NewIngestor(idx, embedding,
		ingest.WithChunker(ingest.NewRecursiveChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)),
		ingest.WithLogger(logger),
	)

	res, err := ing.IngestDir(context.Background(), cfg.Ingest.DocsPath)
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ingest complete", "files", res.Files, "chunks", res.Chunks, "vectors", idx.Count())

	if err := idx.Save(cfg.Index.Path); err != nil {
		logger.Error("index save failed", "error", err)
		os.Exit(1)
	}
	logger.Info("index written", "path", cfg.Index.Path)
}
