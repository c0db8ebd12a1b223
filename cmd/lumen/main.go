package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	lumen "github.com/pratama/lumen"
	"github.com/pratama/lumen/index"
	"github.com/pratama/lumen/internal/config"
	"github.com/pratama/lumen/internal/server"
	"github.com/pratama/lumen/observer"
	"github.com/pratama/lumen/provider/gemini"
	"github.com/pratama/lumen/store/postgres"
	"github.com/pratama/lumen/store/sqlite"
	"github.com/pratama/lumen/tools/calc"
	"github.com/pratama/lumen/tools/weather"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 1. Load config
	cfg := config.Load(os.Getenv("LUMEN_CONFIG"))
	if cfg.LLM.APIKey == "" {
		logger.Error("no LLM api key configured, set LUMEN_LLM_API_KEY")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Observability
	var inst *observer.Instruments
	var agentTracer lumen.Tracer
	if cfg.Observer.Enabled {
		var shutdown func(context.Context) error
		var err error
		inst, shutdown, err = observer.Init(ctx)
		if err != nil {
			logger.Error("observer init failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("observer shutdown", "error", err)
			}
		}()
		agentTracer = observer.NewTracer()
	}

	// 3. Providers
	provider := lumen.WithRetry(
		gemini.New(cfg.LLM.APIKey, cfg.LLM.Model),
		lumen.RetryLogger(logger),
	)
	embedding := lumen.WithEmbeddingRetry(
		gemini.NewEmbedding(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions),
		lumen.RetryLogger(logger),
	)

	// 4. Vector index
	idx, err := index.Load(cfg.Index.Path, index.WithLogger(logger))
	if errors.Is(err, index.ErrNotFound) {
		logger.Warn("no index found, starting with an empty knowledge base",
			"path", cfg.Index.Path)
		idx, err = index.New(cfg.Embedding.Dimensions, index.WithLogger(logger))
	}
	if err != nil {
		logger.Error("index load failed", "error", err)
		os.Exit(1)
	}
	logger.Info("index ready", "vectors", idx.Count(), "dimensions", idx.Dimension())

	retriever := lumen.NewRetriever(idx, embedding,
		lumen.WithTopK(cfg.Index.TopK),
		lumen.WithRetrieverLogger(logger),
	)

	// 5. Tools
	tools := lumen.NewToolRegistry()
	for _, t := range []lumen.Tool{calc.New(), weather.New()} {
		if err := tools.Add(t); err != nil {
			logger.Error("tool registration failed", "error", err)
			os.Exit(1)
		}
	}

	// 6. Agent
	agentOpts := []lumen.AgentOption{
		lumen.WithLogger(logger),
		lumen.WithMaxToolCycles(cfg.Agent.MaxToolCycles),
		lumen.WithLLMTimeout(time.Duration(cfg.Agent.LLMTimeoutSec) * time.Second),
		lumen.WithToolTimeout(time.Duration(cfg.Agent.ToolTimeoutSec) * time.Second),
	}
	if agentTracer != nil {
		agentOpts = append(agentOpts, lumen.WithTracer(agentTracer))
	}
	agent := lumen.New(provider, retriever, tools, agentOpts...)

	// 7. Feedback store
	var feedback lumen.FeedbackStore
	switch cfg.Feedback.Driver {
	case "postgres":
		feedback, err = postgres.New(ctx, cfg.Feedback.PostgresURL, postgres.WithLogger(logger))
		if err != nil {
			logger.Error("postgres feedback store failed", "error", err)
			os.Exit(1)
		}
	default:
		feedback = sqlite.New(cfg.Feedback.Path, sqlite.WithLogger(logger))
	}
	if err := feedback.Init(ctx); err != nil {
		logger.Error("feedback store init failed", "error", err)
		os.Exit(1)
	}
	defer feedback.Close()

	// 8. HTTP server
	srvOpts := []server.Option{server.WithLogger(logger)}
	if inst != nil {
		srvOpts = append(srvOpts, server.WithInstruments(inst))
	}
	api := server.New(agent, feedback, srvOpts...)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			logger.Warn("server shutdown", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.Server.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
