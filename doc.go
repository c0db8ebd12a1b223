// Package lumen is a retrieval-augmented conversational agent core for Go.
//
// It provides the contracts and the orchestration state machine for one
// conversational turn: retrieve relevant knowledge from a vector index,
// let the language model decide between answering, calling tools, and
// asking a clarifying question, execute requested tools, and terminate
// with a user-visible result.
//
// # Quick Start
//
//	provider := gemini.New(apiKey, model)
//	embedding := gemini.NewEmbedding(apiKey, embedModel, dims)
//	idx, _ := index.Load("lumen.idx")
//
//	tools := lumen.NewToolRegistry()
//	_ = tools.Add(calc.New())
//	_ = tools.Add(weather.New())
//
//	agent := lumen.New(provider,
//		lumen.NewRetriever(idx, embedding),
//		tools,
//	)
//
//	resp, err := agent.Run(ctx, lumen.Request{Message: "How long do refunds take?"})
//
// # Core Interfaces
//
// The root package defines the contracts that all components implement:
//
//   - [Provider]: LLM backend (chat with tool calling)
//   - [EmbeddingProvider]: text-to-vector embedding
//   - [VectorSearcher]: nearest-neighbor search (see the index package)
//   - [Tool]: pluggable capability for LLM function calling
//   - [FeedbackStore]: user feedback persistence
//   - [Tracer]: span emission (see the observer package)
//
// # Included Implementations
//
// Providers: provider/gemini. Index: index (flat exact k-NN with durable
// save/load). Tools: tools/calc, tools/weather. Storage: store/sqlite,
// store/postgres. Ingestion: ingest. See cmd/lumen for the service wiring
// and cmd/lumen-ingest for knowledge-base ingestion.
package lumen
