package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Agent     AgentConfig     `toml:"agent"`
	Ingest    IngestConfig    `toml:"ingest"`
	Feedback  FeedbackConfig  `toml:"feedback"`
	Observer  ObserverConfig  `toml:"observer"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	APIKey     string `toml:"api_key"`
}

type IndexConfig struct {
	Path string `toml:"path"`
	TopK int    `toml:"top_k"`
}

type AgentConfig struct {
	MaxToolCycles  int `toml:"max_tool_cycles"`
	LLMTimeoutSec  int `toml:"llm_timeout_sec"`
	ToolTimeoutSec int `toml:"tool_timeout_sec"`
}

type IngestConfig struct {
	DocsPath     string `toml:"docs_path"`
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
}

type FeedbackConfig struct {
	Driver      string `toml:"driver"` // "sqlite" or "postgres"
	Path        string `toml:"path"`
	PostgresURL string `toml:"postgres_url"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080"},
		LLM:       LLMConfig{Provider: "gemini", Model: "gemini-2.5-flash"},
		Embedding: EmbeddingConfig{Provider: "gemini", Model: "gemini-embedding-001", Dimensions: 768},
		Index:     IndexConfig{Path: "lumen-index.bin", TopK: 5},
		Agent:     AgentConfig{MaxToolCycles: 5, LLMTimeoutSec: 60, ToolTimeoutSec: 15},
		Ingest:    IngestConfig{DocsPath: "docs", ChunkSize: 1000, ChunkOverlap: 200},
		Feedback:  FeedbackConfig{Driver: "sqlite", Path: "lumen-feedback.db"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "lumen.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("LUMEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LUMEN_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LUMEN_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("LUMEN_INDEX_PATH"); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv("LUMEN_DOCS_PATH"); v != "" {
		cfg.Ingest.DocsPath = v
	}
	if v := os.Getenv("LUMEN_POSTGRES_URL"); v != "" {
		cfg.Feedback.Driver = "postgres"
		cfg.Feedback.PostgresURL = v
	}
	if os.Getenv("LUMEN_OBSERVER_ENABLED") == "true" || os.Getenv("LUMEN_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	// Fallbacks
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}

	return cfg
}
