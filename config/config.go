// Package config holds the service configuration. Values come from built-in
// defaults, an optional YAML file, and command line flags or their environment
// variables, in increasing order of precedence.
package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataset   = "adesouza1/soap_notes"
	DefaultTopK      = 3
	DefaultBatchSize = 64
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CorpusConfig selects where the conversation dataset is loaded from.
type CorpusConfig struct {
	// Source is "huggingface" or "file".
	Source string `yaml:"source"`
	// File is the path of a local JSON or YAML corpus, used when Source is "file".
	File string `yaml:"file"`

	Dataset     string        `yaml:"dataset"`
	Config      string        `yaml:"config"`
	HFEndpoint  string        `yaml:"hf_endpoint"`
	HFToken     string        `yaml:"hf_token"`
	PageSize    int           `yaml:"page_size"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "openai", "ollama", "gemini" or "tfidf".
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// LLMConfig selects the text generation provider.
type LLMConfig struct {
	// Provider is one of "openai", "ollama" or "gemini".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// ProvidersConfig holds endpoints and credentials shared by embedding and
// generation providers.
type ProvidersConfig struct {
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OllamaURL     string `yaml:"ollama_url"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
}

// VectorStoreConfig selects the backend holding the index vectors.
type VectorStoreConfig struct {
	// Type is one of "memory", "chroma" or "qdrant".
	Type             string `yaml:"type"`
	ChromaURL        string `yaml:"chroma_url"`
	CollectionPrefix string `yaml:"collection_prefix"`
	QdrantHost       string `yaml:"qdrant_host"`
	QdrantPort       int    `yaml:"qdrant_port"`
}

// TracingConfig configures OpenTelemetry export. Tracing is a no-op when
// OTLPEndpoint is empty.
type TracingConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Config is the root configuration of the service.
type Config struct {
	LogLevel string `yaml:"log_level"`
	// TopK is the number of past notes retrieved per request.
	TopK int `yaml:"top_k"`
	// CheckSections logs a warning when a generated note lacks a SOAP section.
	CheckSections bool `yaml:"check_sections"`

	Server      ServerConfig      `yaml:"server"`
	Corpus      CorpusConfig      `yaml:"corpus"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	Providers   ProvidersConfig   `yaml:"providers"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		TopK:     DefaultTopK,
		Server: ServerConfig{
			Listen:          ":8000",
			ShutdownTimeout: 15 * time.Second,
		},
		Corpus: CorpusConfig{
			Source:      "huggingface",
			Dataset:     DefaultDataset,
			HFEndpoint:  "https://datasets-server.huggingface.co",
			PageSize:    100,
			HTTPTimeout: 30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			BatchSize: DefaultBatchSize,
		},
		LLM: LLMConfig{
			Provider: "openai",
		},
		Providers: ProvidersConfig{
			OllamaURL: "http://localhost:11434",
		},
		VectorStore: VectorStoreConfig{
			Type:             "memory",
			ChromaURL:        "http://localhost:8001",
			CollectionPrefix: "soap-notes",
			QdrantHost:       "localhost",
			QdrantPort:       6334,
		},
		Tracing: TracingConfig{
			ServiceName: "soap-note-generator",
			SampleRate:  1.0,
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the file
// keep their current values.
func (cfg *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}
	return nil
}

// EmbeddingModel returns the configured embedding model or the provider default.
func (cfg *Config) EmbeddingModel() string {
	if cfg.Embedding.Model != "" {
		return cfg.Embedding.Model
	}
	switch cfg.Embedding.Provider {
	case "openai":
		return "text-embedding-ada-002"
	case "ollama":
		return "nomic-embed-text"
	case "gemini":
		return "gemini-embedding-001"
	default:
		return cfg.Embedding.Provider
	}
}

// LLMModel returns the configured generation model or the provider default.
func (cfg *Config) LLMModel() string {
	if cfg.LLM.Model != "" {
		return cfg.LLM.Model
	}
	switch cfg.LLM.Provider {
	case "openai":
		return "gpt-4o-mini"
	case "ollama":
		return "llama3.1"
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return ""
	}
}

// Validate reports the first invalid setting.
func (cfg *Config) Validate() error {
	switch cfg.Corpus.Source {
	case "huggingface":
		if cfg.Corpus.Dataset == "" {
			return goerr.New("dataset is required for the huggingface corpus source")
		}
	case "file":
		if cfg.Corpus.File == "" {
			return goerr.New("corpus file is required for the file corpus source")
		}
	default:
		return goerr.New("unknown corpus source", goerr.V("source", cfg.Corpus.Source))
	}

	switch cfg.Embedding.Provider {
	case "openai", "ollama", "gemini", "tfidf":
	default:
		return goerr.New("unknown embedding provider", goerr.V("provider", cfg.Embedding.Provider))
	}

	switch cfg.LLM.Provider {
	case "openai", "ollama", "gemini":
	default:
		return goerr.New("unknown llm provider", goerr.V("provider", cfg.LLM.Provider))
	}

	if cfg.usesProvider("openai") && cfg.Providers.OpenAIAPIKey == "" {
		return goerr.New("openai api key is required (set OPENAI_API_KEY)")
	}
	if cfg.usesProvider("gemini") && cfg.Providers.GeminiAPIKey == "" {
		return goerr.New("gemini api key is required (set GEMINI_API_KEY)")
	}

	switch cfg.VectorStore.Type {
	case "memory", "chroma":
	case "qdrant":
		if cfg.VectorStore.QdrantPort <= 0 {
			return goerr.New("qdrant port must be positive", goerr.V("port", cfg.VectorStore.QdrantPort))
		}
	default:
		return goerr.New("unknown vector store", goerr.V("type", cfg.VectorStore.Type))
	}

	if cfg.TopK <= 0 {
		return goerr.New("top_k must be positive", goerr.V("top_k", cfg.TopK))
	}
	if cfg.Embedding.BatchSize <= 0 {
		return goerr.New("embedding batch size must be positive", goerr.V("batch_size", cfg.Embedding.BatchSize))
	}
	if cfg.Corpus.PageSize <= 0 || cfg.Corpus.PageSize > 100 {
		return goerr.New("page size must be between 1 and 100", goerr.V("page_size", cfg.Corpus.PageSize))
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		return goerr.New("sample rate must be between 0 and 1", goerr.V("sample_rate", cfg.Tracing.SampleRate))
	}
	return nil
}

func (cfg *Config) usesProvider(name string) bool {
	return cfg.Embedding.Provider == name || cfg.LLM.Provider == name
}
