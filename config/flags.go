package config

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Flags returns the command line flags of the serve command. Each flag can
// also be set through the environment variable named in its Sources.
func Flags() []cli.Flag {
	d := Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file",
			Sources: cli.EnvVars("SOAP_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   d.LogLevel,
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "HTTP listen address",
			Value:   d.Server.Listen,
			Sources: cli.EnvVars("SOAP_LISTEN"),
		},
		&cli.DurationFlag{
			Name:    "shutdown-timeout",
			Usage:   "Grace period for in-flight requests on shutdown",
			Value:   d.Server.ShutdownTimeout,
			Sources: cli.EnvVars("SOAP_SHUTDOWN_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:    "top-k",
			Usage:   "Number of past SOAP notes retrieved per request",
			Value:   int64(d.TopK),
			Sources: cli.EnvVars("SOAP_TOP_K"),
		},
		&cli.BoolFlag{
			Name:    "check-sections",
			Usage:   "Warn when a generated note misses a SOAP section",
			Sources: cli.EnvVars("SOAP_CHECK_SECTIONS"),
		},

		&cli.StringFlag{
			Name:    "corpus-source",
			Usage:   "Corpus source (huggingface, file)",
			Value:   d.Corpus.Source,
			Sources: cli.EnvVars("SOAP_CORPUS_SOURCE"),
		},
		&cli.StringFlag{
			Name:    "corpus-file",
			Usage:   "Local JSON or YAML corpus file",
			Sources: cli.EnvVars("SOAP_CORPUS_FILE"),
		},
		&cli.StringFlag{
			Name:    "dataset",
			Usage:   "Hugging Face dataset ID",
			Value:   d.Corpus.Dataset,
			Sources: cli.EnvVars("SOAP_DATASET"),
		},
		&cli.StringFlag{
			Name:    "dataset-config",
			Usage:   "Hugging Face dataset config (default: first listed)",
			Sources: cli.EnvVars("SOAP_DATASET_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "hf-endpoint",
			Usage:   "Hugging Face datasets-server base URL",
			Value:   d.Corpus.HFEndpoint,
			Sources: cli.EnvVars("HF_DATASETS_SERVER"),
		},
		&cli.StringFlag{
			Name:    "hf-token",
			Usage:   "Hugging Face access token",
			Sources: cli.EnvVars("HF_TOKEN"),
		},
		&cli.DurationFlag{
			Name:    "http-timeout",
			Usage:   "Timeout of outbound HTTP calls to the dataset server and providers",
			Value:   d.Corpus.HTTPTimeout,
			Sources: cli.EnvVars("SOAP_HTTP_TIMEOUT"),
		},

		&cli.StringFlag{
			Name:    "embedding-provider",
			Usage:   "Embedding provider (openai, ollama, gemini, tfidf)",
			Value:   d.Embedding.Provider,
			Sources: cli.EnvVars("SOAP_EMBEDDING_PROVIDER"),
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model (default depends on provider)",
			Sources: cli.EnvVars("SOAP_EMBEDDING_MODEL"),
		},
		&cli.IntFlag{
			Name:    "embedding-batch-size",
			Usage:   "Texts per embedding call while building the index",
			Value:   int64(d.Embedding.BatchSize),
			Sources: cli.EnvVars("SOAP_EMBEDDING_BATCH_SIZE"),
		},
		&cli.StringFlag{
			Name:    "llm-provider",
			Usage:   "Generation provider (openai, ollama, gemini)",
			Value:   d.LLM.Provider,
			Sources: cli.EnvVars("SOAP_LLM_PROVIDER"),
		},
		&cli.StringFlag{
			Name:    "llm-model",
			Usage:   "Generation model (default depends on provider)",
			Sources: cli.EnvVars("SOAP_LLM_MODEL"),
		},

		&cli.StringFlag{
			Name:    "openai-api-key",
			Usage:   "OpenAI API key",
			Sources: cli.EnvVars("OPENAI_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "openai-base-url",
			Usage:   "OpenAI-compatible API base URL",
			Sources: cli.EnvVars("OPENAI_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "ollama-url",
			Usage:   "Ollama server URL",
			Value:   d.Providers.OllamaURL,
			Sources: cli.EnvVars("OLLAMA_HOST"),
		},
		&cli.StringFlag{
			Name:    "gemini-api-key",
			Usage:   "Gemini API key",
			Sources: cli.EnvVars("GEMINI_API_KEY"),
		},

		&cli.StringFlag{
			Name:    "vector-store",
			Usage:   "Vector store backend (memory, chroma, qdrant)",
			Value:   d.VectorStore.Type,
			Sources: cli.EnvVars("SOAP_VECTOR_STORE"),
		},
		&cli.StringFlag{
			Name:    "chroma-url",
			Usage:   "Chroma server URL",
			Value:   d.VectorStore.ChromaURL,
			Sources: cli.EnvVars("CHROMA_URL"),
		},
		&cli.StringFlag{
			Name:    "collection-prefix",
			Usage:   "Prefix of the vector store collection name",
			Value:   d.VectorStore.CollectionPrefix,
			Sources: cli.EnvVars("SOAP_COLLECTION_PREFIX"),
		},
		&cli.StringFlag{
			Name:    "qdrant-host",
			Usage:   "Qdrant gRPC host",
			Value:   d.VectorStore.QdrantHost,
			Sources: cli.EnvVars("QDRANT_HOST"),
		},
		&cli.IntFlag{
			Name:    "qdrant-port",
			Usage:   "Qdrant gRPC port",
			Value:   int64(d.VectorStore.QdrantPort),
			Sources: cli.EnvVars("QDRANT_PORT"),
		},

		&cli.StringFlag{
			Name:    "otlp-endpoint",
			Usage:   "OTLP gRPC endpoint for traces (empty disables tracing)",
			Sources: cli.EnvVars("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		&cli.FloatFlag{
			Name:    "trace-sample-rate",
			Usage:   "Trace sampling rate between 0 and 1",
			Value:   d.Tracing.SampleRate,
			Sources: cli.EnvVars("SOAP_TRACE_SAMPLE_RATE"),
		},
	}
}

// FromCommand builds the configuration for cmd: defaults, then the YAML file
// named by --config, then every flag that was explicitly set.
func FromCommand(cmd *cli.Command) (*Config, error) {
	cfg := Default()
	if path := cmd.String("config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	setString(cmd, "log-level", &cfg.LogLevel)
	setString(cmd, "listen", &cfg.Server.Listen)
	setDuration(cmd, "shutdown-timeout", &cfg.Server.ShutdownTimeout)
	setInt(cmd, "top-k", &cfg.TopK)
	setBool(cmd, "check-sections", &cfg.CheckSections)

	setString(cmd, "corpus-source", &cfg.Corpus.Source)
	setString(cmd, "corpus-file", &cfg.Corpus.File)
	setString(cmd, "dataset", &cfg.Corpus.Dataset)
	setString(cmd, "dataset-config", &cfg.Corpus.Config)
	setString(cmd, "hf-endpoint", &cfg.Corpus.HFEndpoint)
	setString(cmd, "hf-token", &cfg.Corpus.HFToken)
	setDuration(cmd, "http-timeout", &cfg.Corpus.HTTPTimeout)

	setString(cmd, "embedding-provider", &cfg.Embedding.Provider)
	setString(cmd, "embedding-model", &cfg.Embedding.Model)
	setInt(cmd, "embedding-batch-size", &cfg.Embedding.BatchSize)
	setString(cmd, "llm-provider", &cfg.LLM.Provider)
	setString(cmd, "llm-model", &cfg.LLM.Model)

	setString(cmd, "openai-api-key", &cfg.Providers.OpenAIAPIKey)
	setString(cmd, "openai-base-url", &cfg.Providers.OpenAIBaseURL)
	setString(cmd, "ollama-url", &cfg.Providers.OllamaURL)
	setString(cmd, "gemini-api-key", &cfg.Providers.GeminiAPIKey)

	setString(cmd, "vector-store", &cfg.VectorStore.Type)
	setString(cmd, "chroma-url", &cfg.VectorStore.ChromaURL)
	setString(cmd, "collection-prefix", &cfg.VectorStore.CollectionPrefix)
	setString(cmd, "qdrant-host", &cfg.VectorStore.QdrantHost)
	setInt(cmd, "qdrant-port", &cfg.VectorStore.QdrantPort)

	setString(cmd, "otlp-endpoint", &cfg.Tracing.OTLPEndpoint)
	setFloat(cmd, "trace-sample-rate", &cfg.Tracing.SampleRate)

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// String renders the configuration for logs with credentials masked.
func (cfg *Config) String() string {
	return fmt.Sprintf("listen=%s corpus=%s embedding=%s/%s llm=%s/%s store=%s top_k=%d openai_key=%s gemini_key=%s hf_token=%s",
		cfg.Server.Listen, cfg.Corpus.Source,
		cfg.Embedding.Provider, cfg.EmbeddingModel(),
		cfg.LLM.Provider, cfg.LLMModel(),
		cfg.VectorStore.Type, cfg.TopK,
		mask(cfg.Providers.OpenAIAPIKey), mask(cfg.Providers.GeminiAPIKey), mask(cfg.Corpus.HFToken))
}

func mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return "****"
}

func setString(cmd *cli.Command, name string, dst *string) {
	if cmd.IsSet(name) {
		*dst = cmd.String(name)
	}
}

func setInt(cmd *cli.Command, name string, dst *int) {
	if cmd.IsSet(name) {
		*dst = int(cmd.Int(name))
	}
}

func setBool(cmd *cli.Command, name string, dst *bool) {
	if cmd.IsSet(name) {
		*dst = cmd.Bool(name)
	}
}

func setFloat(cmd *cli.Command, name string, dst *float64) {
	if cmd.IsSet(name) {
		*dst = cmd.Float(name)
	}
}

func setDuration(cmd *cli.Command, name string, dst *time.Duration) {
	if cmd.IsSet(name) {
		*dst = cmd.Duration(name)
	}
}
