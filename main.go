package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/config"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/controller"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/corpus"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/embedder"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/index"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/llm"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/server"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/services"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
)

const version = "1.0.0"

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:    "soap-note-generator",
		Usage:   "Generate SOAP notes from doctor-patient conversations with retrieval-augmented generation",
		Version: version,
		Flags:   config.Flags(),
		Action:  run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logging.Default().Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.LogLevel, os.Stdout)
	ctx = logging.With(ctx, logger)
	logger.Info("starting", "version", version, "config", cfg.String())

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	if tp.Enabled() {
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.OTLPEndpoint)
	}

	httpClient := &http.Client{Timeout: cfg.Corpus.HTTPTimeout}

	docs, err := corpus.Load(ctx, newCorpusSource(cfg, httpClient))
	if err != nil {
		return err
	}

	var geminiClient *genai.Client
	if cfg.Embedding.Provider == "gemini" || cfg.LLM.Provider == "gemini" {
		geminiClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     cfg.Providers.GeminiAPIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: httpClient,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to create gemini client")
		}
		logger.Info("connected to Google Gemini")
	}

	emb, err := embedder.New(embedder.Options{
		Provider:      cfg.Embedding.Provider,
		Model:         cfg.EmbeddingModel(),
		BatchSize:     cfg.Embedding.BatchSize,
		HTTPClient:    httpClient,
		OpenAIAPIKey:  cfg.Providers.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Providers.OpenAIBaseURL,
		OllamaURL:     cfg.Providers.OllamaURL,
		Gemini:        geminiClient,
	})
	if err != nil {
		return err
	}

	store, err := newStore(ctx, cfg, index.Fingerprint(emb.Name(), docs))
	if err != nil {
		return err
	}

	ix, err := index.Build(ctx, docs, emb, store, index.WithBatchSize(cfg.Embedding.BatchSize))
	if err != nil {
		_ = store.Close()
		return err
	}

	generator, err := llm.New(llm.Options{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLMModel(),
		HTTPClient:    httpClient,
		OpenAIAPIKey:  cfg.Providers.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Providers.OpenAIBaseURL,
		OllamaURL:     cfg.Providers.OllamaURL,
		Gemini:        geminiClient,
	})
	if err != nil {
		_ = ix.Close()
		return err
	}

	ragService := services.NewRAGService(
		services.NewRetriever(ix, cfg.TopK),
		services.NewSynthesizer(generator, services.WithSectionCheck(cfg.CheckSections)),
		ix.Len(),
	)
	soapController := controller.NewSOAPController(ragService, cfg.Tracing.ServiceName, version)

	srv := server.New(cfg.Server.Listen, server.NewRouter(soapController), cfg.Server.ShutdownTimeout)
	srv.RegisterHook("vector-store", server.PriorityStore, func(context.Context) error {
		return ix.Close()
	})
	srv.RegisterHook("tracing", server.PriorityTracing, tp.Shutdown)

	logger.Info("API endpoints",
		"root", "GET "+cfg.Server.Listen+"/",
		"health", "GET "+cfg.Server.Listen+"/health",
		"generate", "POST "+cfg.Server.Listen+"/generate_soap_note",
	)
	return srv.Run(ctx)
}

func newCorpusSource(cfg *config.Config, httpClient *http.Client) corpus.Source {
	if cfg.Corpus.Source == "file" {
		return corpus.NewFile(cfg.Corpus.File)
	}
	return corpus.NewHuggingFace(cfg.Corpus.Dataset,
		corpus.WithHTTPClient(httpClient),
		corpus.WithEndpoint(cfg.Corpus.HFEndpoint),
		corpus.WithDatasetConfig(cfg.Corpus.Config),
		corpus.WithToken(cfg.Corpus.HFToken),
		corpus.WithPageSize(cfg.Corpus.PageSize),
	)
}

func newStore(ctx context.Context, cfg *config.Config, fingerprint string) (index.Store, error) {
	collection := cfg.VectorStore.CollectionPrefix + "-" + fingerprint

	switch cfg.VectorStore.Type {
	case "chroma":
		return index.NewChroma(ctx, cfg.VectorStore.ChromaURL, collection, fingerprint)
	case "qdrant":
		return index.NewQdrant(cfg.VectorStore.QdrantHost, cfg.VectorStore.QdrantPort, collection, fingerprint)
	case "memory", "":
		return index.NewMemory(), nil
	default:
		return nil, goerr.New("unknown vector store", goerr.V("type", cfg.VectorStore.Type))
	}
}
