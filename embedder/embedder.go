// Package embedder turns text into vectors through one of the supported
// embedding providers.
package embedder

import (
	"context"
	"net/http"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// Embedder embeds documents and queries with the same model.
type Embedder interface {
	embeddings.Embedder
	// Name identifies the provider and model, e.g. "openai/text-embedding-ada-002".
	Name() string
}

// Preparer is implemented by embedders that must see the whole corpus before
// they can embed anything.
type Preparer interface {
	Prepare(texts []string) error
}

// Options selects and configures a provider.
type Options struct {
	Provider   string
	Model      string
	BatchSize  int
	HTTPClient *http.Client

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string
	// Gemini is required by the "gemini" provider.
	Gemini *genai.Client
}

// New returns the embedder for opts.Provider. Every error it produces while
// embedding is an EmbeddingServiceError.
func New(opts Options) (Embedder, error) {
	var (
		inner embeddings.Embedder
		err   error
	)

	switch opts.Provider {
	case "openai":
		inner, err = newOpenAI(opts)
	case "ollama":
		inner, err = newOllama(opts)
	case "gemini":
		inner, err = newGemini(opts)
	case "tfidf":
		return NewTFIDF(), nil
	default:
		return nil, goerr.New("unknown embedding provider", goerr.V("provider", opts.Provider))
	}
	if err != nil {
		return nil, err
	}
	return Wrap(inner, opts.Provider, opts.Model), nil
}

func newOpenAI(opts Options) (embeddings.Embedder, error) {
	clientOpts := []openai.Option{
		openai.WithToken(opts.OpenAIAPIKey),
		openai.WithEmbeddingModel(opts.Model),
	}
	if opts.OpenAIBaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.OpenAIBaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, openai.WithHTTPClient(opts.HTTPClient))
	}

	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create openai embedding client")
	}
	return newBatched(client, opts.BatchSize)
}

func newOllama(opts Options) (embeddings.Embedder, error) {
	clientOpts := []ollama.Option{
		ollama.WithModel(opts.Model),
		ollama.WithServerURL(opts.OllamaURL),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, ollama.WithHTTPClient(opts.HTTPClient))
	}

	client, err := ollama.New(clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ollama embedding client")
	}
	return newBatched(client, opts.BatchSize)
}

func newBatched(client embeddings.EmbedderClient, batchSize int) (embeddings.Embedder, error) {
	e, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batchSize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedder")
	}
	return e, nil
}

// providerEmbedder classifies provider failures and traces every call.
type providerEmbedder struct {
	inner    embeddings.Embedder
	provider string
	model    string
}

// Wrap adapts a langchaingo embedder to Embedder. Its errors become
// EmbeddingServiceErrors.
func Wrap(inner embeddings.Embedder, provider, model string) Embedder {
	return &providerEmbedder{inner: inner, provider: provider, model: model}
}

func (p *providerEmbedder) Name() string {
	return p.provider + "/" + p.model
}

func (p *providerEmbedder) EmbedDocuments(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	ctx, span := tracing.StartClient(ctx, "embedding.documents", p.provider, p.model)
	span.SetAttributes(attribute.Int("embedding.texts", len(texts)))
	defer func() { tracing.End(span, err) }()

	vectors, err = p.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, models.NewError(models.ErrKindEmbeddingService,
			goerr.Wrap(err, "failed to embed documents", goerr.V("provider", p.Name()), goerr.V("count", len(texts))))
	}
	if len(vectors) != len(texts) {
		return nil, models.NewError(models.ErrKindEmbeddingService,
			goerr.New("embedding provider returned wrong number of vectors",
				goerr.V("provider", p.Name()), goerr.V("want", len(texts)), goerr.V("got", len(vectors))))
	}
	return vectors, nil
}

func (p *providerEmbedder) EmbedQuery(ctx context.Context, text string) (vector []float32, err error) {
	ctx, span := tracing.StartClient(ctx, "embedding.query", p.provider, p.model)
	defer func() { tracing.End(span, err) }()

	vector, err = p.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, models.NewError(models.ErrKindEmbeddingService,
			goerr.Wrap(err, "failed to embed query", goerr.V("provider", p.Name())))
	}
	return vector, nil
}
