// Package llm generates text from a prompt through one of the supported
// language model providers.
package llm

import (
	"context"
	"net/http"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// Temperature is the sampling temperature of every generation call.
const Temperature = 0.2

// Generator turns a prompt into the model's answer text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	Provider   string
	Model      string
	HTTPClient *http.Client

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string
	// Gemini is required by the "gemini" provider.
	Gemini *genai.Client
}

// New returns the generator for opts.Provider.
func New(opts Options) (Generator, error) {
	switch opts.Provider {
	case "openai":
		clientOpts := []openai.Option{
			openai.WithToken(opts.OpenAIAPIKey),
			openai.WithModel(opts.Model),
		}
		if opts.OpenAIBaseURL != "" {
			clientOpts = append(clientOpts, openai.WithBaseURL(opts.OpenAIBaseURL))
		}
		if opts.HTTPClient != nil {
			clientOpts = append(clientOpts, openai.WithHTTPClient(opts.HTTPClient))
		}
		model, err := openai.New(clientOpts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create openai client")
		}
		return NewLangChain(model, "openai", opts.Model), nil

	case "ollama":
		clientOpts := []ollama.Option{
			ollama.WithModel(opts.Model),
			ollama.WithServerURL(opts.OllamaURL),
		}
		if opts.HTTPClient != nil {
			clientOpts = append(clientOpts, ollama.WithHTTPClient(opts.HTTPClient))
		}
		model, err := ollama.New(clientOpts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create ollama client")
		}
		return NewLangChain(model, "ollama", opts.Model), nil

	case "gemini":
		if opts.Gemini == nil {
			return nil, goerr.New("gemini client is required for the gemini llm provider")
		}
		return NewGemini(opts.Gemini, opts.Model), nil

	default:
		return nil, goerr.New("unknown llm provider", goerr.V("provider", opts.Provider))
	}
}

// LangChain generates through any langchaingo model.
type LangChain struct {
	model    llms.Model
	provider string
	name     string
}

func NewLangChain(model llms.Model, provider, name string) *LangChain {
	return &LangChain{model: model, provider: provider, name: name}
}

func (l *LangChain) Name() string {
	return l.provider + "/" + l.name
}

func (l *LangChain) Generate(ctx context.Context, prompt string) (answer string, err error) {
	ctx, span := tracing.StartClient(ctx, "llm.generate", l.provider, l.name)
	span.SetAttributes(attribute.Int("llm.prompt_chars", len(prompt)))
	defer func() { tracing.End(span, err) }()

	answer, err = llms.GenerateFromSinglePrompt(ctx, l.model, prompt, llms.WithTemperature(Temperature))
	if err != nil {
		return "", models.NewError(models.ErrKindGenerationService,
			goerr.Wrap(err, "failed to generate content", goerr.V("provider", l.Name())))
	}
	return answer, nil
}
