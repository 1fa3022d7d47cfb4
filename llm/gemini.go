package llm

import (
	"context"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Gemini generates through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(client *genai.Client, model string) *Gemini {
	return &Gemini{client: client, model: model}
}

func (g *Gemini) Name() string {
	return "gemini/" + g.model
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (answer string, err error) {
	ctx, span := tracing.StartClient(ctx, "llm.generate", "gemini", g.model)
	defer func() { tracing.End(span, err) }()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](Temperature),
	})
	if err != nil {
		return "", models.NewError(models.ErrKindGenerationService,
			goerr.Wrap(err, "failed to generate content", goerr.V("model", g.model)))
	}
	if len(resp.Candidates) == 0 {
		return "", models.NewError(models.ErrKindGenerationService,
			goerr.New("gemini returned no candidates", goerr.V("model", g.model)))
	}
	return resp.Text(), nil
}
