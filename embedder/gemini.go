package embedder

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/genai"
)

// geminiMaxBatch is the largest number of contents accepted by one
// EmbedContent call.
const geminiMaxBatch = 100

func newGemini(opts Options) (embeddings.Embedder, error) {
	if opts.Gemini == nil {
		return nil, goerr.New("gemini client is required for the gemini embedding provider")
	}
	batch := opts.BatchSize
	if batch <= 0 || batch > geminiMaxBatch {
		batch = geminiMaxBatch
	}
	return newBatched(geminiClientFunc(opts.Gemini, opts.Model), batch)
}

func geminiClientFunc(client *genai.Client, model string) embeddings.EmbedderClientFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		contents := make([]*genai.Content, len(texts))
		for i, text := range texts {
			contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
		}

		resp, err := client.Models.EmbedContent(ctx, model, contents, &genai.EmbedContentConfig{})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed content", goerr.V("model", model))
		}
		if len(resp.Embeddings) != len(texts) {
			return nil, goerr.New("gemini returned wrong number of embeddings",
				goerr.V("want", len(texts)), goerr.V("got", len(resp.Embeddings)))
		}

		vectors := make([][]float32, len(resp.Embeddings))
		for i, e := range resp.Embeddings {
			if e == nil {
				return nil, goerr.New("gemini returned an empty embedding", goerr.V("index", i))
			}
			vectors[i] = e.Values
		}
		return vectors, nil
	}
}
