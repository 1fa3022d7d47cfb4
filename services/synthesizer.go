package services

import (
	"context"
	"strings"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/llm"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tmc/langchaingo/prompts"
	"go.opentelemetry.io/otel/attribute"
)

// contextSeparator joins retrieved notes into the prompt context.
const contextSeparator = "\n\n"

// SOAPSections are the headings a generated note is expected to contain.
var SOAPSections = []string{"Subjective", "Objective", "Assessment", "Plan"}

// Synthesizer writes a new SOAP note from a conversation and the notes of
// similar past conversations.
type Synthesizer struct {
	generator     llm.Generator
	prompt        prompts.PromptTemplate
	checkSections bool
}

type SynthesizerOption func(*Synthesizer)

// WithSectionCheck logs a warning when a generated note lacks one of the
// SOAPSections. The note is returned unchanged either way.
func WithSectionCheck(enabled bool) SynthesizerOption {
	return func(s *Synthesizer) {
		s.checkSections = enabled
	}
}

func NewSynthesizer(generator llm.Generator, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		generator: generator,
		prompt:    GetSOAPNotePrompt(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildPrompt renders the prompt for conversation with the notes of docs as
// context. An empty docs gives an empty context.
func (s *Synthesizer) BuildPrompt(conversation string, docs models.RetrievedSet) (string, error) {
	prompt, err := s.prompt.Format(map[string]any{
		"context": strings.Join(docs.Notes(), contextSeparator),
		"input":   conversation,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render prompt")
	}
	return prompt, nil
}

// Synthesize returns the model's note for conversation verbatim.
func (s *Synthesizer) Synthesize(ctx context.Context, conversation string, docs models.RetrievedSet) (note string, err error) {
	ctx, span := tracing.Start(ctx, "synthesizer.synthesize",
		attribute.Int("synthesizer.context_documents", len(docs)),
		attribute.String("synthesizer.generator", s.generator.Name()),
	)
	defer func() { tracing.End(span, err) }()

	prompt, err := s.BuildPrompt(conversation, docs)
	if err != nil {
		return "", err
	}

	note, err = s.generator.Generate(ctx, prompt)
	if err != nil {
		if models.KindOf(err) == models.ErrKindUnknown {
			err = models.NewError(models.ErrKindGenerationService, err)
		}
		return "", err
	}

	if s.checkSections {
		if missing := MissingSections(note); len(missing) > 0 {
			logging.Component(ctx, "synthesizer").Warn("generated note is missing SOAP sections", "missing", missing)
		}
	}
	return note, nil
}

// MissingSections returns the SOAPSections not mentioned in note, compared
// case-insensitively.
func MissingSections(note string) []string {
	lower := strings.ToLower(note)
	var missing []string
	for _, section := range SOAPSections {
		if !strings.Contains(lower, strings.ToLower(section)) {
			missing = append(missing, section)
		}
	}
	return missing
}
