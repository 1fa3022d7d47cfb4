package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/embedder"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/index"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/llm"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/services"
	"github.com/m-mizutani/gt"
	"github.com/tmc/langchaingo/llms/fake"
)

// recordingGenerator returns a fixed answer and keeps the prompts it received.
type recordingGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *recordingGenerator) Name() string { return "recording" }

func (g *recordingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Name() string { return "failing" }

func (failingEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, models.NewError(models.ErrKindEmbeddingService, errors.New("401 invalid api key"))
}

func newCorpus() *models.Corpus {
	c := &models.Corpus{}
	c.Append("Doctor: What brings you in? Patient: I have had a headache for three days.",
		models.Metadata{Split: "train", Index: 0, PatientName: "Ann", HealthProblem: "headache",
			SOAPNotes: "S: Headache for 3 days. O: Vitals normal. A: Tension headache. P: Rest, fluids."})
	c.Append("Doctor: How is your knee? Patient: It hurts when I climb stairs.",
		models.Metadata{Split: "train", Index: 1, PatientName: "Bob", HealthProblem: "knee pain",
			SOAPNotes: "S: Knee pain on stairs. O: Mild swelling. A: Patellofemoral pain. P: Physiotherapy."})
	c.Append("Doctor: Any cough? Patient: Yes, a dry cough at night.",
		models.Metadata{Split: "test", Index: 0, PatientName: "Unknown",
			SOAPNotes: "S: Nocturnal dry cough. O: Clear lungs. A: Postnasal drip. P: Antihistamine."})
	return c
}

func buildIndex(t *testing.T, c *models.Corpus, emb embedder.Embedder) *index.Index {
	t.Helper()
	ix, err := index.Build(context.Background(), c, emb, index.NewMemory())
	gt.NoError(t, err)
	return ix
}

func TestRetrieverUsesFixedK(t *testing.T) {
	r := services.NewRetriever(buildIndex(t, newCorpus(), embedder.NewTFIDF()), 0)
	gt.Equal(t, r.K(), services.DefaultTopK)

	docs, err := r.Retrieve(context.Background(), "Patient has a headache")
	gt.NoError(t, err)
	gt.A(t, docs).Length(3)
	gt.Equal(t, docs[0].Metadata.HealthProblem, "headache")
}

func TestBuildPromptWithEmptyContext(t *testing.T) {
	s := services.NewSynthesizer(&recordingGenerator{})
	prompt, err := s.BuildPrompt("Patient: my ear hurts", nil)
	gt.NoError(t, err)
	gt.S(t, prompt).Contains("Context (previous SOAP notes):\n\n\nNew Conversation:\nPatient: my ear hurts")
	gt.True(t, strings.HasSuffix(prompt, "Generate a new SOAP Note (Subjective, Objective, Assessment, Plan):\n"))
}

func TestBuildPromptJoinsNotesInRankOrder(t *testing.T) {
	docs := models.RetrievedSet{
		{Document: models.Document{Metadata: models.Metadata{SOAPNotes: "first note"}}, Rank: 1},
		{Document: models.Document{Metadata: models.Metadata{SOAPNotes: "second note"}}, Rank: 2},
	}
	prompt, err := services.NewSynthesizer(&recordingGenerator{}).BuildPrompt("convo", docs)
	gt.NoError(t, err)
	gt.S(t, prompt).Contains("first note\n\nsecond note")
}

func TestSynthesizeReturnsAnswerVerbatim(t *testing.T) {
	answer := "Subjective: headache\nObjective: none\nAssessment: tension\nPlan: rest\n"
	g := llm.NewLangChain(fake.NewFakeLLM([]string{answer}), "fake", "scripted")
	s := services.NewSynthesizer(g, services.WithSectionCheck(true))

	note, err := s.Synthesize(context.Background(), "convo", nil)
	gt.NoError(t, err)
	gt.Equal(t, note, answer)
}

func TestSynthesizeClassifiesGeneratorFailure(t *testing.T) {
	s := services.NewSynthesizer(&recordingGenerator{err: errors.New("model overloaded")})
	_, err := s.Synthesize(context.Background(), "convo", nil)
	gt.Equal(t, models.KindOf(err), models.ErrKindGenerationService)
	gt.S(t, err.Error()).Contains("model overloaded")
}

func TestMissingSections(t *testing.T) {
	gt.A(t, services.MissingSections("subjective objective assessment plan")).Length(0)
	missing := services.MissingSections("Subjective: x\nPlan: y")
	gt.Equal(t, missing, []string{"Objective", "Assessment"})
}

func TestGenerateSOAPNoteHeadache(t *testing.T) {
	c := newCorpus()
	gen := &recordingGenerator{answer: "S: headache\nO: normal\nA: migraine\nP: triptan"}
	svc := services.NewRAGService(
		services.NewRetriever(buildIndex(t, c, embedder.NewTFIDF()), 3),
		services.NewSynthesizer(gen),
		c.Len(),
	)
	gt.Equal(t, svc.DocumentCount(), 3)

	note, err := svc.GenerateSOAPNote(context.Background(), "Patient: I've had a headache and nausea since yesterday.")
	gt.NoError(t, err)
	gt.Equal(t, note, gen.answer)

	gt.A(t, gen.prompts).Length(1)
	gt.S(t, gen.prompts[0]).Contains("Tension headache")
	gt.S(t, gen.prompts[0]).Contains("I've had a headache and nausea since yesterday.")
}

func TestGenerateSOAPNoteSingleDocument(t *testing.T) {
	c := &models.Corpus{}
	c.Append("Patient: sore throat", models.Metadata{Split: "train", SOAPNotes: "S: sore throat. P: lozenges."})
	gen := &recordingGenerator{answer: "note"}
	svc := services.NewRAGService(
		services.NewRetriever(buildIndex(t, c, embedder.NewTFIDF()), 3),
		services.NewSynthesizer(gen),
		c.Len(),
	)

	_, err := svc.GenerateSOAPNote(context.Background(), "Patient: my knee hurts")
	gt.NoError(t, err)
	gt.S(t, gen.prompts[0]).Contains("S: sore throat. P: lozenges.")
}

func TestGenerateSOAPNoteEmptyConversation(t *testing.T) {
	c := newCorpus()
	gen := &recordingGenerator{answer: "empty note"}
	svc := services.NewRAGService(
		services.NewRetriever(buildIndex(t, c, embedder.NewTFIDF()), 3),
		services.NewSynthesizer(gen),
		c.Len(),
	)

	note, err := svc.GenerateSOAPNote(context.Background(), "")
	gt.NoError(t, err)
	gt.Equal(t, note, "empty note")
	gt.S(t, gen.prompts[0]).Contains("New Conversation:\n\n")
}

func TestGenerateSOAPNoteEmbeddingFailure(t *testing.T) {
	c := newCorpus()
	gen := &recordingGenerator{answer: "unused"}
	svc := services.NewRAGService(
		services.NewRetriever(buildIndex(t, c, failingEmbedder{}), 3),
		services.NewSynthesizer(gen),
		c.Len(),
	)

	_, err := svc.GenerateSOAPNote(context.Background(), "Patient: headache")
	gt.Equal(t, models.KindOf(err), models.ErrKindEmbeddingService)
	gt.S(t, err.Error()).Contains("401 invalid api key")
	gt.A(t, gen.prompts).Length(0)
}
