package services

import (
	"context"
	"time"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// RAGService defines the operations behind the HTTP API.
type RAGService interface {
	GenerateSOAPNote(ctx context.Context, conversation string) (string, error)
	DocumentCount() int
}

// ragServiceImpl holds the read-only retriever and synthesizer shared by all
// requests.
type ragServiceImpl struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	documents   int
}

// NewRAGService wires a retriever and a synthesizer into a RAGService.
// documents is the size of the index behind the retriever.
func NewRAGService(retriever *Retriever, synthesizer *Synthesizer, documents int) RAGService {
	return &ragServiceImpl{
		retriever:   retriever,
		synthesizer: synthesizer,
		documents:   documents,
	}
}

func (r *ragServiceImpl) DocumentCount() int {
	return r.documents
}

// GenerateSOAPNote retrieves similar past notes for conversation and asks the
// model for a new note.
func (r *ragServiceImpl) GenerateSOAPNote(ctx context.Context, conversation string) (note string, err error) {
	ctx, span := tracing.Start(ctx, "rag.generate_soap_note",
		attribute.Int("rag.conversation_length", len(conversation)),
		attribute.Int("rag.k", r.retriever.K()),
	)
	defer func() { tracing.End(span, err) }()

	logger := logging.Component(ctx, "rag")
	started := time.Now()

	docs, err := r.retriever.Retrieve(ctx, conversation)
	if err != nil {
		logger.Error("retrieval failed", "error", err)
		return "", err
	}
	logger.Debug("retrieved context", "documents", len(docs))

	note, err = r.synthesizer.Synthesize(ctx, conversation, docs)
	if err != nil {
		logger.Error("generation failed", "error", err)
		return "", err
	}

	logger.Info("generated SOAP note",
		"context_documents", len(docs),
		"note_length", len(note),
		"elapsed", time.Since(started),
	)
	return note, nil
}
