package models_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/m-mizutani/gt"
)

func TestKindOf(t *testing.T) {
	base := errors.New("quota exceeded")

	testCases := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"plain error", base, models.ErrKindUnknown},
		{"embedding", models.NewError(models.ErrKindEmbeddingService, base), models.ErrKindEmbeddingService},
		{"wrapped generation", fmt.Errorf("request: %w", models.NewError(models.ErrKindGenerationService, base)), models.ErrKindGenerationService},
		{"corpus", models.NewError(models.ErrKindCorpusUnavailable, base), models.ErrKindCorpusUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, models.KindOf(tc.err), tc.want)
		})
	}
}

func TestNewErrorKeepsMessage(t *testing.T) {
	base := errors.New("connection refused")
	err := models.NewError(models.ErrKindEmbeddingService, base)
	gt.Equal(t, err.Error(), "connection refused")
	gt.True(t, errors.Is(err, base))
	gt.NoError(t, models.NewError(models.ErrKindValidation, nil))
}

func TestErrorKindString(t *testing.T) {
	gt.Equal(t, models.ErrKindValidation.String(), "ValidationError")
	gt.Equal(t, models.ErrKindCorpusUnavailable.String(), "CorpusUnavailable")
	gt.Equal(t, models.ErrKindEmbeddingService.String(), "EmbeddingServiceError")
	gt.Equal(t, models.ErrKindGenerationService.String(), "GenerationServiceError")
	gt.Equal(t, models.ErrKindUnknown.String(), "InternalError")
}
