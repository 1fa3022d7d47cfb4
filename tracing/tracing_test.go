package tracing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
	"github.com/m-mizutani/gt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	p, err := tracing.Init(context.Background(), tracing.Config{ServiceName: "test"})
	gt.NoError(t, err)
	gt.True(t, !p.Enabled())
	gt.NoError(t, p.Shutdown(context.Background()))
}

func TestSpanHelpers(t *testing.T) {
	ctx, span := tracing.Start(context.Background(), "index.query", attribute.Int("k", 3))
	gt.V(t, ctx).NotNil()
	tracing.End(span, nil)

	_, span = tracing.StartClient(context.Background(), "llm.generate", "openai", "gpt-4o-mini")
	tracing.End(span, errors.New("boom"))
}

func TestInitWithEndpoint(t *testing.T) {
	ctx := context.Background()
	p, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "soap-note-generator",
		ServiceVersion: "test",
		OTLPEndpoint:   "127.0.0.1:4317",
		SampleRate:     1,
	})
	gt.NoError(t, err)
	gt.True(t, p.Enabled())
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
	})

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	gt.NoError(t, p.Shutdown(shutdownCtx))
}
