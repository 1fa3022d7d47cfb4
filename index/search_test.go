package index

import (
	"context"
	"errors"
	"testing"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/m-mizutani/gt"
)

// rankedStore returns hits best first, in an order that ignores ordinals, the
// way a remote store may.
func rankedStore(hits []Hit, limits *[]int) func(context.Context, int) ([]Hit, error) {
	return func(_ context.Context, limit int) ([]Hit, error) {
		*limits = append(*limits, limit)
		if limit > len(hits) {
			limit = len(hits)
		}
		return hits[:limit], nil
	}
}

func TestSearchPastTiesKeepsOrdinalTieBreak(t *testing.T) {
	// 20 documents with identical vectors; the store lists them newest first.
	var hits []Hit
	for i := 19; i >= 0; i-- {
		hits = append(hits, Hit{Ordinal: i, Score: 1})
	}

	var limits []int
	got, err := searchPastTies(context.Background(), 2, rankedStore(hits, &limits))
	gt.NoError(t, err)
	gt.Equal(t, limits, []int{10, 20, 40})

	top := normalizeHits(got, 20, 2)
	gt.Equal(t, top, []Hit{{Ordinal: 0, Score: 1}, {Ordinal: 1, Score: 1}})
}

func TestSearchPastTiesStopsWhenCutoffIsBeaten(t *testing.T) {
	hits := []Hit{{Ordinal: 4, Score: 0.9}, {Ordinal: 2, Score: 0.8}}
	for i := 10; i < 30; i++ {
		hits = append(hits, Hit{Ordinal: i, Score: 0.1})
	}

	var limits []int
	got, err := searchPastTies(context.Background(), 2, rankedStore(hits, &limits))
	gt.NoError(t, err)
	gt.Equal(t, limits, []int{10})
	gt.A(t, got).Length(10)
}

func TestSearchPastTiesPropagatesError(t *testing.T) {
	_, err := searchPastTies(context.Background(), 3, func(context.Context, int) ([]Hit, error) {
		return nil, errors.New("unavailable")
	})
	gt.Error(t, err)
}

func TestTiedAtCutoff(t *testing.T) {
	gt.True(t, tiedAtCutoff([]Hit{{Score: 0.5}, {Score: 0.5}, {Score: 0.5}}, 2))
	gt.True(t, !tiedAtCutoff([]Hit{{Score: 0.9}, {Score: 0.5}, {Score: 0.4}}, 2))
	gt.True(t, !tiedAtCutoff([]Hit{{Score: 0.9}}, 2))
}

func TestChromaHits(t *testing.T) {
	metas := chromago.DocumentMetadatas{
		chromago.NewDocumentMetadata(chromago.NewIntAttribute("ordinal", 7)),
		chromago.NewDocumentMetadata(chromago.NewStringAttribute("split", "train")),
		chromago.NewDocumentMetadata(chromago.NewIntAttribute("ordinal", 3)),
		chromago.NewDocumentMetadata(chromago.NewIntAttribute("ordinal", 5)),
	}
	distances := embeddings.Distances{0.25, 0.25, 0.25, 0.5}

	hits := chromaHits(context.Background(), metas, distances)
	gt.Equal(t, hits, []Hit{
		{Ordinal: 7, Score: 0.75},
		{Ordinal: 3, Score: 0.75},
		{Ordinal: 5, Score: 0.5},
	})

	// equal distances are ordered by ordinal, not by the store's order
	top := normalizeHits(hits, 10, 2)
	gt.Equal(t, top[0].Ordinal, 3)
	gt.Equal(t, top[1].Ordinal, 7)
}

func TestChromaHitsSkipsMissingDistances(t *testing.T) {
	metas := chromago.DocumentMetadatas{
		chromago.NewDocumentMetadata(chromago.NewIntAttribute("ordinal", 1)),
		chromago.NewDocumentMetadata(chromago.NewIntAttribute("ordinal", 2)),
	}
	hits := chromaHits(context.Background(), metas, embeddings.Distances{0})
	gt.Equal(t, hits, []Hit{{Ordinal: 1, Score: 1}})
}
