package services

import (
	"context"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/index"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
)

// DefaultTopK is the number of past notes used as context.
const DefaultTopK = 3

// Retriever looks up the past conversations most similar to a new one.
type Retriever struct {
	index *index.Index
	k     int
}

func NewRetriever(ix *index.Index, k int) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{index: ix, k: k}
}

// Retrieve returns up to k documents nearest to query, nearest first.
func (r *Retriever) Retrieve(ctx context.Context, query string) (models.RetrievedSet, error) {
	return r.index.Query(ctx, query, r.k)
}

// K returns the number of documents requested per query.
func (r *Retriever) K() int {
	return r.k
}
