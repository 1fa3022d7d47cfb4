// Package index embeds the corpus once at startup and answers nearest-neighbour
// queries over it. Vectors live in a pluggable Store; the corpus itself stays
// in process and is looked up by ordinal.
package index

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/embedder"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultBatchSize is the number of texts embedded per provider call during Build.
const DefaultBatchSize = 64

// tieMargin is how many candidates past k a remote store is first asked for.
const tieMargin = 8

// Hit is a stored vector matched by a search. Ordinal is the position of the
// document in the corpus.
type Hit struct {
	Ordinal int
	Score   float64
}

// Store holds index vectors and searches them by cosine similarity.
type Store interface {
	Name() string
	// Count returns the number of vectors already stored.
	Count(ctx context.Context) (int, error)
	// Reset removes every stored vector.
	Reset(ctx context.Context) error
	// Add stores vectors for the documents at ordinals offset..offset+len(docs)-1.
	Add(ctx context.Context, offset int, docs []models.Document, vectors [][]float32) error
	// Search returns up to k hits, best first.
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
	Close() error
}

// Index is built once and is read-only afterwards; it is safe for concurrent
// queries.
type Index struct {
	corpus   *models.Corpus
	embedder embedder.Embedder
	store    Store
}

type buildConfig struct {
	batchSize int
}

type BuildOption func(*buildConfig)

func WithBatchSize(n int) BuildOption {
	return func(c *buildConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// Build embeds every corpus text in order and stores the vectors. A store that
// already holds exactly the corpus is reused as is; a partially filled one is
// reset first.
func Build(ctx context.Context, corpus *models.Corpus, emb embedder.Embedder, store Store, opts ...BuildOption) (ix *Index, err error) {
	cfg := buildConfig{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := tracing.Start(ctx, "index.build",
		attribute.String("index.store", store.Name()),
		attribute.String("index.embedder", emb.Name()),
		attribute.Int("index.documents", corpus.Len()),
	)
	defer func() { tracing.End(span, err) }()

	logger := logging.Component(ctx, "indexer")
	total := corpus.Len()

	if p, ok := emb.(embedder.Preparer); ok && total > 0 {
		if err := p.Prepare(corpus.Texts); err != nil {
			return nil, err
		}
	}

	stored, err := store.Count(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count stored vectors", goerr.V("store", store.Name()))
	}

	ix = &Index{corpus: corpus, embedder: emb, store: store}
	if stored == total && total > 0 {
		logger.Info("reusing stored vectors", "store", store.Name(), "documents", total)
		return ix, nil
	}
	if stored != 0 {
		logger.Warn("store holds a partial index, rebuilding", "store", store.Name(), "stored", stored, "documents", total)
		if err := store.Reset(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to reset store", goerr.V("store", store.Name()))
		}
	}

	logger.Info("building index", "store", store.Name(), "embedder", emb.Name(), "documents", total, "batch_size", cfg.batchSize)
	for offset := 0; offset < total; offset += cfg.batchSize {
		end := min(offset+cfg.batchSize, total)

		vectors, err := emb.EmbedDocuments(ctx, corpus.Texts[offset:end])
		if err != nil {
			return nil, models.NewError(models.ErrKindEmbeddingService,
				goerr.Wrap(err, "failed to embed corpus", goerr.V("offset", offset), goerr.V("end", end)))
		}

		docs := make([]models.Document, 0, end-offset)
		for i := offset; i < end; i++ {
			docs = append(docs, corpus.Document(i))
		}
		if err := store.Add(ctx, offset, docs, vectors); err != nil {
			return nil, goerr.Wrap(err, "failed to store vectors", goerr.V("store", store.Name()), goerr.V("offset", offset))
		}
		logger.Debug("indexed batch", "offset", offset, "end", end)
	}

	logger.Info("index built", "documents", total)
	return ix, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return ix.corpus.Len()
}

// Query embeds text and returns the k nearest documents, nearest first. Ties
// are broken by corpus order. Fewer than k documents are returned only when
// the index is smaller than k.
func (ix *Index) Query(ctx context.Context, text string, k int) (set models.RetrievedSet, err error) {
	if k <= 0 {
		return nil, models.NewError(models.ErrKindValidation, goerr.New("k must be positive", goerr.V("k", k)))
	}

	ctx, span := tracing.Start(ctx, "index.query", attribute.Int("index.k", k))
	defer func() { tracing.End(span, err) }()

	if ix.Len() == 0 {
		return models.RetrievedSet{}, nil
	}

	vector, err := ix.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, models.NewError(models.ErrKindEmbeddingService, goerr.Wrap(err, "failed to embed query"))
	}

	hits, err := ix.store.Search(ctx, vector, k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search store", goerr.V("store", ix.store.Name()))
	}

	hits = normalizeHits(hits, ix.Len(), k)
	set = make(models.RetrievedSet, len(hits))
	for i, h := range hits {
		set[i] = models.RetrievedDocument{
			Document: ix.corpus.Document(h.Ordinal),
			Rank:     i + 1,
			Score:    h.Score,
		}
	}
	span.SetAttributes(attribute.Int("index.hits", len(set)))
	return set, nil
}

// Close releases the store.
func (ix *Index) Close() error {
	return ix.store.Close()
}

// normalizeHits orders hits by score, then ordinal, and drops duplicates and
// ordinals outside the corpus.
func normalizeHits(hits []Hit, size, k int) []Hit {
	seen := make(map[int]struct{}, len(hits))
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Ordinal < 0 || h.Ordinal >= size {
			continue
		}
		if _, dup := seen[h.Ordinal]; dup {
			continue
		}
		seen[h.Ordinal] = struct{}{}
		out = append(out, h)
	}

	slices.SortStableFunc(out, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// searchPastTies calls fetch with a growing limit until the weakest fetched
// score is strictly below the k-th best, or the store has no more results.
// Every document tied with the k-th best is then among the candidates.
func searchPastTies(ctx context.Context, k int, fetch func(ctx context.Context, limit int) ([]Hit, error)) ([]Hit, error) {
	limit := k + tieMargin
	for {
		hits, err := fetch(ctx, limit)
		if err != nil {
			return nil, err
		}
		if len(hits) < limit || !tiedAtCutoff(hits, k) {
			return hits, nil
		}
		limit *= 2
	}
}

// tiedAtCutoff reports whether the weakest hit scores as high as the k-th best.
func tiedAtCutoff(hits []Hit, k int) bool {
	if len(hits) < k || k <= 0 {
		return false
	}
	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	slices.SortFunc(scores, func(a, b float64) int { return cmp.Compare(b, a) })
	return scores[len(scores)-1] >= scores[k-1]
}

// Fingerprint identifies a corpus embedded by a given embedder. Remote stores
// use it to name collections so a restart can reuse earlier vectors.
func Fingerprint(embedderName string, corpus *models.Corpus) string {
	h := sha256.New()
	h.Write([]byte(embedderName))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(corpus.Len())))
	for _, text := range corpus.Texts {
		h.Write([]byte{0})
		h.Write([]byte(text))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// DocumentID is the stable ID of the document at ordinal within the corpus
// identified by fingerprint.
func DocumentID(fingerprint string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fingerprint+":"+strconv.Itoa(ordinal))).String()
}
