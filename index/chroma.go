package index

import (
	"context"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/m-mizutani/goerr/v2"
)

// Chroma stores index vectors in a Chroma collection. Each document carries
// its corpus ordinal and the corpus fingerprint in its metadata.
type Chroma struct {
	client      chromago.Client
	collection  chromago.Collection
	name        string
	fingerprint string
}

// NewChroma connects to the Chroma server at baseURL and gets or creates the
// collection for fingerprint.
func NewChroma(ctx context.Context, baseURL, collectionName, fingerprint string) (*Chroma, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chroma client", goerr.V("url", baseURL))
	}

	logging.Component(ctx, "indexer").Info("getting or creating chroma collection", "collection", collectionName)
	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "SOAP note conversations"),
				chromago.NewStringAttribute("created_by", "soap_note_generator"),
				chromago.NewStringAttribute("fingerprint", fingerprint),
				chromago.NewStringAttribute("hnsw:space", "cosine"),
			),
		),
	)
	if err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to get or create chroma collection", goerr.V("collection", collectionName))
	}

	return &Chroma{
		client:      client,
		collection:  collection,
		name:        collectionName,
		fingerprint: fingerprint,
	}, nil
}

func (c *Chroma) Name() string { return "chroma:" + c.name }

func (c *Chroma) Count(ctx context.Context) (int, error) {
	count, err := c.collection.Count(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count items in collection")
	}
	return int(count), nil
}

func (c *Chroma) Reset(ctx context.Context) error {
	where := chromago.EqString("fingerprint", c.fingerprint)
	if err := c.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return goerr.Wrap(err, "failed to delete documents from chroma", goerr.V("collection", c.name))
	}
	return nil
}

func (c *Chroma) Add(ctx context.Context, offset int, docs []models.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return goerr.New("documents and vectors length mismatch", goerr.V("docs", len(docs)), goerr.V("vectors", len(vectors)))
	}

	ids := make([]chromago.DocumentID, len(docs))
	texts := make([]string, len(docs))
	embs := make([]embeddings.Embedding, len(docs))
	metas := make([]chromago.DocumentMetadata, len(docs))
	for i, doc := range docs {
		ordinal := offset + i
		ids[i] = chromago.DocumentID(DocumentID(c.fingerprint, ordinal))
		texts[i] = doc.Text
		embs[i] = embeddings.NewEmbeddingFromFloat32(vectors[i])
		metas[i] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("fingerprint", c.fingerprint),
			chromago.NewIntAttribute("ordinal", int64(ordinal)),
			chromago.NewStringAttribute("split", doc.Metadata.Split),
			chromago.NewIntAttribute("index", int64(doc.Metadata.Index)),
			chromago.NewStringAttribute("patient_name", doc.Metadata.PatientName),
			chromago.NewStringAttribute("health_problem", doc.Metadata.HealthProblem),
		)
	}

	err := c.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to add records to chroma", goerr.V("offset", offset), goerr.V("count", len(docs)))
	}
	return nil
}

// Search queries the collection, fetching past k while results tie at the
// cutoff so the caller can order ties by ordinal.
func (c *Chroma) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	query := embeddings.NewEmbeddingFromFloat32(vector)
	return searchPastTies(ctx, k, func(ctx context.Context, limit int) ([]Hit, error) {
		results, err := c.collection.Query(ctx,
			chromago.WithQueryEmbeddings(query),
			chromago.WithNResults(limit),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query chroma", goerr.V("collection", c.name), goerr.V("limit", limit))
		}

		metadataGroups := results.GetMetadatasGroups()
		distanceGroups := results.GetDistancesGroups()
		if len(metadataGroups) == 0 || len(distanceGroups) == 0 {
			return nil, nil
		}
		return chromaHits(ctx, metadataGroups[0], distanceGroups[0]), nil
	})
}

func (c *Chroma) Close() error {
	return c.client.Close()
}

// chromaHits pairs each result's ordinal with its cosine similarity,
// 1 - distance. Results without an ordinal or a distance are skipped.
func chromaHits(ctx context.Context, metas chromago.DocumentMetadatas, distances embeddings.Distances) []Hit {
	hits := make([]Hit, 0, len(metas))
	for i, meta := range metas {
		if meta == nil || i >= len(distances) {
			continue
		}
		ordinal, ok := meta.GetInt("ordinal")
		if !ok {
			logging.From(ctx).Warn("skipping chroma result without ordinal", "position", i)
			continue
		}
		hits = append(hits, Hit{Ordinal: int(ordinal), Score: 1 - float64(distances[i])})
	}
	return hits
}
