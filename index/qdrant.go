package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/m-mizutani/goerr/v2"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Qdrant stores index vectors in a Qdrant collection over gRPC. The collection
// uses cosine distance and is created on the first Add.
type Qdrant struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	fingerprint string

	mu      sync.Mutex
	created bool
}

// NewQdrant connects to the Qdrant gRPC endpoint at host:port.
func NewQdrant(host string, port int, collection, fingerprint string) (*Qdrant, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to qdrant", goerr.V("addr", addr))
	}
	return &Qdrant{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		fingerprint: fingerprint,
	}, nil
}

func (q *Qdrant) Name() string { return "qdrant:" + q.collection }

func (q *Qdrant) exists(ctx context.Context) (bool, error) {
	resp, err := q.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: q.collection})
	if err != nil {
		return false, goerr.Wrap(err, "failed to check qdrant collection", goerr.V("collection", q.collection))
	}
	return resp.GetResult().GetExists(), nil
}

func (q *Qdrant) Count(ctx context.Context) (int, error) {
	ok, err := q.exists(ctx)
	if err != nil || !ok {
		return 0, err
	}

	exact := true
	resp, err := q.points.Count(ctx, &pb.CountPoints{CollectionName: q.collection, Exact: &exact})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count qdrant points", goerr.V("collection", q.collection))
	}
	return int(resp.GetResult().GetCount()), nil
}

func (q *Qdrant) Reset(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: q.collection}); err != nil {
		return goerr.Wrap(err, "failed to delete qdrant collection", goerr.V("collection", q.collection))
	}
	q.created = false
	return nil
}

func (q *Qdrant) ensureCollection(ctx context.Context, dimension int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.created {
		return nil
	}

	ok, err := q.exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		logging.Component(ctx, "indexer").Info("creating qdrant collection", "collection", q.collection, "dimension", dimension)
		_, err := q.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{Size: uint64(dimension), Distance: pb.Distance_Cosine},
			}},
		})
		if err != nil {
			return goerr.Wrap(err, "failed to create qdrant collection", goerr.V("collection", q.collection))
		}
	}
	q.created = true
	return nil
}

func (q *Qdrant) Add(ctx context.Context, offset int, docs []models.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return goerr.New("documents and vectors length mismatch", goerr.V("docs", len(docs)), goerr.V("vectors", len(vectors)))
	}
	if len(vectors) == 0 {
		return nil
	}
	if err := q.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	points := make([]*pb.PointStruct, len(docs))
	for i, doc := range docs {
		ordinal := offset + i
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: DocumentID(q.fingerprint, ordinal)}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vectors[i]}}},
			Payload: map[string]*pb.Value{
				"ordinal":     {Kind: &pb.Value_IntegerValue{IntegerValue: int64(ordinal)}},
				"fingerprint": {Kind: &pb.Value_StringValue{StringValue: q.fingerprint}},
				"split":       {Kind: &pb.Value_StringValue{StringValue: doc.Metadata.Split}},
				"index":       {Kind: &pb.Value_IntegerValue{IntegerValue: int64(doc.Metadata.Index)}},
			},
		}
	}

	wait := true
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upsert qdrant points", goerr.V("offset", offset), goerr.V("count", len(points)))
	}
	return nil
}

// Search fetches past k while results tie at the cutoff so the caller can
// order ties by ordinal.
func (q *Qdrant) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	return searchPastTies(ctx, k, func(ctx context.Context, limit int) ([]Hit, error) {
		resp, err := q.points.Search(ctx, &pb.SearchPoints{
			CollectionName: q.collection,
			Vector:         vector,
			Limit:          uint64(limit),
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search qdrant", goerr.V("collection", q.collection), goerr.V("limit", limit))
		}

		hits := make([]Hit, 0, len(resp.GetResult()))
		for _, pt := range resp.GetResult() {
			ordinal, ok := pt.GetPayload()["ordinal"]
			if !ok {
				logging.From(ctx).Warn("skipping qdrant point without ordinal", "id", pt.GetId().GetUuid())
				continue
			}
			hits = append(hits, Hit{Ordinal: int(ordinal.GetIntegerValue()), Score: float64(pt.GetScore())})
		}
		return hits, nil
	})
}

func (q *Qdrant) Close() error {
	return q.conn.Close()
}
