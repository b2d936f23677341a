package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const defaultQdrantPort = 6334

type qdrantAPI interface {
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	DeleteCollection(ctx context.Context, collectionName string) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// QdrantStore keeps vectors in a per-run Qdrant collection that is dropped on
// Close.
type QdrantStore struct {
	client     qdrantAPI
	collection string
	created    bool
}

// NewQdrantStore connects to the gRPC endpoint in rawURL, e.g.
// http://localhost:6334.
func NewQdrantStore(rawURL, apiKey string) (*QdrantStore, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid qdrant url %q: missing host", rawURL)
	}

	port := defaultQdrantPort
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return newQdrantStore(client), nil
}

func newQdrantStore(client qdrantAPI) *QdrantStore {
	return &QdrantStore{client: client, collection: "postings-" + uuid.NewString()}
}

// Collection returns the name of the backing collection.
func (q *QdrantStore) Collection() string {
	return q.collection
}

func (q *QdrantStore) Add(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	if !q.created {
		err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(len(points[0].Vector)),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", q.collection, err)
		}
		q.created = true
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload := p.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.Pos)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

func (q *QdrantStore) Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]Hit, error) {
	if !q.created {
		return []Hit{}, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: qdrant.PtrOf(float32(threshold)),
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		if p == nil || p.GetId() == nil {
			continue
		}
		// Points are upserted with numeric ids equal to their position.
		id := p.GetId()
		if id.GetUuid() != "" || id.GetNum() > math.MaxInt {
			continue
		}
		hits = append(hits, Hit{Pos: int(id.GetNum()), Score: float64(p.GetScore())})
	}
	sortHits(hits)
	return hits, nil
}

// Close drops the collection and closes the connection.
func (q *QdrantStore) Close() error {
	var errs []error
	if q.created {
		if err := q.client.DeleteCollection(context.Background(), q.collection); err != nil {
			errs = append(errs, fmt.Errorf("delete collection %s: %w", q.collection, err))
		}
		q.created = false
	}
	if err := q.client.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
