package index

import (
	"context"
	"sort"
)

// Point is one embedded record handed to a VectorStore. Pos is the record's
// insertion position.
type Point struct {
	Pos     int
	Vector  []float32
	Payload map[string]any
}

// Hit is a search result.
type Hit struct {
	Pos   int
	Score float64
}

// VectorStore holds embedded records and answers similarity searches.
type VectorStore interface {
	Add(ctx context.Context, points []Point) error
	// Search returns at most limit hits scoring at least threshold.
	Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]Hit, error)
	Close() error
}

// MemoryStore is an exhaustive in-process VectorStore. It is safe for
// concurrent searches once Add has returned.
type MemoryStore struct {
	points []Point
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(_ context.Context, points []Point) error {
	m.points = append(m.points, points...)
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(m.points))
	for _, p := range m.points {
		score := Cosine(vector, p.Vector)
		if score >= threshold {
			hits = append(hits, Hit{Pos: p.Pos, Score: score})
		}
	}

	sortHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MemoryStore) Close() error { return nil }

// sortHits orders by score descending, then by insertion position.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Pos < hits[j].Pos
	})
}
