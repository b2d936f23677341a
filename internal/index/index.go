// Package index embeds normalized postings and answers threshold-bounded
// similarity queries against them.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/spigell/smart-apply/internal/ai"
	"github.com/spigell/smart-apply/internal/jobs"
)

var (
	ErrInvalidQuery      = errors.New("invalid query")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Match is a record with its similarity to the query.
type Match struct {
	Record jobs.JobRecord
	Score  float64
}

// Index is read-only once Build returns.
type Index struct {
	embedder   ai.Embedder
	store      VectorStore
	records    []jobs.JobRecord
	dimensions int
}

// Build embeds the canonical text of every record and loads the vectors into
// store. A nil store means an in-memory one.
func Build(ctx context.Context, embedder ai.Embedder, records []jobs.JobRecord, store VectorStore) (*Index, error) {
	if store == nil {
		store = NewMemoryStore()
	}

	idx := &Index{
		embedder: embedder,
		store:    store,
		records:  append([]jobs.JobRecord(nil), records...),
	}
	if len(records) == 0 {
		return idx, nil
	}

	points := make([]Point, 0, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vector, err := embedder.Embed(ctx, record.Text())
		if err != nil {
			return nil, fmt.Errorf("embed record %d (%s at %s): %w", i, record.Title, record.Company, err)
		}
		if i == 0 {
			idx.dimensions = len(vector)
		} else if len(vector) != idx.dimensions {
			return nil, fmt.Errorf("%w: record %d has %d, want %d", ErrDimensionMismatch, i, len(vector), idx.dimensions)
		}

		points = append(points, Point{
			Pos:    i,
			Vector: vector,
			Payload: map[string]any{
				"title":   record.Title,
				"company": record.Company,
				"source":  record.Source,
			},
		})
	}

	if err := store.Add(ctx, points); err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	return idx, nil
}

// Len reports the number of indexed records.
func (i *Index) Len() int {
	return len(i.records)
}

// Records returns the indexed records in insertion order.
func (i *Index) Records() []jobs.JobRecord {
	return append([]jobs.JobRecord(nil), i.records...)
}

// Query embeds text and returns at most limit records whose similarity is at
// least threshold, best first, ties in insertion order. An empty index always
// answers with an empty result.
func (i *Index) Query(ctx context.Context, text string, threshold float64, limit int) ([]Match, error) {
	if len(i.records) == 0 {
		return []Match{}, nil
	}

	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidQuery, threshold)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidQuery, limit)
	}

	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) != i.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vector), i.dimensions)
	}

	hits, err := i.store.Search(ctx, vector, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}

	sortHits(hits)
	matches := make([]Match, 0, min(len(hits), limit))
	for _, hit := range hits {
		if hit.Score < threshold || hit.Pos < 0 || hit.Pos >= len(i.records) {
			continue
		}
		matches = append(matches, Match{Record: i.records[hit.Pos], Score: hit.Score})
		if len(matches) == limit {
			break
		}
	}
	return matches, nil
}

// Close releases the vector store.
func (i *Index) Close() error {
	return i.store.Close()
}
