// Package sources collects raw postings from the configured job sources.
package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spigell/smart-apply/internal/jobs"
	"go.uber.org/zap"
)

type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]jobs.RawPosting, error)
}

// Collect fetches every source in order. A failing source is logged and
// skipped; an error is returned only when no source succeeded.
func Collect(ctx context.Context, log *zap.Logger, srcs ...Source) ([]jobs.RawPosting, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(srcs) == 0 {
		return nil, errors.New("no job sources configured")
	}

	var (
		postings []jobs.RawPosting
		errs     []error
	)
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return postings, err
		}

		fetched, err := src.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return postings, ctx.Err()
			}
			log.Warn("source failed", zap.String("source", src.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		for i := range fetched {
			if fetched[i].ID == "" {
				fetched[i].ID = uuid.NewString()
			}
		}
		log.Info("postings collected", zap.String("source", src.Name()), zap.Int("count", len(fetched)))
		postings = append(postings, fetched...)
	}

	if len(errs) == len(srcs) {
		return nil, fmt.Errorf("collect postings: %w", errors.Join(errs...))
	}

	return postings, nil
}
