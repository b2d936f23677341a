package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/smart-apply/internal/extract"
	"github.com/spigell/smart-apply/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Extractor is the schema extraction dependency of the normalizer and the
// matcher.
type Extractor interface {
	Extract(ctx context.Context, text string, schema *extract.Schema, vars map[string]string) (extract.Record, error)
}

// Failure pairs a posting with the reason it could not be normalized.
type Failure struct {
	Posting RawPosting
	Err     error
}

// Normalizer converts raw postings into job records, one extraction per
// posting.
type Normalizer struct {
	extractor   Extractor
	schema      *extract.Schema
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

func NewNormalizer(extractor Extractor, concurrency int, log *zap.Logger) *Normalizer {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{
		extractor:   extractor,
		schema:      JobSchema(),
		concurrency: concurrency,
		logger:      log,
		now:         time.Now,
	}
}

type outcome struct {
	done   bool
	record JobRecord
	err    error
}

// Normalize extracts every posting. A failed posting never stops the others:
// successes and failures are both returned, each in input order. The error
// is non-nil only when ctx was cancelled; the results gathered until then are
// still returned.
func (n *Normalizer) Normalize(ctx context.Context, postings []RawPosting) ([]JobRecord, []Failure, error) {
	records := []JobRecord{}
	failures := []Failure{}
	if len(postings) == 0 {
		return records, failures, nil
	}

	results := make([]outcome, len(postings))
	today := n.now().Format(time.DateOnly)

	g := new(errgroup.Group)
	g.SetLimit(n.concurrency)
	for i := range postings {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			record, err := n.normalizeOne(ctx, postings[i], today)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			results[i] = outcome{done: true, record: record, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if !res.done {
			continue
		}
		if res.err != nil {
			failures = append(failures, Failure{Posting: postings[i], Err: res.err})
			continue
		}
		records = append(records, res.record)
	}

	n.logger.Info("postings normalized",
		zap.Int("total", len(postings)),
		zap.Int("normalized", len(records)),
		zap.Int("failed", len(failures)),
	)

	return records, failures, ctx.Err()
}

func (n *Normalizer) normalizeOne(ctx context.Context, posting RawPosting, today string) (JobRecord, error) {
	posting = posting.Normalize()
	log := logger.WithFields(n.logger, logger.PostingFields(posting.ID, posting.Source, posting.Title)...)

	vars := posting.Vars()
	vars[VarCurrentDate] = today

	record, err := n.extractor.Extract(ctx, posting.Text(), n.schema, vars)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Warn("posting extraction failed", zap.String("outcome", extract.Outcome(err)), zap.Error(err))
		}
		return JobRecord{}, err
	}

	job, err := DecodeJob(record)
	if err != nil {
		log.Warn("posting record rejected", zap.Error(err))
		return JobRecord{}, &extract.Error{Kind: extract.ErrMalformedPayload, Schema: n.schema.Name, Err: err}
	}

	job.PostingID = posting.ID
	job.Source = posting.Source
	if len(job.Skills) == 0 && len(posting.Skills) > 0 {
		job.Skills = append([]string(nil), posting.Skills...)
	}

	log.Debug("posting normalized")
	return job, nil
}
