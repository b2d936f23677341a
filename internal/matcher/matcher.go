// Package matcher ranks indexed postings against a resume.
package matcher

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/smart-apply/internal/extract"
	"github.com/spigell/smart-apply/internal/index"
	"github.com/spigell/smart-apply/internal/jobs"
	"go.uber.org/zap"
)

// State is a step of a matching run.
type State int

const (
	Start State = iota
	ResumeExtracted
	Queried
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case ResumeExtracted:
		return "resume_extracted"
	case Queried:
		return "queried"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Querier is the index dependency of the matcher.
type Querier interface {
	Query(ctx context.Context, text string, threshold float64, limit int) ([]index.Match, error)
}

// Result is the outcome of a successful run. An empty Matches is a valid
// "nothing passed the threshold" answer.
type Result struct {
	Resume  jobs.ResumeRecord
	Matches []index.Match
	States  []State
}

// Matcher validates a resume through extraction and then queries the index
// with the raw resume text.
type Matcher struct {
	extractor jobs.Extractor
	schema    *extract.Schema
	logger    *zap.Logger
	now       func() time.Time
}

func New(extractor jobs.Extractor, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{
		extractor: extractor,
		schema:    jobs.ResumeSchema(),
		logger:    log,
		now:       time.Now,
	}
}

// Match runs Start -> ResumeExtracted -> Queried -> Done. If the resume cannot
// be extracted the run ends in Failed, the extraction error is returned and
// the index is never queried.
func (m *Matcher) Match(ctx context.Context, resumeText string, idx Querier, threshold float64, limit int, vars map[string]string) (*Result, error) {
	run := &Result{States: []State{Start}}
	advance := func(s State) {
		run.States = append(run.States, s)
		m.logger.Debug("matcher state", zap.Stringer("state", s))
	}

	extractVars := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		extractVars[k] = v
	}
	if _, ok := extractVars[jobs.VarCurrentDate]; !ok {
		extractVars[jobs.VarCurrentDate] = m.now().Format(time.DateOnly)
	}

	record, err := m.extractor.Extract(ctx, resumeText, m.schema, extractVars)
	if err != nil {
		advance(Failed)
		return run, fmt.Errorf("extract resume: %w", err)
	}

	resume, err := jobs.DecodeResume(record)
	if err != nil {
		advance(Failed)
		return run, fmt.Errorf("extract resume: %w", &extract.Error{Kind: extract.ErrMalformedPayload, Schema: m.schema.Name, Err: err})
	}
	run.Resume = resume
	advance(ResumeExtracted)

	m.logger.Info("resume extracted",
		zap.String("name", resume.Name),
		zap.String("years_of_experience", resume.Years()),
		zap.Int("skills", len(resume.Skills)),
	)

	matches, err := idx.Query(ctx, resumeText, threshold, limit)
	if err != nil {
		advance(Failed)
		return run, fmt.Errorf("query index: %w", err)
	}
	run.Matches = matches
	advance(Queried)

	m.logger.Info("postings matched",
		zap.Int("matches", len(matches)),
		zap.Float64("threshold", threshold),
		zap.Int("limit", limit),
	)

	advance(Done)
	return run, nil
}
