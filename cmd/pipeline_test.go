package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spigell/smart-apply/internal/ai"
	"github.com/spigell/smart-apply/internal/ai/hashing"
	"github.com/spigell/smart-apply/internal/extract"
	"github.com/spigell/smart-apply/internal/index"
	"github.com/spigell/smart-apply/internal/jobs"
	"github.com/spigell/smart-apply/internal/metrics"
	"github.com/spigell/smart-apply/internal/report"
	"github.com/spigell/smart-apply/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	postings []jobs.RawPosting
}

func (stubSource) Name() string { return "stub" }

func (s stubSource) Fetch(context.Context) ([]jobs.RawPosting, error) {
	return s.postings, nil
}

func fenced(payload string) string {
	return "```json\n" + payload + "\n```"
}

// stubModel answers the resume prompt with a fixed resume and job prompts
// with skills only, so title and company fall back to the scraped values.
func stubModel(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "resume parser"):
		return fenced(`{"name": "Jane Doe", "years_of_experience": 6, "skills": ["Go", "Kafka"]}`), nil
	case strings.Contains(prompt, "Go Developer"):
		return fenced(`{"skills": ["Go", "Kafka", "PostgreSQL"], "work_mode": "Remote"}`), nil
	default:
		return fenced(`{"skills": ["Excel", "Tableau"]}`), nil
	}
}

var vocabulary = []string{"go", "developer", "kafka", "postgresql", "data", "analyst", "excel", "tableau"}

// vocabularyEmbed counts vocabulary words so unrelated texts score exactly 0.
func vocabularyEmbed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, len(vocabulary))
	for _, token := range hashing.Tokenize(text) {
		for i, word := range vocabulary {
			if token == word {
				vector[i]++
			}
		}
	}
	return vector, nil
}

func testPostings() []jobs.RawPosting {
	return []jobs.RawPosting{
		jobs.RawPosting{ID: "1", Title: "Go Developer", Company: "Acme", Location: "Remote", Description: "Build Go services with Kafka"}.Normalize(),
		jobs.RawPosting{ID: "2", Title: "Data Analyst", Company: "Globex", Description: "Dashboards in Tableau"}.Normalize(),
		jobs.RawPosting{ID: "3"}.Normalize(),
	}
}

func testPipeline(t *testing.T, gen ai.GeneratorFunc, resumePath string) *pipeline {
	t.Helper()
	return &pipeline{
		config: &Config{
			Resume:   resumePath,
			AI:       AIConfig{Concurrency: 2},
			Matching: MatchingConfig{Threshold: 0.1, Limit: 4},
		},
		logger:    zap.NewNop(),
		recorder:  metrics.New(),
		sources:   []sources.Source{stubSource{postings: testPostings()}},
		extractor: extract.New(gen),
		embedder:  ai.EmbedderFunc(vocabularyEmbed),
		store: func() (index.VectorStore, error) {
			return index.NewMemoryStore(), nil
		},
	}
}

func writeResume(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe\nSenior Go developer. Kafka, PostgreSQL."), 0o600))
	return path
}

func TestPipelineRunMatches(t *testing.T) {
	p := testPipeline(t, stubModel, writeResume(t))

	result, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Postings, 3)
	assert.Len(t, result.Records, 2)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, extract.ErrEmptyInput)

	assert.Equal(t, report.Matched, result.Outcome.Kind)
	require.Len(t, result.Outcome.Rows, 1)
	assert.Equal(t, "Go Developer", result.Outcome.Rows[0].Job.Title)
	assert.Equal(t, "Acme", result.Outcome.Rows[0].Job.Company)
	assert.Equal(t, 1, result.Outcome.Rows[0].Rank)

	expected := `
# HELP smart_apply_postings_matched Job records that matched the resume in the last run
# TYPE smart_apply_postings_matched gauge
smart_apply_postings_matched 1
`
	require.NoError(t, testutil.GatherAndCompare(p.recorder.Registry(), strings.NewReader(expected), "smart_apply_postings_matched"))
}

func TestPipelineRunWithoutResumeIsUnranked(t *testing.T) {
	p := testPipeline(t, stubModel, "")

	result, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, report.Unranked, result.Outcome.Kind)
	assert.NoError(t, result.Outcome.Reason)
	assert.Len(t, result.Outcome.Rows, 2)
}

func TestPipelineRunFallsBackWhenResumeMissing(t *testing.T) {
	p := testPipeline(t, stubModel, filepath.Join(t.TempDir(), "absent.pdf"))

	result, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, report.Unranked, result.Outcome.Kind)
	assert.Error(t, result.Outcome.Reason)
	assert.Len(t, result.Outcome.Rows, 2)
}

func TestPipelineRunFallsBackToPostingsWhenModelIsDown(t *testing.T) {
	down := func(context.Context, string) (string, error) {
		return "", fmt.Errorf("generate: %w", ai.ErrModelUnavailable)
	}
	p := testPipeline(t, down, writeResume(t))

	result, err := p.run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Len(t, result.Failures, 3)
	assert.Equal(t, report.Unranked, result.Outcome.Kind)
	require.Len(t, result.Outcome.Rows, 3)
	assert.Equal(t, "Go Developer", result.Outcome.Rows[0].Job.Title)
	assert.Empty(t, result.Outcome.Rows[2].Job.Title)
}

func TestPipelineRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testPipeline(t, stubModel, "").run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBuildSourcesRequiresOne(t *testing.T) {
	_, err := buildSources(&Config{}, zap.NewNop())
	require.Error(t, err)

	srcs, err := buildSources(&Config{Sources: SourcesConfig{
		Files:      []string{"jobs.csv", " "},
		Headhunter: &HeadhunterConfig{Enabled: true},
	}}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, "file:jobs.csv", srcs[0].Name())
	assert.Equal(t, "headhunter", srcs[1].Name())
}

func TestNewVectorStore(t *testing.T) {
	store, err := newVectorStore(IndexConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &index.MemoryStore{}, store)

	_, err = newVectorStore(IndexConfig{Backend: "qdrant"})
	assert.Error(t, err)
}
