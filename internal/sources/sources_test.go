package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/smart-apply/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubSource struct {
	name     string
	postings []jobs.RawPosting
	err      error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(context.Context) ([]jobs.RawPosting, error) {
	return s.postings, s.err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileFetchCSV(t *testing.T) {
	path := writeFile(t, "jobs.csv", "Title,Company,Location,Description,Job Link,Skills,Experience\n"+
		"Go Developer,Acme,Remote,Build APIs,https://example.com/1,\"Go, Kafka\",3-5 years\n"+
		"Data Analyst,N/A,,,,,\n")

	postings, err := (&File{Path: path, Label: "linkedin"}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, 2)

	first := postings[0]
	assert.Equal(t, "Go Developer", first.Title)
	assert.Equal(t, "https://example.com/1", first.URL)
	assert.Equal(t, []string{"Go", "Kafka"}, first.Skills)
	assert.Equal(t, "linkedin", first.Source)
	assert.Contains(t, first.Description, "experience: 3-5 years")

	second := postings[1]
	assert.Equal(t, jobs.Unknown, second.Company)
	assert.Equal(t, jobs.Unknown, second.Location)
	assert.Equal(t, jobs.Unknown, second.URL)
	assert.Nil(t, second.Skills)
}

func TestFileFetchJSON(t *testing.T) {
	path := writeFile(t, "jobs.json", `[
		{"title": "Backend Engineer", "company": "Globex", "url": "https://example.com/2",
		 "skills": ["Go", "PostgreSQL"], "source": "naukri", "posted_date": null}
	]`)

	postings, err := (&File{Path: path}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, 1)

	assert.Equal(t, "naukri", postings[0].Source)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, postings[0].Skills)
	assert.Equal(t, jobs.Unknown, postings[0].PostedDate)
}

func TestFileFetchUnsupported(t *testing.T) {
	path := writeFile(t, "jobs.txt", "hello")
	_, err := (&File{Path: path}).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported postings file")
}

func TestCollectSkipsFailingSource(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	postings, err := Collect(context.Background(), zap.New(core),
		stubSource{name: "broken", err: errors.New("boom")},
		stubSource{name: "ok", postings: []jobs.RawPosting{{Title: "Go"}, {ID: "fixed", Title: "Rust"}}},
	)
	require.NoError(t, err)
	require.Len(t, postings, 2)

	assert.NotEmpty(t, postings[0].ID)
	assert.Equal(t, "fixed", postings[1].ID)
	assert.Equal(t, 1, logs.FilterMessage("source failed").Len())
}

func TestCollectAllFail(t *testing.T) {
	_, err := Collect(context.Background(), nil, stubSource{name: "broken", err: errors.New("boom")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
}

func TestCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, nil, stubSource{name: "ok"})
	assert.ErrorIs(t, err, context.Canceled)
}
