package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/smart-apply/internal/extract"
	"github.com/spigell/smart-apply/internal/index"
	"github.com/spigell/smart-apply/internal/jobs"
	"github.com/spigell/smart-apply/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleJobs() []jobs.JobRecord {
	return []jobs.JobRecord{
		{Title: "Go Developer", Company: "Acme", Location: "Remote", Skills: []string{"Go", "Kafka"}, Source: "linkedin", URL: "https://example.com/1"},
		{Title: "Data Analyst", Company: "globex", Skills: []string{}},
		{Title: "SRE", Company: "acme", Skills: []string{"Kubernetes"}},
	}
}

func TestDecide(t *testing.T) {
	records := sampleJobs()
	matches := []index.Match{{Record: records[2], Score: 0.91}, {Record: records[0], Score: 0.5}}

	tests := []struct {
		name    string
		result  *matcher.Result
		err     error
		kind    Kind
		rows    int
		message string
	}{
		{name: "matched", result: &matcher.Result{Matches: matches}, kind: Matched, rows: 2, message: "2 jobs matched the resume"},
		{name: "no match", result: &matcher.Result{Matches: []index.Match{}}, kind: NoMatch, rows: 0, message: "no jobs matched the resume"},
		{name: "not requested", kind: Unranked, rows: 3, message: "showing all 3 jobs unranked"},
		{name: "model down", err: fmt.Errorf("extract resume: %w", extract.ErrModelUnavailable), kind: Unranked, rows: 3, message: "language model is unavailable, showing all 3 jobs unranked"},
		{name: "empty resume", err: extract.ErrEmptyInput, kind: Unranked, rows: 3, message: "resume is empty, showing all 3 jobs unranked"},
		{name: "other failure", err: errors.New("boom"), kind: Unranked, rows: 3, message: "matching failed, showing all 3 jobs unranked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Decide(tt.result, tt.err, records)
			assert.Equal(t, tt.kind, outcome.Kind)
			assert.Len(t, outcome.Rows, tt.rows)
			assert.NotNil(t, outcome.Rows)
			assert.Equal(t, tt.message, outcome.Message())
		})
	}
}

func TestFromMatchesRanks(t *testing.T) {
	records := sampleJobs()
	rows := FromMatches([]index.Match{{Record: records[2], Score: 0.91}, {Record: records[0], Score: 0.5}})

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "0.910", "SRE"}, rows[0].Values()[:3])
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, records, Jobs(FromJobs(records)))
}

func TestUnrankedValuesLeaveRankBlank(t *testing.T) {
	values := FromJobs(sampleJobs())[0].Values()
	require.Len(t, values, len(Columns))
	assert.Empty(t, values[0])
	assert.Empty(t, values[1])
	assert.Equal(t, "Go, Kafka", values[8])
	assert.Equal(t, "https://example.com/1", values[12])
}

func TestByCompany(t *testing.T) {
	groups := ByCompany(FromJobs(sampleJobs()))

	require.Len(t, groups, 2)
	assert.Equal(t, "Acme", groups[0].Company)
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "SRE", groups[0].Rows[1].Job.Title)
	assert.Equal(t, "globex", groups[1].Company)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromJobs(sampleJobs())))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "Go, Kafka", records[1][8])
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, FromJobs(sampleJobs())))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.Contains(t, lines[1], "Go Developer")
}

func TestWriteXLSX(t *testing.T) {
	records := sampleJobs()
	rows := FromMatches([]index.Match{{Record: records[0], Score: 0.75}})

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "RANK", got[0][0])
	assert.Equal(t, "1", got[1][0])
	assert.Equal(t, "Go Developer", got[1][2])
}

func TestDumpToTmpFile(t *testing.T) {
	name, err := DumpToTmpFile(FromJobs(sampleJobs()[:1]))
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(name) })

	data, err := os.ReadFile(name)
	require.NoError(t, err)

	var rows []Row
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].Job.Company)
}

func TestPostingRecords(t *testing.T) {
	postings := []jobs.RawPosting{
		jobs.RawPosting{ID: "1", Title: "Go Developer", Company: "Acme", Skills: []string{"Go"}, Source: "headhunter", URL: "https://hh.ru/vacancy/1"}.Normalize(),
	}

	records := PostingRecords(postings)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].PostingID)
	assert.Equal(t, "Acme", records[0].Company)
	assert.Empty(t, records[0].Location)
	assert.Empty(t, records[0].PostedDate)
	assert.Equal(t, []string{"Go"}, records[0].Skills)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	rows := FromJobs(sampleJobs())

	for _, name := range []string{"jobs.csv", "jobs.XLSX", "jobs.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Export(path, rows))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}

	err := Export(filepath.Join(dir, "jobs.txt"), rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}
