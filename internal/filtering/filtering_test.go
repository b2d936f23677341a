package filtering

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/smart-apply/internal/jobs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func postings() []jobs.RawPosting {
	return []jobs.RawPosting{
		{ID: "1", Title: "Backend Engineer", Company: "Acme", Description: "Python and AWS", URL: "https://example.com/1"},
		{ID: "2", Title: "backend engineer ", Company: "ACME", Description: "duplicate"},
		{ID: "3", Title: "Frontend Engineer", Company: "Globex", Description: "React"},
		{ID: "4", Title: "Data Scientist", Company: "Initech", Description: "Unpaid internship, Python"},
		{ID: "5", Title: "SRE", Company: "Umbrella", Description: "On-call", URL: "https://example.com/5"},
	}
}

func postingIDs(ps []jobs.RawPosting) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunDefaultChain(t *testing.T) {
	dir := t.TempDir()
	excludePath := filepath.Join(dir, "exclude.json")
	err := ExcludeJobs([]jobs.JobRecord{{Title: "SRE", Company: "Umbrella", URL: "https://example.com/5"}}, time.Now()).ToFile(excludePath)
	if err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &Config{
		Companies:   []string{" globex "},
		RedFlags:    []string{"UNPAID"},
		ExcludeFile: excludePath,
	}

	got, err := Run(context.Background(), cfg, Deps{Logger: zap.New(core)}, Default(), postings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ids := postingIDs(got); !equal(ids, []string{"1"}) {
		t.Fatalf("unexpected postings left: %v", ids)
	}

	steps := logs.FilterMessage("filter step").All()
	if len(steps) != 4 {
		t.Fatalf("expected 4 filter step entries, got %d", len(steps))
	}
	if steps[0].ContextMap()["name"] != "dedupe" || steps[0].ContextMap()["dropped"] != int64(1) {
		t.Fatalf("unexpected dedupe step: %v", steps[0].ContextMap())
	}
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	steps := Default()
	DisableByName(steps, "dedupe", "keep duplicates")

	got, err := Run(context.Background(), &Config{}, Deps{}, steps, postings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected all postings, got %d", len(got))
	}

	statuses := Describe(steps)
	if statuses[0].Name != "dedupe" || statuses[0].Enabled || statuses[0].Reason != "keep duplicates" {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, &Config{}, Deps{}, Default(), postings()); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestExcludeFileMissingIsEmpty(t *testing.T) {
	cfg := &Config{ExcludeFile: filepath.Join(t.TempDir(), "missing.json")}
	got, err := Run(context.Background(), cfg, Deps{}, []Filter{NewExcludeFile()}, postings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected nothing excluded, got %d left", len(got))
	}
}

func TestExcludeFileCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Run(context.Background(), &Config{ExcludeFile: path}, Deps{}, []Filter{NewExcludeFile()}, postings())
	if err == nil {
		t.Fatal("expected error for corrupted exclude file")
	}
}

func TestAppendToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := AppendToFile(path, []jobs.JobRecord{{PostingID: "1", Title: "A"}}, now); err != nil {
		t.Fatal(err)
	}
	if err := AppendToFile(path, []jobs.JobRecord{{PostingID: "3", Title: "B"}}, now); err != nil {
		t.Fatal(err)
	}

	excluded, err := LoadExcluded(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(excluded.Items) != 2 || excluded.Items[1].ID != "3" {
		t.Fatalf("unexpected exclude file content: %+v", excluded.Items)
	}

	if !excluded.Contains(jobs.RawPosting{ID: "1"}) || excluded.Contains(jobs.RawPosting{ID: "2", URL: "N/A"}) {
		t.Fatal("unexpected Contains result")
	}
}

func TestContainsRedFlag(t *testing.T) {
	p := jobs.RawPosting{Title: "Engineer", Company: "Acme", Description: "Must relocate"}
	if !ContainsRedFlag(p, []string{"", "RELOCATE"}) {
		t.Fatal("expected red flag match")
	}
	if ContainsRedFlag(p, nil) {
		t.Fatal("expected no match without flags")
	}
}
