package sources

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/smart-apply/internal/jobs"
)

// File reads postings written by a scraper as a JSON array of objects or a
// CSV file with a header row.
type File struct {
	Path string
	// Label overrides the source recorded on postings without one.
	Label string
}

func (f *File) Name() string {
	if f.Label != "" {
		return f.Label
	}
	return "file:" + filepath.Base(f.Path)
}

func (f *File) Fetch(ctx context.Context) ([]jobs.RawPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open postings file: %w", err)
	}
	defer file.Close()

	var rows []map[string]string
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".json":
		rows, err = readJSON(file)
	case ".csv":
		rows, err = readCSV(file)
	default:
		return nil, fmt.Errorf("unsupported postings file %q: expected .json or .csv", f.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	info, err := file.Stat()
	scrapedAt := time.Now().UTC()
	if err == nil {
		scrapedAt = info.ModTime().UTC()
	}

	postings := make([]jobs.RawPosting, 0, len(rows))
	for _, row := range rows {
		postings = append(postings, f.posting(row, scrapedAt))
	}
	return postings, nil
}

func (f *File) posting(row map[string]string, scrapedAt time.Time) jobs.RawPosting {
	p := jobs.RawPosting{
		ID:          pick(row, "id"),
		Title:       pick(row, "title", "job_title"),
		Company:     pick(row, "company", "company_name"),
		Location:    pick(row, "location"),
		Description: pick(row, "description", "job_description"),
		Skills:      splitSkills(pick(row, "skills", "key_skills")),
		PostedDate:  pick(row, "posted_date", "date_posted", "posted"),
		Source:      pick(row, "source", "site"),
		URL:         pick(row, "job_link", "url", "link", "job_url"),
		ScrapedAt:   scrapedAt,
	}
	if p.Source == "" {
		p.Source = f.Label
	}

	// Scrapers keep a few facts outside the description; keep them visible
	// to the model.
	var extra []string
	for _, key := range []string{"experience", "salary", "job_type", "employment_type"} {
		if v := pick(row, key); v != "" && !strings.EqualFold(v, jobs.Unknown) {
			extra = append(extra, key+": "+v)
		}
	}
	if len(extra) > 0 {
		p.Description = strings.TrimSpace(p.Description + "\n" + strings.Join(extra, "\n"))
	}

	return p.Normalize()
}

func pick(row map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(row[key]); v != "" {
			return v
		}
	}
	return ""
}

func splitSkills(s string) []string {
	if s == "" || strings.EqualFold(s, jobs.Unknown) {
		return nil
	}
	var skills []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '|' }) {
		if part = strings.TrimSpace(part); part != "" {
			skills = append(skills, part)
		}
	}
	return skills
}

func readJSON(r io.Reader) ([]map[string]string, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(raw))
	for _, item := range raw {
		row := make(map[string]string, len(item))
		for key, value := range item {
			row[normalizeKey(key)] = stringify(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	for i := range header {
		header[i] = normalizeKey(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, value := range record {
			if i < len(header) {
				row[header[i]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(value)
	}
}
