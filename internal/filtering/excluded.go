package filtering

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spigell/smart-apply/internal/extract"
	"github.com/spigell/smart-apply/internal/jobs"
)

// ExcludedPostings is the content of an exclude file.
type ExcludedPostings struct {
	Items []*ExcludedPosting
}

type ExcludedPosting struct {
	ID         string
	URL        string
	Title      string
	Company    string
	ExcludedAt time.Time
}

// ExcludeJobs converts records into exclude file entries.
func ExcludeJobs(records []jobs.JobRecord, now time.Time) *ExcludedPostings {
	excluded := &ExcludedPostings{}
	for _, r := range records {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			ID:         r.PostingID,
			URL:        r.URL,
			Title:      r.Title,
			Company:    r.Company,
			ExcludedAt: now.UTC(),
		})
	}
	return excluded
}

// LoadExcluded reads an exclude file. A missing or empty file is an empty list.
func LoadExcluded(path string) (*ExcludedPostings, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ExcludedPostings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decode exclude file %s: %w", path, err)
	}
	return &excluded, nil
}

func (e *ExcludedPostings) Append(s *ExcludedPostings) {
	e.Items = append(e.Items, s.Items...)
}

// Contains reports whether the posting is listed by ID or by URL.
func (e *ExcludedPostings) Contains(p jobs.RawPosting) bool {
	for _, item := range e.Items {
		if item.ID != "" && item.ID == p.ID {
			return true
		}
		if item.URL != "" && !extract.IsUnknown(p.URL) && item.URL == p.URL {
			return true
		}
	}
	return false
}

func (e *ExcludedPostings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return err
	}
	return nil
}

// AppendToFile merges records into the exclude file at path.
func AppendToFile(path string, records []jobs.JobRecord, now time.Time) error {
	existing, err := LoadExcluded(path)
	if err != nil {
		return err
	}
	existing.Append(ExcludeJobs(records, now))
	return existing.ToFile(path)
}
