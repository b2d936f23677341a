// Package report turns normalized and matched postings into rows for the
// terminal and for CSV, XLSX and JSON exports.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/smart-apply/internal/extract"
	"github.com/spigell/smart-apply/internal/index"
	"github.com/spigell/smart-apply/internal/jobs"
	"github.com/spigell/smart-apply/internal/matcher"
)

// Columns is the fixed column order of every export.
var Columns = []string{
	"rank", "score", "title", "company", "location", "employment_type", "work_mode",
	"experience", "skills", "salary", "posted_date", "source", "url",
}

type Row struct {
	Rank   int            `json:"rank,omitempty"`
	Score  float64        `json:"score,omitempty"`
	Ranked bool           `json:"ranked"`
	Job    jobs.JobRecord `json:"job"`
}

// Values renders the row in Columns order. Unranked rows leave rank and
// score blank.
func (r Row) Values() []string {
	rank, score := "", ""
	if r.Ranked {
		rank = strconv.Itoa(r.Rank)
		score = strconv.FormatFloat(r.Score, 'f', 3, 64)
	}
	return []string{
		rank,
		score,
		r.Job.Title,
		r.Job.Company,
		r.Job.Location,
		r.Job.EmploymentType,
		r.Job.WorkMode,
		r.Job.Experience,
		strings.Join(r.Job.Skills, ", "),
		r.Job.Salary,
		r.Job.PostedDate,
		r.Job.Source,
		r.Job.URL,
	}
}

func FromJobs(records []jobs.JobRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, Row{Job: record})
	}
	return rows
}

// FromMatches keeps the index order, which is already best first.
func FromMatches(matches []index.Match) []Row {
	rows := make([]Row, 0, len(matches))
	for i, m := range matches {
		rows = append(rows, Row{Rank: i + 1, Score: m.Score, Ranked: true, Job: m.Record})
	}
	return rows
}

// PostingRecords maps raw postings onto records for display when nothing
// could be normalized. Unknown markers become empty fields.
func PostingRecords(postings []jobs.RawPosting) []jobs.JobRecord {
	known := func(s string) string {
		if extract.IsUnknown(s) {
			return ""
		}
		return s
	}
	records := make([]jobs.JobRecord, 0, len(postings))
	for _, p := range postings {
		skills := p.Skills
		if skills == nil {
			skills = []string{}
		}
		records = append(records, jobs.JobRecord{
			PostingID:        p.ID,
			Source:           known(p.Source),
			Title:            known(p.Title),
			Company:          known(p.Company),
			Location:         known(p.Location),
			Responsibilities: []string{},
			Skills:           skills,
			PostedDate:       known(p.PostedDate),
			URL:              known(p.URL),
		})
	}
	return records
}

func Jobs(rows []Row) []jobs.JobRecord {
	records := make([]jobs.JobRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Job)
	}
	return records
}

type Kind int

const (
	// Matched rows passed the similarity threshold.
	Matched Kind = iota
	// NoMatch is a successful run where nothing passed the threshold.
	NoMatch
	// Unranked lists every normalized posting because matching did not run
	// or failed.
	Unranked
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case NoMatch:
		return "no_match"
	case Unranked:
		return "unranked"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is what a run shows to the user.
type Outcome struct {
	Kind Kind
	Rows []Row
	// Reason explains an Unranked outcome. Nil when matching was not
	// requested.
	Reason error
}

// Decide picks the outcome of a run. A matching error falls back to every
// normalized posting, unranked.
func Decide(result *matcher.Result, matchErr error, records []jobs.JobRecord) Outcome {
	switch {
	case matchErr != nil:
		return Outcome{Kind: Unranked, Rows: FromJobs(records), Reason: matchErr}
	case result == nil:
		return Outcome{Kind: Unranked, Rows: FromJobs(records)}
	case len(result.Matches) == 0:
		return Outcome{Kind: NoMatch, Rows: []Row{}}
	default:
		return Outcome{Kind: Matched, Rows: FromMatches(result.Matches)}
	}
}

// Message is a one-line summary for the user.
func (o Outcome) Message() string {
	switch o.Kind {
	case Matched:
		return fmt.Sprintf("%d jobs matched the resume", len(o.Rows))
	case NoMatch:
		return "no jobs matched the resume"
	default:
		if o.Reason == nil {
			return fmt.Sprintf("showing all %d jobs unranked", len(o.Rows))
		}
		reason := "matching failed"
		switch {
		case errors.Is(o.Reason, extract.ErrEmptyInput):
			reason = "resume is empty"
		case errors.Is(o.Reason, extract.ErrModelUnavailable):
			reason = "language model is unavailable"
		case errors.Is(o.Reason, extract.ErrNoFencedBlock), errors.Is(o.Reason, extract.ErrMalformedPayload):
			reason = "resume could not be parsed"
		}
		return fmt.Sprintf("%s, showing all %d jobs unranked", reason, len(o.Rows))
	}
}

// Group is the rows of one company.
type Group struct {
	Company string `json:"company"`
	Rows    []Row  `json:"rows"`
}

// ByCompany groups rows by company name (case-insensitive), groups sorted by
// name, rows kept in their original order.
func ByCompany(rows []Row) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, row := range rows {
		company := strings.TrimSpace(row.Job.Company)
		key := strings.ToLower(company)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Company: company})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return strings.ToLower(groups[a].Company) < strings.ToLower(groups[b].Company)
	})
	return groups
}
