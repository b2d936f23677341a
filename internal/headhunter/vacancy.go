package headhunter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spigell/smart-apply/internal/jobs"
	"golang.org/x/net/html"
)

type Vacancies struct {
	Items []*Vacancy
}

type NamedRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Salary struct {
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
	Gross    bool   `json:"gross,omitempty"`
}

type Employer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	URL          string `json:"url,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Trusted      bool   `json:"trusted,omitempty"`
}

type Snippet struct {
	Requirement    string `json:"requirement,omitempty"`
	Responsibility string `json:"responsibility,omitempty"`
}

type Vacancy struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name,omitempty"`
	Area         NamedRef   `json:"area,omitempty"`
	Salary       *Salary    `json:"salary,omitempty"`
	Experience   NamedRef   `json:"experience,omitempty"`
	Schedule     NamedRef   `json:"schedule,omitempty"`
	Employment   NamedRef   `json:"employment,omitempty"`
	Employer     Employer   `json:"employer,omitempty"`
	AlternateURL string     `json:"alternate_url,omitempty"`
	Description  string     `json:"description,omitempty"`
	KeySkills    []NamedRef `json:"key_skills,omitempty"`
	Archived     bool       `json:"archived,omitempty"`
	Snippet      Snippet    `json:"snippet,omitempty"`
	PublishedAt  string     `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

var (
	spacePattern = regexp.MustCompile(`[ \t]+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

var blockTags = map[string]bool{
	"p": true, "br": true, "li": true, "ul": true, "ol": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// PlainText strips the HTML markup hh.ru uses in descriptions and snippets.
func PlainText(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	// ErrorToken is io.EOF or broken markup; both end the text.
	for tt := z.Next(); tt != html.ErrorToken; tt = z.Next() {
		switch tt {
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteByte('\n')
			}
		}
	}

	text := spacePattern.ReplaceAllString(b.String(), " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// SalaryText renders the salary fork, or "" when the vacancy has none.
func (va *Vacancy) SalaryText() string {
	if va.Salary == nil || (va.Salary.From == 0 && va.Salary.To == 0) {
		return ""
	}
	var parts []string
	if va.Salary.From > 0 {
		parts = append(parts, fmt.Sprintf("from %d", va.Salary.From))
	}
	if va.Salary.To > 0 {
		parts = append(parts, fmt.Sprintf("to %d", va.Salary.To))
	}
	if va.Salary.Currency != "" {
		parts = append(parts, va.Salary.Currency)
	}
	return strings.Join(parts, " ")
}

// ToRawPosting maps the vacancy onto a raw posting. The full description is
// used when present, otherwise the search snippet.
func (va *Vacancy) ToRawPosting(scrapedAt time.Time) jobs.RawPosting {
	description := PlainText(va.Description)
	if description == "" {
		var b strings.Builder
		if r := PlainText(va.Snippet.Responsibility); r != "" {
			b.WriteString("Responsibilities: " + r + "\n")
		}
		if r := PlainText(va.Snippet.Requirement); r != "" {
			b.WriteString("Requirements: " + r + "\n")
		}
		description = strings.TrimSpace(b.String())
	}

	var extra []string
	if va.Experience.Name != "" {
		extra = append(extra, "Experience: "+va.Experience.Name)
	}
	if va.Employment.Name != "" {
		extra = append(extra, "Employment: "+va.Employment.Name)
	}
	if va.Schedule.Name != "" {
		extra = append(extra, "Schedule: "+va.Schedule.Name)
	}
	if salary := va.SalaryText(); salary != "" {
		extra = append(extra, "Salary: "+salary)
	}
	if len(extra) > 0 {
		description = strings.TrimSpace(strings.Join(extra, "\n") + "\n\n" + description)
	}

	skills := make([]string, 0, len(va.KeySkills))
	for _, s := range va.KeySkills {
		if name := strings.TrimSpace(s.Name); name != "" {
			skills = append(skills, name)
		}
	}

	return jobs.RawPosting{
		ID:          SourceName + ":" + va.ID,
		Title:       va.Name,
		Company:     va.Employer.Name,
		Location:    va.Area.Name,
		Description: description,
		Skills:      skills,
		PostedDate:  publishedDate(va.PublishedAt),
		Source:      SourceName,
		URL:         va.AlternateURL,
		ScrapedAt:   scrapedAt,
	}.Normalize()
}

// hh.ru timestamps look like 2024-05-01T10:00:00+0300.
func publishedDate(s string) string {
	if t, err := time.Parse("2006-01-02T15:04:05-0700", s); err == nil {
		return t.Format(time.DateOnly)
	}
	return s
}
