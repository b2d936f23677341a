// Package jobs holds the posting and resume data model and the normalizer
// that turns scraped postings into validated job records.
package jobs

import (
	"strings"
	"time"

	"github.com/spigell/smart-apply/internal/extract"
)

// Unknown marks a field the source did not provide.
const Unknown = extract.Unknown

// RawPosting is a scraped posting before extraction.
type RawPosting struct {
	ID          string    `json:"id" mapstructure:"id"`
	Title       string    `json:"title" mapstructure:"title"`
	Company     string    `json:"company" mapstructure:"company"`
	Location    string    `json:"location" mapstructure:"location"`
	Description string    `json:"description" mapstructure:"description"`
	Skills      []string  `json:"skills,omitempty" mapstructure:"skills"`
	PostedDate  string    `json:"posted_date,omitempty" mapstructure:"posted_date"`
	Source      string    `json:"source" mapstructure:"source"`
	URL         string    `json:"url,omitempty" mapstructure:"url"`
	ScrapedAt   time.Time `json:"scraped_at" mapstructure:"scraped_at"`
}

// Normalize replaces blank provenance fields with Unknown.
func (p RawPosting) Normalize() RawPosting {
	p.Title = orUnknown(p.Title)
	p.Company = orUnknown(p.Company)
	p.Location = orUnknown(p.Location)
	p.Description = orUnknown(p.Description)
	p.PostedDate = orUnknown(p.PostedDate)
	p.Source = orUnknown(p.Source)
	p.URL = orUnknown(p.URL)
	return p
}

// Text is the block sent to the model. It is empty when the posting carries
// neither a title, a company nor a description.
func (p RawPosting) Text() string {
	if extract.IsUnknown(p.Title) && extract.IsUnknown(p.Company) && extract.IsUnknown(p.Description) {
		return ""
	}

	var b strings.Builder
	line := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(orUnknown(value))
		b.WriteString("\n")
	}
	line("Title", p.Title)
	line("Company", p.Company)
	line("Location", p.Location)
	if len(p.Skills) > 0 {
		line("Skills", strings.Join(p.Skills, ", "))
	}
	line("Posted", p.PostedDate)
	line("Link", p.URL)
	b.WriteString("Description:\n")
	b.WriteString(orUnknown(p.Description))
	return b.String()
}

// Vars exposes provenance to the prompt and to field fallbacks.
func (p RawPosting) Vars() map[string]string {
	return map[string]string{
		"title":    p.Title,
		"company":  p.Company,
		"location": p.Location,
		"posted":   p.PostedDate,
		"source":   orUnknown(p.Source),
		"url":      p.URL,
	}
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return s
}
