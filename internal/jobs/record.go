package jobs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spigell/smart-apply/internal/extract"
)

var validate = validator.New()

// JobRecord is a validated, structured posting.
type JobRecord struct {
	PostingID        string   `json:"posting_id,omitempty" mapstructure:"-"`
	Source           string   `json:"source" mapstructure:"-"`
	Title            string   `json:"title" mapstructure:"title" validate:"required"`
	Company          string   `json:"company" mapstructure:"company" validate:"required"`
	Location         string   `json:"location" mapstructure:"location"`
	EmploymentType   string   `json:"employment_type" mapstructure:"employment_type"`
	WorkMode         string   `json:"work_mode" mapstructure:"work_mode"`
	Experience       string   `json:"experience" mapstructure:"experience"`
	Responsibilities []string `json:"responsibilities" mapstructure:"responsibilities"`
	Skills           []string `json:"skills" mapstructure:"skills"`
	Education        string   `json:"education" mapstructure:"education"`
	Salary           string   `json:"salary" mapstructure:"salary"`
	Deadline         string   `json:"application_deadline" mapstructure:"application_deadline"`
	PostedDate       string   `json:"posted_date" mapstructure:"posted_date"`
	URL              string   `json:"source_url" mapstructure:"source_url"`
}

// ResumeRecord is a validated, structured resume.
type ResumeRecord struct {
	Name              string   `json:"name" mapstructure:"name"`
	YearsOfExperience *float64 `json:"years_of_experience" mapstructure:"years_of_experience" validate:"omitempty,gte=0"`
	Skills            []string `json:"skills" mapstructure:"skills"`
	ExperienceSummary string   `json:"experience_summary" mapstructure:"experience_summary"`
	CurrentEmployer   string   `json:"current_employer" mapstructure:"current_employer"`
	CurrentTitle      string   `json:"current_title" mapstructure:"current_title"`
	Certifications    []string `json:"certifications" mapstructure:"certifications"`
}

// DecodeJob converts an extracted record into a JobRecord.
func DecodeJob(record extract.Record) (JobRecord, error) {
	var job JobRecord
	if err := decode(record, &job); err != nil {
		return JobRecord{}, err
	}
	return job, nil
}

// DecodeResume converts an extracted record into a ResumeRecord.
func DecodeResume(record extract.Record) (ResumeRecord, error) {
	var resume ResumeRecord
	if err := decode(record, &resume); err != nil {
		return ResumeRecord{}, err
	}
	if resume.Skills == nil {
		resume.Skills = []string{}
	}
	if resume.Certifications == nil {
		resume.Certifications = []string{}
	}
	return resume, nil
}

func decode(record extract.Record, out any) error {
	if err := mapstructure.Decode(map[string]any(record), out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validate record: %w", err)
	}
	return nil
}

// Text is the canonical representation used for embedding: one
// "key: value" line per known field in a fixed order.
func (j JobRecord) Text() string {
	var b strings.Builder
	line := func(key, value string) {
		if extract.IsUnknown(value) {
			return
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(value))
		b.WriteString("\n")
	}
	line("title", j.Title)
	line("company", j.Company)
	line("location", j.Location)
	line("employment_type", j.EmploymentType)
	line("work_mode", j.WorkMode)
	line("experience", j.Experience)
	line("responsibilities", strings.Join(j.Responsibilities, ", "))
	line("skills", strings.Join(j.Skills, ", "))
	line("education", j.Education)
	line("salary", j.Salary)
	line("application_deadline", j.Deadline)
	line("posted_date", j.PostedDate)
	return strings.TrimRight(b.String(), "\n")
}

// Years formats the experience figure, or Unknown.
func (r ResumeRecord) Years() string {
	if r.YearsOfExperience == nil {
		return Unknown
	}
	return strconv.FormatFloat(*r.YearsOfExperience, 'f', -1, 64)
}
