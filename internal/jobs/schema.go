package jobs

import (
	_ "embed"

	"github.com/spigell/smart-apply/internal/extract"
)

// Schema names.
const (
	JobSchemaName    = "job_posting"
	ResumeSchemaName = "resume"
)

// Context variables understood by the schemas.
const (
	VarCurrentDate = "current_date"
	VarSource      = "source"
)

//go:embed prompts/job.md
var jobPrompt string

//go:embed prompts/resume.md
var resumePrompt string

// JobSchema describes a job posting record.
func JobSchema() *extract.Schema {
	return &extract.Schema{
		Name:   JobSchemaName,
		Prompt: jobPrompt,
		Format: extract.JSON,
		Fields: []extract.FieldSpec{
			{Name: "title", Kind: extract.String, Required: true, FallbackVar: "title", Description: "job title"},
			{Name: "company", Kind: extract.String, Required: true, FallbackVar: "company", Description: "hiring company"},
			{Name: "location", Kind: extract.String, FallbackVar: "location", Description: "city, region or country"},
			{Name: "employment_type", Kind: extract.String, Aliases: []string{"Employment Type"}, Description: "Full-time, Part-time, Contract, Internship"},
			{Name: "work_mode", Kind: extract.String, Aliases: []string{"Remote/Hybrid/Onsite", "remote"}, Description: "Remote, Hybrid or Onsite"},
			{Name: "experience", Kind: extract.String, Aliases: []string{"experience_required"}, Description: "required experience, e.g. 3+ years or entry-level"},
			{Name: "responsibilities", Kind: extract.List, Aliases: []string{"Key Responsibilities"}, Description: "key responsibilities"},
			{Name: "skills", Kind: extract.List, Aliases: []string{"required_skills"}, Description: "required skills and technologies"},
			{Name: "education", Kind: extract.String, Aliases: []string{"Education Requirements"}, Description: "education requirements"},
			{Name: "salary", Kind: extract.String, Aliases: []string{"Salary Range"}, Description: "salary range as written"},
			{Name: "application_deadline", Kind: extract.String, Aliases: []string{"Application Deadline", "deadline"}, Description: "application deadline"},
			{Name: "posted_date", Kind: extract.String, FallbackVar: "posted", Description: "date the posting was published"},
			{Name: "source_url", Kind: extract.String, Aliases: []string{"job_link", "url"}, FallbackVar: "url", Description: "link to the posting"},
		},
	}
}

// ResumeSchema describes a resume record. Years of experience are computed
// relative to the current_date variable.
func ResumeSchema() *extract.Schema {
	return &extract.Schema{
		Name:   ResumeSchemaName,
		Prompt: resumePrompt,
		Format: extract.JSON,
		Fields: []extract.FieldSpec{
			{Name: "name", Kind: extract.String, Description: "full name of the candidate"},
			{Name: "years_of_experience", Kind: extract.Number, Aliases: []string{"Years of experience"}, Description: "total years of professional experience"},
			{Name: "skills", Kind: extract.List, Description: "technical and professional skills"},
			{Name: "experience_summary", Kind: extract.String, Aliases: []string{"Experience"}, Description: "brief summary of prior roles and responsibilities"},
			{Name: "current_employer", Kind: extract.String, Aliases: []string{"current_company"}, Description: "company the candidate works at now"},
			{Name: "current_title", Kind: extract.String, Aliases: []string{"current_position"}, Description: "the candidate's position there"},
			{Name: "certifications", Kind: extract.List, Description: "professional certifications"},
		},
	}
}
