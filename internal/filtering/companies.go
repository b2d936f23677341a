package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/smart-apply/internal/jobs"
)

type companiesFilter struct {
	toggle
	companies []string
}

// NewCompanies creates a filter that removes postings by companies configured in the config.
func NewCompanies() Filter {
	return &companiesFilter{}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Validate(cfg *Config) error {
	f.companies = nil
	if cfg != nil {
		for _, c := range cfg.Companies {
			if c = strings.TrimSpace(c); c != "" {
				f.companies = append(f.companies, c)
			}
		}
	}
	return nil
}

func (f *companiesFilter) Apply(_ context.Context, deps Deps, postings []jobs.RawPosting) ([]jobs.RawPosting, Step, error) {
	if len(f.companies) == 0 {
		return postings, Step{Initial: len(postings), Dropped: 0, Left: len(postings)}, nil
	}

	kept, dropped := keep(postings, func(p jobs.RawPosting) bool {
		for _, company := range f.companies {
			if strings.EqualFold(strings.TrimSpace(p.Company), company) {
				return false
			}
		}
		return true
	})

	if len(dropped) > 0 {
		deps.Logger.Info("excluding postings by companies",
			zap.Strings("excluded_companies", f.companies),
			zap.Strings("excluded_postings", ids(dropped)),
			zap.Int("postings_left", len(kept)),
		)
	}

	return kept, Step{Initial: len(postings), Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
