package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/smart-apply/internal/jobs"
)

type redFlagsFilter struct {
	toggle
	flags []string
}

// NewRedFlags creates a filter that drops postings mentioning any configured term.
func NewRedFlags() Filter {
	return &redFlagsFilter{}
}

func (f *redFlagsFilter) Name() string { return "red_flags" }

func (f *redFlagsFilter) Validate(cfg *Config) error {
	f.flags = nil
	if cfg != nil {
		for _, flag := range cfg.RedFlags {
			if flag = strings.ToLower(strings.TrimSpace(flag)); flag != "" {
				f.flags = append(f.flags, flag)
			}
		}
	}
	return nil
}

func (f *redFlagsFilter) Apply(_ context.Context, deps Deps, postings []jobs.RawPosting) ([]jobs.RawPosting, Step, error) {
	if len(f.flags) == 0 {
		return postings, Step{Initial: len(postings), Dropped: 0, Left: len(postings)}, nil
	}

	kept, dropped := keep(postings, func(p jobs.RawPosting) bool {
		return !ContainsRedFlag(p, f.flags)
	})

	if len(dropped) > 0 {
		deps.Logger.Info("excluding postings with red flags",
			zap.Strings("red_flags", f.flags),
			zap.Strings("excluded_postings", ids(dropped)),
			zap.Int("postings_left", len(kept)),
		)
	}

	return kept, Step{Initial: len(postings), Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *redFlagsFilter) Status() Status {
	details := map[string]string{}
	if len(f.flags) > 0 {
		details["red_flags"] = strings.Join(f.flags, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// ContainsRedFlag reports whether any term appears (case-insensitive) in the
// posting title, company or description.
func ContainsRedFlag(p jobs.RawPosting, flags []string) bool {
	combined := strings.ToLower(p.Title + " " + p.Company + " " + p.Description)
	for _, flag := range flags {
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}
