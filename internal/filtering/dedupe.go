package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/smart-apply/internal/jobs"
)

type dedupeFilter struct {
	toggle
}

// NewDedupe creates a filter that keeps the first posting per title and company.
func NewDedupe() Filter {
	return &dedupeFilter{}
}

func (f *dedupeFilter) Name() string { return "dedupe" }

func (f *dedupeFilter) Validate(*Config) error { return nil }

func (f *dedupeFilter) Apply(_ context.Context, deps Deps, postings []jobs.RawPosting) ([]jobs.RawPosting, Step, error) {
	seen := make(map[string]bool, len(postings))
	kept, dropped := keep(postings, func(p jobs.RawPosting) bool {
		key := strings.ToLower(strings.TrimSpace(p.Title)) + "\x00" + strings.ToLower(strings.TrimSpace(p.Company))
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})

	if len(dropped) > 0 {
		deps.Logger.Debug("dropping duplicate postings", zap.Strings("postings", ids(dropped)))
	}

	return kept, Step{Initial: len(postings), Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *dedupeFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
