// Package headhunter fetches vacancies from the HeadHunter (hh.ru) API and
// turns them into raw postings.
package headhunter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spigell/smart-apply/internal/jobs"
	"go.uber.org/zap"
)

const (
	SourceName = "headhunter"

	apiURL    = "https://api.hh.ru"
	userAgent = "spigell/smart-apply (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. The token is optional: vacancy search is public.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}

// Vacancy fetches a single vacancy with its full description.
func (c *Client) Vacancy(ctx context.Context, id string) (*Vacancy, error) {
	var vacancy Vacancy
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, SearchPath, id), nil, &vacancy); err != nil {
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}
	return &vacancy, nil
}

// Source searches hh.ru and yields raw postings.
type Source struct {
	Client *Client
	Params *SearchParams
	// Details fetches every vacancy to get the full description instead of
	// the search snippet.
	Details bool
	// Limit caps the number of postings; zero means no cap.
	Limit int
}

func (s *Source) Name() string { return SourceName }

func (s *Source) Fetch(ctx context.Context) ([]jobs.RawPosting, error) {
	vacancies, err := s.Client.Search(ctx, s.Params)
	if err != nil {
		return nil, fmt.Errorf("search vacancies: %w", err)
	}

	items := vacancies.Items
	if s.Limit > 0 && len(items) > s.Limit {
		items = items[:s.Limit]
	}

	now := time.Now().UTC()
	postings := make([]jobs.RawPosting, 0, len(items))
	for _, vacancy := range items {
		if s.Details {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			full, err := s.Client.Vacancy(ctx, vacancy.ID)
			if err != nil {
				s.Client.logger.Warn("keep search snippet for vacancy", zap.String("vacancy_id", vacancy.ID), zap.Error(err))
			} else {
				vacancy = full
			}
		}
		postings = append(postings, vacancy.ToRawPosting(now))
	}

	s.Client.logger.Info("vacancies fetched", zap.String("source", SourceName), zap.Int("count", len(postings)))
	return postings, nil
}
