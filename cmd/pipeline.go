package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spigell/smart-apply/internal/ai"
	"github.com/spigell/smart-apply/internal/ai/gemini"
	"github.com/spigell/smart-apply/internal/ai/hashing"
	"github.com/spigell/smart-apply/internal/cache"
	"github.com/spigell/smart-apply/internal/extract"
	"github.com/spigell/smart-apply/internal/filtering"
	"github.com/spigell/smart-apply/internal/headhunter"
	"github.com/spigell/smart-apply/internal/index"
	"github.com/spigell/smart-apply/internal/jobs"
	"github.com/spigell/smart-apply/internal/logger"
	"github.com/spigell/smart-apply/internal/matcher"
	"github.com/spigell/smart-apply/internal/metrics"
	"github.com/spigell/smart-apply/internal/report"
	"github.com/spigell/smart-apply/internal/resume"
	"github.com/spigell/smart-apply/internal/secrets"
	"github.com/spigell/smart-apply/internal/sources"
	"go.uber.org/zap"
)

// pipeline holds the collaborators of one run.
type pipeline struct {
	config    *Config
	logger    *zap.Logger
	recorder  *metrics.Recorder
	sources   []sources.Source
	extractor *extract.Extractor
	embedder  ai.Embedder
	store     func() (index.VectorStore, error)
	closers   []io.Closer
}

// runResult is everything the presentation step needs.
type runResult struct {
	Postings []jobs.RawPosting
	Records  []jobs.JobRecord
	Failures []jobs.Failure
	Outcome  report.Outcome
}

func newPipeline(ctx context.Context, config *Config, log *zap.Logger, recorder *metrics.Recorder) (*pipeline, error) {
	p := &pipeline{config: config, logger: log, recorder: recorder}

	srcs, err := buildSources(config, log)
	if err != nil {
		return nil, err
	}
	p.sources = srcs

	client, err := newGeminiClient(ctx, config, log, recorder)
	if err != nil {
		return nil, err
	}

	responseCache, err := newResponseCache(ctx, config.Cache)
	if err != nil {
		return nil, err
	}
	opts := []extract.Option{
		extract.WithObserver(recorder),
		extract.WithLogger(logger.WithCommonFields(log, "gemini", client.Model())),
		extract.WithMaxLogLength(config.AI.Gemini.MaxLogLength),
	}
	if responseCache != nil {
		opts = append(opts, extract.WithCache(responseCache))
		p.closers = append(p.closers, responseCache)
	}
	p.extractor = extract.New(client, opts...)

	switch config.Embeddings.Provider {
	case "hashing":
		p.embedder = hashing.New(config.Embeddings.Dimensions)
	default:
		p.embedder = client
	}

	p.store = func() (index.VectorStore, error) {
		return newVectorStore(config.Index)
	}

	return p, nil
}

// run collects, filters and normalizes postings, then ranks them against the
// resume when one is configured. Any failure after normalization falls back
// to an unranked outcome instead of an error.
func (p *pipeline) run(ctx context.Context) (*runResult, error) {
	postings, err := sources.Collect(ctx, p.logger, p.sources...)
	if err != nil {
		return nil, err
	}
	collected := len(postings)

	steps := filtering.Default()
	for _, name := range p.config.Filters.Disabled {
		filtering.DisableByName(steps, name, "disabled in config")
	}
	postings, err = filtering.Run(ctx, &filtering.Config{
		Companies:   p.config.Filters.Companies,
		RedFlags:    p.config.Filters.RedFlags,
		ExcludeFile: p.config.ExcludeFile,
	}, filtering.Deps{Logger: p.logger}, steps, postings)
	if err != nil {
		return nil, fmt.Errorf("filter postings: %w", err)
	}

	result := &runResult{Postings: postings}
	stats := metrics.Run{Collected: collected, Filtered: len(postings)}
	defer func() {
		p.recorder.SetRun(stats)
	}()

	if len(postings) == 0 {
		result.Outcome = report.Outcome{Kind: report.Unranked, Rows: []report.Row{}}
		return result, nil
	}

	normalizer := jobs.NewNormalizer(p.extractor, p.config.AI.Concurrency, p.logger)
	records, failures, normErr := normalizer.Normalize(ctx, postings)
	result.Records, result.Failures = records, failures
	stats.Normalized, stats.Failed = len(records), len(failures)

	for _, f := range failures {
		p.logger.Warn("posting skipped",
			append(logger.PostingFields(f.Posting.ID, f.Posting.Source, f.Posting.Title), zap.String("outcome", extract.Outcome(f.Err)), zap.Error(f.Err))...)
	}

	if normErr != nil {
		result.Outcome = report.Decide(nil, normErr, fallbackRecords(records, postings))
		return result, nil
	}
	if len(records) == 0 {
		result.Outcome = report.Decide(nil, errors.New("no posting could be normalized"), fallbackRecords(records, postings))
		return result, nil
	}

	matched, matchErr := p.match(ctx, records)
	result.Outcome = report.Decide(matched, matchErr, records)
	if result.Outcome.Kind != report.Unranked {
		stats.Matched = len(result.Outcome.Rows)
	}

	return result, nil
}

func (p *pipeline) match(ctx context.Context, records []jobs.JobRecord) (*matcher.Result, error) {
	if p.config.Resume == "" {
		p.logger.Info("resume is not configured, skipping matching")
		return nil, nil
	}

	text, err := resume.Load(p.config.Resume)
	if err != nil {
		return nil, err
	}

	store, err := p.store()
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	idx, err := index.Build(ctx, p.embedder, records, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build index: %w", err)
	}
	defer func() {
		if err := idx.Close(); err != nil {
			p.logger.Warn("closing index", zap.Error(err))
		}
	}()
	p.logger.Info("index built", zap.Int("records", idx.Len()))

	return matcher.New(p.extractor, p.logger).Match(ctx, text, idx, p.config.Matching.Threshold, p.config.Matching.Limit, nil)
}

func (p *pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// fallbackRecords shows raw postings when no record was normalized.
func fallbackRecords(records []jobs.JobRecord, postings []jobs.RawPosting) []jobs.JobRecord {
	if len(records) > 0 {
		return records
	}
	return report.PostingRecords(postings)
}

func buildSources(config *Config, log *zap.Logger) ([]sources.Source, error) {
	var srcs []sources.Source
	for _, path := range config.Sources.Files {
		if path = strings.TrimSpace(path); path != "" {
			srcs = append(srcs, &sources.File{Path: path})
		}
	}

	if hh := config.Sources.Headhunter; hh != nil && hh.Enabled {
		token := ""
		if hh.TokenFile != "" {
			var err error
			token, err = secrets.Load(secrets.Source{Name: "headhunter token", File: hh.TokenFile})
			if err != nil {
				return nil, err
			}
		}
		client := headhunter.New(log, token)
		if hh.UserAgent != "" {
			client.UserAgent = hh.UserAgent
		}
		srcs = append(srcs, &headhunter.Source{
			Client:  client,
			Params:  hh.Search,
			Details: hh.Details,
			Limit:   hh.Limit,
		})
	}

	if len(srcs) == 0 {
		return nil, errors.New("no job sources configured: set sources.files or enable sources.headhunter")
	}
	return srcs, nil
}

func newGeminiClient(ctx context.Context, config *Config, log *zap.Logger, observer ai.CallObserver) (*gemini.Client, error) {
	cfg := config.AI.Gemini
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	return gemini.NewClient(ctx, gemini.Config{
		APIKey:         apiKey,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		Dimensions:     config.Embeddings.Dimensions,
		Temperature:    cfg.Temperature,
		MaxRetries:     cfg.MaxRetries,
		Timeout:        cfg.Timeout,
		MaxLogLength:   cfg.MaxLogLength,
	}, log, observer)
}

type closableCache interface {
	extract.ResponseCache
	io.Closer
}

func newResponseCache(ctx context.Context, cfg CacheConfig) (closableCache, error) {
	switch cfg.Backend {
	case "none":
		return nil, nil
	case "redis":
		c, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("open extraction cache: %w", err)
		}
		return c, nil
	default:
		return cache.NewMemory(), nil
	}
}

func newVectorStore(cfg IndexConfig) (index.VectorStore, error) {
	if cfg.Backend != "qdrant" {
		return index.NewMemoryStore(), nil
	}

	apiKey := ""
	if cfg.Qdrant.APIKeyFile != "" {
		var err error
		apiKey, err = secrets.Load(secrets.Source{Name: "qdrant api key", File: cfg.Qdrant.APIKeyFile})
		if err != nil {
			return nil, err
		}
	}
	return index.NewQdrantStore(cfg.Qdrant.URL, apiKey)
}
