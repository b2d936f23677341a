// Package extract turns unstructured text into schema-validated records by
// prompting a language model and parsing its fenced reply.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/spigell/smart-apply/internal/ai"
	"github.com/spigell/smart-apply/internal/logger"
	"github.com/spigell/smart-apply/internal/utils"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// ResponseCache stores raw model responses keyed by prompt.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Observer is notified once per extraction with its outcome label.
type Observer interface {
	ObserveExtraction(schema, outcome string)
}

// Extractor runs schema extractions against a Generator.
type Extractor struct {
	generator ai.Generator
	cache     ResponseCache
	observer  Observer
	logger    *zap.Logger
	maxLogLen int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCache reuses successful model responses for identical prompts.
func WithCache(c ResponseCache) Option {
	return func(e *Extractor) {
		e.cache = c
	}
}

// WithObserver reports extraction outcomes.
func WithObserver(o Observer) Option {
	return func(e *Extractor) {
		e.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxLogLength bounds response previews in logs.
func WithMaxLogLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxLogLen = n
		}
	}
}

func New(generator ai.Generator, opts ...Option) *Extractor {
	e := &Extractor{
		generator: generator,
		logger:    zap.NewNop(),
		maxLogLen: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract renders the schema prompt for text, asks the model and parses the
// reply. Failures are returned as *Error. Cancellation of ctx is returned as
// the context error.
func (e *Extractor) Extract(ctx context.Context, text string, schema *Schema, vars map[string]string) (Record, error) {
	record, err := e.extract(ctx, text, schema, vars)
	if e.observer != nil && ctx.Err() == nil {
		e.observer.ObserveExtraction(schema.Name, Outcome(err))
	}
	return record, err
}

func (e *Extractor) extract(ctx context.Context, text string, schema *Schema, vars map[string]string) (Record, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(ErrEmptyInput, schema.Name, "", nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := logger.WithFields(e.logger, zap.String(logger.FieldSchema, schema.Name))
	prompt := schema.RenderPrompt(text, vars)
	key := cacheKey(schema.Name, prompt)

	if raw, ok := e.cached(ctx, log, key); ok {
		record, err := Parse(raw, schema, vars)
		if err == nil {
			log.Debug("extraction served from cache")
			return record, nil
		}
		log.Warn("discarding unparsable cached response", zap.Error(err))
	}

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, newError(ErrModelUnavailable, schema.Name, "", err)
	}

	record, err := Parse(raw, schema, vars)
	if err != nil {
		log.Warn("model response rejected",
			zap.Error(err),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
		)
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, raw); err != nil {
			log.Warn("store extraction in cache", zap.Error(err))
		}
	}

	return record, nil
}

func (e *Extractor) cached(ctx context.Context, log *zap.Logger, key string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		log.Warn("read extraction cache", zap.Error(err))
		return "", false
	}
	return raw, ok
}

// Parse runs the three parsing steps on a raw model response: locate the
// fenced block, decode it with the declared format and validate it against
// the schema.
func Parse(raw string, schema *Schema, vars map[string]string) (Record, error) {
	cleaned := StripReasoning(raw)

	var preferred []string
	if schema.Format != nil {
		preferred = append(preferred, schema.Format.Name())
	}
	block, err := LocateFence(cleaned, preferred...)
	if err != nil {
		return nil, newError(ErrNoFencedBlock, schema.Name, raw, nil)
	}

	payload, err := FormatFor(block.Lang, schema.Format).Decode(block.Body)
	if err != nil {
		return nil, newError(ErrMalformedPayload, schema.Name, raw, err)
	}

	record, err := schema.Validate(payload, vars)
	if err != nil {
		var extractErr *Error
		if errors.As(err, &extractErr) {
			extractErr.Raw = raw
		}
		return nil, err
	}

	return record, nil
}

func cacheKey(schema, prompt string) string {
	sum := sha256.Sum256([]byte(schema + "\x00" + prompt))
	return schema + ":" + hex.EncodeToString(sum[:])
}
