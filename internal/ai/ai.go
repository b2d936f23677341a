// Package ai defines the model-facing contracts shared by extraction,
// indexing and matching.
package ai

import (
	"context"
	"errors"
	"time"
)

// ErrModelUnavailable marks network, auth, quota or timeout failures of a
// model call after retries were exhausted.
var ErrModelUnavailable = errors.New("model unavailable")

// Generator produces a text completion for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Embedder maps text to a fixed-dimension vector. Implementations must be
// deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CallObserver receives one notification per finished model call.
type CallObserver interface {
	ObserveModelCall(operation string, elapsed time.Duration, err error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

type nopObserver struct{}

func (nopObserver) ObserveModelCall(string, time.Duration, error) {}

// NopObserver discards call notifications.
var NopObserver CallObserver = nopObserver{}
