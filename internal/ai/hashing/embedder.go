// Package hashing provides an offline ai.Embedder built on feature hashing
// of keyword tokens. It needs no network access and is deterministic.
package hashing

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 512

var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "use": true,
	"an": true, "as": true, "at": true, "be": true, "by": true, "in": true,
	"is": true, "of": true, "on": true, "or": true, "to": true, "we": true,
	"n/a": true,
}

// Embedder hashes tokens into a fixed number of buckets and L2-normalizes
// the resulting term-frequency vector.
type Embedder struct {
	dimensions int
}

// New returns an Embedder producing vectors of the given size.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Dimensions reports the vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed returns the hashed vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, errors.New("text has no indexable tokens")
	}

	vector := make([]float64, e.dimensions)
	for _, token := range tokens {
		vector[xxhash.Sum64String(token)%uint64(e.dimensions)]++
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dimensions)
	for i, v := range vector {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// Tokenize lowercases text and splits it into keywords of at least two
// runes, keeping tech suffixes such as "c++", "c#" and "node.js".
func Tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if len([]rune(w)) >= 2 && !stopWords[w] {
			tokens = append(tokens, w)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
