package extract

import (
	"errors"
	"fmt"

	"github.com/spigell/smart-apply/internal/ai"
)

// Failure kinds. Each *Error wraps exactly one of them, so callers can use
// errors.Is to tell them apart.
var (
	ErrEmptyInput       = errors.New("empty input")
	ErrNoFencedBlock    = errors.New("no fenced block in model response")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrModelUnavailable = ai.ErrModelUnavailable
)

// Error describes a failed extraction.
type Error struct {
	Kind   error
	Schema string
	// Raw is the model response that failed to parse, if any.
	Raw string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("extract %s: %v", e.Schema, e.Kind)
	}
	return fmt.Sprintf("extract %s: %v: %v", e.Schema, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil && e.Err != e.Kind {
		errs = append(errs, e.Err)
	}
	return errs
}

// Outcome labels an extraction result for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrNoFencedBlock):
		return "no_fenced_block"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	default:
		return "error"
	}
}

func newError(kind error, schema, raw string, err error) *Error {
	return &Error{Kind: kind, Schema: schema, Raw: raw, Err: err}
}
