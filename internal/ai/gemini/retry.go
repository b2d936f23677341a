package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/spigell/smart-apply/internal/ai"
	"github.com/spigell/smart-apply/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var wait = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)

type retryPolicy struct {
	attempts  int
	timeout   time.Duration
	baseDelay time.Duration
	maxDelay  time.Duration
}

// do runs call with a per-attempt deadline. Transient failures are retried
// with exponential backoff; the final failure is wrapped with
// ai.ErrModelUnavailable. Cancellation of ctx is returned as is.
func (p retryPolicy) do(ctx context.Context, log *zap.Logger, operation string, call func(ctx context.Context) error) error {
	attempts := p.attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := call(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		lastErr = err
		delay, retry := p.classify(err, attempt)
		if !retry || attempt == attempts-1 {
			break
		}

		log.Warn("gemini call failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s: %w: %w", operation, ai.ErrModelUnavailable, lastErr)
}

// classify reports whether err is transient and how long to wait before the
// next attempt.
func (p retryPolicy) classify(err error, attempt int) (time.Duration, bool) {
	backoff := utils.Backoff(attempt, p.baseDelay, p.maxDelay)

	if errors.Is(err, context.DeadlineExceeded) {
		return backoff, true
	}

	if apiErr, ok := asAPIError(err); ok {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			if hint, ok := retryAfter(apiErr.Message); ok {
				if p.maxDelay > 0 && hint > p.maxDelay {
					return 0, false
				}
				if hint > backoff {
					return hint, true
				}
			}
			return backoff, true
		case apiErr.Code == http.StatusRequestTimeout, apiErr.Code >= http.StatusInternalServerError:
			return backoff, true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return backoff, true
	}

	return 0, false
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

func retryAfter(message string) (time.Duration, bool) {
	match := retryAfterPattern.FindStringSubmatch(message)
	if len(match) != 2 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
