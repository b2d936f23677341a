package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spigell/smart-apply/internal/ai"
	"github.com/spigell/smart-apply/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ai.CallObserver  = (*Recorder)(nil)
	_ extract.Observer = (*Recorder)(nil)
)

func TestObserveExtraction(t *testing.T) {
	r := New()
	r.ObserveExtraction("job_posting", "ok")
	r.ObserveExtraction("job_posting", "ok")
	r.ObserveExtraction("resume", "no_fenced_block")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.extractions.WithLabelValues("job_posting", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.extractions.WithLabelValues("resume", "no_fenced_block")))
}

func TestObserveModelCall(t *testing.T) {
	r := New(WithNamespace("test"))
	r.ObserveModelCall("generate", time.Second, nil)
	r.ObserveModelCall("generate", time.Second, fmt.Errorf("generate: %w", ai.ErrModelUnavailable))
	r.ObserveModelCall("embed", time.Millisecond, context.Canceled)
	r.ObserveModelCall("embed", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.modelCalls.WithLabelValues("generate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.modelCalls.WithLabelValues("generate", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.modelCalls.WithLabelValues("embed", "canceled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.modelCalls.WithLabelValues("embed", "error")))

	count, err := testutil.GatherAndCount(r.Registry(), "test_model_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSetRun(t *testing.T) {
	r := New()
	r.SetRun(Run{Collected: 10, Filtered: 8, Normalized: 6, Failed: 2, Matched: 3})

	expected := `
# HELP smart_apply_postings_matched Job records that matched the resume in the last run
# TYPE smart_apply_postings_matched gauge
smart_apply_postings_matched 3
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "smart_apply_postings_matched"))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.postingsFailed))
}

func TestPushWithoutGatewayIsNoop(t *testing.T) {
	require.NoError(t, New().Push(context.Background()))
}

func TestPush(t *testing.T) {
	var (
		path string
		body string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		data, _ := io.ReadAll(req.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := New(WithPushGateway(server.URL, "nightly"))
	r.ObserveExtraction("resume", "ok")

	require.NoError(t, r.Push(context.Background()))
	assert.Equal(t, "/metrics/job/nightly", path)
	assert.NotEmpty(t, body)
}

func TestPushFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := New(WithPushGateway(server.URL, "")).Push(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}
