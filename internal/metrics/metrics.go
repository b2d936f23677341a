// Package metrics records run statistics in Prometheus collectors and
// optionally pushes them to a Pushgateway when a run ends.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spigell/smart-apply/internal/ai"
)

const (
	defaultNamespace = "smart_apply"
	defaultJob       = "smart-apply"
)

var modelCallBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Recorder implements ai.CallObserver and extract.Observer.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry
	pushURL   string
	pushJob   string

	extractions       *prometheus.CounterVec
	modelCalls        *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec

	postingsCollected  prometheus.Gauge
	postingsFiltered   prometheus.Gauge
	postingsNormalized prometheus.Gauge
	postingsFailed     prometheus.Gauge
	postingsMatched    prometheus.Gauge
}

func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
		buckets:   modelCallBuckets,
		registry:  prometheus.NewRegistry(),
		pushJob:   defaultJob,
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)

	r.extractions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "extractions_total",
		Help:      "Schema extractions by schema and outcome",
	}, []string{"schema", "outcome"})

	r.modelCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "model_calls_total",
		Help:      "Language model and embedding calls by operation and outcome",
	}, []string{"operation", "outcome"})

	r.modelCallDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "model_call_duration_seconds",
		Help:      "Duration of model calls including retries",
		Buckets:   r.buckets,
	}, []string{"operation"})

	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{Namespace: r.namespace, Name: name, Help: help})
	}
	r.postingsCollected = gauge("postings_collected", "Raw postings fetched from all sources in the last run")
	r.postingsFiltered = gauge("postings_filtered", "Raw postings left after filters in the last run")
	r.postingsNormalized = gauge("postings_normalized", "Postings normalized into job records in the last run")
	r.postingsFailed = gauge("postings_failed", "Postings that failed extraction in the last run")
	r.postingsMatched = gauge("postings_matched", "Job records that matched the resume in the last run")

	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveExtraction(schema, outcome string) {
	r.extractions.WithLabelValues(schema, outcome).Inc()
}

func (r *Recorder) ObserveModelCall(operation string, elapsed time.Duration, err error) {
	r.modelCalls.WithLabelValues(operation, callOutcome(err)).Inc()
	r.modelCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ai.ErrModelUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// Run summarizes the counts of one pipeline run.
type Run struct {
	Collected  int
	Filtered   int
	Normalized int
	Failed     int
	Matched    int
}

func (r *Recorder) SetRun(run Run) {
	r.postingsCollected.Set(float64(run.Collected))
	r.postingsFiltered.Set(float64(run.Filtered))
	r.postingsNormalized.Set(float64(run.Normalized))
	r.postingsFailed.Set(float64(run.Failed))
	r.postingsMatched.Set(float64(run.Matched))
}

// Push sends the registry to the configured Pushgateway. It is a no-op
// without one.
func (r *Recorder) Push(ctx context.Context) error {
	if r.pushURL == "" {
		return nil
	}
	if err := push.New(r.pushURL, r.pushJob).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", r.pushURL, err)
	}
	return nil
}
