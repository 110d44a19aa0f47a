// Package prom implements the observability hooks with Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	m := prom.New(reg)
//	m.Install()
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/augment/pkg/errors"
	"github.com/matzehuels/augment/pkg/observability"
)

const namespace = "augment"

// Metrics holds every collector. It implements all hook interfaces of
// package observability.
type Metrics struct {
	Applications *prometheus.CounterVec
	Replays      *prometheus.CounterVec
	Reversals    *prometheus.CounterVec
	Advisories   *prometheus.CounterVec

	Runs           *prometheus.CounterVec
	Samples        *prometheus.CounterVec
	SampleDuration prometheus.Histogram

	CacheLookups *prometheus.CounterVec
	CacheBytes   *prometheus.CounterVec

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Applications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transform_calls_total",
			Help: "Gated transform calls by outcome.",
		}, []string{"transform", "outcome"}),
		Replays: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transform_replays_total",
			Help: "Replayed transform calls; applied is false when no record existed.",
		}, []string{"transform", "applied"}),
		Reversals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transform_reversals_total",
			Help: "Inverse applications by result code.",
		}, []string{"transform", "code"}),
		Advisories: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transform_advisories_total",
			Help: "Non-fatal warnings raised during transform calls.",
		}, []string{"transform"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "pipeline_runs_total",
			Help: "Batch runs by result.",
		}, []string{"result"}),
		Samples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "pipeline_samples_total",
			Help: "Samples processed by result.",
		}, []string{"result"}),
		SampleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pipeline_sample_duration_seconds",
			Help:    "Time to process one sample.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_lookups_total",
			Help: "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Install sets m as the process-wide hooks.
func (m *Metrics) Install() {
	observability.SetTransformHooks(m)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnApply(name, _ string, fired bool) {
	outcome := "skipped"
	if fired {
		outcome = "fired"
	}
	m.Applications.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) OnReplay(name, _ string, applied bool) {
	m.Replays.WithLabelValues(name, strconv.FormatBool(applied)).Inc()
}

func (m *Metrics) OnReverse(name string, err error) {
	code := "OK"
	if err != nil {
		code = string(errors.GetCode(err))
		if code == "" {
			code = string(errors.ErrCodeInternal)
		}
	}
	m.Reversals.WithLabelValues(name, code).Inc()
}

func (m *Metrics) OnAdvisory(name, _ string) {
	m.Advisories.WithLabelValues(name).Inc()
}

func (m *Metrics) OnRunStart(context.Context, string, int) {}

func (m *Metrics) OnSampleComplete(_ context.Context, _ string, d time.Duration, err error) {
	m.Samples.WithLabelValues(result(err)).Inc()
	m.SampleDuration.Observe(d.Seconds())
}

func (m *Metrics) OnRunComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	m.Runs.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.TransformHooks = (*Metrics)(nil)
	_ observability.PipelineHooks  = (*Metrics)(nil)
	_ observability.CacheHooks     = (*Metrics)(nil)
	_ observability.HTTPHooks      = (*Metrics)(nil)
)
