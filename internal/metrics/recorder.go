package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects engine and provider metrics.
// A nil *Recorder is valid and records nothing.
// ⭐ SSOT: Prometheus 지표 정의는 여기서만
type Recorder struct {
	registry *prometheus.Registry

	resolverAttempts *prometheus.CounterVec
	constituentFetch *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	upstreamDuration *prometheus.HistogramVec
	universeInScope  prometheus.Gauge
	universeExcluded *prometheus.GaugeVec
}

// New creates a recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		resolverAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfscope_resolver_attempts_total",
				Help: "Attribute resolution attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		constituentFetch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfscope_constituent_fetch_total",
				Help: "Constituent price fetches by outcome (ok, empty, error, invalid)",
			},
			[]string{"outcome"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etfscope_analysis_duration_seconds",
				Help:    "Duration of analysis requests in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"kind", "result"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etfscope_upstream_request_duration_seconds",
				Help:    "Duration of upstream provider requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		universeInScope: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "etfscope_universe_in_scope",
				Help: "Number of instruments classified as domestic equity",
			},
		),
		universeExcluded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "etfscope_universe_excluded",
				Help: "Number of excluded instruments by category",
			},
			[]string{"category"},
		),
	}

	r.registry.MustRegister(
		r.resolverAttempts,
		r.constituentFetch,
		r.analysisDuration,
		r.upstreamDuration,
		r.universeInScope,
		r.universeExcluded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry (tests, custom exporters)
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ResolverAttempt records one provider call of a resolution plan
func (r *Recorder) ResolverAttempt(provider, outcome string) {
	if r == nil {
		return
	}
	r.resolverAttempts.WithLabelValues(provider, outcome).Inc()
}

// ConstituentFetch records the outcome of one constituent price fetch
func (r *Recorder) ConstituentFetch(outcome string) {
	if r == nil {
		return
	}
	r.constituentFetch.WithLabelValues(outcome).Inc()
}

// ObserveAnalysis records the duration of a request
func (r *Recorder) ObserveAnalysis(kind string, started time.Time, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.analysisDuration.WithLabelValues(kind, result).Observe(time.Since(started).Seconds())
}

// ObserveUpstream records the duration of one upstream call
func (r *Recorder) ObserveUpstream(provider string, started time.Time) {
	if r == nil {
		return
	}
	r.upstreamDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

// SetUniverse publishes the latest classification counts
func (r *Recorder) SetUniverse(inScope int, excluded map[string]int) {
	if r == nil {
		return
	}
	r.universeInScope.Set(float64(inScope))
	for category, n := range excluded {
		r.universeExcluded.WithLabelValues(category).Set(float64(n))
	}
}
