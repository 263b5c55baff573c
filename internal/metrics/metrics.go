package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/soundshare-api/internal/cascade"
)

// Cascade outcomes as exported in the outcome label.
const (
	OutcomeCommitted = "committed"
	OutcomeNoop      = "noop"
	OutcomeNotFound  = "not_found"
	OutcomeTransient = "transient"
	OutcomeInvariant = "invariant"
	OutcomeLock      = "lock_unavailable"
	OutcomeCanceled  = "canceled"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	CascadeRuns    *prometheus.CounterVec
	SoftDeleted    *prometheus.CounterVec
	CascadeSeconds prometheus.Histogram
	Signups        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CascadeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundshare",
			Name:      "cascade_runs_total",
			Help:      "Cascade runs by outcome.",
		}, []string{"outcome"}),
		SoftDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundshare",
			Name:      "cascade_soft_deleted_total",
			Help:      "Rows soft-deleted by committed cascades, by entity kind.",
		}, []string{"kind"}),
		CascadeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soundshare",
			Name:      "cascade_duration_seconds",
			Help:      "Wall time of cascade runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		Signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundshare",
			Name:      "signups_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.CascadeRuns,
		m.SoftDeleted,
		m.CascadeSeconds,
		m.Signups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveCascade implements cascade.Observer. Deletions are only counted
// for committed runs.
func (m *Metrics) ObserveCascade(report *cascade.Report, err error) {
	outcome := Outcome(report, err)
	m.CascadeRuns.WithLabelValues(outcome).Inc()

	if report != nil && !report.FinishedAt.IsZero() {
		m.CascadeSeconds.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
	if err != nil || report == nil {
		return
	}
	for kind, n := range report.Counts {
		m.SoftDeleted.WithLabelValues(string(kind)).Add(float64(n))
	}
}

// ObserveSignup counts one signup attempt.
func (m *Metrics) ObserveSignup(outcome string) {
	m.Signups.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome maps a cascade result onto its outcome label.
func Outcome(report *cascade.Report, err error) string {
	switch {
	case err == nil && report != nil && report.Noop():
		return OutcomeNoop
	case err == nil:
		return OutcomeCommitted
	case errors.Is(err, cascade.ErrRootNotFound):
		return OutcomeNotFound
	case errors.Is(err, cascade.ErrInvariantViolation):
		return OutcomeInvariant
	case errors.Is(err, cascade.ErrLockUnavailable):
		return OutcomeLock
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeTransient
	}
}
