// internal/infra/metrics/metrics.go
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seller_escalation_bot/internal/app"
)

const namespace = "seller_escalation"

// Metrics holds the collectors of the service on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastRun        prometheus.Gauge
	rows           *prometheus.CounterVec
	emails         *prometheus.CounterVec
	notified       *prometheus.CounterVec
	fallbacks      prometheus.Counter
	trackingEvents *prometheus.CounterVec
}

var _ app.RunObserver = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Weekly runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of weekly runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last weekly run finished.",
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Input rows by outcome.",
		}, []string{"outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Recipient addresses by delivery outcome.",
		}, []string{"outcome"}),
		notified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sellers_notified_total",
			Help:      "Sellers notified by escalation action.",
		}, []string{"action"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_fallbacks_total",
			Help:      "Rows rendered with the first warning template because their own failed.",
		}),
		trackingEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_events_total",
			Help:      "Tracking endpoint hits by action and result.",
		}, []string{"action", "result"}),
	}

	m.registry.MustRegister(
		m.runs, m.runDuration, m.lastRun, m.rows, m.emails, m.notified, m.fallbacks, m.trackingEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records a finished run. A nil report means the run never started.
func (m *Metrics) ObserveRun(_ context.Context, r *app.RunReport, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.runs.WithLabelValues(result).Inc()
	if r == nil {
		return
	}

	m.runDuration.Observe(r.Duration().Seconds())
	m.lastRun.Set(float64(r.FinishedAt.Unix()))

	m.rows.WithLabelValues("excluded").Add(float64(r.Excluded))
	m.rows.WithLabelValues("no_action").Add(float64(r.NoAction))
	m.rows.WithLabelValues("missing_email").Add(float64(r.MissingEmail))
	m.rows.WithLabelValues("no_valid_address").Add(float64(r.NoValidAddress))
	m.rows.WithLabelValues("notified").Add(float64(r.Notified))
	m.rows.WithLabelValues("error").Add(float64(r.RowErrors))

	m.emails.WithLabelValues("sent").Add(float64(r.EmailsSent))
	m.emails.WithLabelValues("delivery_failed").Add(float64(r.DeliveryFailures))
	m.emails.WithLabelValues("invalid_address").Add(float64(r.InvalidAddresses))

	for action, n := range r.ByAction {
		m.notified.WithLabelValues(action.EmailType()).Add(float64(n))
	}
	m.fallbacks.Add(float64(r.TemplateFallbacks))
}

// TrackingEvent counts one hit of the /exec endpoint.
func (m *Metrics) TrackingEvent(action, result string) {
	m.trackingEvents.WithLabelValues(action, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

