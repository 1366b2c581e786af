package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pingtriage"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	pingsAdded   *prom.CounterVec
	pingsDeduped *prom.CounterVec
	transitions  *prom.CounterVec
	saveDuration *prom.HistogramVec
	saveFailures prom.Counter
	migrations   *prom.CounterVec
	pingsStatus  *prom.GaugeVec
	threads      prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		pingsAdded: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pings_added_total",
			Help:      "Pings stored for the first time",
		}, []string{"platform"}),
		pingsDeduped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pings_deduplicated_total",
			Help:      "AddPing calls that matched an existing ping id",
		}, []string{"platform"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ping_transitions_total",
			Help:      "Lifecycle transitions applied to pings",
		}, []string{"to"}),
		saveDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Duration of whole-document saves",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		saveFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "save_failures_total",
			Help:      "Document saves that failed and were kept in memory",
		}),
		migrations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "migrations_total",
			Help:      "Legacy migration attempts by outcome",
		}, []string{"outcome"}),
		pingsStatus: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pings",
			Help:      "Pings currently stored, by status",
		}, []string{"status"}),
		threads: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "threads",
			Help:      "Threads currently stored",
		}),
	}
	reg.MustRegister(pr.pingsAdded, pr.pingsDeduped, pr.transitions, pr.saveDuration,
		pr.saveFailures, pr.migrations, pr.pingsStatus, pr.threads)
	return pr
}

func (p *PrometheusRecorder) IncPingAdded(platform string) {
	if p == nil {
		return
	}
	p.pingsAdded.WithLabelValues(platform).Inc()
}

func (p *PrometheusRecorder) IncPingDeduplicated(platform string) {
	if p == nil {
		return
	}
	p.pingsDeduped.WithLabelValues(platform).Inc()
}

func (p *PrometheusRecorder) IncTransition(to TransitionLabel) {
	if p == nil {
		return
	}
	p.transitions.WithLabelValues(string(to)).Inc()
}

func (p *PrometheusRecorder) ObserveSave(d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	} else {
		p.saveFailures.Inc()
	}
	p.saveDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncMigration(outcome MigrationLabel) {
	if p == nil {
		return
	}
	p.migrations.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPingsByStatus(status string, n int) {
	if p == nil {
		return
	}
	p.pingsStatus.WithLabelValues(status).Set(float64(n))
}

func (p *PrometheusRecorder) SetThreads(n int) {
	if p == nil {
		return
	}
	p.threads.Set(float64(n))
}
