// Package metrics exposes pipeline counters. A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leadscout"

// Recorder groups the pipeline counters.
type Recorder struct {
	GateRejections *prometheus.CounterVec
	Duplicates     *prometheus.CounterVec
	Commits        *prometheus.CounterVec
	Compensations  *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		GateRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_rejections_total",
			Help:      "Candidates discarded by an evaluation gate.",
		}, []string{"stage"}),
		Duplicates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_total",
			Help:      "Candidates classified as duplicates, by detector check.",
		}, []string{"check"}),
		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Commit attempts by result.",
		}, []string{"result"}),
		Compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensations_total",
			Help:      "Compensating document deletes after a failed vector write.",
		}, []string{"result"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (r *Recorder) GateRejected(stage string) {
	if r == nil {
		return
	}
	r.GateRejections.WithLabelValues(stage).Inc()
}

func (r *Recorder) Duplicate(check string) {
	if r == nil {
		return
	}
	r.Duplicates.WithLabelValues(check).Inc()
}

func (r *Recorder) Commit(result string) {
	if r == nil {
		return
	}
	r.Commits.WithLabelValues(result).Inc()
}

func (r *Recorder) Compensation(ok bool) {
	if r == nil {
		return
	}
	r.Compensations.WithLabelValues(resultLabel(ok)).Inc()
}

func (r *Recorder) Notification(ok bool) {
	if r == nil {
		return
	}
	r.Notifications.WithLabelValues(resultLabel(ok)).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
