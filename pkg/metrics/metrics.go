// Package metrics exposes Prometheus instrumentation for the schedule
// pipeline: parse outcomes and the volume of detected changes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Parse outcome label values.
const (
	OutcomeSuccess          = "success"
	OutcomeMalformed        = "malformed"
	OutcomeMissingAttribute = "missing_attribute"
	OutcomeIncomplete       = "incomplete"
	OutcomeCanceled         = "canceled"
)

// Change kind label values.
const (
	ChangeNew      = "new"
	ChangeCanceled = "canceled"
	ChangeUpdated  = "updated"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	ParseTotal      *prometheus.CounterVec
	SessionsParsed  prometheus.Counter
	ChangesDetected *prometheus.CounterVec
}

// New creates the pipeline metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		ParseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "parse_total",
			Help:      "Number of schedule parse attempts by outcome",
		}, []string{"outcome"}),
		SessionsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "sessions_parsed_total",
			Help:      "Total number of sessions produced by successful parses",
		}),
		ChangesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "changes_detected_total",
			Help:      "Number of session changes found during reconciliation by kind",
		}, []string{"kind"}),
	}
}

// Register registers all collectors with the given registerer. Already
// registered collectors are tolerated so repeated wiring is safe.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.ParseTotal, m.SessionsParsed, m.ChangesDetected} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
