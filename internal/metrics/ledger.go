package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ledger records ledger operation outcomes. A nil *Ledger is valid and
// records nothing.
type Ledger struct {
	duration     *prometheus.HistogramVec
	operations   *prometheus.CounterVec
	persistFails prometheus.Counter
}

// NewLedger registers the ledger metrics on the provided registerer.
func NewLedger(reg prometheus.Registerer) *Ledger {
	if reg == nil {
		return &Ledger{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shiftledger_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shiftledger_operations_total",
		Help: "Ledger operations by outcome.",
	}, []string{"op", "outcome"})
	persistFails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shiftledger_persist_failures_total",
		Help: "Mutations rolled back because persistence failed.",
	})
	reg.MustRegister(duration, operations, persistFails)
	return &Ledger{
		duration:     duration,
		operations:   operations,
		persistFails: persistFails,
	}
}

// Observe records one finished operation. outcome is "ok" or an error kind.
func (l *Ledger) Observe(op, outcome string, elapsed time.Duration) {
	if l == nil || l.duration == nil {
		return
	}
	op = normalizeLabel(op)
	l.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	l.operations.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

func (l *Ledger) IncPersistFailure() {
	if l == nil || l.persistFails == nil {
		return
	}
	l.persistFails.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
