package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuthorizeTotal *prometheus.CounterVec
	LedgerFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		AuthorizeTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatgate_usage_authorize_total",
			Help: "Total authorize decisions by reason",
		}, []string{"reason"}),
		LedgerFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatgate_usage_ledger_failures_total",
			Help: "Total ledger operations that failed closed",
		}),
	}
}

func (m *Metrics) RecordAuthorize(reason string) {
	if m == nil {
		return
	}
	m.AuthorizeTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordLedgerFailure() {
	if m == nil {
		return
	}
	m.LedgerFailures.Inc()
}
