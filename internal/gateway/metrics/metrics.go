package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions     *prometheus.CounterVec
	TokenRefreshes prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatgate_gateway_decisions_total",
			Help: "Total access decisions by outcome",
		}, []string{"outcome"}),
		TokenRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatgate_gateway_token_refreshes_total",
			Help: "Total session tokens rotated on pass-through",
		}),
	}
}

func (m *Metrics) RecordDecision(outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTokenRefresh() {
	if m == nil {
		return
	}
	m.TokenRefreshes.Inc()
}
