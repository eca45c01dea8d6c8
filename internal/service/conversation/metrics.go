package conversation

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	dispatch    *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "support_agent_dispatch_total",
				Help: "Visitor messages by dispatch outcome.",
			},
			[]string{"outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "support_conversation_transitions_total",
				Help: "Conversation status changes.",
			},
			[]string{"from", "to", "event"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.dispatch, m.transitions)
	}
	return m
}

func (m *Metrics) observeDispatch(outcome string) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeTransition(from, to, event string) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(from, to, event).Inc()
}
