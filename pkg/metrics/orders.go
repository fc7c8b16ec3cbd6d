package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts order lifecycle activity.
type OrderMetrics struct {
	created     prometheus.Counter
	failures    *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders created from carts.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_creation_failures_total",
		Help:      "Order creation attempts rejected, by error code.",
	}, []string{"code"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sub_order_transitions_total",
		Help:      "Sub-order status transitions, by target status and actor role.",
	}, []string{"status", "role"})
	reg.MustRegister(created, failures, transitions)
	return &OrderMetrics{created: created, failures: failures, transitions: transitions}
}

func (m *OrderMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *OrderMetrics) IncCreationFailure(code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *OrderMetrics) IncTransition(status, role string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status), normalizeLabel(role)).Inc()
}
