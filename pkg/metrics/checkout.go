package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts checkout flow outcomes.
type CheckoutMetrics struct {
	orders      *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_submitted_total",
		Help:      "Order submissions by result.",
	}, []string{"result"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "postal_code_resolutions_total",
		Help:      "Postal code resolution cycles by final status.",
	}, []string{"status"})
	reg.MustRegister(orders, resolutions)
	return &CheckoutMetrics{orders: orders, resolutions: resolutions}
}

// IncOrder records one submission attempt result (submitted, rejected, invalid).
func (c *CheckoutMetrics) IncOrder(result string) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncResolution records the terminal status of a resolution cycle.
func (c *CheckoutMetrics) IncResolution(status string) {
	if c == nil || c.resolutions == nil {
		return
	}
	c.resolutions.WithLabelValues(normalizeLabel(status)).Inc()
}
