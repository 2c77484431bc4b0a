// Package metrics exposes Prometheus collectors for the storefront.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the storefront collectors.
type Metrics struct {
	cartMutations *prometheus.CounterVec
	cartRollbacks *prometheus.CounterVec
	mergedLines   *prometheus.CounterVec
	ordersPlaced  prometheus.Counter
	orderFailures *prometheus.CounterVec
	statusChanges *prometheus.CounterVec
	eventsSent    *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers collectors on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg, reusing collectors already registered there.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		cartMutations: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "retech_cart_mutations_total",
			Help: "Server cart mutations by operation and result",
		}, []string{"op", "result"}),
		cartRollbacks: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "retech_cart_rollbacks_total",
			Help: "Optimistic cart updates reverted after a failed write",
		}, []string{"op"}),
		mergedLines: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "retech_cart_merge_lines_total",
			Help: "Guest cart lines merged into server carts at login",
		}, []string{"result"}),
		ordersPlaced: registerCounter(reg, prometheus.CounterOpts{
			Name: "retech_orders_placed_total",
			Help: "Orders placed successfully",
		}),
		orderFailures: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "retech_order_failures_total",
			Help: "Order placement failures by step",
		}, []string{"step"}),
		statusChanges: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "retech_order_status_changes_total",
			Help: "Order status changes by target status",
		}, []string{"status"}),
		eventsSent: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "retech_events_published_total",
			Help: "Domain events published by type and result",
		}, []string{"type", "result"}),
		httpRequests: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "retech_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: registerHistogramVec(reg, prometheus.HistogramOpts{
			Name:    "retech_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) CartMutation(op string, err error) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) CartRollback(op string) {
	if m == nil {
		return
	}
	m.cartRollbacks.WithLabelValues(op).Inc()
}

func (m *Metrics) MergedLine(err error) {
	if m == nil {
		return
	}
	m.mergedLines.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *Metrics) OrderFailed(step string) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	m.eventsSent.WithLabelValues(eventType, result(err)).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, fmt.Sprintf("%d", status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := reg.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := already.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(reg prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := reg.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
