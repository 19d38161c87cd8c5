// Package monitoring exposes the platform's operational counters. Prometheus
// collectors back the /metrics endpoint; the Monitor keeps an in-process
// snapshot for the stats endpoint.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OrdersCreated counts successfully created orders
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foodcourt_orders_created_total",
		Help: "Number of orders created",
	})

	// OrderTransitions counts order status transitions by target status
	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodcourt_order_transitions_total",
		Help: "Number of order status transitions",
	}, []string{"status"})

	// SlipVerifications counts slip verification results by outcome
	SlipVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodcourt_slip_verifications_total",
		Help: "Number of slip verification attempts",
	}, []string{"outcome"})

	// PaymentEvents counts webhook-driven payment resolutions by status
	PaymentEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodcourt_payment_events_total",
		Help: "Number of processed payment gateway events",
	}, []string{"status"})

	// PayoutsSettled counts created payout records
	PayoutsSettled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foodcourt_payouts_settled_total",
		Help: "Number of payouts settled",
	})
)

func init() {
	prometheus.MustRegister(OrdersCreated, OrderTransitions, SlipVerifications, PaymentEvents, PayoutsSettled)
}

// Monitor keeps a lightweight in-process metrics snapshot
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// IncrMetric increments an integer metric
func (m *Monitor) IncrMetric(name string) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	current, _ := m.metrics[name].(int64)
	m.metrics[name] = current + 1
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	value, exists := m.metrics[name]
	return value, exists
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	// Create a copy to avoid concurrent map access
	metrics := make(map[string]interface{}, len(m.metrics))
	for k, v := range m.metrics {
		metrics[k] = v
	}

	// Add system metrics
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
}
