package monitoring

import (
	"testing"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	metrics := m.GetMetrics()

	// Check if our metric is present
	value, exists := metrics["test_metric"]
	if !exists {
		t.Fatalf("Expected 'test_metric' to be present in metrics, but it was not")
	}

	// Check value
	if value != 42 {
		t.Errorf("Expected 'test_metric' to be 42, but got %v", value)
	}

	// Check uptime presence
	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_IncrMetric(t *testing.T) {
	m := NewMonitor()

	m.IncrMetric("orders_created")
	m.IncrMetric("orders_created")
	m.IncrMetric("orders_created")

	value, exists := m.GetMetric("orders_created")
	if !exists {
		t.Fatalf("Expected 'orders_created' to be present in metrics, but it was not")
	}

	if value != int64(3) {
		t.Errorf("Expected 'orders_created' to be 3, but got %v", value)
	}
}

func TestMonitor_IncrMetricOverwritesNonCounter(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("mixed", "not-a-number")

	m.IncrMetric("mixed")

	value, _ := m.GetMetric("mixed")
	if value != int64(1) {
		t.Errorf("Expected 'mixed' to restart at 1, but got %v", value)
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	m.Reset()

	metrics := m.GetMetrics()

	// Our test metric should be gone, but uptime should still be there
	_, exists := metrics["test_metric"]
	if exists {
		t.Errorf("Expected 'test_metric' to be removed after Reset(), but it was present")
	}

	// Uptime should still be present (it's added on GetMetrics call)
	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}
