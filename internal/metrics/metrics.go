// Package metrics exposes Prometheus collectors for connector calls.
//
// Collectors are registered on a caller-supplied registry rather than the
// global default, so several clients and tests can coexist. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leapconnect"

// Metrics holds the connector collectors.
type Metrics struct {
	// Operations counts calls by operation, driver and status (ok/error).
	Operations *prometheus.CounterVec

	// Duration observes call latency in seconds by operation and driver.
	Duration *prometheus.HistogramVec

	// Records counts records read or written by driver and direction.
	Records *prometheus.CounterVec

	// Connections reports pooled connections by driver and state (in_use/idle).
	Connections *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Connector operations by outcome",
			},
			[]string{"operation", "driver", "status"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Connector operation latency",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation", "driver"},
		),
		Records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Records read or written",
			},
			[]string{"driver", "direction"},
		),
		Connections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_connections",
				Help:      "Pooled connections by state",
			},
			[]string{"driver", "state"},
		),
	}
}

// Observe records the outcome and latency of one operation.
func (m *Metrics) Observe(operation, driver string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Operations.WithLabelValues(operation, driver, status).Inc()
	m.Duration.WithLabelValues(operation, driver).Observe(elapsed.Seconds())
}

// AddRecords counts n records moved in direction ("read" or "written").
func (m *Metrics) AddRecords(driver, direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Records.WithLabelValues(driver, direction).Add(float64(n))
}

// ObservePool records a snapshot of the connection pool.
func (m *Metrics) ObservePool(driver string, stats sql.DBStats) {
	if m == nil {
		return
	}
	m.Connections.WithLabelValues(driver, "in_use").Set(float64(stats.InUse))
	m.Connections.WithLabelValues(driver, "idle").Set(float64(stats.Idle))
}

// WriteTextfile writes the registry in text exposition format, for
// node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
