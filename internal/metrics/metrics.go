// Package metrics provides Prometheus metrics for the inventory service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netinventory"

// Import row results.
const (
	RowImported = "imported"
	RowSkipped  = "skipped"
)

// Import request outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected" // invalid request or schema
	OutcomeFailed   = "failed"   // decode or batch-fatal row error
)

// Metrics holds every collector of one service instance on its own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ImportRows          *prometheus.CounterVec
	ImportRequests      *prometheus.CounterVec
	ImportDuration      prometheus.Histogram
	DevicesCreated      *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ImportRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "rows_total",
				Help:      "Spreadsheet rows processed by the import pipeline",
			},
			[]string{"result"}, // imported, skipped
		),
		ImportRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "requests_total",
				Help:      "Import requests by outcome",
			},
			[]string{"outcome"},
		),
		ImportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "duration_seconds",
				Help:      "Duration of import requests",
				Buckets:   prometheus.DefBuckets,
			},
		),
		DevicesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "devices",
				Name:      "created_total",
				Help:      "Devices stored, by source",
			},
			[]string{"source"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ImportRows,
		m.ImportRequests,
		m.ImportDuration,
		m.DevicesCreated,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveRow counts one processed import row.
func (m *Metrics) ObserveRow(result string) {
	if m == nil {
		return
	}
	m.ImportRows.WithLabelValues(result).Inc()
}

// ObserveImport records the outcome and duration of one import request.
func (m *Metrics) ObserveImport(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ImportRequests.WithLabelValues(outcome).Inc()
	m.ImportDuration.Observe(d.Seconds())
}

// DeviceCreated counts a stored device.
func (m *Metrics) DeviceCreated(source string) {
	if m == nil {
		return
	}
	m.DevicesCreated.WithLabelValues(source).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
