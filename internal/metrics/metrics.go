// Package metrics exposes the service's Prometheus instruments.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "elektrikci"

// Metrics holds every collector the service records to
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	wsClients        prometheus.Gauge
	wsEvents         *prometheus.CounterVec
	paymentsRecorded *prometheus.CounterVec
	paymentAmount    *prometheus.CounterVec
	backups          *prometheus.CounterVec
	importedRecords  *prometheus.CounterVec
}

// New creates the collectors and registers them with registerer.
// A nil registerer means prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Currently connected WebSocket clients.",
		}),
		wsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_events_total",
			Help:      "Events broadcast to workspaces by event type.",
		}, []string{"type"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments appended to jobs by payment method.",
		}, []string{"method"}),
		paymentAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_amount_total",
			Help:      "Sum of recorded payment amounts by payment method.",
		}, []string{"method"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backup exports and uploads by kind and result.",
		}, []string{"kind", "result"}),
		importedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_records_total",
			Help:      "Records processed by backup imports by entity and outcome.",
		}, []string{"entity", "outcome"}),
	}

	registerer.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.wsClients,
		m.wsEvents,
		m.paymentsRecorded,
		m.paymentAmount,
		m.backups,
		m.importedRecords,
	)
	return m
}

// Middleware records request counts and latency keyed by the matched route
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

// ObserveHTTP records one finished request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ClientConnected implements websocket.HubObserver
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.wsClients.Inc()
}

// ClientDisconnected implements websocket.HubObserver
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.wsClients.Dec()
}

// EventPublished implements websocket.HubObserver
func (m *Metrics) EventPublished(eventType string) {
	if m == nil {
		return
	}
	m.wsEvents.WithLabelValues(eventType).Inc()
}

// PaymentRecorded counts a payment and adds its amount
func (m *Metrics) PaymentRecorded(method string, amount float64) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(method).Inc()
	m.paymentAmount.WithLabelValues(method).Add(amount)
}

// BackupFinished counts a backup of kind ("json", "csv", "storage", "restore") by outcome
func (m *Metrics) BackupFinished(kind string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.backups.WithLabelValues(kind, result).Inc()
}

// RecordsImported adds n records of entity with outcome ("upserted" or "skipped")
func (m *Metrics) RecordsImported(entity, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.importedRecords.WithLabelValues(entity, outcome).Add(float64(n))
}
