// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all warehouseMesh metrics
const (
	namespace = "warehousemesh"
	subsystem = "server"
)

// Metrics holds all Prometheus metrics for a mesh service
type Metrics struct {
	// gRPC request metrics
	GrpcRequestDuration *prometheus.HistogramVec
	GrpcRequestTotal    *prometheus.CounterVec
	GrpcRequestInFlight *prometheus.GaugeVec

	// Connection metrics
	ActiveConnections   prometheus.Gauge
	TotalConnections    prometheus.Counter
	RejectedConnections *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Order metrics
	OrdersTotal *prometheus.CounterVec

	// Inventory operation metrics
	InventoryOpsTotal *prometheus.CounterVec

	// Gateway routing metrics
	RoutesTotal *prometheus.CounterVec

	// Forwarding fallback metrics
	ForwardFallbacksTotal *prometheus.CounterVec

	// Log aggregation metrics
	LogEntriesTotal       prometheus.Counter
	LogBufferSize         prometheus.Gauge
	SnapshotFailuresTotal prometheus.Counter

	// Panic recovery metrics
	PanicsRecovered *prometheus.CounterVec
}

// New creates and registers all metrics
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// gRPC request metrics
		GrpcRequestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "request_duration_seconds",
				Help:      "Histogram of gRPC request latencies",
				Buckets:   prometheus.DefBuckets, // [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10]
			},
			[]string{"method", "code"},
		),

		GrpcRequestTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "request_total",
				Help:      "Total number of gRPC requests",
			},
			[]string{"method", "code"},
		),

		GrpcRequestInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "request_in_flight",
				Help:      "Current number of in-flight gRPC requests",
			},
			[]string{"method"},
		),

		// Connection metrics
		ActiveConnections: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_connections",
				Help:      "Current number of active connections",
			},
		),

		TotalConnections: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "connections_total",
				Help:      "Total number of connections accepted",
			},
		),

		RejectedConnections: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rejected_connections_total",
				Help:      "Total number of connections rejected",
			},
			[]string{"reason"}, // "limit_exceeded", "rate_limit", etc.
		),

		// Rate limiting metrics
		RateLimitHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rate_limit_hits_total",
				Help:      "Total number of rate limit hits",
			},
			[]string{"method"},
		),

		// Order metrics
		OrdersTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orders",
				Name:      "total",
				Help:      "Total number of order attempts by outcome",
			},
			[]string{"status"}, // "ok", "out of stock", "item not found", ...
		),

		// Inventory operation metrics
		InventoryOpsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inventory",
				Name:      "operations_total",
				Help:      "Total number of inventory operations",
			},
			[]string{"operation", "result"}, // operation: "put_item" etc., result: "success"/"failure"
		),

		// Gateway routing metrics
		RoutesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "routes_total",
				Help:      "Total number of requests routed by tier",
			},
			[]string{"tier"}, // "food", "electronics"
		),

		// Forwarding fallback metrics
		ForwardFallbacksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "forward",
				Name:      "fallbacks_total",
				Help:      "Total number of downstream calls converted to fallback responses",
			},
			[]string{"operation"},
		),

		// Log aggregation metrics
		LogEntriesTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "logs",
				Name:      "entries_total",
				Help:      "Total number of operation log entries received",
			},
		),

		LogBufferSize: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "logs",
				Name:      "buffer_size",
				Help:      "Current number of entries held in the log buffer",
			},
		),

		SnapshotFailuresTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "logs",
				Name:      "snapshot_failures_total",
				Help:      "Total number of failed log snapshot writes",
			},
		),

		// Panic recovery metrics
		PanicsRecovered: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "panics_recovered_total",
				Help:      "Total number of panics recovered",
			},
			[]string{"method"},
		),
	}

	return m
}

// RecordGrpcRequest records a gRPC request's duration and status
func (m *Metrics) RecordGrpcRequest(method string, code string, duration time.Duration) {
	m.GrpcRequestDuration.WithLabelValues(method, code).Observe(duration.Seconds())
	m.GrpcRequestTotal.WithLabelValues(method, code).Inc()
}

// RecordOrder records an order attempt outcome
func (m *Metrics) RecordOrder(status string) {
	m.OrdersTotal.WithLabelValues(status).Inc()
}

// RecordInventoryOp records an inventory operation
func (m *Metrics) RecordInventoryOp(operation string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.InventoryOpsTotal.WithLabelValues(operation, result).Inc()
}

// RecordRoute records a gateway routing decision
func (m *Metrics) RecordRoute(tier string) {
	m.RoutesTotal.WithLabelValues(tier).Inc()
}

// RecordForwardFallback records a downstream failure converted to a fallback response
func (m *Metrics) RecordForwardFallback(operation string) {
	m.ForwardFallbacksTotal.WithLabelValues(operation).Inc()
}

// RecordLogEntry records a received operation log entry and the new buffer size
func (m *Metrics) RecordLogEntry(bufferSize int) {
	m.LogEntriesTotal.Inc()
	m.LogBufferSize.Set(float64(bufferSize))
}

// RecordSnapshotFailure records a failed log snapshot write
func (m *Metrics) RecordSnapshotFailure() {
	m.SnapshotFailuresTotal.Inc()
}

// RecordRateLimitHit records a rate limit hit
func (m *Metrics) RecordRateLimitHit(method string) {
	m.RateLimitHits.WithLabelValues(method).Inc()
}

// RecordConnectionRejected records a rejected connection
func (m *Metrics) RecordConnectionRejected(reason string) {
	m.RejectedConnections.WithLabelValues(reason).Inc()
}

// RecordPanicRecovered records a recovered panic
func (m *Metrics) RecordPanicRecovered(method string) {
	m.PanicsRecovered.WithLabelValues(method).Inc()
}
