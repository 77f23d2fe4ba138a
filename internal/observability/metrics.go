// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels shared by the auth and dispatch counters.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDropped = "dropped"
)

// Metrics contains the Skwela Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AuthOperations  *prometheus.CounterVec
	OTPDispatch     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the Skwela collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skwela_auth_operations_total",
				Help: "Auth operations by operation and result kind",
			},
			[]string{"operation", "result"},
		),
		OTPDispatch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skwela_otp_dispatch_total",
				Help: "Verification code deliveries by result",
			},
			[]string{"result"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skwela_http_request_duration_seconds",
				Help:    "HTTP request latency by method, route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(m.AuthOperations, m.OTPDispatch, m.RequestDuration)
	return m
}

// RecordAuth counts one auth operation. result is "success" or an error kind.
func (m *Metrics) RecordAuth(operation, result string) {
	if m == nil {
		return
	}
	m.AuthOperations.WithLabelValues(operation, result).Inc()
}

// RecordOTPDispatch counts one verification code delivery attempt.
func (m *Metrics) RecordOTPDispatch(result string) {
	if m == nil {
		return
	}
	m.OTPDispatch.WithLabelValues(result).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
