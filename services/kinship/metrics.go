// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package kinship

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "aleutian"
	metricsSubsystem = "kinship"
)

// Metrics holds the Prometheus collectors of the kinship API.
//
// Thread Safety: All operations are thread-safe. A nil *Metrics records
// nothing.
type Metrics struct {
	// RequestsTotal counts HTTP requests. Labels: route, method, status.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures HTTP latency. Labels: route.
	RequestDuration *prometheus.HistogramVec

	// MutationsTotal counts graph mutations. Labels: op, result.
	MutationsTotal *prometheus.CounterVec

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal prometheus.Counter
}

// NewMetrics registers the collectors with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"route"}),
		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "mutations_total",
			Help:      "Graph mutations by operation and result",
		}, []string{"op", "result"}),
		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-account rate limiter",
		}),
	}
}

func (m *Metrics) observeRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) observeMutation(op string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		_, result = StatusFor(err)
	}
	m.MutationsTotal.WithLabelValues(op, result).Inc()
}

func (m *Metrics) observeRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}
