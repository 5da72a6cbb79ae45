// Copyright (C) 2023-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requestCount         *prometheus.CounterVec
	reencryptLatencyMS   prometheus.Histogram
	failedReencryptCount *prometheus.CounterVec
	registeredInputCount prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_request_count",
				Help: "Number of requests served, by route and HTTP status",
			},
			[]string{"route", "status"},
		),
		reencryptLatencyMS: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_reencrypt_latency_ms",
				Help:    "Latency of serving a reencryption request in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		failedReencryptCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_failed_reencrypt_count",
				Help: "Number of reencryption requests that failed",
			},
			[]string{"failure_reason"},
		),
		registeredInputCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_registered_input_count",
				Help: "Number of ciphertext handles registered",
			},
		),
	}

	registerer.MustRegister(m.requestCount)
	registerer.MustRegister(m.reencryptLatencyMS)
	registerer.MustRegister(m.failedReencryptCount)
	registerer.MustRegister(m.registeredInputCount)

	return &m
}
