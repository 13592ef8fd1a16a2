// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "answer_engine_http_requests_total",
		Help: "HTTP requests by handler and status code.",
	}, []string{"handler", "code"})

	answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "answer_engine_answers_total",
		Help: "Pipeline answers by confidence and refusal outcome.",
	}, []string{"confidence", "refusal"})

	modelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "answer_engine_model_request_seconds",
		Help:    "End-to-end pipeline latency including model calls.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)
