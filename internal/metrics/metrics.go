package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captainclaw_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "captainclaw_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captainclaw_provider_requests_total",
			Help: "Total number of LLM provider calls by family and outcome",
		},
		[]string{"family", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "captainclaw_provider_latency_seconds",
			Help:    "LLM provider call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"family"},
	)

	ProviderTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captainclaw_provider_tokens_total",
			Help: "Total tokens reported by LLM providers",
		},
		[]string{"family"},
	)

	ExtractionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captainclaw_extractions_total",
			Help: "Total number of document text extractions by format and status",
		},
		[]string{"format", "status"},
	)
)
