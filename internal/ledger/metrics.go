package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lovelock_rpc_requests_total",
		Help: "Total JSON-RPC calls to the fullnode by method and outcome.",
	}, []string{"method", "outcome"})

	rpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lovelock_rpc_request_duration_seconds",
		Help:    "JSON-RPC call duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	finalityWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lovelock_finality_wait_seconds",
		Help:    "Time spent waiting for transaction finality.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})
)
