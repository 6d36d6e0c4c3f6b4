package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		gatewayCallLatencyMs,
		gatewayRetriesTotal,
	)
}

var (
	gatewayCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pay_gateway_call_latency_ms",
			Help:    "Payment gateway HTTP call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"op", "success"},
	)

	gatewayRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pay_gateway_retries_total",
			Help: "Transient gateway failures that were retried.",
		},
		[]string{"op"},
	)
)

func ObserveGatewayCall(op string, latencyMs int64, success bool) {
	gatewayCallLatencyMs.WithLabelValues(norm(op), strconv.FormatBool(success)).Observe(float64(latencyMs))
}

func IncGatewayRetry(op string) {
	gatewayRetriesTotal.WithLabelValues(norm(op)).Inc()
}
