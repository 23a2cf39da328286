package nse

import "github.com/zeromicro/go-zero/core/metric"

const metricNamespace = "nse_client"

var (
	metricRequests = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: metricNamespace,
		Subsystem: "requests",
		Name:      "total",
		Help:      "upstream requests by endpoint and outcome.",
		Labels:    []string{"endpoint", "outcome"},
	})
	metricRetries = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: metricNamespace,
		Subsystem: "retries",
		Name:      "total",
		Help:      "upstream retries by endpoint.",
		Labels:    []string{"endpoint"},
	})
	metricDuration = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: metricNamespace,
		Subsystem: "request",
		Name:      "duration_ms",
		Help:      "upstream request latency in milliseconds.",
		Labels:    []string{"endpoint"},
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})
)

const (
	outcomeOK        = "ok"
	outcomeNoData    = "no_data"
	outcomeDecode    = "decode_error"
	outcomeTransport = "transport_error"
)
