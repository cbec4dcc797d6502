package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nssplayer",
		Name:      "http_requests_total",
		Help:      "Total control API requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nssplayer",
		Name:      "http_request_duration_seconds",
		Help:      "Control API request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.3, 1, 3},
	}, []string{"method", "path"})

	ShareRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nssplayer",
		Name:      "share_http_requests_total",
		Help:      "Total streaming requests by route and status code.",
	}, []string{"route", "status"})

	ShareRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nssplayer",
		Name:      "share_request_duration_seconds",
		Help:      "Streaming request duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
	}, []string{"route"})

	ShareBytesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nssplayer",
		Name:      "share_bytes_served_total",
		Help:      "Total media bytes written to streaming clients.",
	})

	ShareOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nssplayer",
		Name:      "share_open_connections",
		Help:      "Number of client connections currently open on the streaming server.",
	})

	ShareActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nssplayer",
		Name:      "share_active",
		Help:      "1 while a sharing session is running, 0 otherwise.",
	})

	ShareSessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nssplayer",
		Name:      "share_sessions_total",
		Help:      "Sharing start/stop attempts by operation and outcome.",
	}, []string{"op", "outcome"})

	ShareStreamsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nssplayer",
		Name:      "share_streams_rejected_total",
		Help:      "Streaming requests rejected because the concurrency cap was reached.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ShareRequestsTotal,
		ShareRequestDuration,
		ShareBytesServed,
		ShareOpenConnections,
		ShareActive,
		ShareSessionsTotal,
		ShareStreamsRejected,
	)
}
