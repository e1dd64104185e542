package client

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "postboard"

// instrumentTransport wraps the client's transport with request counter and duration histogram.
func instrumentTransport(httpClient *http.Client, reg prometheus.Registerer) (*http.Client, error) {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the posts API.",
		},
		[]string{"code", "method"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests sent to the posts API.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"code", "method"},
	)

	for _, c := range []prometheus.Collector{requests, duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "could not register API metrics")
		}
	}

	transport := httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	instrumented := *httpClient
	instrumented.Transport = promhttp.InstrumentRoundTripperCounter(
		requests,
		promhttp.InstrumentRoundTripperDuration(duration, transport),
	)

	return &instrumented, nil
}
