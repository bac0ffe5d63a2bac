package stats

import (
	"errors"

	"github.com/AndrewLester/ntpquery/pkg/ntpal"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exports query outcomes. Its Status method is an ntpal.StatusFunc.
type Recorder struct {
	queries  *prometheus.CounterVec
	delay    prometheus.Histogram
	inFlight prometheus.Gauge
}

func NewRecorder(registerer prometheus.Registerer) *Recorder {
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ntp",
		Subsystem: "query",
		Name:      "total",
		Help:      "The total number of ntp queries by outcome",
	}, []string{"outcome"})

	delay := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ntp",
		Subsystem: "query",
		Name:      "round_trip_delay_sec",
		Help:      "The round trip delay of successful queries",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ntp",
		Subsystem: "query",
		Name:      "in_flight",
		Help:      "The number of queries awaiting a reply",
	})

	registerer.MustRegister(queries, delay, inFlight)

	return &Recorder{queries: queries, delay: delay, inFlight: inFlight}
}

func (r *Recorder) Status(status ntpal.Status, _ ntpal.QueryRequest) {
	switch status {
	case ntpal.StatusQuerying:
		r.inFlight.Inc()
	case ntpal.StatusSuccess, ntpal.StatusError:
		r.inFlight.Dec()
	}
}

func (r *Recorder) Observe(result *ntpal.QueryResult, err error) {
	outcome := Outcome(err)
	r.queries.WithLabelValues(outcome).Inc()
	if err == nil && result != nil {
		r.delay.Observe(float64(result.RoundTripDelayMillis) / 1e3)
	}
}

func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ntpal.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ntpal.ErrTimeout):
		return "timeout"
	case errors.Is(err, ntpal.ErrMalformedResponse):
		return "malformed"
	default:
		return "network"
	}
}
