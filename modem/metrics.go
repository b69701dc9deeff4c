package modem

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Exchange outcomes reported by Metrics.
const (
	OutcomeOK             = "ok"
	OutcomeDeviceError    = "device_error"
	OutcomeNoResponse     = "no_response"
	OutcomeTimeout        = "timeout"
	OutcomeTransportError = "transport_error"
)

// Metrics collects per-exchange counters for a modem session. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	exchanges  *prometheus.CounterVec
	duration   prometheus.Histogram
	queueDepth prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atgsm",
			Name:      "exchanges_total",
			Help:      "AT command exchanges by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "atgsm",
			Name:      "exchange_duration_seconds",
			Help:      "Time from writing a command to the end of its reply.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5},
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atgsm",
			Name:      "queue_depth",
			Help:      "Commands waiting for or holding the serial channel.",
		}),
	}
	reg.MustRegister(m.exchanges, m.duration, m.queueDepth)
	return m
}

func (m *Metrics) observeExchange(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(outcome(err)).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrDeviceError):
		return OutcomeDeviceError
	case errors.Is(err, ErrNoResponse):
		return OutcomeNoResponse
	case errors.Is(err, ErrResponseTimeout):
		return OutcomeTimeout
	default:
		return OutcomeTransportError
	}
}
