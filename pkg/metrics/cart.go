package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartOpMetrics records outcomes of cart engine operations.
type CartOpMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCartOpMetrics registers the cart operation metrics on the provided registerer.
func NewCartOpMetrics(reg prometheus.Registerer) *CartOpMetrics {
	if reg == nil {
		return &CartOpMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_op_duration_seconds",
		Help:    "Duration of cart engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_op_success",
		Help: "Successful cart engine operations.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_op_failure",
		Help: "Failed cart engine operations.",
	}, []string{"op"})
	reg.MustRegister(duration, success, failure)
	return &CartOpMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration of the named operation.
func (c *CartOpMetrics) ObserveDuration(op string, elapsed time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(op)).Observe(elapsed.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (c *CartOpMetrics) IncSuccess(op string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (c *CartOpMetrics) IncFailure(op string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(op)).Inc()
}
