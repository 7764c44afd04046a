// Package metrics exports transmission counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ws2812",
		Subsystem: "strip",
		Name:      "writes_total",
		Help:      "Completed transmissions per GPIO",
	}, []string{"gpio", "degraded"})

	bytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ws2812",
		Subsystem: "strip",
		Name:      "bytes_total",
		Help:      "Bytes transmitted per GPIO",
	}, []string{"gpio"})

	writeSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ws2812",
		Subsystem: "strip",
		Name:      "write_seconds",
		Help:      "Time spent inside the critical section",
		Buckets:   prometheus.ExponentialBuckets(10e-6, 4, 8),
	}, []string{"gpio"})

	brightness = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ws2812",
		Subsystem: "strip",
		Name:      "brightness",
		Help:      "Current brightness factor",
	})

	writeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ws2812",
		Subsystem: "control",
		Name:      "errors_total",
		Help:      "Rejected or failed control commands per surface",
	}, []string{"surface"})
)

// Recorder satisfies strip.Observer.
type Recorder struct{}

func (Recorder) ObserveWrite(gpio int, n int, d time.Duration, degraded bool) {
	g := strconv.Itoa(gpio)
	writesTotal.WithLabelValues(g, strconv.FormatBool(degraded)).Inc()
	bytesTotal.WithLabelValues(g).Add(float64(n))
	writeSeconds.WithLabelValues(g).Observe(d.Seconds())
}

// SetBrightness mirrors the brightness factor.
func SetBrightness(v float64) {
	brightness.Set(v)
}

// ControlError counts a failed command on an outer surface ("ws", "redis", ...).
func ControlError(surface string) {
	writeErrors.WithLabelValues(surface).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
