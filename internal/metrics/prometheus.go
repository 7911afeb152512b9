// Package metrics exposes Prometheus metrics for the capture pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the scene capture core
type Metrics struct {
	// Scene segment metrics
	ScenesCaptured  prometheus.Counter
	SceneDuration   prometheus.Histogram
	SegmentErrors   prometheus.Counter
	EncodeFallbacks prometheus.Counter

	// Run metrics
	RecordingActive prometheus.Gauge

	// Delivery metrics
	DeliveryErrors prometheus.Counter
}

// New creates and registers all metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ScenesCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "scenecap_scenes_captured_total",
			Help: "Total number of scene segments captured and emitted",
		}),
		SceneDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scenecap_scene_duration_seconds",
			Help:    "Elapsed capture duration per scene segment",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
		SegmentErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "scenecap_segment_errors_total",
			Help: "Total number of segment starts that failed and halted a run",
		}),
		EncodeFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "scenecap_encode_fallbacks_total",
			Help: "Total number of segments delivered undecoded because WAV conversion was not possible",
		}),
		RecordingActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scenecap_recording_active",
			Help: "1 while a continuous recording run is active",
		}),
		DeliveryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "scenecap_delivery_errors_total",
			Help: "Total number of sink delivery failures",
		}),
	}
}
