// Package metrics has the prometheus collectors and the /metrics endpoint
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpowiggle_loads_total",
		Help: "Total number of container loads, by status",
	}, []string{"status"})

	FramesComposedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpowiggle_frames_composed_total",
		Help: "Total number of frames composed onto the live display",
	})

	SchedulerRestartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpowiggle_scheduler_restarts_total",
		Help: "Total number of animation starts and restarts",
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpowiggle_exports_total",
		Help: "Total number of exports, by format and status",
	}, []string{"format", "status"})

	ExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mpowiggle_export_duration_seconds",
		Help:    "Duration of exports, by kind",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"kind"})

	ExportBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mpowiggle_export_busy",
		Help: "1 while an export job is running",
	})

	CapturedFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpowiggle_captured_frames_total",
		Help: "Total number of frames sampled from the live display by captures",
	})

	ArtifactBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpowiggle_artifact_bytes_total",
		Help: "Total number of artifact bytes delivered, by sink",
	}, []string{"sink"})
)
