// Package metrics exposes Prometheus collectors for the annotation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnnotationsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visionlabel_annotations_saved_total",
		Help: "Total number of annotation save operations",
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visionlabel_exports_total",
		Help: "Total number of dataset exports, by format and status",
	}, []string{"format", "status"})

	ExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visionlabel_export_duration_seconds",
		Help:    "Duration of dataset export runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"format"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visionlabel_frames_extracted_total",
		Help: "Total number of frames extracted across all uploads",
	})

	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visionlabel_uploads_total",
		Help: "Total number of video uploads, by status",
	}, []string{"status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visionlabel_http_requests_total",
		Help: "Total number of HTTP requests, by method and status code",
	}, []string{"method", "code"})
)
