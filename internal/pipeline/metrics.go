package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferroscan_pages_processed_total",
			Help: "Total number of pages processed",
		},
		[]string{"status"}, // status: ok, no_table, error
	)

	boundaryDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferroscan_boundary_detections_total",
			Help: "Table boundary detections by method",
		},
		[]string{"method"}, // method: marker, morphology, manual
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ferroscan_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"}, // stage: boundary, grid, segment, cells, ingest
	)

	cellsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ferroscan_shape_cells_per_page",
			Help:    "Number of non-blank shape cells extracted per page",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 20, 30, 50},
		},
	)
)
