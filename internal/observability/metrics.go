// Package observability holds the Prometheus collectors of the service.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// PipelineRuns counts full pipeline passes by data mode (sample, uploaded)
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mkt_pipeline_runs_total",
			Help: "Total number of pipeline passes",
		},
		[]string{"mode"},
	)

	// PipelineDuration measures one pass, from raw rows to KPIs
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mkt_pipeline_duration_seconds",
			Help:    "Pipeline pass duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"mode"},
	)

	// RowsRejected counts rows dropped during normalization
	RowsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mkt_rows_rejected_total",
			Help: "Rows rejected during normalization",
		},
		[]string{"source"},
	)

	// DuplicateBusinessDates reports duplicate business dates seen in the last pass
	DuplicateBusinessDates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mkt_duplicate_business_dates",
			Help: "Business dates with more than one record in the last pass",
		},
	)

	// Uploads counts source loads by outcome (ready, failed)
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mkt_source_uploads_total",
			Help: "Source uploads and fetches by outcome",
		},
		[]string{"source", "outcome"},
	)

	// SourceRows is the row count currently held per source
	SourceRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mkt_source_rows",
			Help: "Decoded rows currently held per source",
		},
		[]string{"source"},
	)
)

func Handler() http.Handler { return promhttp.Handler() }
