// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combadge_requests_processed_total",
			Help: "Total number of requests processed by the pipeline",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "combadge_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combadge_intents_classified_total",
			Help: "Distribution of classified primary intents",
		},
		[]string{"intent"},
	)

	EntitiesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combadge_entities_extracted_total",
			Help: "Total extracted entities by type",
		},
		[]string{"entity_type"},
	)

	TemplatesSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combadge_templates_selected_total",
			Help: "Template selections by template id and strategy",
		},
		[]string{"template_id", "strategy"},
	)

	ValidationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combadge_validation_outcomes_total",
			Help: "Payload validation outcomes",
		},
		[]string{"valid"},
	)

	RequestsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "combadge_requests_active",
			Help: "Number of requests currently in the pipeline",
		},
	)
)
