package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

const namespace = "mood"

// PipelineMetrics records ingestion, analysis and persistence outcomes.
type PipelineMetrics struct {
	service string

	ingestTotal      *prometheus.CounterVec
	ingestDuration   *prometheus.HistogramVec
	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	entriesTotal     *prometheus.CounterVec
	linkFailures     *prometheus.CounterVec
}

func NewPipelineMetrics(registerer prometheus.Registerer, service string) *PipelineMetrics {
	m := &PipelineMetrics{
		service: service,
		ingestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "documents_total",
				Help:      "Ingested documents by terminal status.",
			},
			[]string{"service", "status"},
		),
		ingestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "duration_seconds",
				Help:      "Document ingestion duration in seconds.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"service", "status"},
		),
		analysisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "requests_total",
				Help:      "Mood analyses by outcome.",
			},
			[]string{"service", "outcome"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "duration_seconds",
				Help:      "Mood analysis duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "outcome"},
		),
		entriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "entries_created_total",
				Help:      "Journal entries persisted.",
			},
			[]string{"service"},
		),
		linkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "taxonomy_link_failures_total",
				Help:      "Emotion or theme links skipped after an error.",
			},
			[]string{"service", "kind"},
		),
	}

	registerer.MustRegister(
		m.ingestTotal,
		m.ingestDuration,
		m.analysisTotal,
		m.analysisDuration,
		m.entriesTotal,
		m.linkFailures,
	)
	return m
}

func (m *PipelineMetrics) ObserveIngest(status domain.DocumentStatus, duration time.Duration) {
	m.ingestTotal.WithLabelValues(m.service, string(status)).Inc()
	m.ingestDuration.WithLabelValues(m.service, string(status)).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveAnalysis(degraded bool, duration time.Duration) {
	outcome := "ok"
	if degraded {
		outcome = "fallback"
	}
	m.analysisTotal.WithLabelValues(m.service, outcome).Inc()
	m.analysisDuration.WithLabelValues(m.service, outcome).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveEntrySaved() {
	m.entriesTotal.WithLabelValues(m.service).Inc()
}

func (m *PipelineMetrics) ObserveLinkFailure(kind domain.TaxonomyKind) {
	m.linkFailures.WithLabelValues(m.service, string(kind)).Inc()
}
