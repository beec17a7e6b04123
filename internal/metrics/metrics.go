package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the document pipeline collectors.
type Metrics struct {
	Documents        *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
	ApproximateField *prometheus.CounterVec
	LedgerRows       prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "offers_documents_total",
			Help: "Documents handled, by detected insurer and outcome status",
		}, []string{"insurer", "status"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "offers_document_duration_seconds",
			Help:    "End-to-end processing time of one document",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"status"}),
		ApproximateField: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "offers_approximate_fields_total",
			Help: "Fields filled by a known-approximate rule",
		}, []string{"insurer", "field"}),
		LedgerRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "offers_ledger_rows_appended_total",
			Help: "Rows appended to the evidence ledger",
		}),
	}
}

func (m *Metrics) ObserveDocument(insurer, status string, start time.Time) {
	m.Documents.WithLabelValues(insurer, status).Inc()
	m.Duration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementApproximate(insurer, field string) {
	m.ApproximateField.WithLabelValues(insurer, field).Inc()
}

func (m *Metrics) IncrementLedgerRows() {
	m.LedgerRows.Inc()
}
