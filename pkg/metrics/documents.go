package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DocumentMetrics counts numbered documents issued by the back office.
type DocumentMetrics struct {
	created   *prometheus.CounterVec
	converted prometheus.Counter
}

// NewDocumentMetrics registers the document counters on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewDocumentMetrics(reg prometheus.Registerer) *DocumentMetrics {
	if reg == nil {
		return &DocumentMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_created_total",
		Help: "Quotes, orders and receipts created.",
	}, []string{"kind"})
	converted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "documents_converted_total",
		Help: "Quotes converted into orders.",
	})
	reg.MustRegister(created, converted)
	return &DocumentMetrics{
		created:   created,
		converted: converted,
	}
}

// IncCreated increments the created counter for the document kind.
func (d *DocumentMetrics) IncCreated(kind string) {
	if d == nil || d.created == nil {
		return
	}
	d.created.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncConverted increments the quote conversion counter.
func (d *DocumentMetrics) IncConverted() {
	if d == nil || d.converted == nil {
		return
	}
	d.converted.Inc()
}
