package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crimson-sun/aspectflow/internal/model"
)

const namespace = "aspectflow"

// Metrics holds Prometheus metrics for a sequence extraction run.
type Metrics struct {
	Records        prometheus.Counter
	Skipped        prometheus.Counter
	Matches        *prometheus.CounterVec
	Entities       prometheus.Counter
	SequenceLength prometheus.Histogram
}

// New creates and registers extraction metrics on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total number of records read from the source.",
		}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records dropped by the minimum text length filter.",
		}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_matches_total",
			Help:      "Records tagged with each category.",
		}, []string{"category"}),
		Entities: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Entities with an extracted sequence.",
		}),
		SequenceLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sequence_length",
			Help:      "Length of extracted sequences after duplicate suppression.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		}),
	}

	reg.MustRegister(m.Records, m.Skipped, m.Matches, m.Entities, m.SequenceLength)
	return m
}

// ObserveRecord counts one record read from the source.
func (m *Metrics) ObserveRecord(kept bool) {
	m.Records.Inc()
	if !kept {
		m.Skipped.Inc()
	}
}

// ObserveSequence counts one finished entity sequence and adds its
// per-category counts to the match totals.
func (m *Metrics) ObserveSequence(seq model.EntitySequence) {
	m.Entities.Inc()
	m.SequenceLength.Observe(float64(len(seq.Sequence)))
	for cat, n := range seq.Counts {
		m.Matches.WithLabelValues(cat).Add(float64(n))
	}
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for pickup by the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
