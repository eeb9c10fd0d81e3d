package cache

import (
	"github.com/mudanzingo/backoffice/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache and mutation activity. A nil *Metrics records nothing.
type Metrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	merges    *prometheus.CounterVec
	mutations *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mudanzingo",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Reads served from the cache.",
		}, []string{"kind"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mudanzingo",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Reads that went to the record store.",
		}, []string{"kind"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mudanzingo",
			Subsystem: "cache",
			Name:      "merges_total",
			Help:      "Mutations merged into a loaded list.",
		}, []string{"kind", "op"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mudanzingo",
			Name:      "mutations_total",
			Help:      "Mutations by outcome.",
		}, []string{"kind", "op", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.merges, m.mutations)
	}
	return m
}

// ObserveMutation records the outcome of a mutation.
func (m *Metrics) ObserveMutation(kind types.Kind, op types.Operation, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutations.WithLabelValues(kind.String(), string(op), result).Inc()
}

func (m *Metrics) hit(kind types.Kind) {
	if m != nil {
		m.hits.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) miss(kind types.Kind) {
	if m != nil {
		m.misses.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) merge(kind types.Kind, op types.Operation) {
	if m != nil {
		m.merges.WithLabelValues(kind.String(), string(op)).Inc()
	}
}

// Mutations exposes the mutation counter.
func (m *Metrics) Mutations() *prometheus.CounterVec { return m.mutations }
