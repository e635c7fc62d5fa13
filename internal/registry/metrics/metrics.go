package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	// Mint outcomes: "minted", "reissued", "duplicate", "unauthorized", "error"
	MintOutcome *prometheus.CounterVec

	// Fingerprint lookups by result: "hit", "miss", "error"
	Lookups *prometheus.CounterVec

	// Ownership validations by result: "match", "no_match"
	Validations *prometheus.CounterVec

	// Currently active identities
	ActiveIdentities prometheus.Gauge

	// Latency of registry operations, labelled by operation
	OpLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		MintOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "blocktrust_registry_mint_outcomes_total",
			Help: "Total mint attempts by outcome",
		}, []string{"outcome"}),

		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "blocktrust_registry_fingerprint_lookups_total",
			Help: "Total fingerprint recovery lookups by result",
		}, []string{"result"}),

		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "blocktrust_registry_ownership_validations_total",
			Help: "Total ownership validations by result",
		}, []string{"result"}),

		ActiveIdentities: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "blocktrust_registry_active_identities",
			Help: "Current number of active identity records",
		}),

		OpLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blocktrust_registry_op_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
	}
}

// IncrementMintOutcome records a mint attempt outcome.
func (m *Metrics) IncrementMintOutcome(outcome string) {
	if m != nil {
		m.MintOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementLookup records a fingerprint lookup result.
func (m *Metrics) IncrementLookup(result string) {
	if m != nil {
		m.Lookups.WithLabelValues(result).Inc()
	}
}

// IncrementValidation records an ownership validation result.
func (m *Metrics) IncrementValidation(result string) {
	if m != nil {
		m.Validations.WithLabelValues(result).Inc()
	}
}

// AddActiveIdentities moves the active identity gauge by delta.
func (m *Metrics) AddActiveIdentities(delta int) {
	if m != nil {
		m.ActiveIdentities.Add(float64(delta))
	}
}

// ObserveOpLatency records the duration of a registry operation.
func (m *Metrics) ObserveOpLatency(op string, d time.Duration) {
	if m != nil {
		m.OpLatency.WithLabelValues(op).Observe(d.Seconds())
	}
}
