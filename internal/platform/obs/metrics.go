package obs

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache layers reported by Metrics.CacheLookup.
const (
	LayerRun    = "run"
	LayerStore  = "store"
	LayerLegacy = "legacy"
)

// Metrics holds the per-run Prometheus collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry        *prometheus.Registry
	oracleCalls     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	budgetRemaining prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_oracle_calls_total",
			Help: "Attempted duration oracle calls by result",
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_cache_lookups_total",
			Help: "Route duration cache lookups by layer and result",
		}, []string{"layer", "result"}),
		budgetRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_call_budget_remaining",
			Help: "Oracle calls left in the current run",
		}),
	}

	reg.MustRegister(m.oracleCalls, m.cacheLookups, m.budgetRemaining)
	return m
}

func (m *Metrics) OracleCall(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.oracleCalls.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheLookup(layer string, hit bool) {
	if m == nil {
		return
	}
	result := "hit"
	if !hit {
		result = "miss"
	}
	m.cacheLookups.WithLabelValues(layer, result).Inc()
}

func (m *Metrics) SetBudgetRemaining(n int) {
	if m == nil {
		return
	}
	m.budgetRemaining.Set(float64(n))
}

// Gatherer exposes the registry for tests and exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all collectors in the text exposition format (node_exporter textfile collector).
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}
