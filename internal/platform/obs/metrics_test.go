package obs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.OracleCall(true)
	m.OracleCall(true)
	m.OracleCall(false)
	m.CacheLookup(LayerRun, true)
	m.CacheLookup(LayerStore, false)
	m.SetBudgetRemaining(17)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.oracleCalls.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oracleCalls.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(LayerRun, "hit")))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.budgetRemaining))
}

func TestMetricsNilIsNoop(t *testing.T) {
	var m *Metrics
	m.OracleCall(true)
	m.CacheLookup(LayerRun, false)
	m.SetBudgetRemaining(3)
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}

func TestMetricsWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.OracleCall(true)

	path := filepath.Join(t.TempDir(), "planner.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `planner_oracle_calls_total{result="ok"} 1`))
}
