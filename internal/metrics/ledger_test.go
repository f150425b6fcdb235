package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedger(reg)

	m.Observe("record_sale", "ok", 20*time.Millisecond)
	m.Observe("record_sale", "ok", 10*time.Millisecond)
	m.Observe("record_sale", "insufficient_stock", time.Millisecond)
	m.Observe("", "", time.Millisecond)
	m.IncPersistFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("record_sale", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("record_sale", "insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("unknown", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFails))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 3)
}

func TestNilLedgerIsSafe(t *testing.T) {
	var m *Ledger
	m.Observe("x", "ok", time.Second)
	m.IncPersistFailure()

	unregistered := NewLedger(nil)
	unregistered.Observe("x", "ok", time.Second)
	unregistered.IncPersistFailure()
}
