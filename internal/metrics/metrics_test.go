package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("create", OutcomeOK, 2*time.Millisecond)
	m.Observe("create", OutcomeOK, time.Millisecond)
	m.Observe("read", "not_found", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("create", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("read", "not_found")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestRelationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RelationWrite("owner")
	m.RelationWrite("counterpart")
	m.RelationWrite("owner")
	m.PartialRelationFailure()

	expected := `
# HELP lotetrace_partial_relation_failures_total Input relations whose back reference could not be written
# TYPE lotetrace_partial_relation_failures_total counter
lotetrace_partial_relation_failures_total 1
# HELP lotetrace_relation_writes_total Relation list writes by side (owner or counterpart)
# TYPE lotetrace_relation_writes_total counter
lotetrace_relation_writes_total{side="counterpart"} 1
lotetrace_relation_writes_total{side="owner"} 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"lotetrace_relation_writes_total", "lotetrace_partial_relation_failures_total")
	require.NoError(t, err)
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestDiscard_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Observe("exists", OutcomeOK, 0)
		Discard().Observe("exists", OutcomeOK, 0)
	})
}
