package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TurnsTotal.WithLabelValues("retrieval").Inc()
	m.TurnsTotal.WithLabelValues("retrieval").Inc()
	m.ClassifierVerdicts.WithLabelValues("short_chat").Inc()
	m.ChunksIngested.Add(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("retrieval")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ChunksIngested))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "admitbot_turns_total")
	assert.Contains(t, names, "admitbot_classifier_verdicts_total")
}

func TestNewNop_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop()
		NewNop()
	})
}
