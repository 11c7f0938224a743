package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnknownOlympus/athena/internal/metrics"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	m := metrics.NewMetrics(reg)

	require.NotNil(t, m)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("create")), 0)

	m.ValidationFailures.WithLabelValues("update").Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("update")), 0)
}

func TestNewMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = metrics.NewMetrics(reg)

	assert.Panics(t, func() {
		_ = metrics.NewMetrics(reg)
	})
}
