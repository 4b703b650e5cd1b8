package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/clsprm/core/factory"
	metrics "github.com/kilianp07/clsprm/core/metrics"
	_ "github.com/kilianp07/clsprm/infra/metrics"
)

func TestNewMetricsSinkShapes(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	// one sink is returned as is, without a MultiSink around it
	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	multi, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "got %T", s)
	assert.Len(t, multi.Sinks, 3)
}

func TestNewMetricsSinkNamesFailingEntry(t *testing.T) {
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}, {Type: "gurobi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sinks[2]")
}
