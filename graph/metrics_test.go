package graph

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.Write(m))
	return m.GetGauge().GetValue()
}

func TestPrometheusMetrics_UpdateInflightNodes(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)

	pm.UpdateInflightNodes(3)
	assert.Equal(t, 3.0, gaugeValue(t, pm.inflightNodes))

	pm.UpdateInflightNodes(0)
	assert.Equal(t, 0.0, gaugeValue(t, pm.inflightNodes))
}

func TestPrometheusMetrics_RecordStepLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)

	pm.RecordStepLatency("run-1", "node-a", 0, "success")

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "langgraph_step_latency_ms" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, uint64(1), f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.True(t, found, "expected langgraph_step_latency_ms to be registered")
}

func TestPrometheusMetrics_DisableSkipsRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)

	pm.Disable()
	pm.UpdateInflightNodes(5)
	assert.Equal(t, 0.0, gaugeValue(t, pm.inflightNodes))

	pm.Enable()
	pm.UpdateInflightNodes(5)
	assert.Equal(t, 5.0, gaugeValue(t, pm.inflightNodes))

	pm.Reset()
	assert.Equal(t, 0.0, gaugeValue(t, pm.inflightNodes))
}

func TestExecutor_WithMetricsDrivenByScheduler(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)

	g := NewGraph()
	g.AddNode("a", adderNode(1))

	executor := NewExecutor(WithMetrics(pm))
	rc, err := executor.Run(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rc.Status())

	families, err := reg.Gather()
	require.NoError(t, err)
	var sawLatency bool
	for _, f := range families {
		if f.GetName() == "langgraph_step_latency_ms" {
			sawLatency = true
		}
	}
	assert.True(t, sawLatency, "expected the scheduler to drive step_latency_ms through the real run")
}
