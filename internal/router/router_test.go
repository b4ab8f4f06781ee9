package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteDeterministic(t *testing.T) {
	r := New(nil)

	first := r.Route(TaskSimple)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Route(TaskSimple))
	}
	assert.Equal(t, "vertex", first.Provider)
	assert.Equal(t, "gemini-1.5-flash", first.Model)
}

func TestRouteCoversAllTaskTypes(t *testing.T) {
	r := New(nil)

	for _, task := range []TaskType{TaskSimple, TaskReasoning, TaskComplex, TaskVision} {
		d := r.Route(task)
		assert.NotEmpty(t, d.Provider, "task %s", task)
		assert.NotEmpty(t, d.Model, "task %s", task)
		assert.Greater(t, d.InputPricePerM, 0.0, "task %s", task)
		assert.Greater(t, d.OutputPricePerM, 0.0, "task %s", task)
	}
}

func TestRouteUnknownTaskPanics(t *testing.T) {
	r := New(nil)

	require.Panics(t, func() {
		r.Route(TaskType("telepathy"))
	})
}

func TestEstimateCost(t *testing.T) {
	r := New(nil)

	// gpt-4o: $2.50 in, $10.00 out per million tokens.
	got := r.EstimateCost(TaskReasoning, 1_000_000, 500_000)
	assert.InDelta(t, 2.50+5.00, got, 1e-9)

	assert.Zero(t, r.EstimateCost(TaskSimple, 0, 0))
}

func TestRouteWithEstimate(t *testing.T) {
	r := New(nil)

	d := r.RouteWithEstimate(TaskSimple, 10_000, 2_000)
	want := 10_000/1e6*0.075 + 2_000/1e6*0.30
	assert.InDelta(t, want, d.EstimatedCostUSD, 1e-9)
}
