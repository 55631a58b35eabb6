package agents

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBelief_Recompute_NormSqMatchesSumOfSquares(t *testing.T) {
	b := Belief{X: [NumBeliefDims]float64{0.5, -1.2, 0.0, 3.0}}
	b.Recompute(math.Tanh)

	var want float64
	for d := 0; d < NumBeliefDims; d++ {
		assert.InDelta(t, math.Tanh(b.X[d]), b.B[d], 1e-12)
		want += b.B[d] * b.B[d]
	}
	assert.InDelta(t, want, b.NormSq, 1e-9)
}

func TestBelief_Recompute_BoundedByTanhRange(t *testing.T) {
	b := Belief{X: [NumBeliefDims]float64{100, -100, 0, 1}}
	b.Recompute(math.Tanh)
	for d := 0; d < NumBeliefDims; d++ {
		assert.GreaterOrEqual(t, b.B[d], -1.0)
		assert.LessOrEqual(t, b.B[d], 1.0)
	}
}

func TestBelief_Reset_ZeroesEverything(t *testing.T) {
	b := Belief{X: [NumBeliefDims]float64{1, 1, 1, 1}, NormSq: 4}
	b.Recompute(math.Tanh)
	b.Reset()
	assert.Equal(t, Belief{}, b)
}

func TestCosineSim_ZeroNormDefaultsToOne(t *testing.T) {
	a := &Belief{}
	b := &Belief{B: [NumBeliefDims]float64{1, 0, 0, 0}, NormSq: 1}
	assert.Equal(t, 1.0, CosineSim(a, b))
	assert.Equal(t, 1.0, CosineSim(b, a))
}

func TestCosineSim_IdenticalVectorsGiveOne(t *testing.T) {
	b := &Belief{B: [NumBeliefDims]float64{0.6, -0.2, 0.1, 0.3}}
	b.NormSq = 0.6*0.6 + 0.2*0.2 + 0.1*0.1 + 0.3*0.3
	assert.InDelta(t, 1.0, CosineSim(b, b), 1e-9)
}

func TestCosineSim_OppositeVectorsGiveNegativeOne(t *testing.T) {
	a := &Belief{B: [NumBeliefDims]float64{1, 0, 0, 0}, NormSq: 1}
	b := &Belief{B: [NumBeliefDims]float64{-1, 0, 0, 0}, NormSq: 1}
	assert.InDelta(t, -1.0, CosineSim(a, b), 1e-9)
}

func TestNeighbors_AddIsSetLike(t *testing.T) {
	a := &Agent{ID: 5}
	a.AddNeighbor(1)
	a.AddNeighbor(2)
	a.AddNeighbor(1) // duplicate, ignored
	a.AddNeighbor(5) // self, ignored

	assert.ElementsMatch(t, []ID{1, 2}, a.Neighbors)
	assert.True(t, a.HasNeighbor(1))
	assert.False(t, a.HasNeighbor(5))
}

func TestNeighbors_RemoveDeletesExactlyOne(t *testing.T) {
	a := &Agent{ID: 0, Neighbors: []ID{1, 2, 3}}
	a.RemoveNeighbor(2)
	assert.ElementsMatch(t, []ID{1, 3}, a.Neighbors)
	assert.False(t, a.HasNeighbor(2))

	// Removing an id not present is a no-op.
	a.RemoveNeighbor(99)
	assert.ElementsMatch(t, []ID{1, 3}, a.Neighbors)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-5))
	assert.Equal(t, 1.0, Clamp01(5))
	assert.Equal(t, 0.5, Clamp01(0.5))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 2.0, Clamp(-5, 2, 8))
	assert.Equal(t, 8.0, Clamp(50, 2, 8))
	assert.Equal(t, 4.0, Clamp(4, 2, 8))
}
