package demography

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

func baseCtx() RegionalContext {
	return RegionalContext{Development: 0.5, Welfare: 1.0, Hardship: 0.2, Tradition: 0.5, Population: 100, Capacity: 500, AvgWealth: 1.0}
}

func TestMortalityPerTick_WithinUnitInterval(t *testing.T) {
	ctx := baseCtx()
	for age := 0; age <= 120; age += 3 {
		p := MortalityPerTick(age, 10, ctx)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestMortalityPerTick_HigherDevelopmentLowersMortality(t *testing.T) {
	low := baseCtx()
	low.Development = 0
	high := baseCtx()
	high.Development = 2
	assert.Greater(t, MortalityPerTick(60, 10, low), MortalityPerTick(60, 10, high))
}

func TestMortalityPerTick_MoreTicksPerYearMeansLowerPerTickRate(t *testing.T) {
	ctx := baseCtx()
	coarse := MortalityPerTick(60, 1, ctx)
	fine := MortalityPerTick(60, 100, ctx)
	assert.Greater(t, coarse, fine)
}

func TestFertilityPerTick_ZeroOutsideChildbearingAges(t *testing.T) {
	ctx := baseCtx()
	assert.Equal(t, 0.0, FertilityPerTick(10, 10, 1.0, ctx))
	assert.Equal(t, 0.0, FertilityPerTick(50, 10, 1.0, ctx))
}

func TestFertilityPerTick_NeverExceedsAnnualCeiling(t *testing.T) {
	ctx := baseCtx()
	ctx.Tradition = 1
	ctx.Development = 0
	ctx.Hardship = 0
	// With one tick per year the per-tick Bernoulli probability equals the
	// clamped annual rate, so it is compared with the ceiling directly.
	perTick := FertilityPerTick(25, 1, 1.0, ctx)
	assert.LessOrEqual(t, perTick, FertilityAnnualCeiling+1e-9)
}

func TestFertilityPerTick_OverCapacityStrictlyLowersFertility(t *testing.T) {
	atCapacity := baseCtx()
	atCapacity.Population = 500
	atCapacity.Capacity = 500
	overCapacity := baseCtx()
	overCapacity.Population = 600
	overCapacity.Capacity = 500

	atRate := FertilityPerTick(25, 10, 1.0, atCapacity)
	overRate := FertilityPerTick(25, 10, 1.0, overCapacity)
	assert.Less(t, overRate, atRate)
}

func TestFertilityPerTick_PoorerThanAverageIncreasesFertilityWhenDeveloped(t *testing.T) {
	ctx := baseCtx()
	ctx.Development = 1.0
	ctx.AvgWealth = 1.0
	poorer := FertilityPerTick(28, 10, 0.5, ctx)
	richer := FertilityPerTick(28, 10, 3.0, ctx)
	assert.Greater(t, poorer, richer)
}

func TestRegionTradition_MapsBeliefAxisToUnitInterval(t *testing.T) {
	fullTradition := [agents.NumBeliefDims]float64{0, -1, 0, 0}
	fullProgress := [agents.NumBeliefDims]float64{0, 1, 0, 0}
	assert.InDelta(t, 1.0, RegionTradition(fullTradition), 1e-9)
	assert.InDelta(t, 0.0, RegionTradition(fullProgress), 1e-9)
}

func newPop(n int) []agents.Agent {
	pop := make([]agents.Agent, n)
	for i := range pop {
		pop[i] = agents.Agent{ID: agents.ID(i), Alive: true, Age: 30, Sex: agents.Male}
	}
	return pop
}

func TestTick_SinglePopulationAtMostOneDeathNoBirths(t *testing.T) {
	pop := newPop(1)
	pop[0].Sex = agents.Female
	idx := region.NewIndex(1)
	idx.Add(0, 0)
	regions := []RegionalContext{baseCtx()}
	rng := rand.New(rand.NewSource(1))

	Tick(&pop, idx, regions, 1, 10, 90, rng, nil)
	assert.LessOrEqual(t, len(pop), 1, "no births should occur from a population of one")
}

func TestTick_DeadAgentRemovedFromIndex(t *testing.T) {
	pop := newPop(5)
	for i := range pop {
		pop[i].Age = 200 // guaranteed to exceed maxAgeYears
	}
	idx := region.NewIndex(1)
	for i := range pop {
		idx.Add(0, pop[i].ID)
	}
	regions := []RegionalContext{baseCtx()}
	rng := rand.New(rand.NewSource(2))

	Tick(&pop, idx, regions, 10, 10, 90, rng, nil) // generation%ticksPerYear==0 triggers aging
	for i := range pop {
		assert.False(t, pop[i].Alive)
	}
	assert.Empty(t, idx.Members(0))
}

func TestCreateChild_AtanhTanhRoundTripPreservesBeliefWithinTolerance(t *testing.T) {
	pop := newPop(2)
	pop[0].Sex = agents.Female
	pop[1].Sex = agents.Male
	pop[0].AddNeighbor(1)
	pop[1].AddNeighbor(0)
	pop[0].Belief.B = [agents.NumBeliefDims]float64{0.3, -0.5, 0.1, 0.9}
	pop[1].Belief.B = [agents.NumBeliefDims]float64{0.5, -0.3, -0.1, 0.7}

	rng := rand.New(rand.NewSource(3))
	child := createChild(pop, 0, rng)

	for d := 0; d < agents.NumBeliefDims; d++ {
		recomputed := math.Tanh(child.Belief.X[d])
		assert.InDelta(t, child.Belief.B[d], recomputed, 1e-2)
		assert.GreaterOrEqual(t, child.Belief.B[d], -1.0)
		assert.LessOrEqual(t, child.Belief.B[d], 1.0)
	}
}

func TestCreateChild_InheritsLineageAndLinksToMother(t *testing.T) {
	pop := newPop(3)
	pop[0].Sex = agents.Female
	pop[0].LineageID = 77
	rng := rand.New(rand.NewSource(4))
	child := createChild(pop, 0, rng)

	assert.Equal(t, agents.ID(77), child.LineageID)
	assert.Equal(t, int64(0), child.ParentA)
	assert.True(t, child.HasNeighbor(0))
	assert.Equal(t, 0, child.Age)
	assert.True(t, child.Alive)
}

func TestCompact_RemovesDeadFromNeighborListsAndIndex(t *testing.T) {
	pop := newPop(4)
	pop[0].AddNeighbor(1)
	pop[1].AddNeighbor(0)
	pop[0].AddNeighbor(2)
	pop[2].AddNeighbor(0)
	pop[1].Alive = false

	idx := region.NewIndex(1)
	for i := range pop {
		if pop[i].Alive {
			idx.Add(0, pop[i].ID)
		}
	}

	Compact(pop, idx)
	assert.False(t, pop[0].HasNeighbor(1), "neighbor list must drop dead agents")
	require.NotContains(t, idx.Members(0), agents.ID(1))
}
