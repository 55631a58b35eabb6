package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

func regionWithCentroid(pop int, centroid [agents.NumBeliefDims]float64) *region.Region {
	r := &region.Region{Population: pop}
	for d := 0; d < agents.NumBeliefDims; d++ {
		r.BeliefSum[d] = centroid[d] * float64(pop)
	}
	return r
}

func TestComputePolarization_FewerThanTwoRegionsIsZero(t *testing.T) {
	assert.Equal(t, Polarization{}, ComputePolarization(nil))
	assert.Equal(t, Polarization{}, ComputePolarization([]*region.Region{regionWithCentroid(10, [agents.NumBeliefDims]float64{})}))
}

func TestComputePolarization_SkipsEmptyRegions(t *testing.T) {
	regions := []*region.Region{
		regionWithCentroid(0, [agents.NumBeliefDims]float64{1, 1, 1, 1}), // empty, excluded
		regionWithCentroid(10, [agents.NumBeliefDims]float64{0, 0, 0, 0}),
		regionWithCentroid(10, [agents.NumBeliefDims]float64{1, 0, 0, 0}),
	}
	pol := ComputePolarization(regions)
	assert.InDelta(t, 1.0, pol.Mean, 1e-9)
}

func TestComputeRegionalAverages_PopulationWeighted(t *testing.T) {
	r1 := &region.Region{Population: 90, Welfare: 1.0, Inequality: 0.2, Hardship: 0.1}
	r2 := &region.Region{Population: 10, Welfare: 0.0, Inequality: 0.0, Hardship: 0.0}
	avgs := ComputeRegionalAverages([]*region.Region{r1, r2})
	assert.InDelta(t, 0.9, avgs.Welfare, 1e-9)
}

func TestComputeRegionalAverages_NoPopulationIsZeroValue(t *testing.T) {
	assert.Equal(t, RegionalAverages{}, ComputeRegionalAverages([]*region.Region{{Population: 0}}))
}

func TestComputeSnapshot_BucketsAndCounts(t *testing.T) {
	pop := []agents.Agent{
		{Alive: true, Age: 10, Sex: agents.Female, Lang: agents.LangWestern},
		{Alive: true, Age: 40, Sex: agents.Male, Lang: agents.LangEastern, Neighbors: []agents.ID{1, 2}},
		{Alive: false, Age: 90}, // excluded entirely
	}
	snap := ComputeSnapshot(pop, nil)
	assert.Equal(t, 2, snap.Population)
	assert.Equal(t, 1, snap.AgeBuckets[0].Count)
	assert.Equal(t, 1, snap.AgeBuckets[2].Count)
	assert.Equal(t, 1, snap.Female)
	assert.Equal(t, 1, snap.Male)
	assert.Equal(t, 1, snap.Network.Isolated)
	assert.InDelta(t, 1.0, snap.Network.AvgDegree, 1e-9)
}

func TestComputeSnapshot_RegionPopBounds(t *testing.T) {
	regions := []*region.Region{{Population: 3}, {Population: 9}, {Population: 0}}
	snap := ComputeSnapshot(nil, regions)
	assert.Equal(t, 2, snap.OccupiedRegions)
	assert.Equal(t, 0, snap.MinRegionPop)
	assert.Equal(t, 9, snap.MaxRegionPop)
	assert.InDelta(t, 4.0, snap.MeanRegionPop, 1e-9)
}

func TestQuartile_BoundariesAreInclusive(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, 1, quartile(sorted, 1))
	assert.Equal(t, 4, quartile(sorted, 10))
	assert.GreaterOrEqual(t, quartile(sorted, 5), 1)
	assert.LessOrEqual(t, quartile(sorted, 5), 4)
}

func TestComputeWealthClasses_BucketsByRegionAndDominantGood(t *testing.T) {
	r := &region.Region{ID: 0}
	r.Production[region.Tools] = 100
	idx := region.NewIndex(1)
	pop := make([]agents.Agent, 8)
	for i := range pop {
		pop[i] = agents.Agent{ID: agents.ID(i), Alive: true, Wealth: float64(i + 1), Region: 0}
		idx.Add(0, agents.ID(i))
	}
	classes := ComputeWealthClasses(pop, idx, []*region.Region{r})
	total := 0
	for _, c := range classes {
		assert.Equal(t, region.Tools, c.DominantGood)
		total += c.Count
	}
	assert.Equal(t, len(pop), total)
}

func TestComputeWealthClasses_EmptyRegionContributesNothing(t *testing.T) {
	r := &region.Region{ID: 0}
	idx := region.NewIndex(1)
	classes := ComputeWealthClasses(nil, idx, []*region.Region{r})
	assert.Empty(t, classes)
}
