package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/sociokernel/internal/config"
)

func smallConfig(seed int64) config.Config {
	cfg := config.Default()
	cfg.Population = 60
	cfg.Regions = 4
	cfg.AvgConnections = 4
	cfg.Seed = seed
	return cfg
}

func TestNew_InvalidConfigIsRejected(t *testing.T) {
	cfg := config.Default()
	cfg.Population = 0
	_, err := New(cfg, nil)
	require.Error(t, err)
}

func TestNew_BuildsFullyAliveFoundingPopulation(t *testing.T) {
	k, err := New(smallConfig(1), nil)
	require.NoError(t, err)
	assert.Len(t, k.Population(), 60)
	for _, a := range k.Population() {
		assert.True(t, a.Alive)
	}
	assert.Equal(t, uint64(0), k.Generation())
}

func TestNew_SeedsEveryHundredthFoundingAgentAsACharismaticLeader(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Population = 250
	k, err := New(cfg, nil)
	require.NoError(t, err)
	pop := k.Population()
	for _, a := range pop {
		if int(a.ID)%100 == 0 {
			assert.GreaterOrEqual(t, a.Traits.Assertiveness, 0.8, "agent %d should be seeded as a charismatic leader", a.ID)
			assert.LessOrEqual(t, a.Traits.Assertiveness, 0.95)
		}
	}
}

func TestStep_RunsManyTicksWithoutPanicking(t *testing.T) {
	k, err := New(smallConfig(2), nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		for i := 0; i < 300; i++ {
			k.Step()
		}
	})
	assert.Equal(t, uint64(300), k.Generation())
}

func TestStep_IdenticalSeedsProduceIdenticalState(t *testing.T) {
	cfgA := smallConfig(7)
	cfgB := smallConfig(7)
	kA, err := New(cfgA, nil)
	require.NoError(t, err)
	kB, err := New(cfgB, nil)
	require.NoError(t, err)

	for i := 0; i < 150; i++ {
		kA.Step()
		kB.Step()
	}

	assert.Equal(t, kA.Generation(), kB.Generation())
	assert.Equal(t, len(kA.Population()), len(kB.Population()))
	for i := range kA.Population() {
		assert.Equal(t, kA.Population()[i], kB.Population()[i], "agent %d diverged", i)
	}

	polA, avgA := kA.Metrics()
	polB, avgB := kB.Metrics()
	assert.Equal(t, polA, polB)
	assert.Equal(t, avgA, avgB)
}

func TestStep_DifferentSeedsEventuallyDiverge(t *testing.T) {
	kA, err := New(smallConfig(11), nil)
	require.NoError(t, err)
	kB, err := New(smallConfig(12), nil)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		kA.Step()
		kB.Step()
	}

	polA, _ := kA.Metrics()
	polB, _ := kB.Metrics()
	assert.NotEqual(t, polA, polB)
}

func TestReset_RestoresFoundingState(t *testing.T) {
	k, err := New(smallConfig(3), nil)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		k.Step()
	}
	require.NoError(t, k.Reset(smallConfig(3)))
	assert.Equal(t, uint64(0), k.Generation())
	assert.Len(t, k.Population(), 60)
}

func TestReset_RejectsInvalidConfigAndKeepsPriorState(t *testing.T) {
	k, err := New(smallConfig(4), nil)
	require.NoError(t, err)
	k.Step()
	bad := smallConfig(4)
	bad.Regions = 0
	err = k.Reset(bad)
	require.Error(t, err)
	assert.Equal(t, uint64(1), k.Generation(), "a rejected reset must not touch existing state")
}

func TestStats_ReflectsAllAliveAgents(t *testing.T) {
	k, err := New(smallConfig(5), nil)
	require.NoError(t, err)
	stats := k.Stats()
	assert.Equal(t, 60, stats.Population)
}

func TestKMeansAndDBSCAN_ReturnStructuresAfterTicks(t *testing.T) {
	k, err := New(smallConfig(6), nil)
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		k.Step()
	}
	kmClusters := k.KMeans(3)
	assert.Equal(t, kmClusters, k.LastClusters())

	dbClusters := k.DBSCAN(0.5, 3)
	assert.Equal(t, dbClusters, k.LastClusters())
}

func TestNew_TinyPopulationAndSingleRegionDoesNotPanic(t *testing.T) {
	cfg := config.Default()
	cfg.Population = 1
	cfg.Regions = 1
	cfg.AvgConnections = 2
	cfg.Seed = 9
	k, err := New(cfg, nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		for i := 0; i < 50; i++ {
			k.Step()
		}
	})
}

func TestClasses_PartitionsAllAliveAgents(t *testing.T) {
	k, err := New(smallConfig(8), nil)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		k.Step()
	}
	classes := k.Classes()
	total := 0
	for _, c := range classes {
		total += c.Count
	}
	alive := 0
	for _, a := range k.Population() {
		if a.Alive {
			alive++
		}
	}
	assert.Equal(t, alive, total)
}
