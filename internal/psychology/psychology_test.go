package psychology

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

func TestProfile_MapsRegionFieldsDirectly(t *testing.T) {
	r := &region.Region{Hardship: 0.3, Inequality: 0.4, Welfare: 0.6, Efficiency: 0.7, Stability: 0.9}
	p := Profile(r)
	assert.Equal(t, 0.3, p.Hardship)
	assert.Equal(t, 0.4, p.Inequality)
	assert.Equal(t, 0.6, p.Welfare)
	assert.Equal(t, 0.7, p.InstitutionalSupport)
	assert.InDelta(t, 0.1, p.MediaNegativity, 1e-9)
}

func TestTick_DeadAgentsAreUntouched(t *testing.T) {
	idx := region.NewIndex(1)
	pop := []agents.Agent{
		{ID: 0, Alive: false, Region: 0, Psych: agents.PsychState{Stress: 0.5}},
	}
	idx.Add(0, 0)
	e := NewEngine(1)
	e.Tick(pop, idx, []RegionalProfile{{Hardship: 1, Inequality: 1, MediaNegativity: 1}})
	assert.Equal(t, 0.5, pop[0].Psych.Stress)
}

func TestTick_HighHardshipRaisesStressOverTime(t *testing.T) {
	idx := region.NewIndex(1)
	pop := []agents.Agent{
		{ID: 0, Alive: true, Region: 0, Traits: agents.Traits{Openness: 0.2, Conformity: 0.8}},
	}
	idx.Add(0, 0)
	e := NewEngine(2)
	harsh := RegionalProfile{Hardship: 1, Inequality: 1, MediaNegativity: 1}
	for i := 0; i < 10; i++ {
		e.Tick(pop, idx, []RegionalProfile{harsh})
	}
	assert.Greater(t, pop[0].Psych.Stress, 0.0)
}

func TestTick_StressStaysWithinUnitInterval(t *testing.T) {
	idx := region.NewIndex(1)
	pop := []agents.Agent{
		{ID: 0, Alive: true, Region: 0, Traits: agents.Traits{Openness: 0, Conformity: 1, Assertiveness: 1, Sociality: 1}},
	}
	idx.Add(0, 0)
	e := NewEngine(3)
	harsh := RegionalProfile{Hardship: 1, Inequality: 1, MediaNegativity: 1, InstitutionalSupport: 0}
	for i := 0; i < 500; i++ {
		e.Tick(pop, idx, []RegionalProfile{harsh})
	}
	assert.GreaterOrEqual(t, pop[0].Psych.Stress, 0.0)
	assert.LessOrEqual(t, pop[0].Psych.Stress, 1.0)
}

func TestTick_InfectionAddsExtraShock(t *testing.T) {
	base := RegionalProfile{Hardship: 0.2, Inequality: 0.2, MediaNegativity: 0.2, InstitutionalSupport: 0.8}
	idx := region.NewIndex(1)

	healthy := []agents.Agent{{ID: 0, Alive: true, Region: 0, Traits: agents.Traits{Sociality: 1, Openness: 0}}}
	sick := []agents.Agent{{ID: 0, Alive: true, Region: 0, Traits: agents.Traits{Sociality: 1, Openness: 0}, Health: agents.HealthState{Infected: true, PhysicalHealth: 0}}}
	idx.Add(0, 0)

	e1 := NewEngine(4)
	e1.Tick(healthy, idx, []RegionalProfile{base})
	e2 := NewEngine(4)
	e2.Tick(sick, idx, []RegionalProfile{base})

	assert.Greater(t, sick[0].Psych.Stress, healthy[0].Psych.Stress)
}

func TestTick_WritesBackCommAndMobilityMultipliers(t *testing.T) {
	idx := region.NewIndex(1)
	pop := []agents.Agent{{ID: 0, Alive: true, Region: 0, Traits: agents.Traits{Sociality: 0.5}}}
	idx.Add(0, 0)
	e := NewEngine(5)
	e.Tick(pop, idx, []RegionalProfile{{Welfare: 0.5, InstitutionalSupport: 0.5}})
	assert.GreaterOrEqual(t, pop[0].MComm, 0.1)
	assert.LessOrEqual(t, pop[0].MComm, 1.6)
	assert.GreaterOrEqual(t, pop[0].MMobility, 0.1)
	assert.LessOrEqual(t, pop[0].MMobility, 2.0)
}

func TestTick_OutOfRangeRegionIsSkippedWithoutPanic(t *testing.T) {
	idx := region.NewIndex(1)
	pop := []agents.Agent{{ID: 0, Alive: true, Region: 0}}
	idx.Add(0, 0)
	e := NewEngine(6)
	assert.NotPanics(t, func() { e.Tick(pop, idx, nil) })
}

func TestNewEngine_DeterministicForSameSeed(t *testing.T) {
	mkPop := func() []agents.Agent {
		return []agents.Agent{{ID: 0, Alive: true, Region: 0, Traits: agents.Traits{Openness: 0.3, Conformity: 0.5, Assertiveness: 0.4, Sociality: 0.6}}}
	}
	idx := region.NewIndex(1)
	idx.Add(0, 0)
	profiles := []RegionalProfile{{Hardship: 0.4, Inequality: 0.3, Welfare: 0.5, InstitutionalSupport: 0.6, MediaNegativity: 0.2}}

	popA := mkPop()
	eA := NewEngine(99)
	popB := mkPop()
	eB := NewEngine(99)
	for i := 0; i < 30; i++ {
		eA.Tick(popA, idx, profiles)
		eB.Tick(popB, idx, profiles)
	}
	assert.Equal(t, popA[0].Psych, popB[0].Psych)
}
