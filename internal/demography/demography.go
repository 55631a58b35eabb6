// Package demography implements aging, mortality, fertility, child
// creation, and periodic dead-agent compaction (§4.4).
package demography

import (
	"math"
	"math/rand"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

// CompactionInterval is the tick cadence for removing dead agents from the
// region index and neighbor lists.
const CompactionInterval = 25

// FertilityAnnualCeiling is the normative clamp on adjusted annual
// fertility (§4.4, §9 Open Question (b): 0.15, not the 0.25 that appears
// in older source snapshots).
const FertilityAnnualCeiling = 0.15

// RegionalContext is the subset of region state the demography engine
// reads; it never reads or mutates economy internals directly.
type RegionalContext struct {
	Development float64
	Welfare     float64
	Hardship    float64
	Tradition   float64 // normalized [0,1], derived from the belief centroid
	Population  int
	Capacity    int
	AvgWealth   float64
}

func mortalityAnnualBase(age int) float64 {
	switch {
	case age < 5:
		return 0.01
	case age < 15:
		return 0.001
	case age < 50:
		return 0.002
	case age < 70:
		return 0.01
	case age < 85:
		return 0.05
	default:
		return 0.15
	}
}

// MortalityPerTick converts the age- and region-modulated annual mortality
// rate into a per-tick Bernoulli probability.
func MortalityPerTick(age int, ticksPerYear int, ctx RegionalContext) float64 {
	base := mortalityAnnualBase(age)
	devDivisor := 1.0 + 0.15*ctx.Development
	if age < 5 {
		devDivisor = 1.0 + 0.3*ctx.Development
	}
	devFactor := 1.0 / devDivisor
	welfareFactor := 1.0 / math.Max(0.5, ctx.Welfare)
	annual := agents.Clamp(base*devFactor*welfareFactor, 1e-4, 0.5)
	return 1 - math.Pow(1-annual, 1.0/float64(ticksPerYear))
}

func fertilityAnnualBase(age int) float64 {
	switch {
	case age < 15:
		return 0
	case age < 20:
		return 0.05
	case age < 30:
		return 0.12
	case age < 35:
		return 0.10
	case age < 40:
		return 0.05
	case age < 45:
		return 0.02
	default:
		return 0
	}
}

// FertilityPerTick converts the age-, personal-, and region-modulated
// annual fertility rate into a per-tick Bernoulli probability.
func FertilityPerTick(age int, ticksPerYear int, wealth float64, ctx RegionalContext) float64 {
	base := fertilityAnnualBase(age)
	if base == 0 {
		return 0
	}
	annual := base * (1 + 0.2*ctx.Tradition) / (1 + 0.2*ctx.Development)

	if ctx.Development > 0.5 {
		relWealth := wealth
		if ctx.AvgWealth > 1e-9 {
			relWealth = wealth / ctx.AvgWealth
		}
		relWealth = agents.Clamp(relWealth, 0.5, 3.0)
		annual *= math.Sqrt(1.5 / relWealth)
		if ctx.Development > 1.0 && age < 25 {
			annual *= 0.5 + 0.5*(float64(age)/25.0)
		}
	}

	annual *= 0.7 + 0.3*(1-ctx.Hardship)
	if ctx.Capacity > 0 && ctx.Population > ctx.Capacity {
		annual /= float64(ctx.Population) / float64(ctx.Capacity)
	}

	annual = agents.Clamp(annual, 0, FertilityAnnualCeiling)
	return 1 - math.Pow(1-annual, 1.0/float64(ticksPerYear))
}

// RegionTradition derives the normalized [0,1] regional tradition scalar
// from the belief centroid's Tradition<->Progress axis: B[1] = -1 (full
// tradition) maps to 1, B[1] = +1 (full progress) maps to 0.
func RegionTradition(centroid [agents.NumBeliefDims]float64) float64 {
	return agents.Clamp01((1 - centroid[agents.AxisTradition]) / 2)
}

// Tick runs aging (gated by ticksPerYear), mortality, and fertility for
// one generation. Newly created children are appended to pop (via
// append-returning semantics is not supported by a fixed slice, so the
// kernel must pre-allocate capacity or treat pop as a pointer to a slice);
// here Tick receives *[]agents.Agent to allow growth by birth.
func Tick(popPtr *[]agents.Agent, idx *region.Index, regions []RegionalContext, generation uint64, ticksPerYear int, maxAgeYears int, rng *rand.Rand, econRegister func(agents.ID)) {
	pop := *popPtr

	if generation%uint64(ticksPerYear) == 0 {
		for i := range pop {
			if pop[i].Alive {
				pop[i].Age++
				if pop[i].Age > maxAgeYears {
					kill(&pop[i], idx)
				}
			}
		}
	}

	// A lone surviving agent produces no births.
	alive := 0
	for i := range pop {
		if pop[i].Alive {
			alive++
		}
	}

	var births []agents.ID
	for i := range pop {
		a := &pop[i]
		if !a.Alive {
			continue
		}
		if int(a.Region) >= len(regions) {
			continue
		}
		ctx := regions[a.Region]

		mp := MortalityPerTick(a.Age, ticksPerYear, ctx)
		if rng.Float64() < mp {
			kill(a, idx)
			continue
		}

		if alive > 1 && a.Sex == agents.Female && a.Age >= 15 {
			fp := FertilityPerTick(a.Age, ticksPerYear, a.Wealth, ctx)
			if fp > 0 && rng.Float64() < fp {
				births = append(births, a.ID)
			}
		}
	}

	for _, motherID := range births {
		child := createChild(pop, motherID, rng)
		pop = append(pop, child)
		idx.Add(child.Region, child.ID)
		if econRegister != nil {
			econRegister(child.ID)
		}
	}

	*popPtr = pop
}

func kill(a *agents.Agent, idx *region.Index) {
	a.Alive = false
	idx.Remove(a.Region, a.ID)
}

// createChild builds a new agent from mother, sampling a father from her
// alive male neighbors (§4.4 Child creation).
func createChild(pop []agents.Agent, motherID agents.ID, rng *rand.Rand) agents.Agent {
	mother := &pop[motherID]
	newID := agents.ID(len(pop))

	var father *agents.Agent
	candidates := make([]agents.ID, 0, len(mother.Neighbors))
	for _, nid := range mother.Neighbors {
		if int(nid) < len(pop) {
			n := &pop[nid]
			if n.Alive && n.Sex == agents.Male {
				candidates = append(candidates, nid)
			}
		}
	}
	if len(candidates) > 0 {
		father = &pop[candidates[rng.Intn(len(candidates))]]
	}

	child := agents.Agent{
		ID:        newID,
		Region:    mother.Region,
		Alive:     true,
		Age:       0,
		Sex:       randomSex(rng),
		ParentA:   int64(mother.ID),
		ParentB:   agents.NoParent,
		LineageID: mother.LineageID,
		Lang:      mother.Lang,
		Fluency:   0.5,
		MComm:           1,
		MSusceptibility: 1,
		MMobility:       1,
		Wealth:          0.1,
		Productivity:    0.5,
	}
	if father != nil {
		child.ParentB = int64(father.ID)
	}

	child.Dialect = mother.Dialect
	if rng.Float64() < 0.2 {
		child.Dialect = uint8(rng.Intn(agents.NumDialects))
	}

	child.Traits = inheritTraits(mother, father, rng)

	var parentMeanB [agents.NumBeliefDims]float64
	for d := 0; d < agents.NumBeliefDims; d++ {
		if father != nil {
			parentMeanB[d] = 0.5 * (mother.Belief.B[d] + father.Belief.B[d])
		} else {
			parentMeanB[d] = mother.Belief.B[d]
		}
		b := agents.Clamp(parentMeanB[d]+rng.NormFloat64()*0.2, -0.99, 0.99)
		child.Belief.B[d] = b
		child.Belief.X[d] = math.Atanh(b)
	}
	child.Belief.Recompute(math.Tanh)

	child.AddNeighbor(mother.ID)
	mother.AddNeighbor(child.ID)
	extra := 1 + rng.Intn(3)
	if extra > len(mother.Neighbors) {
		extra = len(mother.Neighbors)
	}
	perm := rng.Perm(len(mother.Neighbors))
	added := 0
	for _, idx := range perm {
		if added >= extra {
			break
		}
		nid := mother.Neighbors[idx]
		if nid == child.ID {
			continue
		}
		child.AddNeighbor(nid)
		if int(nid) < len(pop) {
			pop[nid].AddNeighbor(child.ID)
		}
		added++
	}

	child.Health = agents.HealthState{PhysicalHealth: 0.9, Nutrition: 0.8, Immunity: 0.1}
	child.Psych = agents.PsychState{Resilience: 0.4, MentalHealth: 0.5, CognitiveBias: 1.0}

	return child
}

func randomSex(rng *rand.Rand) agents.Sex {
	if rng.Float64() < 0.5 {
		return agents.Female
	}
	return agents.Male
}

func inheritTraits(mother, father *agents.Agent, rng *rand.Rand) agents.Traits {
	mix := func(mv, fv float64, has bool) float64 {
		base := mv
		if has {
			base = 0.5 * (mv + fv)
		}
		return agents.Clamp01(base + rng.NormFloat64()*0.05)
	}
	has := father != nil
	var fOpen, fConf, fAssert, fSoc float64
	if has {
		fOpen, fConf, fAssert, fSoc = father.Traits.Openness, father.Traits.Conformity, father.Traits.Assertiveness, father.Traits.Sociality
	}
	return agents.Traits{
		Openness:      mix(mother.Traits.Openness, fOpen, has),
		Conformity:    mix(mother.Traits.Conformity, fConf, has),
		Assertiveness: mix(mother.Traits.Assertiveness, fAssert, has),
		Sociality:     mix(mother.Traits.Sociality, fSoc, has),
	}
}

// Compact removes dead agent ids from the region index and from every
// neighbor list, without reindexing (§4.4 Compaction, §9 Cyclic
// references: never reuse an index slot within a run).
func Compact(pop []agents.Agent, idx *region.Index) {
	for i := range pop {
		a := &pop[i]
		out := a.Neighbors[:0]
		for _, nid := range a.Neighbors {
			if int(nid) < len(pop) && pop[nid].Alive {
				out = append(out, nid)
			}
		}
		a.Neighbors = out
	}
	idx.Rebuild(pop)
}
