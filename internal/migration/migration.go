// Package migration implements region attractiveness scoring, migration
// decisions, and social-network retention on relocation (§4.5).
package migration

import (
	"math"
	"math/rand"
	"sort"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

// Interval is the tick cadence at which migration runs.
const Interval = 10

// AttractivenessRefreshInterval is a 50-tick cadence for refreshing region
// attractiveness. Run does not consult it: attractiveness is recomputed
// from the supplied contexts on every call.
const AttractivenessRefreshInterval = 50

// RegionalContext is the subset of region state migration reads.
type RegionalContext struct {
	Welfare     float64
	Hardship    float64
	Development float64
	Population  int
	Capacity    int
}

// Attractiveness scores a region per §4.5.
func Attractiveness(ctx RegionalContext) float64 {
	crowding := 0.0
	if ctx.Capacity > 0 {
		ratio := float64(ctx.Population)/float64(ctx.Capacity) - 1
		if ratio > 0 {
			crowding = -ratio * 0.5
		}
	}
	return ctx.Welfare - 2*ctx.Hardship + 0.2*ctx.Development + crowding
}

// EffectiveMobility computes the per-agent effective migration propensity.
func EffectiveMobility(a *agents.Agent) float64 {
	ageMod := 1.0
	switch {
	case a.Age < 18:
		ageMod = 0.1 + 0.05*float64(a.Age)
	case a.Age > 60:
		ageMod = math.Max(0.1, 1-0.02*float64(a.Age-60))
	}
	netMod := 1 - math.Min(0.5, 0.02*float64(len(a.Neighbors)))
	return a.MMobility * ageMod * netMod
}

type rankedRegion struct {
	id    uint32
	score float64
}

// Run executes the migration phase: for each candidate agent, sample a
// destination and migrate if the threshold condition holds. regions must
// be indexed 0..numRegions-1 and ordered to match idx's region ids.
func Run(pop []agents.Agent, idx *region.Index, regions []RegionalContext, rng *rand.Rand) {
	n := len(regions)
	if n == 0 {
		return
	}
	ranked := make([]rankedRegion, n)
	for r := 0; r < n; r++ {
		ranked[r] = rankedRegion{uint32(r), Attractiveness(regions[r])}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	top := ranked
	if len(top) > 10 {
		top = top[:10]
	}

	for i := range pop {
		a := &pop[i]
		if !a.Alive {
			continue
		}
		if int(a.Region) >= n {
			continue
		}
		eff := EffectiveMobility(a)
		if eff <= 0.3 {
			continue
		}
		prob := 0.01 * a.Hardship * a.MMobility
		if rng.Float64() >= prob {
			continue
		}

		origin := Attractiveness(regions[a.Region])

		var best rankedRegion
		bestGain := math.Inf(-1)
		sampleCount := 3
		if sampleCount > len(top) {
			sampleCount = len(top)
		}
		perm := rng.Perm(len(top))[:sampleCount]
		for _, pi := range perm {
			cand := top[pi]
			gain := cand.score - origin
			if gain > bestGain {
				bestGain = gain
				best = cand
			}
		}

		threshold := (0.1 + 0.3*(1-a.Traits.Openness) + 0.2*a.Traits.Conformity) * (1 - 0.5*a.Hardship)
		if best.id == a.Region || bestGain <= threshold {
			continue
		}

		migrate(pop, a, best.id, idx, rng, n)
	}
}

func migrate(pop []agents.Agent, a *agents.Agent, dest uint32, idx *region.Index, rng *rand.Rand, numRegions int) {
	origin := a.Region
	idx.Remove(origin, a.ID)
	a.Region = dest
	idx.Add(dest, a.ID)

	retainNetwork(pop, a, origin, dest, numRegions, rng)
}

// retainNetwork scores existing neighbors and keeps a retention-fraction
// top slice, per §4.5's emergent network-retention rule.
func retainNetwork(pop []agents.Agent, a *agents.Agent, origin, dest uint32, numRegions int, rng *rand.Rand) {
	type scored struct {
		id    agents.ID
		score float64
	}
	scoredList := make([]scored, 0, len(a.Neighbors))
	for _, nid := range a.Neighbors {
		if int(nid) >= len(pop) {
			continue
		}
		n := &pop[nid]
		sim := agents.CosineSim(&a.Belief, &n.Belief)
		sameLang := 0.0
		if a.Lang == n.Lang {
			sameLang = 1.0
		}
		atDest := 0.0
		if n.Region == dest {
			atDest = 1.0
		}
		atOrigin := 0.0
		if n.Region == origin {
			atOrigin = 1.0
		}
		score := 0.5*sim + 0.2*sameLang + 0.3*atDest - 0.1*atOrigin + 0.2*n.Traits.Sociality
		scoredList = append(scoredList, scored{nid, score})
	}
	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].score > scoredList[j].score })

	distFrac := 0.0
	if numRegions > 0 {
		distFrac = math.Abs(float64(int(dest)-int(origin))) / float64(numRegions)
	}
	keepFrac := agents.Clamp(0.3+0.4*a.Traits.Sociality-0.2*distFrac, 0.15, 0.85)
	keep := int(math.Ceil(keepFrac * float64(len(scoredList))))
	if keep < 1 && len(scoredList) > 0 {
		keep = 1
	}

	newNeighbors := make([]agents.ID, 0, keep)
	for i, s := range scoredList {
		if i >= keep {
			if int(s.id) < len(pop) {
				pop[s.id].RemoveNeighbor(a.ID)
			}
			continue
		}
		newNeighbors = append(newNeighbors, s.id)
	}
	a.Neighbors = newNeighbors
}
