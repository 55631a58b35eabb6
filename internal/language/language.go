// Package language implements geography-based language-family assignment
// at reset and prestige-driven generational shift (§4.8).
package language

import (
	"math"
	"math/rand"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

// Interval is the tick cadence at which prestige and shift are recomputed.
const Interval = 50

// quadrantCorners are the four canonical (x,y) family centers before
// per-run jitter, one per corner of the normalized [0,1]^2 grid.
var quadrantCorners = [agents.NumLangFamilies][2]float64{
	agents.LangWestern:  {0.0, 0.0},
	agents.LangEastern:  {1.0, 0.0},
	agents.LangNorthern: {0.0, 1.0},
	agents.LangSouthern: {1.0, 1.0},
}

// FamilyCenters holds the run's jittered family centers.
type FamilyCenters [agents.NumLangFamilies][2]float64

// JitterCenters derives this run's family centers from the quadrant
// corners, jittered by up to +/-0.15 in each axis.
func JitterCenters(rng *rand.Rand) FamilyCenters {
	var c FamilyCenters
	for f := 0; f < agents.NumLangFamilies; f++ {
		c[f][0] = agents.Clamp01(quadrantCorners[f][0] + (rng.Float64()-0.5)*0.3)
		c[f][1] = agents.Clamp01(quadrantCorners[f][1] + (rng.Float64()-0.5)*0.3)
	}
	return c
}

// RegionAssignment is a region's dominant language family and its strength.
type RegionAssignment struct {
	Dominant agents.LangFamily
	Strength float64
}

// AssignRegions picks each region's dominant family as the nearest jittered
// center, with strength max(0.3, 1 - 1.5*distance).
func AssignRegions(regions []*region.Region, centers FamilyCenters) []RegionAssignment {
	out := make([]RegionAssignment, len(regions))
	for i, r := range regions {
		best := agents.LangFamily(0)
		bestDist := math.Inf(1)
		for f := 0; f < agents.NumLangFamilies; f++ {
			dx, dy := r.X-centers[f][0], r.Y-centers[f][1]
			d := math.Hypot(dx, dy)
			if d < bestDist {
				bestDist = d
				best = agents.LangFamily(f)
			}
		}
		out[i] = RegionAssignment{Dominant: best, Strength: math.Max(0.3, 1-1.5*bestDist)}
	}
	return out
}

// AssignAgent draws an agent's initial language family and dialect at
// reset, given its region's assignment and coordinates.
func AssignAgent(a *agents.Agent, r *region.Region, assign RegionAssignment, rng *rand.Rand) {
	minorityChance := math.Min(0.4, (1-assign.Strength)*0.3+0.05*(a.MMobility+a.Traits.Openness))
	if rng.Float64() < minorityChance {
		a.Lang = agents.LangFamily(rng.Intn(agents.NumLangFamilies))
	} else {
		a.Lang = assign.Dominant
	}

	base := int(math.Round((r.X + r.Y) * float64(agents.NumDialects) / 2))
	variation := int(math.Round((rng.Float64()*2 - 1) * (1 - assign.Strength/2) * float64(agents.NumDialects) / 2))
	d := (base + variation) % agents.NumDialects
	if d < 0 {
		d += agents.NumDialects
	}
	a.Dialect = uint8(d)
	a.Fluency = 0.5 + 0.3*assign.Strength
}

// prestigeState is the per-region, per-family smoothed prestige tracked
// across shift steps.
type prestigeState struct {
	prestige [agents.NumLangFamilies]float64
}

// Tracker holds per-region prestige state across ticks.
type Tracker struct {
	states []prestigeState
}

// NewTracker allocates a tracker for n regions with neutral initial
// prestige.
func NewTracker(n int) *Tracker {
	t := &Tracker{states: make([]prestigeState, n)}
	for i := range t.states {
		for f := 0; f < agents.NumLangFamilies; f++ {
			t.states[i].prestige[f] = 1.0 / float64(agents.NumLangFamilies)
		}
	}
	return t
}

// Step runs one prestige-update and generational-shift pass over the
// population (§4.8, every Interval ticks).
func (t *Tracker) Step(pop []agents.Agent, idx *region.Index, canonicalDialect [agents.NumLangFamilies]uint8, rng *rand.Rand) {
	for r := 0; r < idx.NumRegions(); r++ {
		members := idx.Members(uint32(r))
		if len(members) == 0 {
			continue
		}
		var speakerCount [agents.NumLangFamilies]int
		var speakerWealth [agents.NumLangFamilies]float64
		totalWealth := 0.0
		for _, id := range members {
			a := &pop[id]
			if !a.Alive {
				continue
			}
			speakerCount[a.Lang]++
			speakerWealth[a.Lang] += a.Wealth
			totalWealth += a.Wealth
		}
		pop_ := float64(len(members))
		st := &t.states[r]
		dominant := agents.LangFamily(0)
		bestPrestige := -1.0
		for f := 0; f < agents.NumLangFamilies; f++ {
			popShare := float64(speakerCount[f]) / pop_
			wealthShare := 0.0
			if totalWealth > 1e-9 {
				wealthShare = speakerWealth[f] / totalWealth
			}
			target := 0.4*popShare + 0.6*wealthShare
			st.prestige[f] = 0.9*st.prestige[f] + 0.1*target
			if st.prestige[f] > bestPrestige {
				bestPrestige = st.prestige[f]
				dominant = agents.LangFamily(f)
			}
		}

		for _, id := range members {
			a := &pop[id]
			if !a.Alive || a.Age > 25 {
				continue
			}
			delta := st.prestige[dominant] - st.prestige[a.Lang]
			if delta <= 0.05 {
				continue
			}
			// tradition_normalized follows demography.RegionTradition's
			// convention: B[AxisTradition] = -1 (full tradition) maps to 1,
			// +1 (full progress) maps to 0, so traditional agents damp their
			// own shift probability and progressive agents don't.
			traditionNorm := (1 - a.Belief.B[agents.AxisTradition]) / 2
			prob := 0.3 * delta * (0.5 + 0.5*a.Traits.Openness) * (0.5 + 0.5*a.Traits.Conformity) * (1 - 0.5*traditionNorm)
			if rng.Float64() >= prob {
				continue
			}
			a.Lang = dominant
			newDialect := float64(canonicalDialect[dominant])
			blended := 0.7*newDialect + 0.3*float64(a.Dialect)
			a.Dialect = uint8(math.Round(blended)) % agents.NumDialects
		}
	}
}
