// Package health implements nutrition, infection, immunity, and physical
// health dynamics driven by regional economic snapshots (§4.9).
package health

import (
	"math"
	"math/rand"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/randsrc"
	"github.com/talgya/sociokernel/internal/region"
)

// RegionalSnapshot is the per-tick regional health context, refreshed from
// economy state before agents are updated.
type RegionalSnapshot struct {
	Nutrition        float64
	Healthcare       float64
	InfectionPressure float64
}

// Snapshot derives a region's health context for this tick.
func Snapshot(r *region.Region) RegionalSnapshot {
	nutrition := 0.0
	if r.Population > 0 {
		nutrition = agents.Clamp01(r.Production[region.Food] / float64(r.Population))
	}
	healthcare := agents.Clamp01(0.5*r.Welfare + 0.5*r.TechMultiplier[region.Services])

	density := math.Min(1, float64(r.Population)/2000.0)
	wHardship := 0.4 + 0.1*density
	wWelfare := 0.3
	wEfficiency := math.Max(0.1, 0.3-0.05*r.Development)
	pressure := wHardship*r.Hardship + wWelfare*(1-r.Welfare) + wEfficiency*(1-r.Efficiency)

	return RegionalSnapshot{
		Nutrition:        nutrition,
		Healthcare:       healthcare,
		InfectionPressure: agents.Clamp01(pressure),
	}
}

// Engine owns the module's dedicated RNG substream, per §9's note that
// health draws are not required to be bitwise-deterministic across thread
// counts but must be a deterministic function of the master seed.
type Engine struct {
	rng *rand.Rand
}

// NewEngine derives the health module's RNG substream from the master seed.
func NewEngine(masterSeed int64) *Engine {
	return &Engine{rng: randsrc.Substream(masterSeed, randsrc.HealthSalt)}
}

// Tick updates every alive agent's health substate from its region's
// snapshot, per §4.9.
func (e *Engine) Tick(pop []agents.Agent, idx *region.Index, snapshots []RegionalSnapshot) {
	for r := 0; r < idx.NumRegions(); r++ {
		if r >= len(snapshots) {
			continue
		}
		snap := snapshots[r]
		for _, id := range idx.Members(uint32(r)) {
			a := &pop[id]
			if !a.Alive {
				continue
			}
			e.updateAgent(a, snap)
		}
	}
}

func (e *Engine) updateAgent(a *agents.Agent, snap RegionalSnapshot) {
	h := &a.Health
	h.Nutrition += 0.3 * (snap.Nutrition - h.Nutrition)
	h.Nutrition = agents.Clamp01(h.Nutrition)

	ageDecay := agents.Clamp(float64(a.Age)/400.0, 0, 0.3)
	diseaseMortality := 0.0
	if h.Infected {
		diseaseMortality = 0.05 * (1 - h.PhysicalHealth)
	}
	h.AgeFactor = ageDecay

	h.PhysicalHealth = agents.Clamp01(
		h.PhysicalHealth*h.Nutrition*(1-ageDecay-diseaseMortality) + 0.02 + 0.1*snap.Healthcare,
	)

	if !h.Infected {
		p := snap.InfectionPressure * (1 - h.PhysicalHealth) * (1 - h.Immunity)
		if e.rng.Float64() < p {
			h.Infected = true
		}
	} else {
		recovery := 0.1
		p := recovery * (h.PhysicalHealth + snap.Healthcare)
		if e.rng.Float64() < p {
			h.Infected = false
			h.Immunity = agents.Clamp01(h.Immunity + 0.2)
		}
	}
	h.Immunity *= 0.995
}
