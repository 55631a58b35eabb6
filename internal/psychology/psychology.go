// Package psychology implements stress, resilience, mental health, and
// cognitive bias, driven by regional economic and health signals (§4.10).
package psychology

import (
	"math/rand"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/randsrc"
	"github.com/talgya/sociokernel/internal/region"
)

// RegionalProfile is the per-tick regional psychological context.
type RegionalProfile struct {
	Hardship           float64
	Inequality         float64
	Welfare            float64
	InstitutionalSupport float64 // = efficiency
	MediaNegativity    float64 // = 1 - stability
}

// Profile derives a region's psychological context for this tick.
func Profile(r *region.Region) RegionalProfile {
	return RegionalProfile{
		Hardship:           r.Hardship,
		Inequality:         r.Inequality,
		Welfare:            r.Welfare,
		InstitutionalSupport: r.Efficiency,
		MediaNegativity:    1 - r.Stability,
	}
}

// Engine owns the module's dedicated RNG substream (§9).
type Engine struct {
	rng *rand.Rand
}

// NewEngine derives the psychology module's RNG substream from the master
// seed.
func NewEngine(masterSeed int64) *Engine {
	return &Engine{rng: randsrc.Substream(masterSeed, randsrc.PsychologySalt)}
}

// Tick updates every alive agent's psych substate and writes back to its
// communication and mobility multipliers, per §4.10. Must run after
// health.Engine.Tick within the same tick (psychology reads health state).
func (e *Engine) Tick(pop []agents.Agent, idx *region.Index, profiles []RegionalProfile) {
	for r := 0; r < idx.NumRegions(); r++ {
		if r >= len(profiles) {
			continue
		}
		p := profiles[r]
		for _, id := range idx.Members(uint32(r)) {
			a := &pop[id]
			if !a.Alive {
				continue
			}
			e.updateAgent(a, p)
		}
	}
}

func (e *Engine) updateAgent(a *agents.Agent, p RegionalProfile) {
	t := a.Traits
	economicSens := (1-t.Openness) + t.Conformity
	mediaSens := t.Conformity + (1 - t.Assertiveness)
	institutionalSens := (1 - t.Conformity) + t.Assertiveness
	diseaseSens := t.Sociality + (1 - t.Openness)

	economicShock := 0.5 * economicSens * (p.Hardship + p.Inequality)
	mediaShock := 0.4 * mediaSens * p.MediaNegativity
	institutionalShock := 0.3 * institutionalSens * (1 - p.InstitutionalSupport)
	diseaseShock := 0.0
	if a.Health.Infected {
		diseaseShock = 0.6 * diseaseSens * (1 - a.Health.PhysicalHealth)
	}

	totalShock := economicShock + mediaShock + institutionalShock + diseaseShock
	totalShock = agents.Clamp(totalShock, 0.05, 1.5)
	totalShock *= 1 - a.Psych.Resilience

	psych := &a.Psych
	recovery := 0.1
	psych.Stress = agents.Clamp01(psych.Stress + totalShock - recovery*(0.5+psych.MentalHealth))

	decay := 0.02
	psych.MentalHealth = agents.Clamp01(
		psych.MentalHealth*(1-decay) + psych.Resilience*(p.Welfare+p.InstitutionalSupport)*0.25,
	)

	psych.CognitiveBias = agents.Clamp(
		1+0.5*(psych.Stress-0.5)+0.3*(t.Assertiveness-t.Conformity), 0.25, 2,
	)

	a.MComm = agents.Clamp(1-0.4*psych.Stress+0.3*psych.MentalHealth, 0.1, 1.6)
	a.MMobility = agents.Clamp(0.7+0.4*t.Sociality+0.3*psych.MentalHealth-0.2*psych.Stress, 0.1, 2)
}
