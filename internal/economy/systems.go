package economy

import (
	"math"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

// BeliefProfile is the dominant-pole summary of a region's resident
// beliefs, used to drive emergent economic-system classification (§4.7,
// §9 "Dominant-pole analysis"). Averaging opposing factions can cancel
// signals, so each axis is summarized by the larger faction's signed
// mean rather than the plain mean.
type BeliefProfile struct {
	Authority float64 // dominant pole of B[0], Authority(-) <-> Liberty(+)
	Tradition float64 // dominant pole of B[1], Tradition(-) <-> Progress(+)
	Hierarchy float64 // dominant pole of B[2], Hierarchy(-) <-> Equality(+)
}

// dominantPole computes the signed mean of the larger (by count * |mean|)
// of the two factions on axis d among the given beliefs.
func dominantPole(members []*agents.Belief, d int) float64 {
	var posSum, negSum float64
	var posN, negN int
	for _, b := range members {
		v := b.B[d]
		switch {
		case v > 0.1:
			posSum += v
			posN++
		case v < -0.1:
			negSum += v
			negN++
		}
	}
	if posN == 0 && negN == 0 {
		return 0
	}
	var posMean, negMean float64
	if posN > 0 {
		posMean = posSum / float64(posN)
	}
	if negN > 0 {
		negMean = negSum / float64(negN)
	}
	posIntensity := float64(posN) * math.Abs(posMean)
	negIntensity := float64(negN) * math.Abs(negMean)
	if negN == 0 || posIntensity >= negIntensity*1.2 {
		return posMean
	}
	if posN == 0 || negIntensity >= posIntensity*1.2 {
		return negMean
	}
	// Neither side dominates by the 20% margin: fall back to whichever is
	// larger in raw intensity (still not a plain mean across factions).
	if posIntensity >= negIntensity {
		return posMean
	}
	return negMean
}

// ComputeBeliefProfile summarizes the belief distribution of members.
func ComputeBeliefProfile(members []*agents.Belief) BeliefProfile {
	if len(members) == 0 {
		return BeliefProfile{}
	}
	return BeliefProfile{
		Authority: dominantPole(members, agents.AxisAuthority),
		Tradition: dominantPole(members, agents.AxisTradition),
		Hierarchy: dominantPole(members, agents.AxisHierarchy),
	}
}

// IdealSystem classifies the region's ideal economic system from its
// belief profile and material conditions. Mixed is the default for
// non-distinctive cases.
func IdealSystem(profile BeliefProfile, development, hardship, inequality float64) region.System {
	switch {
	case development < 0.6 && profile.Authority < -0.15 && profile.Hierarchy < -0.15:
		return region.Feudal
	case profile.Hierarchy > 0.25 && profile.Authority >= 0 && hardship < 0.45:
		return region.Cooperative
	case profile.Authority < -0.2 && profile.Hierarchy > -0.1:
		return region.Planned
	case profile.Authority > 0.2 && profile.Hierarchy < 0.15 && inequality > 0.35:
		return region.Market
	default:
		return region.Mixed
	}
}

func clipPositive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// StepTransition advances the region's system-transition hysteresis state
// machine by one economy tick, per §4.7/§9. fractionOfYear is the share of
// one simulated year this economy step represents (used to accumulate
// YearsInCurrent). It reports whether the transition fired this call, so
// the caller can apply the stability drop §4.7 requires on a fired switch.
func StepTransition(t *region.TransitionState, ideal region.System, hardship, welfare, stability, inequality float64, fractionOfYear float64) bool {
	pressure := clipPositive(hardship-0.3) + clipPositive(welfare-0.8) + clipPositive(1-stability) + clipPositive(inequality-0.4)

	t.YearsInCurrent += fractionOfYear

	if ideal == t.Current {
		t.PressureTicks *= 0.9
		t.HasPending = false
		return false
	}

	if t.HasPending && t.Pending != ideal {
		// Pending direction changed: contract toward zero at a rate set by
		// institutional inertia (higher inertia => slower contraction).
		t.PressureTicks *= t.InstitutionalInertia
	}
	t.Pending = ideal
	t.HasPending = true

	var increment float64
	switch {
	case pressure > 0.5:
		increment = 2
	case pressure > 0.15:
		increment = 1
	default:
		increment = 0
	}
	increment *= 1 - t.InstitutionalInertia*0.5
	t.PressureTicks += increment

	threshold := math.Min(200, 50+0.5*t.YearsInCurrent)
	if t.PressureTicks >= threshold {
		t.Current = ideal
		t.HasPending = false
		t.PressureTicks = 0
		t.YearsInCurrent = 0
		t.InstitutionalInertia /= 2
		return true
	}
	return false
}
