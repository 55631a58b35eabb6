// Package economy implements the regional economy: endowments,
// production, matrix-based trade diffusion, prices, income distribution,
// welfare, inequality, hardship, and emergent economic systems with
// hysteresis (§4.7).
package economy

import (
	"math"
	"math/rand"
	"sort"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/geography"
	"github.com/talgya/sociokernel/internal/region"
)

// welfareNorm scales the essential-weighted per-capita consumption so a
// region consuming exactly at subsistence reports welfare ~= 1.0.
var welfareNorm = 2.0*BaseSubsistence[region.Food] + 1.5*BaseSubsistence[region.Energy] +
	1.0*BaseSubsistence[region.Tools] + 1.2*BaseSubsistence[region.Services]

// systemFeedback maps each economic system to the per-tick belief-push
// deltas it exerts on resident agents (§4.7 "economic feedback to
// beliefs"). The reference source's "religiosity" delta has no
// counterpart in this model's four belief axes (Authority/Tradition/
// Hierarchy/Isolation-Unity) and is dropped; the other three axes carry
// over directly.
var systemFeedback = map[region.System]region.SystemProfile{
	region.Market:      {AuthorityDelta: -0.3, HierarchyDelta: 0.2},
	region.Planned:      {AuthorityDelta: 0.3, HierarchyDelta: -0.3},
	region.Feudal:        {TraditionDelta: 0.4, HierarchyDelta: 0.4},
	region.Cooperative:  {AuthorityDelta: -0.2, HierarchyDelta: -0.3},
	region.Mixed:        {},
}

// econPressure is the base coefficient for the per-tick belief push from
// economic conditions (§4.7).
const econPressure = 0.001

// Initialize populates endowments, specialization, tech multipliers, and
// initial economic-system state for a freshly placed set of regions.
func Initialize(regions []*region.Region, placements []geography.Placement, profile StartConditionProfile, rng *rand.Rand) {
	for i, r := range regions {
		base := geography.Endowment(placements[i], rng)
		for g := 0; g < region.NumGoods; g++ {
			r.Endowment[g] = base[g] * profile.EndowmentMultiplier[g]
			r.Specialization[g] = 0
			r.TechMultiplier[g] = 1
			r.Prices[g] = 1.0
		}
		r.Development = math.Max(0, profile.BaseDevelopment+rng.NormFloat64()*profile.DevelopmentJitter)
		r.Efficiency = 0.5
		r.Welfare = 1.0
		r.Stability = 0.6
		r.System.Current = profile.DefaultSystem
		r.System.InstitutionalInertia = 0.5
	}
}

// Update runs one economy step (every 10 ticks, per §2/§4.7) over all
// regions: evolve_specialization -> evolve_development -> evolve_systems
// -> production -> trade -> consumption -> prices -> distribute_income ->
// welfare -> inequality -> hardship.
func Update(pop []agents.Agent, idx *region.Index, regions []*region.Region, graph AdjacencyGraph, ticksPerYear int) {
	fractionOfYear := 10.0 / float64(ticksPerYear)

	for _, r := range regions {
		evolveSpecialization(r)
		evolveDevelopment(r)
	}
	evolveSystems(pop, idx, regions, fractionOfYear)

	for _, r := range regions {
		computeProduction(r)
		computeDemand(r)
	}
	for g := region.Good(0); g < region.NumGoods; g++ {
		Diffuse(regions, graph, g)
	}
	for _, r := range regions {
		computeConsumption(r)
		adjustPrices(r)
	}

	distributeIncome(pop, idx, regions)

	for _, r := range regions {
		computeWelfare(r)
	}
	computeInequality(regions, idx, pop)
	for _, r := range regions {
		computeHardship(r, idx, pop)
		computeEfficiency(r)
	}

	applyBeliefFeedback(pop, idx, regions)
}

func evolveSpecialization(r *region.Region) {
	best := region.Good(0)
	for g := region.Good(1); g < region.NumGoods; g++ {
		if r.Endowment[g] > r.Endowment[best] {
			best = g
		}
	}
	for g := region.Good(0); g < region.NumGoods; g++ {
		if g == best {
			r.Specialization[g] = agents.Clamp(r.Specialization[g]+SpecializationRate, -0.5, 2)
		} else {
			r.Specialization[g] = agents.Clamp(r.Specialization[g]-SpecializationRate/2, -0.5, 2)
		}
	}
}

func evolveDevelopment(r *region.Region) {
	if r.Welfare > 1.0 {
		r.Development += DevelopmentGrowthRate * (r.Welfare - 1.0)
	} else {
		r.Development -= DevelopmentDecayRate * (1.0 - r.Welfare)
	}
	if r.Development < 0 {
		r.Development = 0
	}
	if r.Development > 10 {
		r.Development = 10
	}
}

func evolveSystems(pop []agents.Agent, idx *region.Index, regions []*region.Region, fractionOfYear float64) {
	for ri, r := range regions {
		members := idx.Members(uint32(ri))
		beliefs := make([]*agents.Belief, 0, len(members))
		for _, id := range members {
			a := &pop[id]
			if a.Alive {
				beliefs = append(beliefs, &a.Belief)
			}
		}
		profile := ComputeBeliefProfile(beliefs)
		ideal := IdealSystem(profile, r.Development, r.Hardship, r.Inequality)
		fired := StepTransition(&r.System, ideal, r.Hardship, r.Welfare, r.Stability, r.Inequality, fractionOfYear)
		switch {
		case fired:
			r.Stability = 0.3
		case r.System.Current == ideal:
			r.Stability = math.Min(1, r.Stability+0.02)
		default:
			r.Stability = math.Max(0.3, r.Stability-0.005)
		}
	}
}

func computeProduction(r *region.Region) {
	for g := region.Good(0); g < region.NumGoods; g++ {
		r.Production[g] = r.Endowment[g] * float64(r.Population) * (1 + r.Specialization[g]) *
			r.TechMultiplier[g] * r.Efficiency * (1 + 0.2*r.Development)
	}
}

func computeDemand(r *region.Region) {
	pop := float64(r.Population)
	cold := 1 - r.Climate
	developed := math.Min(1, r.Development/2)
	density := pop / 500.0

	needs := [region.NumGoods]float64{
		BaseSubsistence[region.Food] * (1 + 0.3*cold),
		BaseSubsistence[region.Energy] * (1 + 0.3*cold),
		BaseSubsistence[region.Tools] * (1 + 0.4*developed),
		BaseSubsistence[region.Luxury] + 0.1*density,
		BaseSubsistence[region.Services] * (1 + 0.4*developed+0.2*density),
	}
	weights := [region.NumGoods]float64{0.3, 0.2, 0.25, 0.4, 0.35}
	for g := region.Good(0); g < region.NumGoods; g++ {
		r.Demand[g] = pop * (needs[g] + r.Welfare*weights[g])
	}
}

func computeConsumption(r *region.Region) {
	for g := region.Good(0); g < region.NumGoods; g++ {
		r.Consumption[g] = math.Max(0, r.Production[g]+r.TradeBalance[g])
	}
}

func adjustPrices(r *region.Region) {
	for g := region.Good(0); g < region.NumGoods; g++ {
		demand := r.Demand[g]
		if demand < 1e-9 {
			continue
		}
		ratio := r.Consumption[g] / demand
		switch {
		case ratio < 0.8:
			r.Prices[g] *= 1.05
		case ratio > 1.2:
			r.Prices[g] *= 0.975
		}
		r.Prices[g] = agents.Clamp(r.Prices[g], 0.01, 100)
	}
}

func distributeIncome(pop []agents.Agent, idx *region.Index, regions []*region.Region) {
	for ri, r := range regions {
		members := idx.Members(uint32(ri))
		if len(members) == 0 {
			continue
		}
		totalProductivity := 0.0
		totalWealth := 0.0
		alive := make([]agents.ID, 0, len(members))
		for _, id := range members {
			a := &pop[id]
			if !a.Alive {
				continue
			}
			totalProductivity += a.Productivity
			totalWealth += a.Wealth
			alive = append(alive, id)
		}
		if totalProductivity <= 0 || len(alive) == 0 {
			continue
		}
		avgWealth := totalWealth / float64(len(alive))

		totalRevenue := 0.0
		for g := region.Good(0); g < region.NumGoods; g++ {
			totalRevenue += r.Production[g] * r.Prices[g]
		}
		regionalMultiplier := 0.8 + 0.4*r.Efficiency
		essentialCost := 0.0
		for g := region.Good(0); g < region.NumGoods; g++ {
			essentialCost += BaseSubsistence[g] * r.Prices[g]
		}

		for _, id := range alive {
			a := &pop[id]
			share := a.Productivity / totalProductivity
			income := share * totalRevenue * regionalMultiplier
			income += math.Log(1+a.Wealth) * 0.01

			if avgWealth > 1e-9 {
				if a.Wealth > avgWealth {
					income *= 1.10
				} else {
					income *= 0.90
				}
			}
			a.Income = income

			switch {
			case income > essentialCost*1.1:
				a.Wealth += 0.2 * income
			case income >= essentialCost*0.9:
				surplus := income - essentialCost
				if surplus > 0 {
					a.Wealth += 0.5 * surplus
				}
			default:
				gap := essentialCost - income
				draw := math.Min(a.Wealth*0.05, gap)
				a.Wealth -= draw
			}
			if a.Wealth < 0.01 {
				a.Wealth = 0.01
			}

			if a.Productivity < 3.0 {
				a.Productivity += 0.0003 * (1 + 0.1*avgWealth)
			} else {
				a.Productivity *= 0.9999
			}
			a.Productivity = agents.Clamp(a.Productivity, 0.2, 3.0)

			if essentialCost > 1e-9 {
				a.Hardship = agents.Clamp01(math.Max(0, 1-income/essentialCost))
			}
		}
	}
}

func computeWelfare(r *region.Region) {
	weighted := r.Consumption[region.Food]*2.0 + r.Consumption[region.Energy]*1.5 +
		r.Consumption[region.Tools]*1.0 + r.Consumption[region.Services]*1.2 +
		r.Consumption[region.Luxury]*0.5
	if r.Population <= 0 || welfareNorm <= 0 {
		r.Welfare = 1.0
		return
	}
	perCapita := weighted / float64(r.Population)
	r.Welfare = math.Max(0, perCapita/welfareNorm)
}

func computeHardship(r *region.Region, idx *region.Index, pop []agents.Agent) {
	members := idx.Members(r.ID)
	if len(members) == 0 {
		r.Hardship = 0
		return
	}
	sum := 0.0
	n := 0
	for _, id := range members {
		a := &pop[id]
		if a.Alive {
			sum += a.Hardship
			n++
		}
	}
	if n == 0 {
		r.Hardship = 0
		return
	}
	r.Hardship = agents.Clamp01(sum / float64(n))
}

func computeEfficiency(r *region.Region) {
	productionTotal, consumptionTotal := 0.0, 0.0
	for g := region.Good(0); g < region.NumGoods; g++ {
		productionTotal += r.Production[g]
		consumptionTotal += r.Consumption[g]
	}
	coverage := 1.0
	if consumptionTotal > 0 {
		coverage = math.Min(1, productionTotal/(consumptionTotal+1))
	}
	r.Efficiency = agents.Clamp(0.3+0.4*coverage+0.2*r.Stability+0.1*math.Min(1, r.Development/2), 0.3, 1.0)
}

// computeInequality computes the per-region Gini of alive residents'
// wealth via the sorted-index O(n log n) formula, plus top-10/bottom-50
// wealth shares and the population-weighted global inequality.
func computeInequality(regions []*region.Region, idx *region.Index, pop []agents.Agent) float64 {
	totalPop := 0
	weightedSum := 0.0
	for ri, r := range regions {
		members := idx.Members(uint32(ri))
		wealth := make([]float64, 0, len(members))
		for _, id := range members {
			a := &pop[id]
			if a.Alive {
				wealth = append(wealth, a.Wealth)
			}
		}
		r.Population = len(wealth)
		if len(wealth) == 0 {
			r.Inequality = 0
			r.WealthTop10 = 0
			r.WealthBot50 = 0
			r.AvgWealth = 0
			continue
		}
		sum := 0.0
		for _, w := range wealth {
			sum += w
		}
		r.AvgWealth = sum / float64(len(wealth))
		sort.Float64s(wealth)
		r.Inequality = gini(wealth)
		r.WealthTop10, r.WealthBot50 = wealthShares(wealth)

		totalPop += len(wealth)
		weightedSum += r.Inequality * float64(len(wealth))
	}
	if totalPop == 0 {
		return 0
	}
	return weightedSum / float64(totalPop)
}

func gini(wealth []float64) float64 {
	n := len(wealth)
	if n == 0 {
		return 0
	}
	sortedAsc := append([]float64(nil), wealth...)
	sort.Float64s(sortedAsc)
	var weightedSum, total float64
	for i, w := range sortedAsc {
		weightedSum += float64(i+1) * w
		total += w
	}
	if total <= 0 {
		return 0
	}
	return (2*weightedSum)/(float64(n)*total) - float64(n+1)/float64(n)
}

func wealthShares(sortedAsc []float64) (top10, bot50 float64) {
	n := len(sortedAsc)
	total := 0.0
	for _, w := range sortedAsc {
		total += w
	}
	if total <= 0 {
		return 0, 0
	}
	topCount := n / 10
	if topCount < 1 {
		topCount = 1
	}
	topSum := 0.0
	for i := n - topCount; i < n; i++ {
		topSum += sortedAsc[i]
	}
	botCount := n / 2
	botSum := 0.0
	for i := 0; i < botCount; i++ {
		botSum += sortedAsc[i]
	}
	return topSum / total, botSum / total
}

// applyBeliefFeedback pushes each alive agent's internal belief state by a
// small economic-conditions-driven delta, per §4.7, and re-derives
// MSusceptibility from openness and regional hardship so belief adaptation
// itself grows more volatile under economic strain. Belief deltas are
// applied to the unbounded x state (not B directly) and clamped, matching
// the belief engine's own invariant that B = tanh(x).
func applyBeliefFeedback(pop []agents.Agent, idx *region.Index, regions []*region.Region) {
	for ri, r := range regions {
		members := idx.Members(uint32(ri))
		if len(members) == 0 {
			continue
		}
		feedback := systemFeedback[r.System.Current]

		for _, id := range members {
			a := &pop[id]
			if !a.Alive {
				continue
			}

			// Hardship raises susceptibility to radical beliefs; openness
			// sets the baseline.
			a.MSusceptibility = 0.7 + 0.6*(a.Traits.Openness-0.5)
			a.MSusceptibility *= 1.0 + r.Hardship
			a.MSusceptibility = agents.Clamp(a.MSusceptibility, 0.4, 2.0)

			var dAuth, dTrad, dHier float64
			if r.Hardship > 0.5 {
				dAuth -= econPressure * r.Hardship
				dHier -= econPressure * r.Hardship
			}
			if r.Inequality > 0.4 {
				dHier -= econPressure * r.Inequality
			}
			if a.Wealth > 2.0 {
				dAuth += econPressure * 0.5
				dHier += econPressure * 0.5
			}
			if r.Welfare < 0.5 {
				dTrad -= econPressure * (0.5 - r.Welfare)
			}
			dAuth += econPressure * feedback.AuthorityDelta
			dTrad += econPressure * feedback.TraditionDelta
			dHier += econPressure * feedback.HierarchyDelta

			a.Belief.X[agents.AxisAuthority] = agents.Clamp(a.Belief.X[agents.AxisAuthority]+dAuth, -3, 3)
			a.Belief.X[agents.AxisTradition] = agents.Clamp(a.Belief.X[agents.AxisTradition]+dTrad, -3, 3)
			a.Belief.X[agents.AxisHierarchy] = agents.Clamp(a.Belief.X[agents.AxisHierarchy]+dHier, -3, 3)
			a.Belief.Recompute(math.Tanh)
		}
	}
}
