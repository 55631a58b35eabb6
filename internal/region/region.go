// Package region defines the geographically placed economic unit and the
// per-region aggregates (§4.6). The aggregates are not updated
// incrementally on birth, death or migration; the kernel rebuilds them from
// scratch.
package region

import (
	"github.com/talgya/sociokernel/internal/agents"
)

// System is the region's emergent economic-system tag.
type System uint8

const (
	Mixed System = iota
	Market
	Planned
	Feudal
	Cooperative
)

func (s System) String() string {
	switch s {
	case Market:
		return "market"
	case Planned:
		return "planned"
	case Feudal:
		return "feudal"
	case Cooperative:
		return "cooperative"
	default:
		return "mixed"
	}
}

const NumGoods = 5

// Good indexes the five economy goods.
type Good int

const (
	Food Good = iota
	Energy
	Tools
	Luxury
	Services
)

var GoodNames = [NumGoods]string{"food", "energy", "tools", "luxury", "services"}

// SystemProfile bundles the per-dimension belief pushes economic-system
// classification feeds back into agent beliefs, and the econ_systems_
// deltas used by the feedback step (see internal/economy).
type SystemProfile struct {
	AuthorityDelta  float64
	TraditionDelta  float64
	HierarchyDelta  float64
	ReligiosityDelta float64
}

// TransitionState is the per-region hysteresis state machine governing
// economic-system changes (§4.7, §9 "Economic system hysteresis").
type TransitionState struct {
	Current           System
	Pending           System
	HasPending        bool
	PressureTicks     float64
	YearsInCurrent    float64
	InstitutionalInertia float64
}

// Region is a geographically placed economic unit.
type Region struct {
	ID uint32

	// Geographic
	X, Y float64
	// Climate is a coherent noise-derived factor in [0,1]: 0 cold/arid, 1
	// warm/humid. Fertility is a second noise-derived factor in [0,1]; higher
	// fertility raises the food endowment and, together with Climate, the
	// tools endowment (see internal/geography).
	Climate   float64
	Fertility float64

	// Population
	Population int

	// Endowments: per-capita production potential for each good.
	Endowment [NumGoods]float64
	// Specialization: per-good, evolves toward the highest-endowment good.
	Specialization [NumGoods]float64
	// TechMultiplier: per-good technology multiplier (development-driven).
	TechMultiplier [NumGoods]float64

	Production   [NumGoods]float64
	Demand       [NumGoods]float64
	Consumption  [NumGoods]float64
	Prices       [NumGoods]float64
	TradeBalance [NumGoods]float64

	Development float64
	Efficiency  float64
	Welfare     float64
	Inequality  float64
	Hardship    float64
	WealthTop10 float64
	WealthBot50 float64
	AvgWealth   float64

	System     TransitionState
	Stability  float64

	TradePartners []uint32

	// Aggregates: population-weighted belief sum over alive residents.
	BeliefSum [agents.NumBeliefDims]float64
}

// Centroid returns BeliefSum/Population, or zero when the region is empty.
func (r *Region) Centroid() [agents.NumBeliefDims]float64 {
	var c [agents.NumBeliefDims]float64
	if r.Population <= 0 {
		return c
	}
	pop := float64(r.Population)
	for d := 0; d < agents.NumBeliefDims; d++ {
		c[d] = r.BeliefSum[d] / pop
	}
	return c
}

// Index maintains, per region, the set of alive agent ids currently
// assigned to it (§4.6 RegionalAggregates). It partitions the alive agent
// population: agent.Region == r iff idx.members[r] contains that id,
// modulo pending compaction.
type Index struct {
	members [][]agents.ID
}

// NewIndex allocates an index for n regions.
func NewIndex(n int) *Index {
	return &Index{members: make([][]agents.ID, n)}
}

// Members returns the agent ids assigned to region r.
func (idx *Index) Members(r uint32) []agents.ID {
	if int(r) >= len(idx.members) {
		return nil
	}
	return idx.members[r]
}

// Add assigns id to region r.
func (idx *Index) Add(r uint32, id agents.ID) {
	if int(r) >= len(idx.members) {
		return
	}
	idx.members[r] = append(idx.members[r], id)
}

// Remove deletes id from region r's member list, if present.
func (idx *Index) Remove(r uint32, id agents.ID) {
	if int(r) >= len(idx.members) {
		return
	}
	m := idx.members[r]
	for i, v := range m {
		if v == id {
			idx.members[r] = append(m[:i], m[i+1:]...)
			return
		}
	}
}

// Rebuild discards and repopulates the index from the authoritative agent
// slice, skipping dead agents and agents with an out-of-range region.
func (idx *Index) Rebuild(pop []agents.Agent) {
	for i := range idx.members {
		idx.members[i] = idx.members[i][:0]
	}
	for i := range pop {
		a := &pop[i]
		if !a.Alive || int(a.Region) >= len(idx.members) {
			continue
		}
		idx.members[a.Region] = append(idx.members[a.Region], a.ID)
	}
}

// NumRegions returns the number of regions the index was built for.
func (idx *Index) NumRegions() int { return len(idx.members) }
