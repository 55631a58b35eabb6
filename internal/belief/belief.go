// Package belief implements the per-tick update of agent belief vectors
// (§4.2): a hybrid neighbor+regional-field mode (normative) and a pairwise
// legacy mode, selected by configuration.
package belief

import (
	"math"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/agentstore"
	"github.com/talgya/sociokernel/internal/parallel"
	"github.com/talgya/sociokernel/internal/region"
	"go.uber.org/zap"
)

// FastTanh is a monotone, odd, [-1,1]-bounded rational approximation of
// tanh, grounded on the reference kernel's Padé-style approximant. The
// approximant is only accurate on [-3,3] and reaches exactly 1.0 at x=3;
// beyond that it overshoots past 1 (e.g. x=4 gives ~1.006), so inputs are
// clamped to ±3 before evaluation rather than left to the ±20 saturation
// bound a plain tanh would tolerate.
func FastTanh(x float64) float64 {
	if x > 3 {
		x = 3
	}
	if x < -3 {
		x = -3
	}
	x2 := x * x
	return x * (27.0 + x2) / (27.0 + 9.0*x2)
}

// RegionalField is the population-weighted mean belief vector for a region
// plus a field strength in [0,1] derived from its population.
type RegionalField struct {
	Mean     [agents.NumBeliefDims]float64
	Strength float64
}

// ComputeFields computes the regional field for every region from the
// current region index, matching the reference MeanField module's
// formula: strength = min(1, log(1+pop)/log(100)).
func ComputeFields(pop []agents.Agent, idx *region.Index) []RegionalField {
	n := idx.NumRegions()
	fields := make([]RegionalField, n)
	for r := 0; r < n; r++ {
		members := idx.Members(uint32(r))
		if len(members) == 0 {
			continue
		}
		var sum [agents.NumBeliefDims]float64
		count := 0
		for _, id := range members {
			a := &pop[id]
			if !a.Alive {
				continue
			}
			for d := 0; d < agents.NumBeliefDims; d++ {
				sum[d] += a.Belief.B[d]
			}
			count++
		}
		if count == 0 {
			continue
		}
		f := &fields[r]
		for d := 0; d < agents.NumBeliefDims; d++ {
			f.Mean[d] = sum[d] / float64(count)
		}
		f.Strength = math.Min(1.0, math.Log(1.0+float64(count))/math.Log(100.0))
	}
	return fields
}

// Mode selects the belief-update algorithm.
type Mode int

const (
	Hybrid Mode = iota
	Pairwise
)

// Params are the belief-update coefficients drawn from configuration.
type Params struct {
	Mode     Mode
	StepSize float64
	SimFloor float64
}

type delta struct {
	x [agents.NumBeliefDims]float64
}

// Update advances every alive agent's belief by one step, per the
// synchronous two-pass contract of §4.2: all deltas are computed from the
// current snapshot, then applied. store is the §4.1 SoA/CSR hot-field
// cache the hybrid mode's neighbor-influence pass reads through; it is
// refreshed from pop at the start of the call and the freshly computed
// beliefs are pushed back into it once the canonical writeback completes,
// which leaves its BeliefsDirty flag raised whether or not any belief
// changed this tick.
func Update(pop []agents.Agent, idx *region.Index, params Params, store *agentstore.Store, log *zap.Logger) {
	store.SyncFromCanonical(pop)
	view := store.View()

	fields := ComputeFields(pop, idx)
	deltas := make([]delta, len(pop))

	compute := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			a := &pop[i]
			if !a.Alive {
				continue
			}
			if int(a.Region) >= len(fields) {
				continue
			}
			switch params.Mode {
			case Hybrid:
				deltas[i].x = hybridDelta(view, i, a, &fields[a.Region], params)
			default:
				deltas[i].x = pairwiseDelta(pop, a, params)
			}
		}
	}
	parallel.Range(len(pop), compute)

	recovered := 0
	for i := range pop {
		a := &pop[i]
		if !a.Alive {
			continue
		}
		for d := 0; d < agents.NumBeliefDims; d++ {
			a.Belief.X[d] += deltas[i].x[d]
		}
		a.Belief.Recompute(FastTanh)
		if !finiteBelief(&a.Belief) {
			a.Belief.Reset()
			recovered++
		}
	}
	store.SyncToCanonical(pop)
	if recovered > 0 && log != nil {
		log.Warn("recovered non-finite belief state", zap.Int("count", recovered))
	}
}

func finiteBelief(b *agents.Belief) bool {
	if !isFinite(b.NormSq) {
		return false
	}
	for d := 0; d < agents.NumBeliefDims; d++ {
		if !isFinite(b.X[d]) || !isFinite(b.B[d]) {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// hybridDelta computes x[d] += r * tanh(influence[d] - B[d]) for one agent
// under the normative hybrid mode. The neighbor-influence pass reads
// exclusively through the §4.1 store view (CSR neighbor ids, SoA B/lang
// arrays) rather than dereferencing the canonical agent slice per edge.
func hybridDelta(view agentstore.View, i int, a *agents.Agent, field *RegionalField, params Params) [agents.NumBeliefDims]float64 {
	var sum [agents.NumBeliefDims]float64
	totalWeight := 0.0
	neighborCount := 0

	for _, nid := range view.Neighbors(i) {
		j := int(nid)
		if j >= view.N || !view.Alive[j] {
			continue
		}
		sim := cosineSimView(view, i, j)
		w := 1.0
		if view.Lang[i] == view.Lang[j] {
			w = 1.3
		}
		w *= 0.5 + sim/2.0
		for d := 0; d < agents.NumBeliefDims; d++ {
			sum[d] += w * view.B[d][j]
		}
		totalWeight += w
		neighborCount++
	}

	alpha := agents.Clamp(0.6-0.2*a.Traits.Conformity, 0.2, 0.8)
	if neighborCount < 2 {
		alpha = 0.2
	}

	var influence [agents.NumBeliefDims]float64
	for d := 0; d < agents.NumBeliefDims; d++ {
		var neighborTerm float64
		if totalWeight > 0 {
			neighborTerm = sum[d] / totalWeight
		} else {
			neighborTerm = field.Mean[d]
		}
		influence[d] = alpha*neighborTerm + (1-alpha)*field.Mean[d]
	}

	r := params.StepSize * a.MComm * a.MSusceptibility * (0.7 + 0.6*a.Traits.Openness)
	var dx [agents.NumBeliefDims]float64
	for d := 0; d < agents.NumBeliefDims; d++ {
		dx[d] = r * FastTanh(influence[d]-a.Belief.B[d])
	}
	return dx
}

// pairwiseDelta computes the legacy pairwise-mode update: a per-neighbor
// term gated by similarity and language quality, summed over neighbors.
func pairwiseDelta(pop []agents.Agent, a *agents.Agent, params Params) [agents.NumBeliefDims]float64 {
	var dx [agents.NumBeliefDims]float64
	for _, nid := range a.Neighbors {
		if int(nid) >= len(pop) {
			continue
		}
		n := &pop[nid]
		if !n.Alive {
			continue
		}
		gate := similarityGate(a, n, params.SimFloor)
		if gate <= 0 {
			continue
		}
		lq := languageQuality(a, n)
		mComm := (a.MComm + n.MComm) / 2.0
		coef := params.StepSize * gate * lq * mComm * a.MSusceptibility
		for d := 0; d < agents.NumBeliefDims; d++ {
			dx[d] += coef * FastTanh(n.Belief.B[d]-a.Belief.B[d])
		}
	}
	return dx
}

// cosineSimView is agents.CosineSim's near-zero-norm-returns-1 rule,
// evaluated directly from the store view's B arrays instead of a cached
// Belief.NormSq.
func cosineSimView(view agentstore.View, i, j int) float64 {
	normI, normJ, dot := 0.0, 0.0, 0.0
	for d := 0; d < agents.NumBeliefDims; d++ {
		bi := view.B[d][i]
		bj := view.B[d][j]
		normI += bi * bi
		normJ += bj * bj
		dot += bi * bj
	}
	if normI < 1e-9 || normJ < 1e-9 {
		return 1.0
	}
	return dot / math.Sqrt(normI*normJ)
}

func similarityGate(a, b *agents.Agent, simFloor float64) float64 {
	sim := agents.CosineSim(&a.Belief, &b.Belief)
	g := (sim - simFloor) / (1 - simFloor)
	if g < 0 {
		return 0
	}
	return g
}

func languageQuality(a, b *agents.Agent) float64 {
	if a.Lang == b.Lang {
		return (a.Fluency + b.Fluency) / 2.0
	}
	return 0.1
}
