// Package network builds and maintains the agents' small-world social
// graph (§4.3): a Watts-Strogatz ring lattice with bounded-retry rewiring
// at initialization, and periodic local reconnection / isolated-agent
// repair thereafter.
package network

import (
	"math"
	"math/rand"
	"sort"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

// BuildSmallWorld constructs the initial ring-lattice-plus-rewiring graph
// over pop, with k rounded up to even and k/2 forward ring edges per node
// (so each node starts with k neighbors), and rewire probability p. Grounded on the reference kernel's
// buildSmallWorld(): ring lattice, bounded-retry rewire, final dedup and
// self-loop strip.
func BuildSmallWorld(pop []agents.Agent, k int, p float64, rng *rand.Rand) {
	n := len(pop)
	if n < 2 {
		return
	}
	if k%2 != 0 {
		k++
	}
	half := k / 2
	if half >= n {
		half = n - 1
	}

	for i := range pop {
		pop[i].Neighbors = pop[i].Neighbors[:0]
	}

	// Ring lattice: k/2 forward edges per node, reciprocal.
	for i := 0; i < n; i++ {
		for step := 1; step <= half; step++ {
			j := (i + step) % n
			connect(pop, agents.ID(i), agents.ID(j))
		}
	}

	// Bounded-retry rewiring of each forward ring edge.
	maxAttempts := n * 2
	for i := 0; i < n; i++ {
		for step := 1; step <= half; step++ {
			if rng.Float64() >= p {
				continue
			}
			j := (i + step) % n
			attempts := 0
			for attempts < maxAttempts {
				target := rng.Intn(n)
				attempts++
				if target == i || target == j {
					continue
				}
				if pop[i].HasNeighbor(agents.ID(target)) {
					continue
				}
				disconnect(pop, agents.ID(i), agents.ID(j))
				connect(pop, agents.ID(i), agents.ID(target))
				break
			}
		}
	}

	dedupAndStripSelfLoops(pop)
}

func connect(pop []agents.Agent, a, b agents.ID) {
	pop[a].AddNeighbor(b)
	pop[b].AddNeighbor(a)
}

func disconnect(pop []agents.Agent, a, b agents.ID) {
	pop[a].RemoveNeighbor(b)
	pop[b].RemoveNeighbor(a)
}

func dedupAndStripSelfLoops(pop []agents.Agent) {
	for i := range pop {
		seen := make(map[agents.ID]bool, len(pop[i].Neighbors))
		out := pop[i].Neighbors[:0]
		for _, n := range pop[i].Neighbors {
			if n == pop[i].ID || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
		pop[i].Neighbors = out
	}
}

// ReconnectionInterval is the tick cadence at which local reconnection
// runs (§4.3).
const ReconnectionInterval = 20

// MaxReconnectFraction bounds the share of the population reconnected in
// a single pass.
const MaxReconnectFraction = 0.01

// Reconnect repairs under-connected agents by sampling candidates from
// their own region and scoring them, per §4.3. rng must be the kernel's
// master RNG to preserve single-threaded determinism; candidate sampling
// and scoring noise use it directly (documented in §9 as not strictly
// bitwise-deterministic when parallelized).
func Reconnect(pop []agents.Agent, idx *region.Index, rng *rand.Rand) {
	n := len(pop)
	if n == 0 {
		return
	}
	budget := int(math.Ceil(MaxReconnectFraction * float64(n)))
	reconnected := 0

	for i := 0; i < n && reconnected < budget; i++ {
		a := &pop[i]
		if !a.Alive {
			continue
		}
		active := 0
		for _, nid := range a.Neighbors {
			if int(nid) < n && pop[nid].Alive && pop[nid].Region == a.Region {
				active++
			}
		}
		target := 2 + int(4*a.Traits.Sociality)
		if active >= target {
			continue
		}
		need := target - active

		candidates := sampleRegion(idx, a.Region, 50, rng)
		type scored struct {
			id    agents.ID
			score float64
		}
		var pool []scored
		for _, cid := range candidates {
			if cid == a.ID || a.HasNeighbor(cid) || int(cid) >= n {
				continue
			}
			c := &pop[cid]
			if !c.Alive {
				continue
			}
			sim := agents.CosineSim(&a.Belief, &c.Belief)
			sameLang := 0.0
			if a.Lang == c.Lang {
				sameLang = 1.0
			}
			ageGap := math.Abs(float64(a.Age - c.Age))
			score := 0.4*sim + 0.3*sameLang + 0.2/(1+ageGap/10) + 0.1*c.Traits.Sociality + 0.02*(rng.Float64()-0.5)
			pool = append(pool, scored{cid, score})
		}
		sort.Slice(pool, func(x, y int) bool { return pool[x].score > pool[y].score })

		added := 0
		for _, s := range pool {
			if added >= need || reconnected >= budget {
				break
			}
			if rng.Float64() < 0.3+0.5*s.score {
				connect(pop, a.ID, s.id)
				added++
				reconnected++
			}
		}
	}
}

func sampleRegion(idx *region.Index, r uint32, limit int, rng *rand.Rand) []agents.ID {
	members := idx.Members(r)
	if len(members) <= limit {
		return members
	}
	out := make([]agents.ID, len(members))
	copy(out, members)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:limit]
}
