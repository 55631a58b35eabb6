// Package agentstore implements the structure-of-arrays hot-field cache
// described by §4.1: the belief engine's neighbor-influence pass touches
// only a handful of fields (B, susceptibility, fluency, primary language,
// alive) but does so once per edge of the social graph, so those fields
// and a CSR-encoded copy of the graph are mirrored into parallel arrays
// for cache-friendly, layout-agnostic reads. The canonical []agents.Agent
// slice the kernel owns remains the single source of truth; the store is
// a derived read cache that a backend (today, the CPU belief engine)
// consumes through a View.
package agentstore

import "github.com/talgya/sociokernel/internal/agents"

// Store mirrors the belief update's hot fields in SoA layout, plus a
// CSR-encoded neighbor graph (an offset and count per agent into a flat
// neighbor-id array). It tracks three dirty flags raised by
// SyncFromCanonical's element-wise compare, so a backend can skip
// recomputing derived structures (e.g. a rebuilt adjacency) when nothing
// relevant changed since the last sync.
type Store struct {
	n int

	b              [agents.NumBeliefDims][]float64
	susceptibility []float64
	fluency        []float64
	lang           []uint8
	alive          []bool

	neighborOffset []int32
	neighborCount  []int32
	neighborFlat   []agents.ID

	BeliefsDirty    bool
	PropertiesDirty bool
	GraphDirty      bool
}

// New returns an empty store. The first SyncFromCanonical call allocates
// it to size and raises all three dirty flags.
func New() *Store {
	return &Store{}
}

// View is the read-only descriptor a backend consumes; its slices alias
// the store's own arrays and must not be retained past the next Sync
// call.
type View struct {
	N              int
	B              [agents.NumBeliefDims][]float64
	Susceptibility []float64
	Fluency        []float64
	Lang           []uint8
	Alive          []bool
	neighborOffset []int32
	neighborCount  []int32
	neighborFlat   []agents.ID
}

// Neighbors returns agent i's neighbor ids, read out of the CSR-encoded
// flat array.
func (v View) Neighbors(i int) []agents.ID {
	off := v.neighborOffset[i]
	cnt := v.neighborCount[i]
	return v.neighborFlat[off : off+int32(cnt)]
}

// View snapshots the store's current arrays for a backend to read.
func (s *Store) View() View {
	return View{
		N:              s.n,
		B:              s.b,
		Susceptibility: s.susceptibility,
		Fluency:        s.fluency,
		Lang:           s.lang,
		Alive:          s.alive,
		neighborOffset: s.neighborOffset,
		neighborCount:  s.neighborCount,
		neighborFlat:   s.neighborFlat,
	}
}

// SyncFromCanonical copies belief, property, and graph fields from pop
// into the store's parallel arrays, raising the corresponding dirty flag
// only where a value actually differs from what the store already held
// (§4.1's element-wise compare contract). A change in population size
// forces a full reallocation and marks every flag dirty.
func (s *Store) SyncFromCanonical(pop []agents.Agent) {
	if len(pop) != s.n {
		s.resize(len(pop))
		s.BeliefsDirty = true
		s.PropertiesDirty = true
		s.GraphDirty = true
	} else {
		s.BeliefsDirty = false
		s.PropertiesDirty = false
	}

	for i := range pop {
		a := &pop[i]
		for d := 0; d < agents.NumBeliefDims; d++ {
			if s.b[d][i] != a.Belief.B[d] {
				s.b[d][i] = a.Belief.B[d]
				s.BeliefsDirty = true
			}
		}
		if s.susceptibility[i] != a.MSusceptibility {
			s.susceptibility[i] = a.MSusceptibility
			s.PropertiesDirty = true
		}
		if s.fluency[i] != a.Fluency {
			s.fluency[i] = a.Fluency
			s.PropertiesDirty = true
		}
		if s.lang[i] != uint8(a.Lang) {
			s.lang[i] = uint8(a.Lang)
			s.PropertiesDirty = true
		}
		if s.alive[i] != a.Alive {
			s.alive[i] = a.Alive
			s.PropertiesDirty = true
		}
	}

	if s.graphDiffers(pop) {
		s.rebuildGraph(pop)
		s.GraphDirty = true
	} else {
		s.GraphDirty = false
	}
}

// SyncToCanonical pushes pop's current per-agent Belief.B into the store's
// own SoA arrays and sets BeliefsDirty unconditionally. Like
// SyncFromCanonical's belief copy, it reads pop and writes the store; it
// never writes to pop. A backend that wrote new canonical beliefs after
// taking a View calls this so the store's cache reflects them immediately,
// instead of going stale until the next full SyncFromCanonical compare.
func (s *Store) SyncToCanonical(pop []agents.Agent) {
	if len(pop) != s.n {
		return
	}
	for i := range pop {
		a := &pop[i]
		for d := 0; d < agents.NumBeliefDims; d++ {
			s.b[d][i] = a.Belief.B[d]
		}
	}
	s.BeliefsDirty = true
}

func (s *Store) resize(n int) {
	s.n = n
	for d := 0; d < agents.NumBeliefDims; d++ {
		s.b[d] = make([]float64, n)
	}
	s.susceptibility = make([]float64, n)
	s.fluency = make([]float64, n)
	s.lang = make([]uint8, n)
	s.alive = make([]bool, n)
	s.neighborOffset = nil
	s.neighborCount = nil
	s.neighborFlat = nil
}

func (s *Store) graphDiffers(pop []agents.Agent) bool {
	if s.neighborOffset == nil {
		return true
	}
	for i := range pop {
		want := pop[i].Neighbors
		if int(s.neighborCount[i]) != len(want) {
			return true
		}
		off := s.neighborOffset[i]
		for k, id := range want {
			if s.neighborFlat[int(off)+k] != id {
				return true
			}
		}
	}
	return false
}

func (s *Store) rebuildGraph(pop []agents.Agent) {
	total := 0
	for i := range pop {
		total += len(pop[i].Neighbors)
	}
	offsets := make([]int32, len(pop))
	counts := make([]int32, len(pop))
	flat := make([]agents.ID, 0, total)
	for i := range pop {
		offsets[i] = int32(len(flat))
		counts[i] = int32(len(pop[i].Neighbors))
		flat = append(flat, pop[i].Neighbors...)
	}
	s.neighborOffset = offsets
	s.neighborCount = counts
	s.neighborFlat = flat
}
