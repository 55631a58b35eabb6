package economy

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/talgya/sociokernel/internal/region"
)

// AdjacencyGraph is the region trade-partner graph: partners[r] lists the
// region ids r trades with (by effective distance), per §3's "Trade
// partners: ordered list of nearby region ids".
type AdjacencyGraph struct {
	Partners [][]uint32
}

// BuildAdjacency derives a k-nearest-neighbor trade-partner graph from
// region coordinates, symmetrized.
func BuildAdjacency(regions []*region.Region, k int) AdjacencyGraph {
	n := len(regions)
	g := AdjacencyGraph{Partners: make([][]uint32, n)}
	if n < 2 {
		return g
	}
	if k >= n {
		k = n - 1
	}
	type distPair struct {
		id   uint32
		dist float64
	}
	for i, ri := range regions {
		cands := make([]distPair, 0, n-1)
		for j, rj := range regions {
			if i == j {
				continue
			}
			dx, dy := ri.X-rj.X, ri.Y-rj.Y
			cands = append(cands, distPair{uint32(j), math.Hypot(dx, dy)})
		}
		// partial selection sort for the k nearest.
		for s := 0; s < k; s++ {
			minIdx := s
			for t := s + 1; t < len(cands); t++ {
				if cands[t].dist < cands[minIdx].dist {
					minIdx = t
				}
			}
			cands[s], cands[minIdx] = cands[minIdx], cands[s]
		}
		partners := make([]uint32, 0, k)
		for s := 0; s < k && s < len(cands); s++ {
			partners = append(partners, cands[s].id)
		}
		g.Partners[i] = partners
		regions[i].TradePartners = partners
	}
	// Symmetrize so the Laplacian is built on an undirected graph.
	for i := range g.Partners {
		for _, j := range g.Partners[i] {
			found := false
			for _, back := range g.Partners[j] {
				if back == uint32(i) {
					found = true
					break
				}
			}
			if !found {
				g.Partners[j] = append(g.Partners[j], uint32(i))
			}
		}
	}
	return g
}

// laplacian builds the combinatorial Laplacian (degree on diagonal, -1 on
// edges) of g as a dense gonum matrix.
func laplacian(g AdjacencyGraph) *mat.Dense {
	n := len(g.Partners)
	l := mat.NewDense(n, n, nil)
	for i, partners := range g.Partners {
		l.Set(i, i, float64(len(partners)))
		for _, j := range partners {
			l.Set(i, int(j), l.At(i, int(j))-1)
		}
	}
	return l
}

// Diffuse computes inter-region trade flows for one good via the
// Laplacian of the trade-partner graph, per §4.7 "Trade diffusion
// (matrix)": flow = -kappa * (L . s), surplus-clipped exports, global
// conservation correction, and per-region transport attenuation.
func Diffuse(regions []*region.Region, g AdjacencyGraph, good region.Good) {
	n := len(regions)
	if n == 0 {
		return
	}
	s := mat.NewVecDense(n, nil)
	for i, r := range regions {
		s.SetVec(i, r.Production[good]-r.Demand[good])
	}

	l := laplacian(g)
	flow := mat.NewVecDense(n, nil)
	flow.MulVec(l, s)
	for i := 0; i < n; i++ {
		flow.SetVec(i, -TradeDiffusionKappa*flow.AtVec(i))
	}

	// Clip exports (negative flow) to available surplus.
	for i, r := range regions {
		f := flow.AtVec(i)
		if f < 0 {
			surplus := math.Max(0, r.Production[good]-r.Demand[good])
			if -f > surplus {
				flow.SetVec(i, -surplus)
			}
		}
	}

	// Global conservation: subtract the mean residual.
	total := 0.0
	for i := 0; i < n; i++ {
		total += flow.AtVec(i)
	}
	if math.Abs(total) > 1e-6 {
		mean := total / float64(n)
		for i := 0; i < n; i++ {
			flow.SetVec(i, flow.AtVec(i)-mean)
		}
	}

	for i, r := range regions {
		degree := len(g.Partners[i])
		factor := math.Max(0.5, 1-0.02*math.Sqrt(float64(degree)))
		f := flow.AtVec(i) * factor
		r.TradeBalance[good] = f
	}
}
