// Package geography places regions on a normalized [0,1]^2 grid and biases
// their climate and endowments with coherent noise fields, generalizing the
// teacher's hex-terrain elevation/rainfall/temperature layers from a
// per-tile world map to a per-region economic grid.
package geography

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/sociokernel/internal/region"
)

// Placement holds the noise-derived geographic fields for one region,
// before endowment multipliers from the active start-condition profile are
// applied.
type Placement struct {
	X, Y      float64
	Climate   float64
	Fertility float64
}

// Place assigns normalized grid coordinates plus climate/fertility noise
// fields to n regions, deterministically from seed.
//
// Regions are laid out on a near-square grid and jittered, mirroring the
// teacher's grid-placement-with-jitter pattern (world/settlement_placer.go
// style) rather than pure uniform sampling, so that geographically close
// region ids tend to be spatially close too (useful for later nearest-
// neighbor trade-partner selection).
func Place(n int, seed int64) []Placement {
	out := make([]Placement, n)
	if n == 0 {
		return out
	}
	rng := rand.New(rand.NewSource(seed))
	climateNoise := opensimplex.NewNormalized(seed + 1)
	fertNoise := opensimplex.NewNormalized(seed + 2)

	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := int(math.Ceil(float64(n) / float64(cols)))
	cellW := 1.0 / float64(cols)
	cellH := 1.0 / float64(rows)

	for i := 0; i < n; i++ {
		col := i % cols
		row := i / cols
		jx := (rng.Float64() - 0.5) * cellW * 0.8
		jy := (rng.Float64() - 0.5) * cellH * 0.8
		x := clamp01((float64(col)+0.5)*cellW + jx)
		y := clamp01((float64(row)+0.5)*cellH + jy)

		climate := octaveNoise(climateNoise, x, y, 3, 2.5, 0.5)
		fert := octaveNoise(fertNoise, x, y, 3, 3.0, 0.5)

		out[i] = Placement{X: x, Y: y, Climate: climate, Fertility: fert}
	}
	return out
}

// Endowment derives the five-good per-capita endowment potential for a
// placement, before the active start-condition's multipliers are applied.
// Cold/arid regions (low climate) lean toward food and energy; warm,
// fertile regions lean toward tools and luxury; services is comparatively
// flat, per the demand-side geography rule in the economy engine's design.
func Endowment(p Placement, rng *rand.Rand) [region.NumGoods]float64 {
	var e [region.NumGoods]float64
	e[region.Food] = 0.4 + 0.6*p.Fertility + 0.3*(1-p.Climate)
	e[region.Energy] = 0.3 + 0.5*(1-p.Climate) + 0.2*rng.Float64()
	e[region.Tools] = 0.3 + 0.5*p.Climate*p.Fertility + 0.2*rng.Float64()
	e[region.Luxury] = 0.15 + 0.4*p.Climate + 0.2*rng.Float64()
	e[region.Services] = 0.2 + 0.3*rng.Float64()

	// Heavily skew: pick a primary good and boost it, a scarce good and
	// suppress it, matching §3's "one primary, one secondary, one-two
	// scarce" endowment shape.
	primary := region.Good(rng.Intn(region.NumGoods))
	scarce := region.Good(rng.Intn(region.NumGoods))
	for scarce == primary {
		scarce = region.Good(rng.Intn(region.NumGoods))
	}
	e[primary] *= 1.8
	e[scarce] *= 0.3
	return e
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if maxVal == 0 {
		return 0
	}
	return total / maxVal
}
