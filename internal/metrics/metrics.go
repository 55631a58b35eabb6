// Package metrics computes population- and region-level summary
// statistics: polarization, population-weighted welfare/inequality/
// hardship, and the detailed statistics snapshot (§4.12).
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/region"
)

// Polarization is the mean and standard deviation of pairwise Euclidean
// distances between non-empty region belief centroids.
type Polarization struct {
	Mean float64
	Std  float64
}

// ComputePolarization computes polarization over the given regions' belief
// centroids, skipping empty regions.
func ComputePolarization(regions []*region.Region) Polarization {
	var centroids [][agents.NumBeliefDims]float64
	for _, r := range regions {
		if r.Population > 0 {
			centroids = append(centroids, r.Centroid())
		}
	}
	n := len(centroids)
	if n < 2 {
		return Polarization{}
	}
	var distances []float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum := 0.0
			for d := 0; d < agents.NumBeliefDims; d++ {
				diff := centroids[i][d] - centroids[j][d]
				sum += diff * diff
			}
			distances = append(distances, math.Sqrt(sum))
		}
	}
	mean, std := stat.MeanStdDev(distances, nil)
	return Polarization{Mean: mean, Std: std}
}

// RegionalAverages is the population-weighted mean of welfare, inequality,
// and hardship across all regions.
type RegionalAverages struct {
	Welfare    float64
	Inequality float64
	Hardship   float64
}

// ComputeRegionalAverages computes population-weighted means over regions.
func ComputeRegionalAverages(regions []*region.Region) RegionalAverages {
	totalPop := 0
	var welfare, inequality, hardship float64
	for _, r := range regions {
		if r.Population <= 0 {
			continue
		}
		w := float64(r.Population)
		welfare += r.Welfare * w
		inequality += r.Inequality * w
		hardship += r.Hardship * w
		totalPop += r.Population
	}
	if totalPop == 0 {
		return RegionalAverages{}
	}
	pop := float64(totalPop)
	return RegionalAverages{Welfare: welfare / pop, Inequality: inequality / pop, Hardship: hardship / pop}
}

// AgeBucket counts agents in a coarse age band.
type AgeBucket struct {
	Label string
	Count int
}

// NetworkStats summarizes the social graph.
type NetworkStats struct {
	AvgDegree float64
	Isolated  int
}

// Snapshot is the detailed statistics view exposed by the driver's `stats`
// command (§6).
type Snapshot struct {
	Population      int
	AgeBuckets      [5]AgeBucket
	Female, Male    int
	Network         NetworkStats
	OccupiedRegions int
	MinRegionPop    int
	MaxRegionPop    int
	MeanRegionPop   float64
	LanguageCounts  [agents.NumLangFamilies]int
	AverageIncome   float64
}

// ComputeSnapshot builds the detailed statistics snapshot over the alive
// population and current regions.
func ComputeSnapshot(pop []agents.Agent, regions []*region.Region) Snapshot {
	var snap Snapshot
	snap.AgeBuckets = [5]AgeBucket{
		{Label: "0-14"}, {Label: "15-29"}, {Label: "30-49"}, {Label: "50-69"}, {Label: "70+"},
	}

	totalDegree := 0
	totalIncome := 0.0
	alive := 0
	for i := range pop {
		a := &pop[i]
		if !a.Alive {
			continue
		}
		alive++
		switch {
		case a.Age < 15:
			snap.AgeBuckets[0].Count++
		case a.Age < 30:
			snap.AgeBuckets[1].Count++
		case a.Age < 50:
			snap.AgeBuckets[2].Count++
		case a.Age < 70:
			snap.AgeBuckets[3].Count++
		default:
			snap.AgeBuckets[4].Count++
		}
		if a.Sex == agents.Female {
			snap.Female++
		} else {
			snap.Male++
		}
		degree := len(a.Neighbors)
		totalDegree += degree
		if degree == 0 {
			snap.Network.Isolated++
		}
		snap.LanguageCounts[a.Lang]++
		totalIncome += a.Income
	}
	snap.Population = alive
	if alive > 0 {
		snap.Network.AvgDegree = float64(totalDegree) / float64(alive)
		snap.AverageIncome = totalIncome / float64(alive)
	}

	minPop, maxPop := math.MaxInt32, 0
	sumPop := 0
	occupied := 0
	for _, r := range regions {
		if r.Population > 0 {
			occupied++
		}
		if r.Population < minPop {
			minPop = r.Population
		}
		if r.Population > maxPop {
			maxPop = r.Population
		}
		sumPop += r.Population
	}
	if len(regions) == 0 || occupied == 0 {
		minPop = 0
	}
	snap.OccupiedRegions = occupied
	snap.MinRegionPop = minPop
	snap.MaxRegionPop = maxPop
	if len(regions) > 0 {
		snap.MeanRegionPop = float64(sumPop) / float64(len(regions))
	}
	return snap
}

// WealthClass buckets agents into a wealth quartile within their region,
// crossed with the region's dominant production good, for the driver's
// `classes` command (§6).
type WealthClass struct {
	Quartile      int // 1 (poorest) .. 4 (richest)
	DominantGood  region.Good
	Count         int
}

// ComputeWealthClasses buckets alive agents by regional wealth quartile and
// their region's dominant production good.
func ComputeWealthClasses(pop []agents.Agent, idx *region.Index, regions []*region.Region) []WealthClass {
	counts := make(map[[2]int]int)
	for ri, r := range regions {
		members := idx.Members(uint32(ri))
		if len(members) == 0 {
			continue
		}
		wealth := make([]float64, 0, len(members))
		byID := make(map[agents.ID]float64, len(members))
		for _, id := range members {
			a := &pop[id]
			if !a.Alive {
				continue
			}
			wealth = append(wealth, a.Wealth)
			byID[id] = a.Wealth
		}
		if len(wealth) == 0 {
			continue
		}
		sorted := append([]float64(nil), wealth...)
		sort.Float64s(sorted)

		dominant := region.Good(0)
		for g := region.Good(1); g < region.NumGoods; g++ {
			if r.Production[g] > r.Production[dominant] {
				dominant = g
			}
		}

		for _, w := range byID {
			q := quartile(sorted, w)
			counts[[2]int{q, int(dominant)}]++
		}
	}
	out := make([]WealthClass, 0, len(counts))
	for key, count := range counts {
		out = append(out, WealthClass{Quartile: key[0], DominantGood: region.Good(key[1]), Count: count})
	}
	return out
}

func quartile(sortedAsc []float64, v float64) int {
	n := len(sortedAsc)
	if n == 0 {
		return 1
	}
	rank := 0
	for _, s := range sortedAsc {
		if s <= v {
			rank++
		}
	}
	frac := float64(rank) / float64(n)
	switch {
	case frac <= 0.25:
		return 1
	case frac <= 0.5:
		return 2
	case frac <= 0.75:
		return 3
	default:
		return 4
	}
}
