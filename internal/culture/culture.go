// Package culture implements k-means++ and DBSCAN clustering over the
// population's 4-D belief space, plus cluster enrichment and cluster-level
// metrics (§4.11).
package culture

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/talgya/sociokernel/internal/agents"
)

// Member is a snapshotted belief vector plus the identity the caller needs
// to enrich clusters afterward. Clustering is transient and owned by the
// caller (§3 Lifecycles).
type Member struct {
	ID     agents.ID
	B      [agents.NumBeliefDims]float64
	Lang   agents.LangFamily
	Dialect uint8
	Region uint32
}

// Snapshot builds the clustering input from the current alive population.
func Snapshot(pop []agents.Agent) []Member {
	out := make([]Member, 0, len(pop))
	for i := range pop {
		a := &pop[i]
		if !a.Alive {
			continue
		}
		out = append(out, Member{ID: a.ID, B: a.Belief.B, Lang: a.Lang, Dialect: a.Dialect, Region: a.Region})
	}
	return out
}

func sqDist(a, b [agents.NumBeliefDims]float64) float64 {
	sum := 0.0
	for d := 0; d < agents.NumBeliefDims; d++ {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}

// Cluster is an enriched k-means or DBSCAN cluster.
type Cluster struct {
	ID                    int
	Centroid              [agents.NumBeliefDims]float64
	Members               []agents.ID
	Coherence             float64
	LanguageShares        [agents.NumLangFamilies]float64
	DominantLanguage      agents.LangFamily
	DominantDialect       uint8
	LinguisticHomogeneity float64
	TopRegions            []RegionShare
}

// RegionShare is a region's share of a cluster's population.
type RegionShare struct {
	Region uint32
	Share  float64
}

// KMeansParams configures the k-means run.
type KMeansParams struct {
	K         int
	MaxIter   int
	Tolerance float64
}

// KMeans clusters members into k clusters via k-means++ initialization and
// Lloyd's algorithm, returning enriched clusters.
func KMeans(members []Member, params KMeansParams, rng *rand.Rand) []Cluster {
	n := len(members)
	if n == 0 || params.K <= 0 {
		return nil
	}
	k := params.K
	if k > n {
		k = n
	}
	centroids := kMeansPlusPlusInit(members, k, rng)

	assignment := make([]int, n)
	prevInertia := math.Inf(1)
	maxIter := params.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	tol := params.Tolerance
	if tol <= 0 {
		tol = 1e-4
	}

	for iter := 0; iter < maxIter; iter++ {
		inertia := 0.0
		for i, m := range members {
			best, bestDist := 0, math.Inf(1)
			for c, cen := range centroids {
				d := sqDist(m.B, cen)
				if d < bestDist {
					bestDist = d
					best = c
				}
			}
			assignment[i] = best
			inertia += bestDist
		}

		var sums [][agents.NumBeliefDims]float64 = make([][agents.NumBeliefDims]float64, k)
		counts := make([]int, k)
		for i, m := range members {
			c := assignment[i]
			counts[c]++
			for d := 0; d < agents.NumBeliefDims; d++ {
				sums[c][d] += m.B[d]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Empty cluster: reseed from a random member.
				centroids[c] = members[rng.Intn(n)].B
				continue
			}
			for d := 0; d < agents.NumBeliefDims; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if math.Abs(prevInertia-inertia) < tol {
			break
		}
		prevInertia = inertia
	}

	return enrich(members, assignment, centroids, k)
}

func kMeansPlusPlusInit(members []Member, k int, rng *rand.Rand) [][agents.NumBeliefDims]float64 {
	n := len(members)
	centroids := make([][agents.NumBeliefDims]float64, 0, k)
	first := members[rng.Intn(n)].B
	centroids = append(centroids, first)

	distSq := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, m := range members {
			best := math.Inf(1)
			for _, c := range centroids {
				d := sqDist(m.B, c)
				if d < best {
					best = d
				}
			}
			distSq[i] = best
			total += best
		}
		if total <= 0 {
			centroids = append(centroids, members[rng.Intn(n)].B)
			continue
		}
		target := rng.Float64() * total
		cum := 0.0
		chosen := n - 1
		for i, d := range distSq {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, members[chosen].B)
	}
	return centroids
}

func enrich(members []Member, assignment []int, centroids [][agents.NumBeliefDims]float64, k int) []Cluster {
	clusters := make([]Cluster, k)
	for c := range clusters {
		clusters[c] = Cluster{ID: c, Centroid: centroids[c]}
	}
	for i, m := range members {
		c := assignment[i]
		clusters[c].Members = append(clusters[c].Members, m.ID)
	}

	byCluster := make([][]Member, k)
	for i, m := range members {
		c := assignment[i]
		byCluster[c] = append(byCluster[c], m)
	}

	for c := range clusters {
		enrichCluster(&clusters[c], byCluster[c])
	}
	return clusters
}

func enrichCluster(cl *Cluster, members []Member) {
	n := len(members)
	if n == 0 {
		return
	}
	varSum := 0.0
	var langCount [agents.NumLangFamilies]int
	dialectCount := make(map[agents.LangFamily]map[uint8]int)
	regionCount := make(map[uint32]int)

	for _, m := range members {
		varSum += sqDist(m.B, cl.Centroid)
		langCount[m.Lang]++
		if dialectCount[m.Lang] == nil {
			dialectCount[m.Lang] = make(map[uint8]int)
		}
		dialectCount[m.Lang][m.Dialect]++
		regionCount[m.Region]++
	}

	meanVar := varSum / float64(n)
	cl.Coherence = agents.Clamp01(1 - meanVar)

	sumSq := 0.0
	best, bestCount := agents.LangFamily(0), -1
	for f := 0; f < agents.NumLangFamilies; f++ {
		share := float64(langCount[f]) / float64(n)
		cl.LanguageShares[f] = share
		sumSq += share * share
		if langCount[f] > bestCount {
			bestCount = langCount[f]
			best = agents.LangFamily(f)
		}
	}
	cl.DominantLanguage = best
	cl.LinguisticHomogeneity = agents.Clamp01((sumSq - 0.25) / 0.75)

	bestDialect, bestDialectCount := uint8(0), -1
	for d, count := range dialectCount[best] {
		if count > bestDialectCount {
			bestDialectCount = count
			bestDialect = d
		}
	}
	cl.DominantDialect = bestDialect

	shares := make([]RegionShare, 0, len(regionCount))
	for r, count := range regionCount {
		shares = append(shares, RegionShare{Region: r, Share: float64(count) / float64(n)})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Share > shares[j].Share })
	if len(shares) > 5 {
		shares = shares[:5]
	}
	cl.TopRegions = shares
}

// DBSCANParams configures a density-based clustering pass.
type DBSCANParams struct {
	Eps    float64
	MinPts int
}

// noiseLabel marks a point that belongs to no cluster.
const noiseLabel = -1

// DBSCAN clusters members by density, labeling outliers -1, and returns
// enriched clusters (noise excluded).
func DBSCAN(members []Member, params DBSCANParams) []Cluster {
	n := len(members)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -2 // unvisited
	}
	epsSq := params.Eps * params.Eps

	regionQuery := func(i int) []int {
		var neighbors []int
		for j := 0; j < n; j++ {
			if sqDist(members[i].B, members[j].B) <= epsSq {
				neighbors = append(neighbors, j)
			}
		}
		return neighbors
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != -2 {
			continue
		}
		neighbors := regionQuery(i)
		if len(neighbors) < params.MinPts {
			labels[i] = noiseLabel
			continue
		}
		labels[i] = clusterID
		seeds := append([]int{}, neighbors...)
		for si := 0; si < len(seeds); si++ {
			j := seeds[si]
			if labels[j] == noiseLabel {
				labels[j] = clusterID
			}
			if labels[j] != -2 {
				continue
			}
			labels[j] = clusterID
			jNeighbors := regionQuery(j)
			if len(jNeighbors) >= params.MinPts {
				seeds = append(seeds, jNeighbors...)
			}
		}
		clusterID++
	}

	byCluster := make([][]Member, clusterID)
	for i, m := range members {
		if labels[i] == noiseLabel {
			continue
		}
		byCluster[labels[i]] = append(byCluster[labels[i]], m)
	}

	clusters := make([]Cluster, 0, clusterID)
	for c, ms := range byCluster {
		if len(ms) == 0 {
			continue
		}
		var centroid [agents.NumBeliefDims]float64
		for _, m := range ms {
			for d := 0; d < agents.NumBeliefDims; d++ {
				centroid[d] += m.B[d]
			}
		}
		for d := 0; d < agents.NumBeliefDims; d++ {
			centroid[d] /= float64(len(ms))
		}
		cl := Cluster{ID: c, Centroid: centroid}
		for _, m := range ms {
			cl.Members = append(cl.Members, m.ID)
		}
		enrichCluster(&cl, ms)
		clusters = append(clusters, cl)
	}
	return clusters
}

// LevelMetrics summarizes an entire clustering result (§4.11 "cluster-level
// metrics").
type LevelMetrics struct {
	WithinVariance  float64
	BetweenVariance float64
	Silhouette      float64
	ShannonDiversity float64
}

// ComputeLevelMetrics computes cross-cluster metrics for a clustering
// result over the original members.
func ComputeLevelMetrics(clusters []Cluster, members []Member) LevelMetrics {
	if len(clusters) == 0 || len(members) == 0 {
		return LevelMetrics{}
	}
	byID := make(map[agents.ID][agents.NumBeliefDims]float64, len(members))
	for _, m := range members {
		byID[m.ID] = m.B
	}

	var globalMean [agents.NumBeliefDims]float64
	for _, m := range members {
		for d := 0; d < agents.NumBeliefDims; d++ {
			globalMean[d] += m.B[d]
		}
	}
	for d := 0; d < agents.NumBeliefDims; d++ {
		globalMean[d] /= float64(len(members))
	}

	totalN := 0
	withinSum := 0.0
	betweenSum := 0.0
	sizes := make([]float64, len(clusters))
	for ci, cl := range clusters {
		n := len(cl.Members)
		if n == 0 {
			continue
		}
		sizes[ci] = float64(n)
		totalN += n
		for _, id := range cl.Members {
			b := byID[id]
			withinSum += sqDist(b, cl.Centroid)
		}
		betweenSum += float64(n) * sqDist(cl.Centroid, globalMean)
	}
	within := 0.0
	between := 0.0
	if totalN > 0 {
		within = withinSum / float64(totalN)
		between = betweenSum / float64(totalN)
	}

	denom := math.Max(within, between)
	silhouette := 0.0
	if denom > 0 {
		silhouette = (between - within) / denom
	}

	shares := make([]float64, len(sizes))
	for i, s := range sizes {
		if totalN > 0 {
			shares[i] = s / float64(totalN)
		}
	}
	diversity := stat.Entropy(shares)

	return LevelMetrics{
		WithinVariance:  within,
		BetweenVariance: between,
		Silhouette:      silhouette,
		ShannonDiversity: diversity,
	}
}
