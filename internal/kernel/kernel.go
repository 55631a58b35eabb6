// Package kernel is the top-level orchestrator: it owns the single
// mutable simulation state and drives the synchronized tick-phase pipeline
// described in §2, wiring every module together. External commands (the
// driver) observe state only between calls to Step.
package kernel

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/talgya/sociokernel/internal/agents"
	"github.com/talgya/sociokernel/internal/agentstore"
	"github.com/talgya/sociokernel/internal/belief"
	"github.com/talgya/sociokernel/internal/config"
	"github.com/talgya/sociokernel/internal/culture"
	"github.com/talgya/sociokernel/internal/demography"
	"github.com/talgya/sociokernel/internal/economy"
	"github.com/talgya/sociokernel/internal/geography"
	"github.com/talgya/sociokernel/internal/health"
	"github.com/talgya/sociokernel/internal/language"
	"github.com/talgya/sociokernel/internal/metrics"
	"github.com/talgya/sociokernel/internal/migration"
	"github.com/talgya/sociokernel/internal/network"
	"github.com/talgya/sociokernel/internal/psychology"
	"github.com/talgya/sociokernel/internal/region"
)

// canonicalDialect assigns each language family a fixed reference dialect
// that generational shift blends toward (§4.8).
var canonicalDialect = [agents.NumLangFamilies]uint8{0, 3, 5, 8}

// Kernel owns the population, the region index, and every module's
// per-run state. It is not safe for concurrent use from multiple
// goroutines; parallelism happens only within a phase (§5).
type Kernel struct {
	cfg config.Config
	log *zap.Logger
	rng *rand.Rand

	pop     []agents.Agent
	regions []*region.Region
	idx     *region.Index
	trade   economy.AdjacencyGraph
	store   *agentstore.Store

	langCenters  language.FamilyCenters
	langAssigns  []language.RegionAssignment
	langTracker  *language.Tracker
	healthEngine *health.Engine
	psychEngine  *psychology.Engine

	generation uint64

	lastKMeans []culture.Cluster
	lastDBSCAN []culture.Cluster
}

// New validates cfg and builds a freshly initialized kernel (§4's Reset
// path / driver `reset` command).
func New(cfg config.Config, log *zap.Logger) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	k := &Kernel{cfg: cfg, log: log}
	k.reset()
	return k, nil
}

func (k *Kernel) reset() {
	cfg := k.cfg
	k.rng = rand.New(rand.NewSource(cfg.Seed))
	k.generation = 0

	profile, ok := economy.Resolve(cfg.StartCondition)
	if !ok {
		k.log.Warn("unknown start condition, falling back to baseline", zap.String("startCondition", cfg.StartCondition))
	}

	placements := geography.Place(cfg.Regions, cfg.Seed)
	k.regions = make([]*region.Region, cfg.Regions)
	for i := range k.regions {
		k.regions[i] = &region.Region{
			ID:        uint32(i),
			X:         placements[i].X,
			Y:         placements[i].Y,
			Climate:   placements[i].Climate,
			Fertility: placements[i].Fertility,
		}
	}
	economy.Initialize(k.regions, placements, profile, k.rng)

	tradeK := 6
	k.trade = economy.BuildAdjacency(k.regions, tradeK)

	k.pop = make([]agents.Agent, cfg.Population)
	k.idx = region.NewIndex(cfg.Regions)
	for i := range k.pop {
		a := &k.pop[i]
		*a = k.newFoundingAgent(agents.ID(i), profile)
		k.idx.Add(a.Region, a.ID)
	}

	network.BuildSmallWorld(k.pop, cfg.AvgConnections, cfg.RewireProb, k.rng)

	k.langCenters = language.JitterCenters(k.rng)
	k.langAssigns = language.AssignRegions(k.regions, k.langCenters)
	for i := range k.pop {
		a := &k.pop[i]
		language.AssignAgent(a, k.regions[a.Region], k.langAssigns[a.Region], k.rng)
	}
	k.langTracker = language.NewTracker(cfg.Regions)

	k.healthEngine = health.NewEngine(cfg.Seed)
	k.psychEngine = psychology.NewEngine(cfg.Seed)

	k.store = agentstore.New()

	k.refreshAggregates()
}

func (k *Kernel) newFoundingAgent(id agents.ID, profile economy.StartConditionProfile) agents.Agent {
	rng := k.rng
	a := agents.Agent{
		ID:        id,
		Region:    uint32(rng.Intn(len(k.regions))),
		Alive:     true,
		Age:       15 + rng.Intn(50),
		Sex:       randomSex(rng),
		ParentA:   agents.NoParent,
		ParentB:   agents.NoParent,
		LineageID: id,
		Fluency:   0.7,
		Traits: agents.Traits{
			Openness:      truncNormal01(rng, 0.5, 0.15),
			Conformity:    truncNormal01(rng, 0.5, 0.15),
			Assertiveness: truncNormal01(rng, 0.5, 0.15),
			Sociality:     truncNormal01(rng, 0.5, 0.15),
		},
		MComm:           1,
		MSusceptibility: 1,
		MMobility:       1,
		Wealth:          math.Exp(profile.WealthLogMean + rng.NormFloat64()*profile.WealthLogStd),
		Productivity:    agents.Clamp(profile.ProductivityMean+rng.NormFloat64()*profile.ProductivityStd, 0.2, 3.0),
	}
	a.LineageID = a.ID

	// Every 100th founding agent is a potential charismatic leader, seeded
	// with high assertiveness rather than the population's usual spread.
	if id%100 == 0 {
		a.Traits.Assertiveness = 0.8 + rng.Float64()*0.15
	}

	for d := 0; d < agents.NumBeliefDims; d++ {
		a.Belief.X[d] = rng.NormFloat64() * 0.3
	}
	a.Belief.Recompute(math.Tanh)

	a.Health = agents.HealthState{PhysicalHealth: 0.85, Nutrition: 0.75, Immunity: 0.4}
	a.Psych = agents.PsychState{Resilience: 0.5, MentalHealth: 0.6, CognitiveBias: 1.0}
	return a
}

func randomSex(rng *rand.Rand) agents.Sex {
	if rng.Float64() < 0.5 {
		return agents.Female
	}
	return agents.Male
}

func truncNormal01(rng *rand.Rand, mean, stddev float64) float64 {
	v := mean + rng.NormFloat64()*stddev
	return agents.Clamp01(v)
}

// refreshAggregates rebuilds region population and belief-sum aggregates
// from scratch (§4.6).
func (k *Kernel) refreshAggregates() {
	for _, r := range k.regions {
		r.Population = 0
		r.BeliefSum = [agents.NumBeliefDims]float64{}
	}
	for i := range k.pop {
		a := &k.pop[i]
		if !a.Alive {
			continue
		}
		r := k.regions[a.Region]
		r.Population++
		for d := 0; d < agents.NumBeliefDims; d++ {
			r.BeliefSum[d] += a.Belief.B[d]
		}
	}
}

func (k *Kernel) demographyContexts() []demography.RegionalContext {
	out := make([]demography.RegionalContext, len(k.regions))
	for i, r := range k.regions {
		out[i] = demography.RegionalContext{
			Development: r.Development,
			Welfare:     r.Welfare,
			Hardship:    r.Hardship,
			Tradition:   demography.RegionTradition(r.Centroid()),
			Population:  r.Population,
			Capacity:    k.cfg.RegionCapacity,
			AvgWealth:   r.AvgWealth,
		}
	}
	return out
}

func (k *Kernel) migrationContexts() []migration.RegionalContext {
	out := make([]migration.RegionalContext, len(k.regions))
	for i, r := range k.regions {
		out[i] = migration.RegionalContext{
			Welfare:     r.Welfare,
			Hardship:    r.Hardship,
			Development: r.Development,
			Population:  r.Population,
			Capacity:    k.cfg.RegionCapacity,
		}
	}
	return out
}

// Step advances the simulation by one tick, running the phase sequence
// from §2's control flow exactly.
func (k *Kernel) Step() {
	beliefParams := belief.Params{StepSize: k.cfg.StepSize, SimFloor: k.cfg.SimFloor}
	if k.cfg.UseMeanField {
		beliefParams.Mode = belief.Hybrid
	} else {
		beliefParams.Mode = belief.Pairwise
	}
	belief.Update(k.pop, k.idx, beliefParams, k.store, k.log)

	k.generation++

	if k.cfg.DemographyEnabled {
		demography.Tick(&k.pop, k.idx, k.demographyContexts(), k.generation, k.cfg.TicksPerYear, k.cfg.MaxAgeYears, k.rng, nil)
	}

	if k.cfg.DemographyEnabled && k.generation%uint64(migration.Interval) == 0 {
		migration.Run(k.pop, k.idx, k.migrationContexts(), k.rng)
	}

	if k.cfg.DemographyEnabled && k.generation%uint64(network.ReconnectionInterval) == 0 {
		network.Reconnect(k.pop, k.idx, k.rng)
	}

	if k.cfg.DemographyEnabled && k.generation%uint64(language.Interval) == 0 {
		k.langTracker.Step(k.pop, k.idx, canonicalDialect, k.rng)
	}

	if k.generation%10 == 0 {
		// Aggregates are always rebuilt from scratch here, which trivially
		// satisfies the "full rebuild at least every 100 ticks" bound
		// (§4.6) without a separate incremental path.
		k.refreshAggregates()
		economy.Update(k.pop, k.idx, k.regions, k.trade, k.cfg.TicksPerYear)
	}

	k.tickHealthAndPsychology()

	if k.generation%uint64(demography.CompactionInterval) == 0 {
		demography.Compact(k.pop, k.idx)
	}
}

func (k *Kernel) tickHealthAndPsychology() {
	healthSnaps := make([]health.RegionalSnapshot, len(k.regions))
	psychProfiles := make([]psychology.RegionalProfile, len(k.regions))
	for i, r := range k.regions {
		healthSnaps[i] = health.Snapshot(r)
		psychProfiles[i] = psychology.Profile(r)
	}
	k.healthEngine.Tick(k.pop, k.idx, healthSnaps)
	k.psychEngine.Tick(k.pop, k.idx, psychProfiles)
}

// Generation returns the current tick counter.
func (k *Kernel) Generation() uint64 { return k.generation }

// Population returns the live agent slice (read-only view for callers;
// callers must not mutate it outside the kernel's own phases).
func (k *Kernel) Population() []agents.Agent { return k.pop }

// Regions returns the region slice.
func (k *Kernel) Regions() []*region.Region { return k.regions }

// Index returns the region membership index.
func (k *Kernel) Index() *region.Index { return k.idx }

// Metrics returns polarization and population-weighted regional averages
// for the current state.
func (k *Kernel) Metrics() (metrics.Polarization, metrics.RegionalAverages) {
	return metrics.ComputePolarization(k.regions), metrics.ComputeRegionalAverages(k.regions)
}

// Stats returns the detailed statistics snapshot.
func (k *Kernel) Stats() metrics.Snapshot {
	return metrics.ComputeSnapshot(k.pop, k.regions)
}

// Classes returns the emergent wealth x sector buckets.
func (k *Kernel) Classes() []metrics.WealthClass {
	return metrics.ComputeWealthClasses(k.pop, k.idx, k.regions)
}

// KMeans runs k-means clustering over the current alive population and
// caches the result for `cultures` to re-print.
func (k *Kernel) KMeans(kClusters int) []culture.Cluster {
	members := culture.Snapshot(k.pop)
	k.lastKMeans = culture.KMeans(members, culture.KMeansParams{K: kClusters}, k.rng)
	k.lastDBSCAN = nil
	return k.lastKMeans
}

// DBSCAN runs density-based clustering over the current alive population
// and caches the result for `cultures` to re-print.
func (k *Kernel) DBSCAN(eps float64, minPts int) []culture.Cluster {
	members := culture.Snapshot(k.pop)
	k.lastDBSCAN = culture.DBSCAN(members, culture.DBSCANParams{Eps: eps, MinPts: minPts})
	k.lastKMeans = nil
	return k.lastDBSCAN
}

// LastClusters returns the result of the most recent KMeans or DBSCAN call,
// whichever ran last (nil before any clustering has run).
func (k *Kernel) LastClusters() []culture.Cluster {
	if k.lastKMeans != nil {
		return k.lastKMeans
	}
	return k.lastDBSCAN
}

// Reset re-initializes the kernel from a new configuration (the driver's
// `reset` command). The new configuration is validated first.
func (k *Kernel) Reset(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	k.cfg = cfg
	k.reset()
	return nil
}
