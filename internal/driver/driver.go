// Package driver implements the interactive command-oriented interface
// consumed by the CLI: parsing whitespace-separated command lines,
// dispatching to the kernel, and rendering JSON/text/CSV output (§6). This
// package sits outside the specification's core; it is the described
// external interface, not one of the synchronized tick-phase modules.
package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/talgya/sociokernel/internal/config"
	"github.com/talgya/sociokernel/internal/culture"
	"github.com/talgya/sociokernel/internal/kernel"
)

// Driver holds the live kernel and the styles used to render text output.
type Driver struct {
	Kernel *kernel.Kernel
	log    *zap.Logger

	titleStyle lipgloss.Style
	labelStyle lipgloss.Style
	warnStyle  lipgloss.Style

	metricsLogPath string
}

// New builds a driver around a freshly initialized kernel.
func New(cfg config.Config, log *zap.Logger) (*Driver, error) {
	k, err := kernel.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Driver{
		Kernel:     k,
		log:        log,
		titleStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		labelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")),
		warnStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")),
	}, nil
}

// Dispatch parses and executes one command line, returning its text
// output. An empty line and a leading "#" produce no output.
func (d *Driver) Dispatch(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "step":
		return d.cmdStep(args)
	case "state":
		return d.cmdState(args)
	case "metrics":
		return d.cmdMetrics()
	case "stats":
		return d.cmdStats()
	case "reset":
		return d.cmdReset(args)
	case "run":
		return d.cmdRun(args)
	case "cluster":
		return d.cmdCluster(args)
	case "cultures":
		return d.cmdCultures()
	case "economy":
		return d.cmdEconomy()
	case "region":
		return d.cmdRegion(args)
	case "classes":
		return d.cmdClasses()
	case "help":
		return helpText, nil
	case "quit":
		return "", errQuit
	default:
		return "", fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

var errQuit = fmt.Errorf("quit")

// IsQuit reports whether err is the sentinel returned by the quit command.
func IsQuit(err error) bool { return err == errQuit }

func (d *Driver) cmdStep(args []string) (string, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("step: %w", err)
		}
		n = v
	}
	for i := 0; i < n; i++ {
		d.Kernel.Step()
	}
	return d.snapshotJSON(false)
}

func (d *Driver) cmdState(args []string) (string, error) {
	withTraits := len(args) > 0 && args[0] == "traits"
	return d.snapshotJSON(withTraits)
}

// agentView is the per-agent shape of the JSON snapshot (§6).
type agentView struct {
	ID      uint32    `json:"id"`
	Region  uint32    `json:"region"`
	Lang    uint8     `json:"lang"`
	Beliefs [4]float64 `json:"beliefs"`
	Traits  *traitView `json:"traits,omitempty"`
}

type traitView struct {
	Openness      float64 `json:"openness"`
	Conformity    float64 `json:"conformity"`
	Assertiveness float64 `json:"assertiveness"`
	Sociality     float64 `json:"sociality"`
}

type snapshotView struct {
	Generation uint64            `json:"generation"`
	Metrics    snapshotMetricsView `json:"metrics"`
	Agents     []agentView       `json:"agents"`
}

type snapshotMetricsView struct {
	PolarizationMean float64 `json:"polarizationMean"`
	PolarizationStd  float64 `json:"polarizationStd"`
	AvgOpenness      float64 `json:"avgOpenness"`
	AvgConformity    float64 `json:"avgConformity"`
}

func round4(v float64) float64 {
	return float64(int64(v*10000+sign(v)*0.5)) / 10000
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func (d *Driver) snapshotJSON(withTraits bool) (string, error) {
	pop := d.Kernel.Population()
	pol, _ := d.Kernel.Metrics()

	var sumOpen, sumConf float64
	alive := 0
	agentsOut := make([]agentView, 0, len(pop))
	for i := range pop {
		a := &pop[i]
		if !a.Alive {
			continue
		}
		alive++
		sumOpen += a.Traits.Openness
		sumConf += a.Traits.Conformity
		av := agentView{
			ID:     uint32(a.ID),
			Region: a.Region,
			Lang:   uint8(a.Lang),
		}
		for dIdx := 0; dIdx < 4; dIdx++ {
			av.Beliefs[dIdx] = round4(a.Belief.B[dIdx])
		}
		if withTraits {
			av.Traits = &traitView{
				Openness:      round4(a.Traits.Openness),
				Conformity:    round4(a.Traits.Conformity),
				Assertiveness: round4(a.Traits.Assertiveness),
				Sociality:     round4(a.Traits.Sociality),
			}
		}
		agentsOut = append(agentsOut, av)
	}
	avgOpen, avgConf := 0.0, 0.0
	if alive > 0 {
		avgOpen = sumOpen / float64(alive)
		avgConf = sumConf / float64(alive)
	}

	snap := snapshotView{
		Generation: d.Kernel.Generation(),
		Metrics: snapshotMetricsView{
			PolarizationMean: round4(pol.Mean),
			PolarizationStd:  round4(pol.Std),
			AvgOpenness:      round4(avgOpen),
			AvgConformity:    round4(avgConf),
		},
		Agents: agentsOut,
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Driver) cmdMetrics() (string, error) {
	pol, avgs := d.Kernel.Metrics()
	var sb strings.Builder
	sb.WriteString(d.titleStyle.Render("global metrics") + "\n")
	fmt.Fprintf(&sb, "%s %d\n", d.labelStyle.Render("generation:"), d.Kernel.Generation())
	fmt.Fprintf(&sb, "%s mean=%.4f std=%.4f\n", d.labelStyle.Render("polarization:"), pol.Mean, pol.Std)
	fmt.Fprintf(&sb, "%s %.4f\n", d.labelStyle.Render("welfare:"), avgs.Welfare)
	fmt.Fprintf(&sb, "%s %.4f\n", d.labelStyle.Render("inequality:"), avgs.Inequality)
	fmt.Fprintf(&sb, "%s %.4f\n", d.labelStyle.Render("hardship:"), avgs.Hardship)
	return sb.String(), nil
}

func (d *Driver) cmdStats() (string, error) {
	s := d.Kernel.Stats()
	var sb strings.Builder
	sb.WriteString(d.titleStyle.Render("detailed statistics") + "\n")
	fmt.Fprintf(&sb, "population: %d\n", s.Population)
	for _, b := range s.AgeBuckets {
		fmt.Fprintf(&sb, "  age %-6s %d\n", b.Label, b.Count)
	}
	fmt.Fprintf(&sb, "sex: female=%d male=%d\n", s.Female, s.Male)
	fmt.Fprintf(&sb, "network: avgDegree=%.2f isolated=%d\n", s.Network.AvgDegree, s.Network.Isolated)
	fmt.Fprintf(&sb, "regions: occupied=%d min=%d max=%d mean=%.1f\n", s.OccupiedRegions, s.MinRegionPop, s.MaxRegionPop, s.MeanRegionPop)
	for l, count := range s.LanguageCounts {
		fmt.Fprintf(&sb, "  lang %d: %d\n", l, count)
	}
	fmt.Fprintf(&sb, "avgIncome: %.4f\n", s.AverageIncome)
	return sb.String(), nil
}

func (d *Driver) cmdReset(args []string) (string, error) {
	cfg := config.Default()
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			cfg.Population = v
		}
	}
	if len(args) >= 2 {
		if v, err := strconv.Atoi(args[1]); err == nil {
			cfg.Regions = v
		}
	}
	if len(args) >= 3 {
		if v, err := strconv.Atoi(args[2]); err == nil {
			cfg.AvgConnections = v
		}
	}
	if len(args) >= 4 {
		if v, err := strconv.ParseFloat(args[3], 64); err == nil {
			cfg.RewireProb = v
		}
	}
	if len(args) >= 5 {
		cfg.StartCondition = args[4]
	}
	if err := d.Kernel.Reset(cfg); err != nil {
		return "", err
	}
	return "kernel reset", nil
}

func (d *Driver) cmdRun(args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("run: usage: run T log")
	}
	ticks, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("run: %w", err)
	}
	logEvery, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("run: %w", err)
	}
	if logEvery <= 0 {
		logEvery = 1
	}

	for t := 1; t <= ticks; t++ {
		d.Kernel.Step()
		if t%logEvery == 0 {
			if err := d.appendMetricsRow(); err != nil {
				return "", err
			}
		}
	}
	return fmt.Sprintf("ran %d ticks, logged every %d", ticks, logEvery), nil
}

// metricsRow is one CSV row (§6 "CSV metrics log").
type metricsRow struct {
	Gen                 uint64  `csv:"gen"`
	Welfare             float64 `csv:"welfare"`
	Inequality          float64 `csv:"inequality"`
	Hardship            float64 `csv:"hardship"`
	PolarizationMean    float64 `csv:"polarization_mean"`
	PolarizationStd     float64 `csv:"polarization_std"`
	Openness            float64 `csv:"openness"`
	Conformity          float64 `csv:"conformity"`
}

func (d *Driver) appendMetricsRow() error {
	path := d.metricsLogPath
	if path == "" {
		path = "metrics.csv"
	}
	pol, avgs := d.Kernel.Metrics()

	pop := d.Kernel.Population()
	var sumOpen, sumConf float64
	alive := 0
	for i := range pop {
		if pop[i].Alive {
			sumOpen += pop[i].Traits.Openness
			sumConf += pop[i].Traits.Conformity
			alive++
		}
	}
	avgOpen, avgConf := 0.0, 0.0
	if alive > 0 {
		avgOpen = sumOpen / float64(alive)
		avgConf = sumConf / float64(alive)
	}

	row := []metricsRow{{
		Gen:              d.Kernel.Generation(),
		Welfare:          avgs.Welfare,
		Inequality:       avgs.Inequality,
		Hardship:         avgs.Hardship,
		PolarizationMean: pol.Mean,
		PolarizationStd:  pol.Std,
		Openness:         avgOpen,
		Conformity:       avgConf,
	}}

	_, statErr := os.Stat(path)
	fresh := statErr != nil

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open metrics log: %w", err)
	}
	defer f.Close()

	if fresh {
		return gocsv.Marshal(row, f)
	}
	return gocsv.MarshalWithoutHeaders(row, f)
}

func (d *Driver) cmdCluster(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("cluster: usage: cluster kmeans K | dbscan eps minPts")
	}
	switch args[0] {
	case "kmeans":
		if len(args) < 2 {
			return "", fmt.Errorf("cluster kmeans: usage: cluster kmeans K")
		}
		kClusters, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("cluster kmeans: %w", err)
		}
		clusters := d.Kernel.KMeans(kClusters)
		return renderClusters(clusters), nil
	case "dbscan":
		if len(args) < 3 {
			return "", fmt.Errorf("cluster dbscan: usage: cluster dbscan eps minPts")
		}
		eps, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return "", fmt.Errorf("cluster dbscan: %w", err)
		}
		minPts, err := strconv.Atoi(args[2])
		if err != nil {
			return "", fmt.Errorf("cluster dbscan: %w", err)
		}
		clusters := d.Kernel.DBSCAN(eps, minPts)
		return renderClusters(clusters), nil
	default:
		return "", fmt.Errorf("cluster: unknown mode %q", args[0])
	}
}

func (d *Driver) cmdCultures() (string, error) {
	clusters := d.Kernel.LastClusters()
	if clusters == nil {
		return "no clustering has been run yet", nil
	}
	return renderClusters(clusters), nil
}

func renderClusters(clusters []culture.Cluster) string {
	var sb strings.Builder
	for _, c := range clusters {
		fmt.Fprintf(&sb, "cluster %d: n=%d coherence=%.3f dominantLang=%d homogeneity=%.3f\n",
			c.ID, len(c.Members), c.Coherence, c.DominantLanguage, c.LinguisticHomogeneity)
		for _, r := range c.TopRegions {
			fmt.Fprintf(&sb, "  region %d: %.1f%%\n", r.Region, r.Share*100)
		}
	}
	return sb.String()
}

func (d *Driver) cmdEconomy() (string, error) {
	_, avgs := d.Kernel.Metrics()
	var sb strings.Builder
	sb.WriteString(d.titleStyle.Render("global economy") + "\n")
	fmt.Fprintf(&sb, "welfare=%.4f inequality=%.4f hardship=%.4f\n", avgs.Welfare, avgs.Inequality, avgs.Hardship)
	return sb.String(), nil
}

func (d *Driver) cmdRegion(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("region: usage: region R")
	}
	rid, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("region: %w", err)
	}
	regions := d.Kernel.Regions()
	if rid < 0 || rid >= len(regions) {
		return "", fmt.Errorf("region: %d out of range", rid)
	}
	r := regions[rid]
	var sb strings.Builder
	fmt.Fprintf(&sb, "region %d: pop=%d system=%s development=%.2f welfare=%.4f hardship=%.4f inequality=%.4f\n",
		rid, r.Population, r.System.Current, r.Development, r.Welfare, r.Hardship, r.Inequality)
	return sb.String(), nil
}

func (d *Driver) cmdClasses() (string, error) {
	classes := d.Kernel.Classes()
	var sb strings.Builder
	sb.WriteString(d.titleStyle.Render("wealth x sector classes") + "\n")
	for _, c := range classes {
		fmt.Fprintf(&sb, "quartile=%d good=%d count=%d\n", c.Quartile, c.DominantGood, c.Count)
	}
	return sb.String(), nil
}

const helpText = `commands:
  step [N]                 run N ticks (default 1), print JSON snapshot
  state [traits]            print current JSON snapshot
  metrics                   global metrics
  stats                     detailed statistics
  reset [N R k p profile]   re-init kernel
  run T log                 run T ticks, log every "log" ticks to CSV
  cluster kmeans K          run k-means with K clusters
  cluster dbscan eps minPts run DBSCAN
  cultures                  re-print the last clustering result
  economy                   global economy summary
  region R                  one region's economy
  classes                   emergent wealth x sector buckets
  quit                      exit
  help                      this text
`
