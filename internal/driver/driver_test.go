package driver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/sociokernel/internal/config"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	cfg := config.Default()
	cfg.Population = 40
	cfg.Regions = 3
	cfg.AvgConnections = 4
	cfg.Seed = 1
	d, err := New(cfg, nil)
	require.NoError(t, err)
	return d
}

// chdirTemp runs the test from inside a scratch directory so that commands
// writing to the working directory (the CSV metrics log) don't pollute the
// module tree.
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestDispatch_EmptyAndCommentLinesProduceNoOutput(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Dispatch("")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = d.Dispatch("   ")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = d.Dispatch("# a comment")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDispatch_UnknownCommandIsAnError(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Dispatch("bogus")
	require.Error(t, err)
}

func TestDispatch_Quit_ReturnsSentinelError(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Dispatch("quit")
	require.Error(t, err)
	assert.True(t, IsQuit(err))
}

func TestDispatch_Step_AdvancesGenerationAndReturnsValidJSON(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Dispatch("step 3")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), d.Kernel.Generation())

	var snap snapshotView
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, uint64(3), snap.Generation)
	assert.NotEmpty(t, snap.Agents)
	for _, a := range snap.Agents {
		assert.Nil(t, a.Traits, "traits must be omitted unless requested")
	}
}

func TestDispatch_State_WithTraitsIncludesTraitView(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Dispatch("state traits")
	require.NoError(t, err)

	var snap snapshotView
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.NotEmpty(t, snap.Agents)
	assert.NotNil(t, snap.Agents[0].Traits)
}

func TestDispatch_Step_InvalidArgIsAnError(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Dispatch("step notanumber")
	require.Error(t, err)
}

func TestRound4_RoundsHalfAwayFromZero(t *testing.T) {
	assert.InDelta(t, 0.1235, round4(0.12345), 1e-12)
	assert.InDelta(t, -0.1235, round4(-0.12345), 1e-12)
	assert.InDelta(t, 0.1, round4(0.1), 1e-12)
}

func TestDispatch_Reset_ReinitializesKernel(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Dispatch("step 5")
	require.NoError(t, err)
	out, err := d.Dispatch("reset 20 2 4 0.1 baseline")
	require.NoError(t, err)
	assert.Equal(t, "kernel reset", out)
	assert.Equal(t, uint64(0), d.Kernel.Generation())
	assert.Len(t, d.Kernel.Population(), 20)
}

func TestDispatch_Run_LogsCSVRowsEveryInterval(t *testing.T) {
	chdirTemp(t)
	d := newTestDriver(t)
	_, err := d.Dispatch("run 10 5")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(".", "metrics.csv"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "gen,welfare,inequality,hardship,polarization_mean,polarization_std,openness,conformity")

	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 3, lines, "one header line plus two logged rows (gen 5 and gen 10)")
}

func TestDispatch_Run_MissingArgsIsAnError(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Dispatch("run 10")
	require.Error(t, err)
}

func TestDispatch_Cluster_KMeansRendersClusters(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Dispatch("cluster kmeans 2")
	require.NoError(t, err)
	assert.Contains(t, out, "cluster")
}

func TestDispatch_Cultures_BeforeAnyClusteringSaysSo(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Dispatch("cultures")
	require.NoError(t, err)
	assert.Equal(t, "no clustering has been run yet", out)
}

func TestDispatch_Cultures_AfterClusteringReplaysLastResult(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Dispatch("cluster dbscan 0.5 3")
	require.NoError(t, err)
	out, err := d.Dispatch("cultures")
	require.NoError(t, err)
	assert.NotEqual(t, "no clustering has been run yet", out)
}

func TestDispatch_Region_OutOfRangeIsAnError(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Dispatch("region 999")
	require.Error(t, err)
}

func TestDispatch_Region_InRangePrintsSummary(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Dispatch("region 0")
	require.NoError(t, err)
	assert.Contains(t, out, "region 0")
}

func TestDispatch_Classes_ListsBuckets(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Dispatch("step 1")
	require.NoError(t, err)
	out, err := d.Dispatch("classes")
	require.NoError(t, err)
	assert.Contains(t, out, "wealth x sector classes")
}

func TestDispatch_Help_ListsAllCommands(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Dispatch("help")
	require.NoError(t, err)
	assert.Equal(t, helpText, out)
}
