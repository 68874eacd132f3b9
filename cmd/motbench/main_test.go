package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motbench/internal/config"
	"github.com/banshee-data/motbench/internal/monitoring"
	"github.com/banshee-data/motbench/internal/mot/metrics"
	"github.com/banshee-data/motbench/internal/pipeline"
	"github.com/banshee-data/motbench/internal/report"
	"github.com/banshee-data/motbench/internal/storage/sqlite"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	color.NoColor = true
	os.Exit(m.Run())
}

func TestTrackerFlags(t *testing.T) {
	var tf trackerFlags
	require.NoError(t, tf.Set("SORT=results/sort.txt"))
	require.NoError(t, tf.Set(" ByteTrack = results/bt.txt "))
	assert.Equal(t, "SORT=results/sort.txt,ByteTrack=results/bt.txt", tf.String())
	assert.Equal(t, "ByteTrack", tf[1].Name)

	for _, bad := range []string{"", "SORT", "=path", "SORT="} {
		assert.Error(t, tf.Set(bad), "value %q", bad)
	}
	assert.Len(t, tf, 2)
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-gt", "gt.txt", "-tracker", "A=a.txt", "-tracker", "B=b.txt", "-solver", "greedy", "-no-progress"})
	require.NoError(t, err)
	assert.Equal(t, "gt.txt", opts.GroundTruth)
	assert.Len(t, opts.Trackers, 2)
	assert.True(t, opts.NoProgress)
	assert.True(t, opts.set["gt"])
	assert.False(t, opts.set["iou"])

	_, err = parseFlags([]string{"-tracker", "broken"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"extra"})
	assert.Error(t, err)
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ground_truth: file/gt.txt
solver: greedy
iou_floor: 0.6
trackers:
  - name: SORT
    path: file/sort.txt
`), 0644))

	opts, err := parseFlags([]string{"-config", path, "-iou", "0.7", "-json", "out.json"})
	require.NoError(t, err)
	cfg, err := buildConfig(opts)
	require.NoError(t, err)

	assert.Equal(t, "file/gt.txt", cfg.GetGroundTruth())
	assert.Equal(t, "greedy", cfg.GetSolver())
	assert.Equal(t, 0.7, cfg.GetIoUFloor())
	assert.Equal(t, "out.json", cfg.GetOutputJSON())
	require.Len(t, cfg.GetTrackers(), 1)
	assert.Equal(t, "SORT", cfg.GetTrackers()[0].Name)
}

func TestBuildConfig_Defaults(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	cfg, err := buildConfig(opts)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultGroundTruth, cfg.GetGroundTruth())
	assert.Equal(t, config.DefaultSolver, cfg.GetSolver())
	assert.Len(t, cfg.GetTrackers(), 4)
}

func TestBuildConfig_ZeroWorkersUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"workers": 2}`), 0644))

	opts, err := parseFlags([]string{"-config", path, "-workers", "0"})
	require.NoError(t, err)
	cfg, err := buildConfig(opts)
	require.NoError(t, err)
	assert.Nil(t, cfg.Workers)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.GetWorkers())

	opts, err = parseFlags([]string{"-workers", "3"})
	require.NoError(t, err)
	cfg, err = buildConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.GetWorkers())

	opts, err = parseFlags([]string{"-workers", "-1"})
	require.NoError(t, err)
	_, err = buildConfig(opts)
	assert.Error(t, err)
}

func TestBuildConfig_Invalid(t *testing.T) {
	opts, err := parseFlags([]string{"-iou", "1.5"})
	require.NoError(t, err)
	_, err = buildConfig(opts)
	assert.Error(t, err)

	opts, err = parseFlags([]string{"-tracker", "A=a.txt", "-tracker", "a=b.txt"})
	require.NoError(t, err)
	_, err = buildConfig(opts)
	assert.Error(t, err, "duplicate tracker names")
}

func TestPrintResults(t *testing.T) {
	rep := report.Assemble([]report.TrackerMetrics{
		{Name: "SORT", Summary: metrics.Summary{MOTA: 0.5, MOTP: 0.9}},
		{Name: "ByteTrack", Err: errors.New("missing file")},
	})
	var buf bytes.Buffer
	printResults(&buf, &pipeline.RunResult{Report: rep, Written: []string{"out.csv"}, HistoryRunID: "abc"})

	out := buf.String()
	assert.Contains(t, out, "=== Tracker Comparison ===")
	assert.Contains(t, out, "ByteTrack: evaluation failed: missing file")
	assert.Contains(t, out, "Wrote out.csv")
	assert.Contains(t, out, "Recorded run abc")
}

func TestRunHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	db, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	run := &sqlite.Run{GroundTruth: "data/gt.txt", IoUFloor: 0.5, Solver: "hungarian"}
	rep := report.Assemble([]report.TrackerMetrics{
		{Name: "SORT", Summary: metrics.Summary{MOTA: 0.5, MOTP: 0.9, NumSwitches: 3}},
		{Name: "ByteTrack", Err: errors.New("missing file")},
	})
	require.NoError(t, sqlite.NewHistoryStore(db.DB).InsertRun(run, rep))
	require.NoError(t, db.Close())

	var buf bytes.Buffer
	require.NoError(t, runHistory([]string{"-db", dbPath}, &buf))
	assert.Contains(t, buf.String(), run.RunID)
	assert.Contains(t, buf.String(), "hungarian")

	buf.Reset()
	require.NoError(t, runHistory([]string{"-db", dbPath, "-run", run.RunID}, &buf))
	out := buf.String()
	assert.Contains(t, out, "SORT")
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "ByteTrack: evaluation failed: missing file")

	assert.ErrorIs(t, runHistory([]string{"-db", dbPath, "-run", "nope"}, &buf), sqlite.ErrRunNotFound)
	assert.Error(t, runHistory(nil, &buf), "-db is required")

	absent := filepath.Join(t.TempDir(), "absent.db")
	assert.ErrorContains(t, runHistory([]string{"-db", absent}, &buf), "no history database")
	_, err = os.Stat(absent)
	assert.ErrorIs(t, err, os.ErrNotExist, "listing must not create the database")
}
