package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motbench/internal/config"
	"github.com/banshee-data/motbench/internal/fsutil"
	"github.com/banshee-data/motbench/internal/monitoring"
	"github.com/banshee-data/motbench/internal/mot/boxset"
	"github.com/banshee-data/motbench/internal/report"
	"github.com/banshee-data/motbench/internal/storage/sqlite"
	"github.com/banshee-data/motbench/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func ptr[T any](v T) *T { return &v }

const gtRecords = `0,1,0,0,10,10,1,1,1
1,1,1,0,10,10,1,1,1
2,1,2,0,10,10,1,1,1
0,2,50,50,10,10,1,1,1
1,2,51,50,10,10,1,1,1
`

// perfect copies the ground truth.
const perfectRecords = gtRecords

// switchy swaps the identity of object 1 at frame 1 and misses object 2.
const switchyRecords = `0,100,0,0,10,10,0.9,1,1
1,200,1,0,10,10,0.9,1,1
2,200,2,0,10,10,0.9,1,1
`

const fpsLog = `Perfect | time: 12.50s | FPS: 40.00 | Frames: 3
`

func stage(t *testing.T) (*fsutil.MemoryFileSystem, *config.EvalConfig) {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("data/gt.txt", gtRecords)
	fsys.AddFile("results/results_perfect.txt", perfectRecords)
	fsys.AddFile("results/results_switchy.txt", switchyRecords)
	fsys.AddFile("results/fps_log.txt", fpsLog)

	cfg := config.Empty()
	cfg.GroundTruth = ptr("data/gt.txt")
	cfg.Trackers = []config.TrackerSource{
		{Name: "Perfect", Path: "results/results_perfect.txt"},
		{Name: "Switchy", Path: "results/results_switchy.txt"},
	}
	cfg.OutputCSV = ptr("out/report.csv")
	require.NoError(t, cfg.Validate())
	return fsys, cfg
}

func TestEvaluate(t *testing.T) {
	fsys, cfg := stage(t)

	rep, err := Evaluate(context.Background(), cfg, fsys)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 2)

	perfect := rep.Rows[0]
	assert.Equal(t, "Perfect", perfect.Name)
	require.NoError(t, perfect.Err)
	assert.Equal(t, 1.0, perfect.Summary.MOTA)
	assert.InDelta(t, 1.0, perfect.Summary.MOTP, 1e-12)
	require.NotNil(t, perfect.Runtime)
	assert.Equal(t, 12.5, *perfect.Runtime)
	require.NotNil(t, perfect.Frames)
	assert.Equal(t, 3, *perfect.Frames)

	switchy := rep.Rows[1]
	assert.Equal(t, "Switchy", switchy.Name)
	require.NoError(t, switchy.Err)
	assert.Equal(t, 1, switchy.Summary.NumSwitches)
	assert.Equal(t, 2, switchy.Summary.NumMisses)
	// 5 gt boxes, 2 misses, 1 switch.
	assert.InDelta(t, 0.4, switchy.Summary.MOTA, 1e-12)
	assert.Nil(t, switchy.Runtime, "no timing record for this tracker")
}

func TestEvaluate_TrackerFailuresBecomeRows(t *testing.T) {
	fsys, cfg := stage(t)
	fsys.AddFile("results/results_broken.txt", "0,1,0,0,10,10,1,1,1\n1,x,0,0,10,10,1,1,1\n")
	cfg.Trackers = append(cfg.Trackers,
		config.TrackerSource{Name: "Missing", Path: "results/absent.txt"},
		config.TrackerSource{Name: "Broken", Path: "results/results_broken.txt"},
	)

	rep, err := Evaluate(context.Background(), cfg, fsys)
	require.NoError(t, err, "tracker failures do not abort the run")
	require.Len(t, rep.Rows, 4)
	assert.Equal(t, 2, rep.Failures())

	var te *TrackerError
	require.True(t, errors.As(rep.Rows[2].Err, &te))
	assert.Equal(t, "Missing", te.Tracker)
	var missing *boxset.MissingFileError
	assert.True(t, errors.As(rep.Rows[2].Err, &missing))

	var ife *boxset.InputFormatError
	require.True(t, errors.As(rep.Rows[3].Err, &ife))
	assert.Equal(t, 2, ife.Line)
	assert.Equal(t, "results/results_broken.txt", ife.Path)
	assert.True(t, strings.HasPrefix(rep.Rows[3].Status(), "evaluation failed: "))

	assert.NoError(t, rep.Rows[0].Err)
	assert.Equal(t, 1.0, rep.Rows[0].Summary.MOTA)
}

func TestEvaluate_GroundTruthFailureIsFatal(t *testing.T) {
	fsys, cfg := stage(t)
	cfg.GroundTruth = ptr("data/missing.txt")

	_, err := Evaluate(context.Background(), cfg, fsys)
	var missing *boxset.MissingFileError
	require.True(t, errors.As(err, &missing), "got %v", err)

	fsys.AddFile("data/bad.txt", "0,1,0,0,-5,10,1,1,1\n")
	cfg.GroundTruth = ptr("data/bad.txt")
	_, err = Evaluate(context.Background(), cfg, fsys)
	var ife *boxset.InputFormatError
	assert.True(t, errors.As(err, &ife), "got %v", err)
}

func TestEvaluate_WorkerCountDoesNotChangeResults(t *testing.T) {
	fsys, cfg := stage(t)
	for i := 0; i < 6; i++ {
		cfg.Trackers = append(cfg.Trackers, config.TrackerSource{
			Name: "Copy" + string(rune('A'+i)),
			Path: "results/results_switchy.txt",
		})
	}

	cfg.Workers = ptr(1)
	serial, err := Evaluate(context.Background(), cfg, fsys)
	require.NoError(t, err)

	cfg.Workers = ptr(4)
	parallel, err := Evaluate(context.Background(), cfg, fsys)
	require.NoError(t, err)

	assert.Equal(t, serial.String(), parallel.String())
}

func TestEvaluate_OnTrackerCallback(t *testing.T) {
	fsys, cfg := stage(t)

	var mu sync.Mutex
	var seen []string
	e := NewEvaluator(cfg, fsys)
	e.OnTracker = func(row report.TrackerMetrics) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, row.Name)
	}
	_, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Perfect", "Switchy"}, seen)
}

func TestEvaluate_Canceled(t *testing.T) {
	fsys, cfg := stage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Evaluate(ctx, cfg, fsys)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_WritesOutputs(t *testing.T) {
	fsys, cfg := stage(t)
	cfg.OutputJSON = ptr("out/json/report.json")
	cfg.OutputPlot = ptr("out/report.png")
	cfg.OutputHTML = ptr("out/report.html")
	cfg.HistoryDB = ptr(filepath.Join(t.TempDir(), "history.db"))

	res, err := Run(context.Background(), cfg, fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"out/report.csv", "out/json/report.json", "out/report.png", "out/report.html"}, res.Written)

	csvData, err := fsys.ReadFile("out/report.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Tracker,MOTA,MOTP"))
	assert.True(t, strings.HasPrefix(lines[1], "Perfect,1,1,"))

	assert.True(t, fsys.Exists("out/json"))

	require.NotEmpty(t, res.HistoryRunID)
	db, err := sqlite.Open(*cfg.HistoryDB)
	require.NoError(t, err)
	defer db.Close()
	results, err := sqlite.NewHistoryStore(db.DB).Results(res.HistoryRunID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Switchy", results[1].Tracker)
}

func TestRun_SkipsChartsWhenNothingEvaluated(t *testing.T) {
	fsys, cfg := stage(t)
	cfg.Trackers = []config.TrackerSource{{Name: "Missing", Path: "nowhere.txt"}}
	cfg.OutputPlot = ptr("out/report.png")

	res, err := Run(context.Background(), cfg, fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"out/report.csv"}, res.Written)
	assert.False(t, fsys.Exists("out/report.png"))
}

func TestRun_StampsReportAndHistoryWithClock(t *testing.T) {
	fsys, cfg := stage(t)
	cfg.HistoryDB = ptr(filepath.Join(t.TempDir(), "history.db"))
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	e := NewEvaluator(cfg, fsys)
	e.Clock = timeutil.NewMockClock(at)
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Report.Generated.Equal(at))

	db, err := sqlite.Open(*cfg.HistoryDB)
	require.NoError(t, err)
	defer db.Close()
	run, err := sqlite.NewHistoryStore(db.DB).GetRun(res.HistoryRunID)
	require.NoError(t, err)
	assert.True(t, run.Created().Equal(at), "got %v", run.Created())
	assert.Equal(t, 2, run.TrackerCount)
}
