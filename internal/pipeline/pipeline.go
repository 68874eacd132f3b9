// Package pipeline is the evaluation entry point: it loads the ground
// truth once, evaluates every configured tracker against it on a bounded
// pool of workers and assembles the comparison report.
//
// A ground truth failure aborts the run. Any per-tracker failure becomes a
// report row whose status explains what went wrong.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/motbench/internal/config"
	"github.com/banshee-data/motbench/internal/fpslog"
	"github.com/banshee-data/motbench/internal/fsutil"
	"github.com/banshee-data/motbench/internal/monitoring"
	"github.com/banshee-data/motbench/internal/mot/accumulator"
	"github.com/banshee-data/motbench/internal/mot/boxset"
	"github.com/banshee-data/motbench/internal/mot/matching"
	"github.com/banshee-data/motbench/internal/mot/metrics"
	"github.com/banshee-data/motbench/internal/report"
	"github.com/banshee-data/motbench/internal/timeutil"
)

// TrackerError attaches the tracker name and file to a per-tracker
// failure.
type TrackerError struct {
	Tracker string
	Path    string
	Err     error
}

func (e *TrackerError) Error() string {
	return fmt.Sprintf("tracker %s (%s): %v", e.Tracker, e.Path, e.Err)
}

func (e *TrackerError) Unwrap() error {
	return e.Err
}

// Evaluator runs one configured evaluation.
type Evaluator struct {
	cfg  *config.EvalConfig
	fsys fsutil.FileSystem

	// OnTracker, when set, is called once per tracker as soon as its row is
	// ready. It runs on the worker goroutine and must be safe for
	// concurrent use.
	OnTracker func(report.TrackerMetrics)

	// Clock stamps the report and times each tracker.
	Clock timeutil.Clock
}

// NewEvaluator returns an Evaluator reading through fsys. cfg must have
// been validated.
func NewEvaluator(cfg *config.EvalConfig, fsys fsutil.FileSystem) *Evaluator {
	return &Evaluator{cfg: cfg, fsys: fsys, Clock: timeutil.RealClock{}}
}

// Evaluate is shorthand for NewEvaluator(cfg, fsys).Evaluate(ctx).
func Evaluate(ctx context.Context, cfg *config.EvalConfig, fsys fsutil.FileSystem) (*report.Report, error) {
	return NewEvaluator(cfg, fsys).Evaluate(ctx)
}

// Matcher builds the frame matcher described by the configuration.
func (e *Evaluator) Matcher() (*matching.Matcher, error) {
	solve, ok := matching.SolverByName(e.cfg.GetSolver())
	if !ok {
		return nil, fmt.Errorf("unknown solver %q", e.cfg.GetSolver())
	}
	return matching.NewMatcher(e.cfg.GetIoUFloor(), solve, e.cfg.GetPreserveMatches()), nil
}

// Evaluate loads the ground truth and evaluates every tracker. Rows keep
// the configured tracker order regardless of completion order.
func (e *Evaluator) Evaluate(ctx context.Context) (*report.Report, error) {
	m, err := e.Matcher()
	if err != nil {
		return nil, err
	}

	gtPath := e.cfg.GetGroundTruth()
	monitoring.Logf("loading ground truth %s", gtPath)
	gt, err := boxset.Load(e.fsys, gtPath)
	if err != nil {
		return nil, fmt.Errorf("ground truth: %w", err)
	}
	monitoring.Debugf("ground truth: %d boxes, %d frames, %d identities", gt.Len(), gt.NumFrames(), len(gt.Identities()))

	trackers := e.cfg.GetTrackers()
	rows := make([]report.TrackerMetrics, len(trackers))
	th := e.cfg.GetThresholds()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.GetWorkers())
	for i, src := range trackers {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := e.Clock.Now()
			rows[i] = EvaluateTracker(e.fsys, gt, src, m, th)
			monitoring.Debugf("%s evaluated in %v", src.Name, e.Clock.Since(start).Round(time.Millisecond))
			if e.OnTracker != nil {
				e.OnTracker(rows[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	rep := report.Assemble(rows)
	rep.Generated = e.Clock.Now().UTC()
	return rep, nil
}

// EvaluateTracker evaluates one tracker's results against gt. It never
// fails: load and evaluation errors are carried in the row's Err as a
// *TrackerError. The timing log is consulted either way.
func EvaluateTracker(fsys fsutil.FileSystem, gt *boxset.BoxSet, src config.TrackerSource, m *matching.Matcher, th metrics.Thresholds) report.TrackerMetrics {
	row := report.TrackerMetrics{Name: src.Name}
	if entry, ok := fpslog.Find(fsys, src.FPSLogPath(), src.Name); ok {
		row.Runtime, row.FPS, row.Frames = entry.Runtime, entry.FPS, entry.Frames
	}

	pred, err := boxset.Load(fsys, src.Path)
	if err != nil {
		row.Err = &TrackerError{Tracker: src.Name, Path: src.Path, Err: err}
		monitoring.Logf("%v", row.Err)
		return row
	}

	acc, err := accumulator.Accumulate(gt, pred, m)
	if err != nil {
		row.Err = &TrackerError{Tracker: src.Name, Path: src.Path, Err: err}
		monitoring.Logf("%v", row.Err)
		return row
	}
	row.Summary = metrics.Complete(metrics.Summarize(acc, th), pred)

	monitoring.Debugf("%s: %d frames, %d matches, %d switches, %d fragmentations",
		src.Name, row.Summary.NumFrames, row.Summary.NumMatches, row.Summary.NumSwitches,
		row.Summary.NumFragmentations)
	return row
}
