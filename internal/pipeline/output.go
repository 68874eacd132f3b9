package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/motbench/internal/config"
	"github.com/banshee-data/motbench/internal/fsutil"
	"github.com/banshee-data/motbench/internal/monitoring"
	"github.com/banshee-data/motbench/internal/report"
	"github.com/banshee-data/motbench/internal/storage/sqlite"
)

// RunResult is what Run produced.
type RunResult struct {
	Report *report.Report

	// Written lists the output files in the order they were written.
	Written []string

	// HistoryRunID is set when the run was recorded in the history db.
	HistoryRunID string
}

// Run evaluates and then writes every configured output. Output failures
// are returned; the report is still returned alongside them when the
// evaluation itself succeeded.
func (e *Evaluator) Run(ctx context.Context) (*RunResult, error) {
	rep, err := e.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	res := &RunResult{Report: rep}

	outputs := []struct {
		path  string
		chart bool
		write func(io.Writer) error
	}{
		{e.cfg.GetOutputCSV(), false, rep.WriteCSV},
		{e.cfg.GetOutputJSON(), false, rep.WriteJSON},
		{e.cfg.GetOutputPlot(), true, rep.WritePlot},
		{e.cfg.GetOutputHTML(), true, rep.WriteHTML},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if out.chart && rep.Failures() == len(rep.Rows) {
			monitoring.Logf("skipping %s: no tracker was evaluated", out.path)
			continue
		}
		if err := writeFile(e.fsys, out.path, out.write); err != nil {
			return res, err
		}
		res.Written = append(res.Written, out.path)
	}

	if dbPath := e.cfg.GetHistoryDB(); dbPath != "" {
		id, err := e.record(dbPath, rep)
		if err != nil {
			return res, fmt.Errorf("record history: %w", err)
		}
		res.HistoryRunID = id
	}
	return res, nil
}

// Run is shorthand for NewEvaluator(cfg, fsys).Run(ctx).
func Run(ctx context.Context, cfg *config.EvalConfig, fsys fsutil.FileSystem) (*RunResult, error) {
	return NewEvaluator(cfg, fsys).Run(ctx)
}

func (e *Evaluator) record(dbPath string, rep *report.Report) (string, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	cfgJSON, err := json.Marshal(e.cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	run := &sqlite.Run{
		CreatedAt:   rep.Generated.UnixNano(),
		GroundTruth: e.cfg.GetGroundTruth(),
		IoUFloor:    e.cfg.GetIoUFloor(),
		Solver:      e.cfg.GetSolver(),
		ConfigJSON:  cfgJSON,
	}
	if err := sqlite.NewHistoryStore(db.DB).InsertRun(run, rep); err != nil {
		return "", err
	}
	monitoring.Logf("recorded run %s in %s", run.RunID, dbPath)
	return run.RunID, nil
}

// writeFile creates path's directory and writes the file through fsys.
func writeFile(fsys fsutil.FileSystem, path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	monitoring.Debugf("wrote %s", path)
	return nil
}
