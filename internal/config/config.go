package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/banshee-data/motbench/internal/fpslog"
	"github.com/banshee-data/motbench/internal/fsutil"
	"github.com/banshee-data/motbench/internal/mot/matching"
	"github.com/banshee-data/motbench/internal/mot/metrics"
)

// Defaults used when a field is not set.
const (
	DefaultGroundTruth   = "data/gt.txt"
	DefaultResultsDir    = "results_1"
	DefaultOutputCSV     = "evaluation_results_1/tracker_comparison.csv"
	DefaultSolver        = "hungarian"
	DefaultMostlyTracked = 0.8
	DefaultMostlyLost    = 0.2
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TrackerSource names one tracker's result file. FPSLog overrides the
// default fps_log.txt beside Path.
type TrackerSource struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	FPSLog string `json:"fps_log,omitempty" yaml:"fps_log,omitempty"`
}

// FPSLogPath returns where this tracker's timing record is read from.
func (t TrackerSource) FPSLogPath() string {
	if t.FPSLog != "" {
		return t.FPSLog
	}
	return fpslog.PathFor(t.Path)
}

// EvalConfig is the evaluation run configuration. Nil fields fall back to
// the defaults returned by the Get* methods, so partial files are safe.
type EvalConfig struct {
	GroundTruth *string         `json:"ground_truth,omitempty" yaml:"ground_truth,omitempty"`
	Trackers    []TrackerSource `json:"trackers,omitempty" yaml:"trackers,omitempty"`

	// Matching
	IoUFloor        *float64 `json:"iou_floor,omitempty" yaml:"iou_floor,omitempty"`
	Solver          *string  `json:"solver,omitempty" yaml:"solver,omitempty"` // "hungarian" or "greedy"
	PreserveMatches *bool    `json:"preserve_matches,omitempty" yaml:"preserve_matches,omitempty"`

	// Track completeness
	MostlyTracked *float64 `json:"mostly_tracked,omitempty" yaml:"mostly_tracked,omitempty"`
	MostlyLost    *float64 `json:"mostly_lost,omitempty" yaml:"mostly_lost,omitempty"`

	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Outputs. Empty optional paths disable that output.
	OutputCSV  *string `json:"output_csv,omitempty" yaml:"output_csv,omitempty"`
	OutputJSON *string `json:"output_json,omitempty" yaml:"output_json,omitempty"`
	OutputPlot *string `json:"output_plot,omitempty" yaml:"output_plot,omitempty"`
	OutputHTML *string `json:"output_html,omitempty" yaml:"output_html,omitempty"`
	HistoryDB  *string `json:"history_db,omitempty" yaml:"history_db,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Empty returns an EvalConfig with every field unset.
func Empty() *EvalConfig {
	return &EvalConfig{}
}

// Default returns a fully populated configuration matching the layout the
// tracker runners produce.
func Default() *EvalConfig {
	return &EvalConfig{
		GroundTruth:     ptrString(DefaultGroundTruth),
		Trackers:        DefaultTrackers(DefaultResultsDir),
		IoUFloor:        ptrFloat64(matching.DefaultIoUFloor),
		Solver:          ptrString(DefaultSolver),
		PreserveMatches: ptrBool(true),
		MostlyTracked:   ptrFloat64(DefaultMostlyTracked),
		MostlyLost:      ptrFloat64(DefaultMostlyLost),
		Workers:         ptrInt(runtime.GOMAXPROCS(0)),
		OutputCSV:       ptrString(DefaultOutputCSV),
	}
}

// DefaultTrackers is the standard roster of tracker result files in dir.
func DefaultTrackers(dir string) []TrackerSource {
	return []TrackerSource{
		{Name: "DeepSORT", Path: filepath.Join(dir, "results_deepsort.txt")},
		{Name: "BOTSort", Path: filepath.Join(dir, "results_botsort.txt")},
		{Name: "ByteTrack", Path: filepath.Join(dir, "results_bytetrack.txt")},
		{Name: "SORT", Path: filepath.Join(dir, "results_sort.txt")},
	}
}

// Load reads an EvalConfig from a .json, .yaml or .yml file of at most
// 1MB and validates it.
func Load(path string) (*EvalConfig, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS is Load reading through fsys.
func LoadFS(fsys fsutil.FileSystem, path string) (*EvalConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.UnmarshalStrict(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *EvalConfig) Validate() error {
	if c.GroundTruth != nil && strings.TrimSpace(*c.GroundTruth) == "" {
		return fmt.Errorf("ground_truth must not be empty")
	}

	seen := make(map[string]bool, len(c.Trackers))
	for i, t := range c.Trackers {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("trackers[%d]: name is required", i)
		}
		if strings.TrimSpace(t.Path) == "" {
			return fmt.Errorf("tracker %q: path is required", t.Name)
		}
		key := strings.ToLower(t.Name)
		if seen[key] {
			return fmt.Errorf("tracker %q listed more than once", t.Name)
		}
		seen[key] = true
	}

	if c.IoUFloor != nil {
		if *c.IoUFloor <= 0 || *c.IoUFloor > 1 {
			return fmt.Errorf("iou_floor must be in (0, 1], got %f", *c.IoUFloor)
		}
	}
	if c.Solver != nil {
		if _, ok := matching.SolverByName(*c.Solver); !ok {
			return fmt.Errorf("unknown solver %q (want hungarian or greedy)", *c.Solver)
		}
	}

	mt, ml := c.GetMostlyTracked(), c.GetMostlyLost()
	if mt < 0 || mt > 1 {
		return fmt.Errorf("mostly_tracked must be between 0 and 1, got %f", mt)
	}
	if ml < 0 || ml > 1 {
		return fmt.Errorf("mostly_lost must be between 0 and 1, got %f", ml)
	}
	if ml >= mt {
		return fmt.Errorf("mostly_lost (%f) must be below mostly_tracked (%f)", ml, mt)
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// GetGroundTruth returns the ground truth path.
func (c *EvalConfig) GetGroundTruth() string {
	if c.GroundTruth == nil {
		return DefaultGroundTruth
	}
	return *c.GroundTruth
}

// GetTrackers returns the configured trackers or the default roster.
func (c *EvalConfig) GetTrackers() []TrackerSource {
	if len(c.Trackers) == 0 {
		return DefaultTrackers(DefaultResultsDir)
	}
	return c.Trackers
}

func (c *EvalConfig) GetIoUFloor() float64 {
	if c.IoUFloor == nil {
		return matching.DefaultIoUFloor
	}
	return *c.IoUFloor
}

func (c *EvalConfig) GetSolver() string {
	if c.Solver == nil || *c.Solver == "" {
		return DefaultSolver
	}
	return *c.Solver
}

func (c *EvalConfig) GetPreserveMatches() bool {
	if c.PreserveMatches == nil {
		return true
	}
	return *c.PreserveMatches
}

func (c *EvalConfig) GetMostlyTracked() float64 {
	if c.MostlyTracked == nil {
		return DefaultMostlyTracked
	}
	return *c.MostlyTracked
}

func (c *EvalConfig) GetMostlyLost() float64 {
	if c.MostlyLost == nil {
		return DefaultMostlyLost
	}
	return *c.MostlyLost
}

// GetThresholds bundles the track completeness thresholds.
func (c *EvalConfig) GetThresholds() metrics.Thresholds {
	return metrics.Thresholds{MostlyTracked: c.GetMostlyTracked(), MostlyLost: c.GetMostlyLost()}
}

// GetWorkers defaults to GOMAXPROCS.
func (c *EvalConfig) GetWorkers() int {
	if c.Workers == nil {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

func (c *EvalConfig) GetOutputCSV() string {
	if c.OutputCSV == nil {
		return DefaultOutputCSV
	}
	return *c.OutputCSV
}

func (c *EvalConfig) GetOutputJSON() string { return deref(c.OutputJSON) }
func (c *EvalConfig) GetOutputPlot() string { return deref(c.OutputPlot) }
func (c *EvalConfig) GetOutputHTML() string { return deref(c.OutputHTML) }
func (c *EvalConfig) GetHistoryDB() string  { return deref(c.HistoryDB) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
