// Command motbench compares multi-object-tracking results against ground
// truth and reports MOTA, MOTP, identity switches, fragmentations and track
// completeness for each tracker.
//
// Usage:
//
//	motbench [flags]                 evaluate the configured trackers
//	motbench history -db runs.db     list recorded runs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"

	"github.com/banshee-data/motbench/internal/config"
	"github.com/banshee-data/motbench/internal/fsutil"
	"github.com/banshee-data/motbench/internal/monitoring"
	"github.com/banshee-data/motbench/internal/pipeline"
	"github.com/banshee-data/motbench/internal/report"
	"github.com/banshee-data/motbench/internal/version"
)

// trackerFlags collects repeated -tracker name=path values.
type trackerFlags []config.TrackerSource

func (t *trackerFlags) String() string {
	parts := make([]string, len(*t))
	for i, s := range *t {
		parts[i] = s.Name + "=" + s.Path
	}
	return strings.Join(parts, ",")
}

func (t *trackerFlags) Set(v string) error {
	name, path, ok := strings.Cut(v, "=")
	name, path = strings.TrimSpace(name), strings.TrimSpace(path)
	if !ok || name == "" || path == "" {
		return fmt.Errorf("want name=path, got %q", v)
	}
	*t = append(*t, config.TrackerSource{Name: name, Path: path})
	return nil
}

// Options holds the parsed command line.
type Options struct {
	ConfigPath  string
	GroundTruth string
	Trackers    trackerFlags
	IoUFloor    float64
	Solver      string
	Workers     int
	OutputCSV   string
	OutputJSON  string
	OutputPlot  string
	OutputHTML  string
	HistoryDB   string
	Verbose     bool
	Version     bool
	NoProgress  bool

	// set records which flags were given explicitly.
	set map[string]bool
}

func parseFlags(args []string) (*Options, error) {
	opts := &Options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("motbench", flag.ContinueOnError)

	fs.StringVar(&opts.ConfigPath, "config", "", "Evaluation config file (.json, .yaml or .yml)")
	fs.StringVar(&opts.GroundTruth, "gt", config.DefaultGroundTruth, "Ground truth records")
	fs.Var(&opts.Trackers, "tracker", "Tracker results as name=path (repeatable)")
	fs.Float64Var(&opts.IoUFloor, "iou", 0.5, "Minimum IoU for a match")
	fs.StringVar(&opts.Solver, "solver", config.DefaultSolver, "Assignment solver: hungarian or greedy")
	fs.IntVar(&opts.Workers, "workers", 0, "Trackers evaluated in parallel (0 uses GOMAXPROCS)")
	fs.StringVar(&opts.OutputCSV, "csv", config.DefaultOutputCSV, "CSV report path")
	fs.StringVar(&opts.OutputJSON, "json", "", "JSON report path")
	fs.StringVar(&opts.OutputPlot, "plot", "", "PNG chart path")
	fs.StringVar(&opts.OutputHTML, "html", "", "HTML chart path")
	fs.StringVar(&opts.HistoryDB, "history", "", "SQLite database to record the run in")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.Version, "version", false, "Print version and exit")
	fs.BoolVar(&opts.NoProgress, "no-progress", false, "Disable the progress bar")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// buildConfig loads the config file, if any, and applies explicit flags
// on top of it.
func buildConfig(opts *Options) (*config.EvalConfig, error) {
	cfg := config.Empty()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	str := func(name, v string, dst **string) {
		if opts.set[name] {
			*dst = &v
		}
	}
	str("gt", opts.GroundTruth, &cfg.GroundTruth)
	str("solver", opts.Solver, &cfg.Solver)
	str("csv", opts.OutputCSV, &cfg.OutputCSV)
	str("json", opts.OutputJSON, &cfg.OutputJSON)
	str("plot", opts.OutputPlot, &cfg.OutputPlot)
	str("html", opts.OutputHTML, &cfg.OutputHTML)
	str("history", opts.HistoryDB, &cfg.HistoryDB)

	if opts.set["iou"] {
		v := opts.IoUFloor
		cfg.IoUFloor = &v
	}
	if opts.set["workers"] {
		if opts.Workers == 0 {
			cfg.Workers = nil
		} else {
			v := opts.Workers
			cfg.Workers = &v
		}
	}
	if len(opts.Trackers) > 0 {
		cfg.Trackers = opts.Trackers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "history" {
		if err := runHistory(os.Args[2:], os.Stdout); err != nil {
			log.Fatalf("history: %v", err)
		}
		return
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("%v", err)
	}
	if opts.Version {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(opts.Verbose)

	cfg, err := buildConfig(opts)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	evaluator := pipeline.NewEvaluator(cfg, fsutil.OSFileSystem{})
	if !opts.NoProgress {
		bar := newProgressBar(len(cfg.GetTrackers()))
		evaluator.OnTracker = func(row report.TrackerMetrics) {
			bar.Describe(fmt.Sprintf("[cyan][eval][reset] %s", row.Name))
			_ = bar.Add(1)
		}
		defer bar.Finish()
	}

	res, err := evaluator.Run(ctx)
	if res == nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	printResults(os.Stdout, res)
	if err != nil {
		log.Fatalf("Output failed: %v", err)
	}
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan][eval][reset] trackers"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func printResults(w io.Writer, res *pipeline.RunResult) {
	rep := res.Report
	fmt.Fprintln(w, "\n=== Tracker Comparison ===")
	if err := rep.Render(w); err != nil {
		log.Printf("render: %v", err)
	}

	if failed := rep.Failures(); failed > 0 {
		red := color.New(color.FgRed)
		fmt.Fprintln(w)
		for _, m := range rep.Rows {
			if m.Failed() {
				red.Fprintf(w, "%s: %s\n", m.Name, m.Status())
			}
		}
	}

	colorstring.Fprintf(w, "\nEvaluated [green]%d[reset] trackers, [red]%d[reset] failed\n",
		len(rep.Rows)-rep.Failures(), rep.Failures())
	for _, p := range res.Written {
		fmt.Fprintf(w, "Wrote %s\n", p)
	}
	if res.HistoryRunID != "" {
		fmt.Fprintf(w, "Recorded run %s\n", res.HistoryRunID)
	}
}
