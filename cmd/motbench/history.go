package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/banshee-data/motbench/internal/fsutil"
	"github.com/banshee-data/motbench/internal/report"
	"github.com/banshee-data/motbench/internal/storage/sqlite"
)

// runHistory implements `motbench history`: list recorded runs, or show
// the rows of one run.
func runHistory(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	dbPath := fs.String("db", "", "History database (required)")
	limit := fs.Int("limit", 20, "Maximum number of runs to list (0 for all)")
	runID := fs.String("run", "", "Show the results of this run")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *dbPath == "" {
		return errors.New("-db is required")
	}
	// Opening would create an empty database.
	fsys := fsutil.OSFileSystem{}
	if !fsys.Exists(*dbPath) {
		return fmt.Errorf("no history database at %s", *dbPath)
	}

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	store := sqlite.NewHistoryStore(db.DB)

	if *runID != "" {
		return showRun(w, store, *runID)
	}
	return listRuns(w, store, *limit)
}

func listRuns(w io.Writer, store *sqlite.HistoryStore, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tGROUND TRUTH\tIOU\tSOLVER\tTRACKERS\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%d\t%d\n",
			r.RunID, r.Created().Local().Format(time.DateTime), r.GroundTruth,
			r.IoUFloor, r.Solver, r.TrackerCount, r.FailedCount)
	}
	return tw.Flush()
}

func showRun(w io.Writer, store *sqlite.HistoryStore, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	results, err := store.Results(runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %s (%s)\n", run.RunID, run.Created().Local().Format(time.DateTime))
	fmt.Fprintf(w, "Ground truth %s, IoU floor %.2f, solver %s\n\n", run.GroundTruth, run.IoUFloor, run.Solver)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Tracker\tMOTA\tMOTP\tID Switches\tFragmentations\tMT (%)\tML (%)\tRuntime (s)\tFPS")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Tracker, fmtFloat(r.MOTA), fmtFloat(r.MOTP), fmtInt(r.IDSwitches), fmtInt(r.Fragmentations),
			fmtFloat(r.MostlyTrackedPct), fmtFloat(r.MostlyLostPct), fmtFloat(r.RuntimeSecs), fmtFloat(r.FPS))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	red := color.New(color.FgRed)
	for _, r := range results {
		if r.Status != report.StatusOK {
			red.Fprintf(w, "%s: %s\n", r.Tracker, r.Status)
		}
	}
	return nil
}

func fmtFloat(v *float64) string {
	if v == nil {
		return report.NA
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func fmtInt(v *int) string {
	if v == nil {
		return report.NA
	}
	return strconv.Itoa(*v)
}
