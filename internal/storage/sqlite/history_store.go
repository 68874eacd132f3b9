package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/motbench/internal/report"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted evaluation invocation.
type Run struct {
	RunID        string          `json:"run_id"`
	CreatedAt    int64           `json:"created_at"` // unix nanoseconds
	GroundTruth  string          `json:"ground_truth"`
	IoUFloor     float64         `json:"iou_floor"`
	Solver       string          `json:"solver"`
	ConfigJSON   json.RawMessage `json:"config_json,omitempty"`
	TrackerCount int             `json:"tracker_count"`
	FailedCount  int             `json:"failed_count"`
}

// Created returns CreatedAt as a time.
func (r *Run) Created() time.Time {
	return time.Unix(0, r.CreatedAt).UTC()
}

// Result is one tracker row of a run, in report order.
type Result struct {
	RunID    string `json:"run_id"`
	Position int    `json:"position"`
	report.Row
}

// HistoryStore persists runs and their results.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a HistoryStore.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// InsertRun stores run and every row of rep in one transaction. RunID and
// CreatedAt are generated when empty; the counts are taken from rep.
func (s *HistoryStore) InsertRun(run *Run, rep *report.Report) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	run.TrackerCount = len(rep.Rows)
	run.FailedCount = rep.Failures()

	var configStr interface{}
	if len(run.ConfigJSON) > 0 {
		configStr = string(run.ConfigJSON)
	}

	rows := rep.Document().Trackers
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO evaluation_runs (
				run_id, created_at, ground_truth, iou_floor, solver,
				config_json, tracker_count, failed_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAt, run.GroundTruth, run.IoUFloor, run.Solver,
			configStr, run.TrackerCount, run.FailedCount,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for i, r := range rows {
			_, err = tx.Exec(`
				INSERT INTO evaluation_results (
					run_id, position, tracker, status,
					mota, motp, id_switches, fragmentations,
					mostly_tracked_pct, mostly_lost_pct, average_track_length, estimated_id_switches,
					runtime_s, fps,
					num_frames, num_objects, num_predictions, num_matches, num_misses, num_false_positives
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.RunID, i, r.Tracker, r.Status,
				floatArg(r.MOTA), floatArg(r.MOTP), intArg(r.IDSwitches), intArg(r.Fragmentations),
				floatArg(r.MostlyTrackedPct), floatArg(r.MostlyLostPct), floatArg(r.AverageTrackLength), intArg(r.EstimatedIDSwitches),
				floatArg(r.RuntimeSecs), floatArg(r.FPS),
				intArg(r.Frames), intArg(r.Objects), intArg(r.Predictions), intArg(r.Matches), intArg(r.Misses), intArg(r.FalsePositives),
			)
			if err != nil {
				return fmt.Errorf("insert result %s: %w", r.Tracker, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, created_at, ground_truth, iou_floor, solver, config_json, tracker_count, failed_count`

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *HistoryStore) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM evaluation_runs ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by id.
func (s *HistoryStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM evaluation_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// Results returns the tracker rows of a run in report order.
func (s *HistoryStore) Results(runID string) ([]*Result, error) {
	rows, err := s.db.Query(`
		SELECT run_id, position, tracker, status,
		       mota, motp, id_switches, fragmentations,
		       mostly_tracked_pct, mostly_lost_pct, average_track_length, estimated_id_switches,
		       runtime_s, fps,
		       num_frames, num_objects, num_predictions, num_matches, num_misses, num_false_positives
		FROM evaluation_results
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		var r Result
		err := rows.Scan(
			&r.RunID, &r.Position, &r.Tracker, &r.Status,
			&r.MOTA, &r.MOTP, &r.IDSwitches, &r.Fragmentations,
			&r.MostlyTrackedPct, &r.MostlyLostPct, &r.AverageTrackLength, &r.EstimatedIDSwitches,
			&r.RuntimeSecs, &r.FPS,
			&r.Frames, &r.Objects, &r.Predictions, &r.Matches, &r.Misses, &r.FalsePositives,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Delete removes a run and its results.
func (s *HistoryStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM evaluation_results WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("delete results: %w", err)
		}
		result, err := tx.Exec(`DELETE FROM evaluation_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return tx.Commit()
	})
}

// floatArg and intArg bind nil as NULL.
func floatArg(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intArg(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var configStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.CreatedAt, &r.GroundTruth, &r.IoUFloor, &r.Solver,
		&configStr, &r.TrackerCount, &r.FailedCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if configStr.Valid {
		r.ConfigJSON = json.RawMessage(configStr.String)
	}
	return &r, nil
}
