// Package metrics reduces an accumulator's history into the CLEAR-MOT
// summary (MOTA, MOTP, switches, fragmentations, mostly tracked/lost) and
// computes two statistics taken from the predictions alone.
//
// Undefined values (MOTP with no matches, MOTA with no ground truth) are
// NaN; callers render them as "not available".
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/motbench/internal/mot/accumulator"
)

// Thresholds classify ground truth objects by tracked ratio.
type Thresholds struct {
	MostlyTracked float64 // ratio >= this is mostly tracked
	MostlyLost    float64 // ratio <= this is mostly lost
}

// DefaultThresholds are 80% tracked and 20% lost.
var DefaultThresholds = Thresholds{MostlyTracked: 0.8, MostlyLost: 0.2}

// Summary holds the reduced metrics for one tracker.
type Summary struct {
	MOTA              float64 `json:"mota"`
	MOTP              float64 `json:"motp"`
	NumSwitches       int     `json:"num_switches"`
	NumFragmentations int     `json:"num_fragmentations"`

	MostlyTrackedPct    float64 `json:"mostly_tracked_pct"`
	PartiallyTrackedPct float64 `json:"partially_tracked_pct"`
	MostlyLostPct       float64 `json:"mostly_lost_pct"`
	MostlyTracked       int     `json:"mostly_tracked"`
	PartiallyTracked    int     `json:"partially_tracked"`
	MostlyLost          int     `json:"mostly_lost"`

	NumFrames         int `json:"num_frames"`
	NumObjects        int `json:"num_objects"`
	NumUniqueObjects  int `json:"num_unique_objects"`
	NumPredictions    int `json:"num_predictions"`
	NumMatches        int `json:"num_matches"`
	NumMisses         int `json:"num_misses"`
	NumFalsePositives int `json:"num_false_positives"`

	// Computed from the predictions only.
	AverageTrackLength  float64 `json:"average_track_length"`
	EstimatedIDSwitches int     `json:"estimated_id_switches"`
}

// HasMOTP reports whether MOTP is defined.
func (s Summary) HasMOTP() bool {
	return !math.IsNaN(s.MOTP)
}

// Summarize reduces acc. The prediction-only fields are left zero; see
// AverageTrackLength and EstimateIDSwitches.
func Summarize(acc *accumulator.Accumulator, th Thresholds) Summary {
	c := acc.Counts()
	s := Summary{
		NumSwitches:       c.Switches,
		NumFragmentations: c.Fragmentations,
		NumFrames:         c.Frames,
		NumObjects:        c.Objects,
		NumUniqueObjects:  c.UniqueObjects,
		NumPredictions:    c.Predictions,
		NumMatches:        c.Matches,
		NumMisses:         c.Misses,
		NumFalsePositives: c.FalsePositives,
	}

	s.MOTA = MOTA(c.Misses, c.FalsePositives, c.Switches, c.Objects)
	s.MOTP = MOTP(acc.MatchOverlaps())

	for _, o := range acc.Objects() {
		ratio := float64(o.Matched) / float64(o.Lifespan())
		switch {
		case ratio >= th.MostlyTracked:
			s.MostlyTracked++
		case ratio <= th.MostlyLost:
			s.MostlyLost++
		default:
			s.PartiallyTracked++
		}
	}
	s.MostlyTrackedPct = percent(s.MostlyTracked, c.UniqueObjects)
	s.PartiallyTrackedPct = percent(s.PartiallyTracked, c.UniqueObjects)
	s.MostlyLostPct = percent(s.MostlyLost, c.UniqueObjects)
	return s
}

// MOTA is 1 - (misses + false positives + switches) / ground truth boxes.
// It is NaN when there is no ground truth.
func MOTA(misses, falsePositives, switches, objects int) float64 {
	if objects == 0 {
		return math.NaN()
	}
	return 1 - float64(misses+falsePositives+switches)/float64(objects)
}

// MOTP is the mean overlap (1 - distance) of accepted matches, NaN when
// there are none.
func MOTP(overlaps []float64) float64 {
	if len(overlaps) == 0 {
		return math.NaN()
	}
	return stat.Mean(overlaps, nil)
}

func percent(n, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return 100 * float64(n) / float64(total)
}
