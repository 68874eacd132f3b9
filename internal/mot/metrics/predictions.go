package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/motbench/internal/mot/boxset"
)

// AverageTrackLength is the mean number of frames each predicted identity
// appears in. NaN when there are no predictions.
func AverageTrackLength(pred *boxset.BoxSet) float64 {
	byID := pred.FramesByIdentity()
	if len(byID) == 0 {
		return math.NaN()
	}
	lengths := make([]float64, 0, len(byID))
	for _, id := range pred.Identities() {
		lengths = append(lengths, float64(len(byID[id])))
	}
	return stat.Mean(lengths, nil)
}

// EstimateIDSwitches counts, over all predicted identities, the gaps of
// more than one frame between consecutive appearances. It needs no ground
// truth and is a coarse proxy; it is reported alongside the switch count
// from matching, not in place of it.
func EstimateIDSwitches(pred *boxset.BoxSet) int {
	total := 0
	for _, frames := range pred.FramesByIdentity() {
		total += gaps(frames)
	}
	return total
}

// gaps counts steps greater than one in an ascending frame list.
func gaps(frames []int) int {
	n := 0
	for i := 1; i < len(frames); i++ {
		if frames[i]-frames[i-1] > 1 {
			n++
		}
	}
	return n
}

// Complete fills the prediction-only fields of s.
func Complete(s Summary, pred *boxset.BoxSet) Summary {
	s.AverageTrackLength = AverageTrackLength(pred)
	s.EstimatedIDSwitches = EstimateIDSwitches(pred)
	return s
}
