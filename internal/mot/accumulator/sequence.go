package accumulator

import (
	"github.com/banshee-data/motbench/internal/monitoring"
	"github.com/banshee-data/motbench/internal/mot/boxset"
	"github.com/banshee-data/motbench/internal/mot/matching"
)

// Accumulate visits every ground truth frame in ascending order, matches it
// against the predictions for the same frame and folds the result into a
// fresh Accumulator. Frames that only appear in the predictions are not
// visited; a ground truth frame without predictions is fully missed.
func Accumulate(gt, pred *boxset.BoxSet, m *matching.Matcher) (*Accumulator, error) {
	acc := New()
	skipped := 0
	for _, f := range pred.Frames() {
		if gt.At(f) == nil {
			skipped++
		}
	}
	if skipped > 0 {
		monitoring.Debugf("accumulate: %d prediction frames have no ground truth and are ignored", skipped)
	}

	for _, frame := range gt.Frames() {
		res := m.Match(gt.At(frame), pred.At(frame), acc.LastMatches())
		if err := acc.Update(frame, res); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
