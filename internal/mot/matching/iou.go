package matching

import (
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/motbench/internal/mot/boxset"
)

// Unmatchable is the distance given to pairs whose overlap is below the IoU
// floor. Solvers never select a pair at this distance.
const Unmatchable = 1.0

// DefaultIoUFloor is the minimum overlap for a pair to be matchable.
const DefaultIoUFloor = 0.5

// IoU returns the intersection over union of two axis-aligned boxes, in
// [0, 1]. Boxes with zero union (both degenerate) have IoU 0.
func IoU(a, b boxset.Box) float64 {
	xx1 := max(a.X, b.X)
	yy1 := max(a.Y, b.Y)
	xx2 := min(a.X2, b.X2)
	yy2 := min(a.Y2, b.Y2)

	interW := max(0.0, xx2-xx1)
	interH := max(0.0, yy2-yy1)
	inter := interW * interH

	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Distance converts an overlap to a matching cost: 1-IoU when the overlap
// reaches floor, Unmatchable otherwise.
func Distance(iou, floor float64) float64 {
	if iou >= floor && iou > 0 {
		return 1 - iou
	}
	return Unmatchable
}

// DistanceMatrix returns the len(gt)×len(pred) cost matrix. It returns nil
// when either side is empty, since gonum matrices cannot have a zero
// dimension.
func DistanceMatrix(gt, pred []boxset.Box, floor float64) *mat.Dense {
	if len(gt) == 0 || len(pred) == 0 {
		return nil
	}

	d := mat.NewDense(len(gt), len(pred), nil)
	for i, g := range gt {
		for j, p := range pred {
			d.Set(i, j, Distance(IoU(g, p), floor))
		}
	}
	return d
}
