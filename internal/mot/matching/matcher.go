package matching

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/motbench/internal/mot/boxset"
)

// Pair is an accepted ground truth to prediction match.
type Pair struct {
	GTID     int
	PredID   int
	Distance float64
}

// MatchResult is the outcome of matching one frame. The three lists are
// disjoint and sorted by identity.
type MatchResult struct {
	Matches        []Pair
	MissedGT       []int
	FalsePositives []int
}

// Matcher resolves one frame's ground truth and predicted boxes into a
// MatchResult.
type Matcher struct {
	IoUFloor float64
	Solve    Solver

	// PreserveMatches keeps a ground truth object paired with the
	// prediction it was last matched to whenever that prediction is present
	// and still within the IoU floor, before the solver sees the frame.
	PreserveMatches bool
}

// NewMatcher returns a Matcher. A nil solver selects HungarianAssign.
func NewMatcher(floor float64, solve Solver, preserve bool) *Matcher {
	if solve == nil {
		solve = HungarianAssign
	}
	return &Matcher{IoUFloor: floor, Solve: solve, PreserveMatches: preserve}
}

// Match matches gt against pred. prior maps ground truth identity to the
// prediction it was last matched to and may be nil. The result does not
// depend on the order boxes are listed in.
func (m *Matcher) Match(gt, pred []boxset.Box, prior map[int]int) MatchResult {
	gt = sortedByID(gt)
	pred = sortedByID(pred)

	var res MatchResult
	if len(gt) == 0 || len(pred) == 0 {
		for _, g := range gt {
			res.MissedGT = append(res.MissedGT, g.ID)
		}
		for _, p := range pred {
			res.FalsePositives = append(res.FalsePositives, p.ID)
		}
		return res
	}

	d := DistanceMatrix(gt, pred, m.IoUFloor)
	rowDone := make([]bool, len(gt))
	colDone := make([]bool, len(pred))

	if m.PreserveMatches && len(prior) > 0 {
		col := make(map[int]int, len(pred))
		for j, p := range pred {
			col[p.ID] = j
		}
		for i, g := range gt {
			pid, ok := prior[g.ID]
			if !ok {
				continue
			}
			j, ok := col[pid]
			if !ok || colDone[j] || d.At(i, j) >= Unmatchable {
				continue
			}
			res.Matches = append(res.Matches, Pair{GTID: g.ID, PredID: pid, Distance: d.At(i, j)})
			rowDone[i] = true
			colDone[j] = true
		}
	}

	var rowIdx, colIdx []int
	for i := range gt {
		if !rowDone[i] {
			rowIdx = append(rowIdx, i)
		}
	}
	for j := range pred {
		if !colDone[j] {
			colIdx = append(colIdx, j)
		}
	}

	if len(rowIdx) > 0 && len(colIdx) > 0 {
		var sub mat.Matrix = d
		if len(rowIdx) < len(gt) || len(colIdx) < len(pred) {
			free := mat.NewDense(len(rowIdx), len(colIdx), nil)
			for a, i := range rowIdx {
				for b, j := range colIdx {
					free.Set(a, b, d.At(i, j))
				}
			}
			sub = free
		}
		for a, b := range m.Solve(sub) {
			if b < 0 {
				continue
			}
			i, j := rowIdx[a], colIdx[b]
			dist := d.At(i, j)
			if dist >= Unmatchable {
				continue
			}
			res.Matches = append(res.Matches, Pair{GTID: gt[i].ID, PredID: pred[j].ID, Distance: dist})
			rowDone[i] = true
			colDone[j] = true
		}
	}

	for i, g := range gt {
		if !rowDone[i] {
			res.MissedGT = append(res.MissedGT, g.ID)
		}
	}
	for j, p := range pred {
		if !colDone[j] {
			res.FalsePositives = append(res.FalsePositives, p.ID)
		}
	}
	sort.Slice(res.Matches, func(a, b int) bool { return res.Matches[a].GTID < res.Matches[b].GTID })
	return res
}

func sortedByID(boxes []boxset.Box) []boxset.Box {
	out := make([]boxset.Box, len(boxes))
	copy(out, boxes)
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}
