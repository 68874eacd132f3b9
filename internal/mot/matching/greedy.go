package matching

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// GreedyAssign pairs rows and columns in order of increasing cost, breaking
// ties by row then column. It is not optimal: near ambiguous overlaps it can
// choose a different pairing than HungarianAssign and so change identity
// switch counts.
func GreedyAssign(cost mat.Matrix) []int {
	if cost == nil {
		return nil
	}
	n, m := cost.Dims()
	result := unassigned(n)

	type cell struct {
		i, j int
		c    float64
	}
	cells := make([]cell, 0, n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if c := cost.At(i, j); c < Unmatchable {
				cells = append(cells, cell{i, j, c})
			}
		}
	}
	sort.Slice(cells, func(a, b int) bool {
		if cells[a].c != cells[b].c {
			return cells[a].c < cells[b].c
		}
		if cells[a].i != cells[b].i {
			return cells[a].i < cells[b].i
		}
		return cells[a].j < cells[b].j
	})

	colUsed := make([]bool, m)
	for _, c := range cells {
		if result[c.i] >= 0 || colUsed[c.j] {
			continue
		}
		result[c.i] = c.j
		colUsed[c.j] = true
	}
	return result
}

// SolverByName returns the solver registered under name ("hungarian" or
// "greedy").
func SolverByName(name string) (Solver, bool) {
	switch name {
	case "", "hungarian":
		return HungarianAssign, true
	case "greedy":
		return GreedyAssign, true
	}
	return nil, false
}
