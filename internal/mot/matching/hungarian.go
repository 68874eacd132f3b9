package matching

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Solver resolves a cost matrix to a one-to-one assignment. It returns
// assignments[i] = column assigned to row i, or -1. Cells at or above
// Unmatchable must never be assigned. A nil matrix has no rows.
type Solver func(cost mat.Matrix) []int

// HungarianAssign solves the rectangular assignment problem for an n×m
// cost matrix with the Kuhn–Munkres algorithm (Jonker–Volgenant potentials)
// in O(n³).
//
// Forbidden cells and padding are priced above the cost of any full set of
// admissible pairs, so the result maximises the number of admissible
// matches first and minimises total distance second.
func HungarianAssign(cost mat.Matrix) []int {
	if cost == nil {
		return nil
	}
	n, m := cost.Dims()

	dim := max(n, m)
	forbidden := float64(dim) + 1

	c := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			if i < n && j < m && cost.At(i, j) < Unmatchable {
				c[i][j] = cost.At(i, j)
			} else {
				c[i][j] = forbidden
			}
		}
	}

	// 1-indexed arrays; index 0 is the virtual column.
	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1) // Row potentials
	v := make([]float64, dim+1) // Column potentials
	p := make([]int, dim+1)     // p[j] = row assigned to column j
	way := make([]int, dim+1)   // way[j] = previous column in augmenting path
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				break
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	rowAssign := unassigned(dim)
	for j := 1; j <= dim; j++ {
		if p[j] > 0 {
			rowAssign[p[j]-1] = j - 1
		}
	}

	result := make([]int, n)
	for i := 0; i < n; i++ {
		col := rowAssign[i]
		if col < 0 || col >= m || cost.At(i, col) >= Unmatchable {
			result[i] = -1
		} else {
			result[i] = col
		}
	}
	return result
}

func unassigned(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	return out
}
