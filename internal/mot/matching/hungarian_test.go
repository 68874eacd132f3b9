package matching

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// dense builds a cost matrix from rows of equal length.
func dense(rows [][]float64) *mat.Dense {
	d := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		d.SetRow(i, row)
	}
	return d
}

func totalCost(cost mat.Matrix, result []int) float64 {
	total := 0.0
	for i, j := range result {
		if j >= 0 {
			total += cost.At(i, j)
		}
	}
	return total
}

func TestHungarianAssign_Empty(t *testing.T) {
	result := HungarianAssign(nil)
	if result != nil {
		t.Errorf("expected nil for empty cost matrix, got %v", result)
	}
}

func TestHungarianAssign_AllForbidden(t *testing.T) {
	result := HungarianAssign(dense([][]float64{{Unmatchable}, {Unmatchable}}))
	if len(result) != 2 || result[0] != -1 || result[1] != -1 {
		t.Errorf("expected [-1 -1], got %v", result)
	}
}

func TestHungarianAssign_ReadsMatrixView(t *testing.T) {
	// The solver works on any mat.Matrix, including a transposed view.
	cost := dense([][]float64{
		{0.9, 0.5},
		{0.1, 0.9},
		{0.5, 0.1},
	})
	result := HungarianAssign(cost.T())
	if len(result) != 2 || result[0] != 1 || result[1] != 2 {
		t.Errorf("expected [1 2], got %v", result)
	}
}

func TestHungarianAssign_SquareOptimal(t *testing.T) {
	//   [.1 .2 .3]   optimal: 0→0, 1→1, 2→2 = 1.0
	//   [.4 .4 .6]
	//   [.9 .8 .5]
	cost := dense([][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.4, 0.6},
		{0.9, 0.8, 0.5},
	})
	result := HungarianAssign(cost)

	if len(result) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(result))
	}
	for i, j := range result {
		if j < 0 {
			t.Errorf("row %d unassigned", i)
		}
	}
	if got := totalCost(cost, result); got < 0.999 || got > 1.001 {
		t.Errorf("expected optimal cost 1.0, got %v (assignments: %v)", got, result)
	}
}

func TestHungarianAssign_Forbidden(t *testing.T) {
	cost := dense([][]float64{
		{0.1, 0.2},
		{Unmatchable, Unmatchable},
	})
	result := HungarianAssign(cost)

	if result[0] < 0 {
		t.Errorf("row 0 should be assigned, got %d", result[0])
	}
	if result[1] != -1 {
		t.Errorf("row 1 should be unassigned (-1), got %d", result[1])
	}
}

func TestHungarianAssign_PrefersMoreMatchesOverLowerCost(t *testing.T) {
	// Taking 0→0 (cost 0) leaves row 1 with nothing. Two matches at
	// 0.4 + 0.4 must win over one match at 0.
	cost := dense([][]float64{
		{0.0, 0.4},
		{0.4, Unmatchable},
	})
	result := HungarianAssign(cost)

	if result[0] != 1 || result[1] != 0 {
		t.Errorf("expected [1 0], got %v", result)
	}
}

func TestHungarianAssign_MoreRowsThanCols(t *testing.T) {
	cost := dense([][]float64{
		{0.1, 0.9},
		{0.9, 0.1},
		{0.5, 0.5},
	})
	result := HungarianAssign(cost)

	assigned := 0
	for _, j := range result {
		if j >= 0 {
			assigned++
		}
	}
	if assigned != 2 {
		t.Errorf("expected exactly 2 assigned rows, got %d (result: %v)", assigned, result)
	}
	if got := totalCost(cost, result); got < 0.199 || got > 0.201 {
		t.Errorf("expected optimal cost 0.2, got %v (assignments: %v)", got, result)
	}
}

func TestHungarianAssign_MoreColsThanRows(t *testing.T) {
	cost := dense([][]float64{
		{0.9, 0.1, 0.5},
		{0.5, 0.9, 0.1},
	})
	result := HungarianAssign(cost)

	if result[0] != 1 || result[1] != 2 {
		t.Errorf("expected [1 2], got %v", result)
	}
}

func TestGreedyAssign(t *testing.T) {
	cost := dense([][]float64{
		{0.0, 0.4},
		{0.4, Unmatchable},
	})
	result := GreedyAssign(cost)

	// Greedy takes the cheapest cell first and strands row 1.
	if result[0] != 0 || result[1] != -1 {
		t.Errorf("expected [0 -1], got %v", result)
	}
}

func TestGreedyAssign_TiesBreakByRowThenColumn(t *testing.T) {
	cost := dense([][]float64{
		{0.2, 0.2},
		{0.2, 0.2},
	})
	result := GreedyAssign(cost)

	if result[0] != 0 || result[1] != 1 {
		t.Errorf("expected [0 1], got %v", result)
	}
}

func TestGreedyAssign_NeverTakesUnmatchable(t *testing.T) {
	result := GreedyAssign(dense([][]float64{{Unmatchable}}))
	if result[0] != -1 {
		t.Errorf("expected [-1], got %v", result)
	}
}

func TestGreedyAssign_Empty(t *testing.T) {
	if result := GreedyAssign(nil); result != nil {
		t.Errorf("expected nil for empty cost matrix, got %v", result)
	}
}

func TestSolverByName(t *testing.T) {
	for _, name := range []string{"", "hungarian", "greedy"} {
		if _, ok := SolverByName(name); !ok {
			t.Errorf("SolverByName(%q) not found", name)
		}
	}
	if _, ok := SolverByName("auction"); ok {
		t.Error("SolverByName(auction) should not exist")
	}
}
