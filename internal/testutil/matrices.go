package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/core"
)

// ConstMatrix returns a rows x cols matrix with every element set to v.
func ConstMatrix(rows, cols int, v float64) *core.Matrix {
	m := core.New(rows, cols)
	m.Fill(v)
	return m
}

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireMatrixNearlyEqual fails t if got and want differ in shape or if
// any element pair exceeds eps (absolute tolerance).
func RequireMatrixNearlyEqual(t *testing.T, got, want *core.Matrix, eps float64) {
	t.Helper()
	if got.Rows != want.Rows || got.Cols != want.Cols {
		t.Fatalf("shape mismatch: got %dx%d, want %dx%d", got.Rows, got.Cols, want.Rows, want.Cols)
	}
	for r := range got.Rows {
		for c := range got.Cols {
			diff := math.Abs(got.At(r, c) - want.At(r, c))
			if diff > eps {
				t.Fatalf("(%d,%d): got %v, want %v (diff %v > eps %v)", r, c, got.At(r, c), want.At(r, c), diff, eps)
			}
		}
	}
}

// RequireMatrixConst fails t if any element of got differs from v by more
// than eps.
func RequireMatrixConst(t *testing.T, got *core.Matrix, v, eps float64) {
	t.Helper()
	for r := range got.Rows {
		for c := range got.Cols {
			if math.Abs(got.At(r, c)-v) > eps {
				t.Fatalf("(%d,%d): got %v, want %v", r, c, got.At(r, c), v)
			}
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
