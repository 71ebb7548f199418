package core

import "testing"

func TestNewClampsNegative(t *testing.T) {
	m := New(-1, -3)
	if m.Rows != 0 || m.Cols != 0 || len(m.Data) != 0 {
		t.Fatalf("New(-1,-3) = %dx%d len %d, want empty", m.Rows, m.Cols, len(m.Data))
	}
}

func TestFromSliceShapeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for mismatched slice length")
		}
	}()
	FromSlice(2, 2, []float64{1, 2, 3})
}

func TestRowIsView(t *testing.T) {
	m := New(2, 3)
	m.Row(1)[2] = 7
	if m.At(1, 2) != 7 {
		t.Fatalf("At(1,2) = %v, want 7", m.At(1, 2))
	}
}

func TestReverseRows(t *testing.T) {
	m := FromSlice(3, 2, []float64{1, 2, 3, 4, 5, 6})
	m.ReverseRows()
	want := []float64{5, 6, 3, 4, 1, 2}
	for i, v := range want {
		if m.Data[i] != v {
			t.Fatalf("Data[%d] = %v, want %v", i, m.Data[i], v)
		}
	}
}

func TestRepeatColsOrder(t *testing.T) {
	m := FromSlice(1, 3, []float64{1, 2, 3})
	out := m.RepeatCols(2)
	want := []float64{1, 1, 2, 2, 3, 3}
	if out.Cols != 6 {
		t.Fatalf("Cols = %d, want 6", out.Cols)
	}
	for i, v := range want {
		if out.Data[i] != v {
			t.Fatalf("Data[%d] = %v, want %v", i, out.Data[i], v)
		}
	}
}

func TestRollRow(t *testing.T) {
	tests := []struct {
		name  string
		shift int
		want  []float64
	}{
		{"right", 1, []float64{4, 1, 2, 3}},
		{"left", -1, []float64{2, 3, 4, 1}},
		{"wrap", 5, []float64{4, 1, 2, 3}},
		{"negative wrap", -5, []float64{2, 3, 4, 1}},
		{"zero", 0, []float64{1, 2, 3, 4}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := FromSlice(1, 4, []float64{1, 2, 3, 4})
			m.RollRow(0, tc.shift)
			for i, v := range tc.want {
				if m.Data[i] != v {
					t.Fatalf("shift %d: Data[%d] = %v, want %v", tc.shift, i, m.Data[i], v)
				}
			}
		})
	}
}

func TestZeroRowRangeClamps(t *testing.T) {
	m := FromSlice(1, 4, []float64{1, 2, 3, 4})
	m.ZeroRowRange(0, 2, 99)
	want := []float64{1, 2, 0, 0}
	for i, v := range want {
		if m.Data[i] != v {
			t.Fatalf("Data[%d] = %v, want %v", i, m.Data[i], v)
		}
	}
}

func TestHStackWidthsAndOrder(t *testing.T) {
	a := FromSlice(2, 2, []float64{1, 2, 3, 4})
	b := FromSlice(2, 1, []float64{5, 6})
	out := HStack(a, b)
	if out.Rows != 2 || out.Cols != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", out.Rows, out.Cols)
	}
	want := []float64{1, 2, 5, 3, 4, 6}
	for i, v := range want {
		if out.Data[i] != v {
			t.Fatalf("Data[%d] = %v, want %v", i, out.Data[i], v)
		}
	}
}

func TestHStackRowMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for row count mismatch")
		}
	}()
	HStack(New(2, 1), New(3, 1))
}

func TestCopyIsDeep(t *testing.T) {
	m := FromSlice(1, 2, []float64{1, 2})
	c := m.Copy()
	c.Data[0] = 9
	if m.Data[0] != 1 {
		t.Fatalf("copy aliases source: Data[0] = %v", m.Data[0])
	}
}
