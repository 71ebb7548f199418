// Package core provides the dense row-major matrix and mask types shared by
// the intensity pipeline stages.
//
// A Matrix holds float64 samples with frequency along rows and time along
// columns, the layout every stage of the chunk-to-filterbank pipeline works
// in. The primitives here (repeat, flip, roll, hstack) are written as
// explicit index loops so the element order they produce is part of their
// contract.
package core

// Matrix is a dense row-major float64 matrix.
// Data has length Rows*Cols; element (r, c) lives at Data[r*Cols+c].
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// New returns a zero-filled matrix of the given shape.
// Negative dimensions are clamped to zero.
func New(rows, cols int) *Matrix {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// FromSlice wraps an existing row-major slice without copying.
// len(data) must equal rows*cols; mutations are visible both ways.
func FromSlice(rows, cols int, data []float64) *Matrix {
	if len(data) != rows*cols {
		panic("core: slice length does not match matrix shape")
	}
	return &Matrix{Rows: rows, Cols: cols, Data: data}
}

// Row returns row r as a slice view into the backing data.
func (m *Matrix) Row(r int) []float64 {
	return m.Data[r*m.Cols : (r+1)*m.Cols]
}

// At returns element (r, c).
func (m *Matrix) At(r, c int) float64 {
	return m.Data[r*m.Cols+c]
}

// Set assigns element (r, c).
func (m *Matrix) Set(r, c int, v float64) {
	m.Data[r*m.Cols+c] = v
}

// Fill sets every element to v.
func (m *Matrix) Fill(v float64) {
	for i := range m.Data {
		m.Data[i] = v
	}
}

// Copy returns a deep copy of the matrix.
func (m *Matrix) Copy() *Matrix {
	out := New(m.Rows, m.Cols)
	copy(out.Data, m.Data)
	return out
}

// ReverseRows flips the row order in place, so row 0 swaps with the last
// row. Used to turn the chunk-native frequency order into the assembled
// bottom-to-top order.
func (m *Matrix) ReverseRows() {
	tmp := make([]float64, m.Cols)
	for lo, hi := 0, m.Rows-1; lo < hi; lo, hi = lo+1, hi-1 {
		a, b := m.Row(lo), m.Row(hi)
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// RepeatCols returns a new matrix with every column duplicated factor times
// consecutively, so (a, b) becomes (a, a, b, b) at factor 2. The original
// sample order is preserved. factor < 1 is treated as 1.
func (m *Matrix) RepeatCols(factor int) *Matrix {
	if factor < 1 {
		factor = 1
	}
	out := New(m.Rows, m.Cols*factor)
	for r := range m.Rows {
		src := m.Row(r)
		dst := out.Row(r)
		for c, v := range src {
			base := c * factor
			for k := range factor {
				dst[base+k] = v
			}
		}
	}
	return out
}

// RollRow circularly shifts row r by n positions with the same sign
// convention as a right rotation: n > 0 moves each element toward higher
// column indices, wrapping at the end; n < 0 rotates left. n is reduced
// modulo the row width.
func (m *Matrix) RollRow(r, n int) {
	w := m.Cols
	if w == 0 {
		return
	}
	n %= w
	if n < 0 {
		n += w
	}
	if n == 0 {
		return
	}
	row := m.Row(r)
	tmp := make([]float64, w)
	copy(tmp[n:], row[:w-n])
	copy(tmp[:n], row[w-n:])
	copy(row, tmp)
}

// ZeroRowRange sets columns [start, end) of row r to 0.
// Indices are clamped to valid bounds.
func (m *Matrix) ZeroRowRange(r, start, end int) {
	if start < 0 {
		start = 0
	}
	if end > m.Cols {
		end = m.Cols
	}
	row := m.Row(r)
	for c := start; c < end; c++ {
		row[c] = 0
	}
}

// PasteCols copies src into m starting at column colOff. Both matrices must
// have the same row count and src must fit; violations panic since the
// caller controls both shapes.
func (m *Matrix) PasteCols(src *Matrix, colOff int) {
	if src.Rows != m.Rows {
		panic("core: paste row count mismatch")
	}
	if colOff < 0 || colOff+src.Cols > m.Cols {
		panic("core: paste exceeds destination width")
	}
	for r := range src.Rows {
		copy(m.Row(r)[colOff:colOff+src.Cols], src.Row(r))
	}
}

// HStack concatenates the given matrices along the column axis in argument
// order. All inputs must share the same row count; a mismatch panics.
func HStack(ms ...*Matrix) *Matrix {
	if len(ms) == 0 {
		return New(0, 0)
	}
	rows := ms[0].Rows
	total := 0
	for _, m := range ms {
		if m.Rows != rows {
			panic("core: hstack row count mismatch")
		}
		total += m.Cols
	}
	out := New(rows, total)
	off := 0
	for _, m := range ms {
		out.PasteCols(m, off)
		off += m.Cols
	}
	return out
}
