package core

// Mask is a dense row-major boolean matrix, the expanded form of the
// bit-packed RFI mask carried by version-2 chunks. True marks a clean
// sample.
type Mask struct {
	Rows int
	Cols int
	Data []bool
}

// NewMask returns an all-false mask of the given shape.
// Negative dimensions are clamped to zero.
func NewMask(rows, cols int) *Mask {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Mask{Rows: rows, Cols: cols, Data: make([]bool, rows*cols)}
}

// Row returns row r as a slice view into the backing data.
func (m *Mask) Row(r int) []bool {
	return m.Data[r*m.Cols : (r+1)*m.Cols]
}

// At returns element (r, c).
func (m *Mask) At(r, c int) bool {
	return m.Data[r*m.Cols+c]
}

// Fill sets every element to v.
func (m *Mask) Fill(v bool) {
	for i := range m.Data {
		m.Data[i] = v
	}
}

// CountFalse returns the number of false (masked) entries.
func (m *Mask) CountFalse() int {
	n := 0
	for _, v := range m.Data {
		if !v {
			n++
		}
	}
	return n
}

// ReverseRows flips the row order in place.
func (m *Mask) ReverseRows() {
	tmp := make([]bool, m.Cols)
	for lo, hi := 0, m.Rows-1; lo < hi; lo, hi = lo+1, hi-1 {
		a, b := m.Row(lo), m.Row(hi)
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// RepeatCols returns a new mask with every column duplicated factor times
// consecutively. factor < 1 is treated as 1.
func (m *Mask) RepeatCols(factor int) *Mask {
	if factor < 1 {
		factor = 1
	}
	out := NewMask(m.Rows, m.Cols*factor)
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

// PasteCols copies src into m starting at column colOff.
// Shape violations panic, matching Matrix.PasteCols.
func (m *Mask) PasteCols(src *Mask, colOff int) {
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

// HStackMasks concatenates the given masks along the column axis in
// argument order. All inputs must share the same row count; a mismatch
// panics.
func HStackMasks(ms ...*Mask) *Mask {
	if len(ms) == 0 {
		return NewMask(0, 0)
	}
	rows := ms[0].Rows
	total := 0
	for _, m := range ms {
		if m.Rows != rows {
			panic("core: hstack row count mismatch")
		}
		total += m.Cols
	}
	out := NewMask(rows, total)
	off := 0
	for _, m := range ms {
		out.PasteCols(m, off)
		off += m.Cols
	}
	return out
}
