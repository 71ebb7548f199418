package intensity

import (
	"errors"
	"fmt"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/chunk"
	"github.com/chime-frb-open-data/chime-frb-open-data/frb/core"
)

var (
	// ErrFreqMismatch indicates chunks whose frequency axes differ in
	// length; they cannot form one continuous stream.
	ErrFreqMismatch = errors.New("intensity: frequency axis length mismatch")
	// ErrMaskShape indicates RFI masks whose row counts differ across
	// chunks.
	ErrMaskShape = errors.New("intensity: rfi mask row count mismatch")
	// ErrDownsample indicates a chunk stream with mixed or coarse time
	// binning in Downsample mode; reducing a chunk's time resolution is
	// not supported.
	ErrDownsample = errors.New("intensity: downsampling mixed-binning chunks is not implemented")
	// ErrNoChunks indicates an empty chunk list.
	ErrNoChunks = errors.New("intensity: no chunks to assemble")
)

// Mode selects how chunks at different time binnings are reconciled.
type Mode int

const (
	// Downsample refuses mixed binnings (the reduction is lossy and not
	// implemented); the pipeline default.
	Downsample Mode = iota
	// Upsample nearest-neighbor-stretches every chunk to binning 1.
	Upsample
)

// Decoded is one file's decoded contribution to the stream: calibrated
// intensity and weights shaped (nfreq, nt), the dense RFI mask, and the
// chunk's time bookkeeping.
type Decoded struct {
	Intensity *core.Matrix
	Weights   *core.Matrix
	Mask      *core.Mask

	Binning    int
	FPGA0      int64
	FPGAN      int64
	Frame0Nano int64
}

// FromChunk decodes c into its stream contribution. Version-1 chunks (and
// version-2 chunks without a mask) contribute an all-true mask shaped like
// the intensity array.
func FromChunk(c *chunk.Chunk) Decoded {
	in, w := c.Decode()
	mask := c.RFIMask
	if mask == nil {
		mask = core.NewMask(in.Rows, in.Cols)
		mask.Fill(true)
	}
	return Decoded{
		Intensity:  in,
		Weights:    w,
		Mask:       mask,
		Binning:    c.Binning,
		FPGA0:      c.FPGA0,
		FPGAN:      c.FPGAN,
		Frame0Nano: c.Frame0Nano,
	}
}

// Stream is the continuous assembly of consecutive chunks: planes
// concatenated along time in input order, with the per-chunk FPGA
// bookkeeping carried through.
type Stream struct {
	Intensity *core.Matrix
	Weights   *core.Matrix
	Mask      *core.Mask

	// Binning of the assembled planes; 1 on every supported path.
	Binning int

	FPGA0s      []int64
	FPGANs      []int64
	Frame0Nanos []int64
}

// Assemble concatenates decoded chunks along the time axis in input order.
// The caller supplies chunks in natural filename order.
//
// When every chunk is at binning 1 the planes are stacked directly and the
// frequency axis is reversed into bottom-to-top band order. Otherwise the
// outcome depends on mode: Downsample fails with ErrDownsample, Upsample
// stretches each chunk's time axis by its binning (nearest neighbor) before
// concatenating, leaving the frequency axis in chunk-native order.
func Assemble(chunks []Decoded, mode Mode) (*Stream, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	if err := checkShapes(chunks); err != nil {
		return nil, err
	}

	s := &Stream{Binning: 1}
	for _, c := range chunks {
		s.FPGA0s = append(s.FPGA0s, c.FPGA0)
		s.FPGANs = append(s.FPGANs, c.FPGAN)
		s.Frame0Nanos = append(s.Frame0Nanos, c.Frame0Nano)
	}

	if uniformUnit(chunks) {
		ins := make([]*core.Matrix, len(chunks))
		ws := make([]*core.Matrix, len(chunks))
		masks := make([]*core.Mask, len(chunks))
		for i, c := range chunks {
			ins[i] = c.Intensity
			ws[i] = c.Weights
			masks[i] = c.Mask
		}
		s.Intensity = core.HStack(ins...)
		s.Weights = core.HStack(ws...)
		s.Mask = core.HStackMasks(masks...)
		s.Intensity.ReverseRows()
		s.Weights.ReverseRows()
		s.Mask.ReverseRows()
		return s, nil
	}

	if mode == Downsample {
		return nil, fmt.Errorf("%w (binnings %v)", ErrDownsample, binnings(chunks))
	}

	total := 0
	for _, c := range chunks {
		total += c.Binning * c.Intensity.Cols
	}
	s.Intensity = core.New(chunks[0].Intensity.Rows, total)
	s.Weights = core.New(chunks[0].Weights.Rows, total)
	s.Mask = core.NewMask(chunks[0].Mask.Rows, total)

	off := 0
	for _, c := range chunks {
		stretched := c.Intensity.RepeatCols(c.Binning)
		s.Intensity.PasteCols(stretched, off)
		s.Weights.PasteCols(c.Weights.RepeatCols(c.Binning), off)
		s.Mask.PasteCols(c.Mask.RepeatCols(c.Binning), off)
		off += stretched.Cols
	}
	return s, nil
}

func checkShapes(chunks []Decoded) error {
	nfreq := chunks[0].Intensity.Rows
	maskRows := chunks[0].Mask.Rows
	for i, c := range chunks {
		if c.Intensity.Rows != nfreq || c.Weights.Rows != nfreq {
			return fmt.Errorf("%w: chunk %d has %d channels, chunk 0 has %d",
				ErrFreqMismatch, i, c.Intensity.Rows, nfreq)
		}
		if c.Mask.Rows != maskRows {
			return fmt.Errorf("%w: chunk %d has %d mask rows, chunk 0 has %d",
				ErrMaskShape, i, c.Mask.Rows, maskRows)
		}
	}
	return nil
}

func uniformUnit(chunks []Decoded) bool {
	for _, c := range chunks {
		if c.Binning != 1 {
			return false
		}
	}
	return true
}

func binnings(chunks []Decoded) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = c.Binning
	}
	return out
}
