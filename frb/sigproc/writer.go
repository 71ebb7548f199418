package sigproc

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/core"
)

// WriteBlock serializes one sample block: the (channel, time) matrix is
// transposed to time-major order, the channel axis is reversed so the
// first emitted channel is the highest frequency (the header's negative
// foff convention), every value is clipped to the numeric range of the
// target width, and the samples are written as consecutive native-endian
// values. nbits selects the sample type: 32 for float32, 16 and 8 for
// unsigned integers. Nothing is written when nbits is invalid.
//
// Rows of m must be ordered bottom to top of the band, the order the
// assembly stage produces.
func WriteBlock(w io.Writer, m *core.Matrix, nbits int) error {
	if err := checkNBits(nbits); err != nil {
		return err
	}

	width := nbits / 8
	buf := make([]byte, m.Rows*m.Cols*width)
	i := 0
	for t := range m.Cols {
		for ch := m.Rows - 1; ch >= 0; ch-- {
			v := m.At(ch, t)
			switch nbits {
			case 32:
				binary.NativeEndian.PutUint32(buf[i:], math.Float32bits(clipFloat32(v)))
			case 16:
				binary.NativeEndian.PutUint16(buf[i:], uint16(clip(v, 0, math.MaxUint16)))
			default: // 8
				buf[i] = byte(clip(v, 0, math.MaxUint8))
			}
			i += width
		}
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("sigproc: write block: %w", err)
	}
	return nil
}

// CreateFile writes the header and, when block is non-nil, the first
// sample block. The header is write-once: later batches go through
// AppendBlock on the same handle.
func CreateFile(w io.Writer, hdr Header, block *core.Matrix, nbits int) error {
	if err := WriteHeader(w, hdr, nbits); err != nil {
		return err
	}
	if block == nil {
		return nil
	}
	return WriteBlock(w, block, nbits)
}

// AppendBlock appends a data-only block to an already-created file.
func AppendBlock(w io.Writer, block *core.Matrix, nbits int) error {
	return WriteBlock(w, block, nbits)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clipFloat32(v float64) float32 {
	return float32(clip(v, -math.MaxFloat32, math.MaxFloat32))
}
