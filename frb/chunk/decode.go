package chunk

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/core"
)

// Decode reverses the quantization and returns calibrated intensities with
// their sample weights, both shaped (nfreq_fine, nt).
//
// Each coarse scale/offset cell covers nupfreq fine channels and
// nt_per_packet time samples; the expansion is nearest-neighbor, frequency
// axis first, then time. A weight is 1 unless the raw byte is one of the
// sentinel values 0 or 255, which mark clipped or missing samples.
func (c *Chunk) Decode() (intensity, weights *core.Matrix) {
	nt := c.NT
	intensity = core.New(c.NFreqFine(), nt)
	weights = core.New(c.NFreqFine(), nt)

	scaleRow := make([]float64, nt)
	offsetRow := make([]float64, nt)

	for fc := range c.NFreqCoarse() {
		coarseScales := c.Scales.Row(fc)
		coarseOffsets := c.Offsets.Row(fc)
		for t := range nt {
			scaleRow[t] = coarseScales[t/c.NTPerPacket]
			offsetRow[t] = coarseOffsets[t/c.NTPerPacket]
		}

		for u := range c.NUpFreq {
			f := fc*c.NUpFreq + u
			raw := c.Data[f*nt : (f+1)*nt]
			row := intensity.Row(f)
			wrow := weights.Row(f)
			for t, b := range raw {
				row[t] = float64(b)
				if b > 0 && b < 255 {
					wrow[t] = 1
				}
			}
			vecmath.MulBlockInPlace(row, scaleRow)
			vecmath.AddBlockInPlace(row, offsetRow)
		}
	}

	return intensity, weights
}
