package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/core"
)

var (
	// ErrUnsupportedVersion indicates a chunk version other than 1 or 2.
	ErrUnsupportedVersion = errors.New("chunk: unsupported version")
	// ErrFormat indicates a malformed record: wrong element count for the
	// version, a wrong wire type, or a non-positive declared dimension.
	ErrFormat = errors.New("chunk: malformed record")
	// ErrBlobSize indicates a blob whose byte length does not match the
	// dimensions the header declares.
	ErrBlobSize = errors.New("chunk: blob size mismatch")
)

// Element counts of the msgpack container, marker included.
const (
	v1Elements = 17
	v2Elements = 21
)

// fpgaNanoPerCount is the FPGA sample-clock period in nanoseconds.
const fpgaNanoPerCount = 2560

// Chunk is one decoded assembled-chunk record.
//
// Scales and Offsets are shaped (nfreq_coarse, nt_coarse); Data holds
// nfreq_fine x nt unsigned bytes in row-major frequency-then-time order,
// highest frequency first. RFIMask is nil unless the record is version 2
// and carries a mask.
type Chunk struct {
	Version        int
	Compressed     bool
	CompressedSize int

	Beam                int
	NUpFreq             int
	NTPerPacket         int
	FPGACountsPerSample int
	NTCoarse            int
	NScales             int
	NData               int
	FPGA0               int64
	FPGAN               int64
	Binning             int

	// NT is the fine-grained sample count, nt_coarse * nt_per_packet.
	NT int

	Scales  *core.Matrix
	Offsets *core.Matrix
	Data    []byte

	// Version 2 fields; zero values for version 1.
	Frame0Nano int64
	NRFIFreq   int
	HasRFIMask bool
	RFIMask    *core.Mask
}

// Read parses one msgpack assembled-chunk record from r.
func Read(r io.Reader) (*Chunk, error) {
	dec := msgpack.NewDecoder(r)

	elements, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("%w: container: %v", ErrFormat, err)
	}

	// Element 0 is a format-name marker; its value is not part of the
	// contract.
	if err := dec.Skip(); err != nil {
		return nil, fmt.Errorf("%w: marker: %v", ErrFormat, err)
	}

	fr := fieldReader{dec: dec}
	c := &Chunk{}

	c.Version = fr.int("version")
	if fr.err != nil {
		return nil, fr.err
	}

	switch c.Version {
	case 1:
		if elements != v1Elements {
			return nil, fmt.Errorf("%w: version 1 record has %d elements, want %d", ErrFormat, elements, v1Elements)
		}
	case 2:
		if elements != v2Elements {
			return nil, fmt.Errorf("%w: version 2 record has %d elements, want %d", ErrFormat, elements, v2Elements)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, c.Version)
	}

	c.Compressed = fr.bool("compressed")
	c.CompressedSize = fr.int("compressed_size")
	c.Beam = fr.int("beam")
	c.NUpFreq = fr.int("nupfreq")
	c.NTPerPacket = fr.int("nt_per_packet")
	c.FPGACountsPerSample = fr.int("fpga_counts_per_sample")
	c.NTCoarse = fr.int("nt_coarse")
	c.NScales = fr.int("nscales")
	c.NData = fr.int("ndata")
	c.FPGA0 = fr.int64("fpga0")
	c.FPGAN = fr.int64("fpgaN")
	c.Binning = fr.int("binning")
	scales := fr.bytes("scales")
	offsets := fr.bytes("offsets")
	c.Data = fr.bytes("data")

	var maskBlob []byte
	if c.Version == 2 {
		c.Frame0Nano = fr.int64("frame0_nano")
		c.NRFIFreq = fr.int("nrfifreq")
		c.HasRFIMask = fr.bool("has_rfi_mask")
		maskBlob = fr.bytes("rfi_mask")
	}
	if fr.err != nil {
		return nil, fr.err
	}

	if err := c.validate(scales, offsets, maskBlob); err != nil {
		return nil, err
	}

	nfc := c.NScales / c.NTCoarse
	c.Scales = f32leMatrix(scales, nfc, c.NTCoarse)
	c.Offsets = f32leMatrix(offsets, nfc, c.NTCoarse)

	if c.Version == 2 && c.HasRFIMask {
		c.RFIMask = expandMask(maskBlob, c.NRFIFreq, c.NT)
	}

	return c, nil
}

// ReadFile reads one assembled-chunk record from the file at path.
func ReadFile(path string) (*Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return c, nil
}

func (c *Chunk) validate(scales, offsets, maskBlob []byte) error {
	if c.NUpFreq <= 0 || c.NTPerPacket <= 0 || c.NTCoarse <= 0 ||
		c.NScales <= 0 || c.NData <= 0 || c.Binning <= 0 {
		return fmt.Errorf("%w: non-positive dimension (nupfreq %d, nt_per_packet %d, nt_coarse %d, nscales %d, ndata %d, binning %d)",
			ErrFormat, c.NUpFreq, c.NTPerPacket, c.NTCoarse, c.NScales, c.NData, c.Binning)
	}

	c.NT = c.NTCoarse * c.NTPerPacket

	if len(scales) != 4*c.NScales {
		return fmt.Errorf("%w: scales blob is %d bytes, want %d", ErrBlobSize, len(scales), 4*c.NScales)
	}
	if len(offsets) != 4*c.NScales {
		return fmt.Errorf("%w: offsets blob is %d bytes, want %d", ErrBlobSize, len(offsets), 4*c.NScales)
	}
	if c.NScales%c.NTCoarse != 0 {
		return fmt.Errorf("%w: nscales %d not divisible by nt_coarse %d", ErrBlobSize, c.NScales, c.NTCoarse)
	}
	if len(c.Data) != c.NData {
		return fmt.Errorf("%w: data blob is %d bytes, want %d", ErrBlobSize, len(c.Data), c.NData)
	}
	if c.NData%c.NT != 0 {
		return fmt.Errorf("%w: ndata %d not divisible by nt %d", ErrBlobSize, c.NData, c.NT)
	}
	if c.NData/c.NT != (c.NScales/c.NTCoarse)*c.NUpFreq {
		return fmt.Errorf("%w: %d fine channels, want nfreq_coarse %d x nupfreq %d",
			ErrBlobSize, c.NData/c.NT, c.NScales/c.NTCoarse, c.NUpFreq)
	}

	if c.Version == 2 && c.HasRFIMask {
		if c.NRFIFreq < 0 {
			return fmt.Errorf("%w: negative nrfifreq %d", ErrFormat, c.NRFIFreq)
		}
		if c.NT%8 != 0 {
			return fmt.Errorf("%w: nt %d not divisible by 8 for mask expansion", ErrBlobSize, c.NT)
		}
		if want := c.NRFIFreq * c.NT / 8; len(maskBlob) != want {
			return fmt.Errorf("%w: rfi_mask blob is %d bytes, want %d", ErrBlobSize, len(maskBlob), want)
		}
	}

	return nil
}

// NFreqCoarse returns the number of coarse frequency channels.
func (c *Chunk) NFreqCoarse() int {
	return c.NScales / c.NTCoarse
}

// NFreqFine returns the number of fine frequency channels,
// nfreq_coarse * nupfreq.
func (c *Chunk) NFreqFine() int {
	return c.NData / c.NT
}

// TimeStart returns the absolute start time of the chunk in epoch seconds.
func (c *Chunk) TimeStart() float64 {
	return 1e-9 * float64(c.Frame0Nano+int64(c.FPGACountsPerSample)*fpgaNanoPerCount*c.FPGA0)
}

// TimeEnd returns the absolute end time of the chunk in epoch seconds.
func (c *Chunk) TimeEnd() float64 {
	return 1e-9 * float64(c.Frame0Nano+int64(c.FPGACountsPerSample)*fpgaNanoPerCount*(c.FPGA0+c.FPGAN))
}

// String summarizes the chunk the way the backend logs it.
func (c *Chunk) String() string {
	rfi := "no"
	if c.HasRFIMask && c.RFIMask != nil {
		percent := 0
		if total := c.RFIMask.Rows * c.RFIMask.Cols; total > 0 {
			percent = int(100 * float64(c.RFIMask.CountFalse()) / float64(total))
		}
		rfi = fmt.Sprintf("yes, %d freqs, %d%% masked", c.NRFIFreq, percent)
	}
	return fmt.Sprintf("chunk: beam %d, nt %d, fpga0 %d, rfi %s", c.Beam, c.NT, c.FPGA0, rfi)
}

// fieldReader reads consecutive positional fields, holding the first error
// so call sites stay linear like the record layout.
type fieldReader struct {
	dec *msgpack.Decoder
	err error
}

func (fr *fieldReader) int(name string) int {
	if fr.err != nil {
		return 0
	}
	v, err := fr.dec.DecodeInt()
	if err != nil {
		fr.err = fmt.Errorf("%w: field %s: %v", ErrFormat, name, err)
	}
	return v
}

func (fr *fieldReader) int64(name string) int64 {
	if fr.err != nil {
		return 0
	}
	v, err := fr.dec.DecodeInt64()
	if err != nil {
		fr.err = fmt.Errorf("%w: field %s: %v", ErrFormat, name, err)
	}
	return v
}

func (fr *fieldReader) bool(name string) bool {
	if fr.err != nil {
		return false
	}
	v, err := fr.dec.DecodeBool()
	if err != nil {
		fr.err = fmt.Errorf("%w: field %s: %v", ErrFormat, name, err)
	}
	return v
}

func (fr *fieldReader) bytes(name string) []byte {
	if fr.err != nil {
		return nil
	}
	v, err := fr.dec.DecodeBytes()
	if err != nil {
		fr.err = fmt.Errorf("%w: field %s: %v", ErrFormat, name, err)
	}
	return v
}

// f32leMatrix widens a little-endian float32 blob into a float64 matrix.
func f32leMatrix(b []byte, rows, cols int) *core.Matrix {
	m := core.New(rows, cols)
	for i := range m.Data {
		m.Data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
	}
	return m
}

// expandMask unpacks the bit-packed RFI mask into a dense boolean mask.
// Bit i of packed byte j covers time column j*8+i, so eight consecutive
// columns drain one byte LSB-first before the next byte starts.
func expandMask(blob []byte, nrfifreq, nt int) *core.Mask {
	m := core.NewMask(nrfifreq, nt)
	bytesPerRow := nt / 8
	for f := range nrfifreq {
		src := blob[f*bytesPerRow : (f+1)*bytesPerRow]
		dst := m.Row(f)
		for j, b := range src {
			for i := range 8 {
				dst[j*8+i] = b&(1<<i) != 0
			}
		}
	}
	return m
}
