// Package testutil provides deterministic fixtures shared by the package
// tests: msgpack assembled-chunk records built field by field, and
// comparison helpers for the float64 matrices the pipeline moves around.
package testutil

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// ChunkSpec describes an assembled-chunk record to encode. The zero value
// is completed by defaults that form a small valid version-1 chunk
// (2 coarse channels x 4 coarse samples, nupfreq 2, nt_per_packet 4).
type ChunkSpec struct {
	Version             int
	Compressed          bool
	CompressedSize      int
	Beam                int
	NUpFreq             int
	NTPerPacket         int
	FPGACountsPerSample int
	NTCoarse            int
	NFreqCoarse         int
	FPGA0               int64
	FPGAN               int64
	Binning             int

	// Uniform fills used when the explicit blobs below are nil.
	ScaleFill  float32
	OffsetFill float32
	DataFill   uint8

	Scales  []float32
	Offsets []float32
	Data    []byte

	// Version 2 fields.
	Frame0Nano int64
	NRFIFreq   int
	HasRFIMask bool
	RFIMask    []byte

	// DeclaredElements overrides the msgpack array length written for the
	// record, leaving the element stream itself untouched. Zero means the
	// correct count for the version.
	DeclaredElements int

	// TrimData drops this many bytes from the end of the data blob.
	TrimData int
}

func (s ChunkSpec) withDefaults() ChunkSpec {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Beam == 0 {
		s.Beam = 147
	}
	if s.NUpFreq == 0 {
		s.NUpFreq = 2
	}
	if s.NTPerPacket == 0 {
		s.NTPerPacket = 4
	}
	if s.FPGACountsPerSample == 0 {
		s.FPGACountsPerSample = 384
	}
	if s.NTCoarse == 0 {
		s.NTCoarse = 4
	}
	if s.NFreqCoarse == 0 {
		s.NFreqCoarse = 2
	}
	if s.FPGAN == 0 {
		s.FPGAN = int64(s.FPGACountsPerSample) * int64(s.NTCoarse*s.NTPerPacket)
	}
	if s.Binning == 0 {
		s.Binning = 1
	}
	if s.ScaleFill == 0 {
		s.ScaleFill = 1
	}
	return s
}

// NT returns the fine sample count the spec describes.
func (s ChunkSpec) NT() int {
	s = s.withDefaults()
	return s.NTCoarse * s.NTPerPacket
}

// NFreqFine returns the fine channel count the spec describes.
func (s ChunkSpec) NFreqFine() int {
	s = s.withDefaults()
	return s.NFreqCoarse * s.NUpFreq
}

// EncodeChunk builds the msgpack record for the spec.
func EncodeChunk(spec ChunkSpec) []byte {
	s := spec.withDefaults()

	nt := s.NTCoarse * s.NTPerPacket
	nscales := s.NFreqCoarse * s.NTCoarse
	ndata := s.NFreqCoarse * s.NUpFreq * nt

	scales := s.Scales
	if scales == nil {
		scales = uniform32(nscales, s.ScaleFill)
	}
	offsets := s.Offsets
	if offsets == nil {
		offsets = uniform32(nscales, s.OffsetFill)
	}
	data := s.Data
	if data == nil {
		data = bytes.Repeat([]byte{s.DataFill}, ndata)
	}
	if s.TrimData > 0 && s.TrimData <= len(data) {
		data = data[:len(data)-s.TrimData]
	}

	elements := 17
	if s.Version == 2 {
		elements = 21
	}
	if s.DeclaredElements != 0 {
		elements = s.DeclaredElements
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	must(enc.EncodeArrayLen(elements))
	must(enc.EncodeString("assembled_chunk"))
	must(enc.EncodeInt(int64(s.Version)))
	must(enc.EncodeBool(s.Compressed))
	must(enc.EncodeInt(int64(s.CompressedSize)))
	must(enc.EncodeInt(int64(s.Beam)))
	must(enc.EncodeInt(int64(s.NUpFreq)))
	must(enc.EncodeInt(int64(s.NTPerPacket)))
	must(enc.EncodeInt(int64(s.FPGACountsPerSample)))
	must(enc.EncodeInt(int64(s.NTCoarse)))
	must(enc.EncodeInt(int64(nscales)))
	must(enc.EncodeInt(int64(ndata)))
	must(enc.EncodeInt(s.FPGA0))
	must(enc.EncodeInt(s.FPGAN))
	must(enc.EncodeInt(int64(s.Binning)))
	must(enc.EncodeBytes(f32leBytes(scales)))
	must(enc.EncodeBytes(f32leBytes(offsets)))
	must(enc.EncodeBytes(data))

	if s.Version == 2 {
		must(enc.EncodeInt(s.Frame0Nano))
		must(enc.EncodeInt(int64(s.NRFIFreq)))
		must(enc.EncodeBool(s.HasRFIMask))
		must(enc.EncodeBytes(s.RFIMask))
	}

	return buf.Bytes()
}

func uniform32(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func f32leBytes(vals []float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
