// Package sigproc writes the legacy sigproc filterbank format: a write-once
// stream of tagged header fields followed by an append-only block of
// fixed-width samples. Scalars are packed native-endian, the byte layout
// the format's C readers expect.
package sigproc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrInvalidNBits indicates a sample width other than 8, 16 or 32
	// bits. Raised before any byte is written.
	ErrInvalidNBits = errors.New("sigproc: nbits must be 8, 16 or 32")
	// ErrUnknownField indicates a header name missing from the
	// recognized-field registry.
	ErrUnknownField = errors.New("sigproc: unknown header field")
)

// fieldKind is the payload encoding of a header field.
type fieldKind int

const (
	kindFlag   fieldKind = iota // name only, no payload
	kindInt                     // 4-byte signed int
	kindInt64                   // 8-byte signed int
	kindDouble                  // 8-byte IEEE double
	kindString                  // length-prefixed ASCII
)

// headerFields is the recognized-field registry. Names outside it are
// rejected; sigproc readers match on the exact ASCII spelling.
var headerFields = map[string]fieldKind{
	"HEADER_START":    kindFlag,
	"telescope_id":    kindInt,
	"machine_id":      kindInt,
	"data_type":       kindInt,
	"rawdatafile":     kindString,
	"source_name":     kindString,
	"barycentric":     kindInt,
	"pulsarcentric":   kindInt,
	"az_start":        kindDouble,
	"za_start":        kindDouble,
	"src_raj":         kindDouble,
	"src_dej":         kindDouble,
	"tstart":          kindDouble,
	"tsamp":           kindDouble,
	"nbits":           kindInt,
	"nsamples":        kindInt,
	"nbeams":          kindInt,
	"ibeam":           kindInt,
	"fch1":            kindDouble,
	"foff":            kindDouble,
	"FREQUENCY_START": kindFlag,
	"fchannel":        kindDouble,
	"FREQUENCY_END":   kindFlag,
	"nchans":          kindInt,
	"nifs":            kindInt,
	"refdm":           kindDouble,
	"period":          kindDouble,
	"npuls":           kindInt64,
	"nbins":           kindInt,
	"HEADER_END":      kindFlag,
}

// EncodeField encodes one tagged header field: a 4-byte length-prefixed
// ASCII name followed by the payload the registry prescribes for it. Flag
// fields take a nil value; integer fields accept int, int32 or int64;
// float fields float64; string fields string. A name outside the registry
// returns ErrUnknownField.
func EncodeField(name string, value any) ([]byte, error) {
	kind, ok := headerFields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	out := appendPrefixed(nil, name)
	switch kind {
	case kindFlag:
		if value != nil {
			return nil, fmt.Errorf("sigproc: flag field %q takes no value", name)
		}
		return out, nil
	case kindInt:
		v, err := asInt64(name, value)
		if err != nil {
			return nil, err
		}
		return binary.NativeEndian.AppendUint32(out, uint32(int32(v))), nil
	case kindInt64:
		v, err := asInt64(name, value)
		if err != nil {
			return nil, err
		}
		return binary.NativeEndian.AppendUint64(out, uint64(v)), nil
	case kindDouble:
		v, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("sigproc: field %q wants float64, got %T", name, value)
		}
		return binary.NativeEndian.AppendUint64(out, math.Float64bits(v)), nil
	default: // kindString
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("sigproc: field %q wants string, got %T", name, value)
		}
		return appendPrefixed(out, v), nil
	}
}

func asInt64(name string, value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	}
	return 0, fmt.Errorf("sigproc: field %q wants an integer, got %T", name, value)
}

// appendPrefixed appends a 4-byte signed length then the ASCII bytes of s.
func appendPrefixed(dst []byte, s string) []byte {
	dst = binary.NativeEndian.AppendUint32(dst, uint32(int32(len(s))))
	return append(dst, s...)
}

// Header carries the filterbank header scalars the converter fills in,
// in their write order. NBits is ignored on write: the writer's explicit
// nbits parameter is authoritative, mirroring what readers will find in
// the data section.
type Header struct {
	TelescopeID   int32
	MachineID     int32
	DataType      int32
	RawDataFile   string // at most 80 chars survive common readers
	SourceName    string
	Barycentric   int32
	Pulsarcentric int32
	AzStart       float64 // degrees
	ZaStart       float64 // degrees
	SrcRAJ        float64 // hhmmss.s
	SrcDEJ        float64 // ddmmss.s
	TStart        float64 // MJD
	TSamp         float64 // s
	NBits         int32
	NBeams        int32
	IBeam         int32
	FCh1          float64 // MHz, centre of the first (highest) channel
	FOff          float64 // MHz, negative
	NChans        int32
	NIFs          int32
}

// WriteHeader writes the HEADER_START..HEADER_END sequence for hdr. The
// nbits field in the stream is always the nbits argument, never
// hdr.NBits. Nothing is written when nbits is invalid.
func WriteHeader(w io.Writer, hdr Header, nbits int) error {
	if err := checkNBits(nbits); err != nil {
		return err
	}

	fields := []struct {
		name  string
		value any
	}{
		{"HEADER_START", nil},
		{"telescope_id", hdr.TelescopeID},
		{"machine_id", hdr.MachineID},
		{"data_type", hdr.DataType},
		{"rawdatafile", hdr.RawDataFile},
		{"source_name", hdr.SourceName},
		{"barycentric", hdr.Barycentric},
		{"pulsarcentric", hdr.Pulsarcentric},
		{"az_start", hdr.AzStart},
		{"za_start", hdr.ZaStart},
		{"src_raj", hdr.SrcRAJ},
		{"src_dej", hdr.SrcDEJ},
		{"tstart", hdr.TStart},
		{"tsamp", hdr.TSamp},
		{"nbits", int32(nbits)},
		{"nbeams", hdr.NBeams},
		{"ibeam", hdr.IBeam},
		{"fch1", hdr.FCh1},
		{"foff", hdr.FOff},
		{"nchans", hdr.NChans},
		{"nifs", hdr.NIFs},
		{"HEADER_END", nil},
	}

	var buf []byte
	for _, f := range fields {
		b, err := EncodeField(f.name, f.value)
		if err != nil {
			return err
		}
		buf = append(buf, b...)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("sigproc: write header: %w", err)
	}
	return nil
}

func checkNBits(nbits int) error {
	switch nbits {
	case 8, 16, 32:
		return nil
	}
	return fmt.Errorf("%w: got %d", ErrInvalidNBits, nbits)
}
