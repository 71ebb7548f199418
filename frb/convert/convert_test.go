package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/chunk"
	"github.com/chime-frb-open-data/chime-frb-open-data/frb/intensity"
	"github.com/chime-frb-open-data/chime-frb-open-data/frb/sigproc"
	"github.com/chime-frb-open-data/chime-frb-open-data/internal/testutil"
)

// candidateSpec is a small chunk standing in for one callback file:
// 8 fine channels, 100 samples, every decoded intensity 21 with weight 1.
func candidateSpec() testutil.ChunkSpec {
	return testutil.ChunkSpec{
		NFreqCoarse: 4,
		NUpFreq:     2,
		NTCoarse:    25,
		NTPerPacket: 4,
		ScaleFill:   2,
		OffsetFill:  1,
		DataFill:    10,
	}
}

func writeChunkFile(t *testing.T, dir, name string, spec testutil.ChunkSpec) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), testutil.EncodeChunk(spec), 0o644); err != nil {
		t.Fatal(err)
	}
}

// expectedHeader mirrors the header Run derives from a first batch with
// nchans output channels.
func expectedHeader(t *testing.T, glob string, nchans int) []byte {
	t.Helper()
	if len(glob) > 80 {
		glob = glob[:80]
	}
	cbw := (intensity.FreqTopMHz - intensity.FreqBottomMHz) / float64(nchans)
	hdr := sigproc.Header{
		TelescopeID: 20,
		MachineID:   20,
		DataType:    1,
		RawDataFile: glob,
		SourceName:  "CHIME/FRB candidate",
		TSamp:       intensity.SampleTimeSec,
		NBits:       32,
		NBeams:      1,
		FCh1:        intensity.FreqTopMHz - cbw/2,
		FOff:        -cbw,
		NChans:      int32(nchans),
		NIFs:        1,
	}
	var buf bytes.Buffer
	if err := sigproc.WriteHeader(&buf, hdr, 32); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c_1.msgpack", "c_2.msgpack", "c_3.msgpack", "c_4.msgpack"} {
		writeChunkFile(t, dir, name, candidateSpec())
	}
	glob := filepath.Join(dir, "*.msgpack")
	out := filepath.Join(dir, "cand.fil")

	err := Run(WithGlob(glob), WithOutfile(out), WithFScrunch(4))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	// 8 channels scrunched by 4 leave 2; header then 4 files x 100
	// samples x 2 channels of float32.
	hdr := expectedHeader(t, glob, 2)
	if !bytes.HasPrefix(got, hdr) {
		t.Fatal("file does not start with the expected header")
	}
	wantSize := len(hdr) + 4*100*2*4
	if len(got) != wantSize {
		t.Fatalf("file size = %d, want %d", len(got), wantSize)
	}

	// Uniform input: every written sample is intensity*weight = 21.
	data := got[len(hdr):]
	for i := 0; i < len(data); i += 4 {
		v := math.Float32frombits(binary.NativeEndian.Uint32(data[i:]))
		if v != 21 {
			t.Fatalf("sample %d = %v, want 21", i/4, v)
		}
	}
}

func TestRunAppendMatchesSingleBatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c_1.msgpack", "c_2.msgpack", "c_3.msgpack"} {
		writeChunkFile(t, dir, name, candidateSpec())
	}
	glob := filepath.Join(dir, "*.msgpack")

	one := filepath.Join(dir, "one.fil")
	if err := Run(WithGlob(glob), WithOutfile(one)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// RAM budget of one byte forces one file per batch: create, then two
	// appends.
	many := filepath.Join(dir, "many")
	if err := Run(WithGlob(glob), WithOutfile(many), WithRAM(1)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a, err := os.ReadFile(one)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(many + ".fil") // extension appended
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("batched output differs from single-batch output")
	}
}

func TestRunNaturalFileOrder(t *testing.T) {
	dir := t.TempDir()
	// Offsets tag each file; numeric suffixes 2 and 10 must keep numeric
	// order, not lexical.
	offsets := []float32{100, 200, 1000}
	for i, name := range []string{"b_1.msgpack", "b_2.msgpack", "b_10.msgpack"} {
		spec := testutil.ChunkSpec{
			NFreqCoarse: 4,
			NUpFreq:     2,
			ScaleFill:   1,
			DataFill:    1,
			OffsetFill:  offsets[i],
		}
		writeChunkFile(t, dir, name, spec)
	}
	out := filepath.Join(dir, "ordered.fil")
	if err := Run(WithGlob(filepath.Join(dir, "*.msgpack")), WithOutfile(out), WithFScrunch(1)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	hdr := expectedHeader(t, filepath.Join(dir, "*.msgpack"), 8)
	data := got[len(hdr):]

	// nt = 16 per file, 8 channels; sample value is offset + 1.
	sample := func(tIdx int) float32 {
		off := tIdx * 8 * 4
		return math.Float32frombits(binary.NativeEndian.Uint32(data[off:]))
	}
	if v := sample(0); v != 101 {
		t.Fatalf("t=0 sample = %v, want 101 (file b_1)", v)
	}
	if v := sample(16); v != 201 {
		t.Fatalf("t=16 sample = %v, want 201 (file b_2)", v)
	}
	if v := sample(32); v != 1001 {
		t.Fatalf("t=32 sample = %v, want 1001 (file b_10)", v)
	}
}

func TestRunEmptyGlobIsNoOp(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "none.fil")
	if err := Run(WithGlob(filepath.Join(dir, "*.msgpack")), WithOutfile(out)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("empty glob must not create an output file")
	}
}

func TestRunDecodeErrorAborts(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, "c_1.msgpack", candidateSpec())
	bad := candidateSpec()
	bad.TrimData = 3
	writeChunkFile(t, dir, "c_2.msgpack", bad)

	out := filepath.Join(dir, "broken.fil")
	err := Run(WithGlob(filepath.Join(dir, "*.msgpack")), WithOutfile(out))
	if !errors.Is(err, chunk.ErrBlobSize) {
		t.Fatalf("error = %v, want ErrBlobSize", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("failed first batch must not leave an output file")
	}
}

func TestBatchSize(t *testing.T) {
	tests := []struct {
		name string
		ram  float64
		want int
	}{
		{"default 8GB", 8e9, 4},
		{"tiny budget clamps to one", 1, 1},
		{"16GB", 16e9, 9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := batchSize(tc.ram); got != tc.want {
				t.Fatalf("batchSize(%v) = %d, want %d", tc.ram, got, tc.want)
			}
		})
	}
}
