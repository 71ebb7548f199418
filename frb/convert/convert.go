// Package convert drives the msgpack-to-filterbank pipeline: glob the
// callback files, order them naturally, and stream them through decode,
// assembly and subbanding into one filterbank file in memory-bounded
// batches.
//
// Batches run strictly in order against a single exclusively-owned output
// handle: the header is fixed by the first batch's shape and later batches
// only append samples, so a failure in batch k stops the run with every
// earlier batch already durable in the file.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-vecmath"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/chunk"
	"github.com/chime-frb-open-data/chime-frb-open-data/frb/core"
	"github.com/chime-frb-open-data/chime-frb-open-data/frb/intensity"
	"github.com/chime-frb-open-data/chime-frb-open-data/frb/sigproc"
	"github.com/chime-frb-open-data/chime-frb-open-data/frb/subband"
	"github.com/chime-frb-open-data/chime-frb-open-data/internal/natsort"
)

// perFileEstimate is the in-memory footprint of one decoded callback file:
// 16384 channels x 1024 samples x 2 planes of 8-byte float64.
const perFileEstimate = 16384 * 1024 * 2 * 8

// batchOverhead covers the decoded planes, the assembly intermediates and
// the output buffers being alive at once.
const batchOverhead = 3

// outNBits is the sample width of the written filterbank files.
const outNBits = 32

// Run converts the files matching the configured glob into one filterbank
// file. With no matching files it warns and returns nil without creating
// anything.
func Run(opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger.With().Str("run", uuid.NewString()).Logger()

	outfile := cfg.outfile
	if !strings.HasSuffix(outfile, ".fil") {
		outfile += ".fil"
	}

	files, err := filepath.Glob(cfg.glob)
	if err != nil {
		return fmt.Errorf("convert: glob %q: %w", cfg.glob, err)
	}
	if len(files) == 0 {
		logger.Warn().Str("glob", cfg.glob).Msg("no files found for wildcard")
		return nil
	}
	natsort.Sort(files)

	batch := batchSize(cfg.ram)
	reads := (len(files) + batch - 1) / batch

	var out *os.File
	for i := range reads {
		lo := i * batch
		hi := min(lo+batch, len(files))
		logger.Info().
			Int("batch", i+1).
			Int("of", reads).
			Int("files", hi-lo).
			Msg("reading msgpack batch")

		res, err := convertBatch(files[lo:hi], cfg, logger)
		if err != nil {
			if out != nil {
				out.Close()
			}
			return err
		}

		block := product(res.Intensity, res.Weights)
		if i == 0 {
			logger.Info().Str("path", outfile).Msg("creating filterbank file")
			out, err = os.Create(outfile)
			if err != nil {
				return fmt.Errorf("convert: %w", err)
			}
			hdr := header(cfg, res)
			if err := sigproc.CreateFile(out, hdr, block, outNBits); err != nil {
				out.Close()
				return err
			}
			continue
		}

		logger.Info().Str("path", outfile).Msg("appending to filterbank file")
		if err := sigproc.AppendBlock(out, block, outNBits); err != nil {
			out.Close()
			return err
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("convert: close %s: %w", outfile, err)
	}
	return nil
}

// convertBatch decodes one batch of files in order, assembles them into a
// continuous stream and subbands the result.
func convertBatch(files []string, cfg config, logger zerolog.Logger) (*subband.Result, error) {
	decoded := make([]intensity.Decoded, 0, len(files))
	for _, path := range files {
		c, err := chunk.ReadFile(path)
		if err != nil {
			return nil, err
		}
		logger.Debug().
			Str("file", filepath.Base(path)).
			Int("beam", c.Beam).
			Int("nt", c.NT).
			Int("binning", c.Binning).
			Msg("decoded chunk")
		decoded = append(decoded, intensity.FromChunk(c))
	}

	mode := intensity.Downsample
	if cfg.upsample {
		mode = intensity.Upsample
	}
	stream, err := intensity.Assemble(decoded, mode)
	if err != nil {
		return nil, fmt.Errorf("%w (files %s..%s)", err, filepath.Base(files[0]), filepath.Base(files[len(files)-1]))
	}

	dt := intensity.SampleTimeSec * float64(stream.Binning)
	subOpts := []subband.Option{
		subband.WithLogger(logger),
		subband.WithSampleTime(dt),
	}
	if cfg.subdm != nil {
		subOpts = append(subOpts, subband.WithDM(*cfg.subdm))
	}
	return subband.Scrunch(stream.Intensity, stream.Weights, cfg.fscrunch, subOpts...)
}

// header builds the filterbank header from the first batch's result; its
// shape is assumed constant for every later batch.
func header(cfg config, res *subband.Result) sigproc.Header {
	nchans := res.Intensity.Rows
	cbw := (intensity.FreqTopMHz - intensity.FreqBottomMHz) / float64(nchans)
	raw := cfg.glob
	if len(raw) > 80 {
		raw = raw[:80]
	}
	return sigproc.Header{
		TelescopeID: 20, // CHIME
		MachineID:   20, // CHIME/FRB backend
		DataType:    1,  // filterbank
		RawDataFile: raw,
		SourceName:  cfg.source,
		TSamp:       res.SampleTime,
		NBits:       outNBits,
		NBeams:      1,
		IBeam:       0,
		FCh1:        intensity.FreqTopMHz - cbw/2,
		FOff:        -cbw,
		NChans:      int32(nchans),
		NIFs:        1,
	}
}

// product returns intensity*weights elementwise; masked samples persist in
// the file as zeros.
func product(in, weights *core.Matrix) *core.Matrix {
	out := core.New(in.Rows, in.Cols)
	vecmath.MulBlock(out.Data, in.Data, weights.Data)
	return out
}

// batchSize returns how many files fit in half the RAM budget with the
// batch overhead applied, never fewer than one.
func batchSize(ram float64) int {
	n := int(0.5 * ram / (perFileEstimate * batchOverhead))
	if n < 1 {
		n = 1
	}
	return n
}
