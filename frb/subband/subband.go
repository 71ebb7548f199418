// Package subband reduces the frequency resolution of an intensity stream
// by averaging groups of channels into subbands, optionally aligning the
// channels within each subband to a reference dispersion measure first.
//
// Naive averaging across a subband smears a dispersed pulse: the lower
// channels of the group lag the higher ones. With a reference DM set, each
// native channel is circularly shifted by its delay relative to the
// subband's centre frequency before the average, and the samples the shift
// wraps around are excluded by zeroing their weights. The intensity values
// themselves are never discarded, only masked.
package subband

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/core"
)

// ErrScrunchRange indicates a power-of-two scrunch factor that exceeds or
// does not divide the input channel count.
var ErrScrunchRange = errors.New("subband: scrunch factor cannot partition the band")

// maxScrunch is the largest accepted scrunch factor, the full native
// channel count of the instrument.
const maxScrunch = 16384

// sigprocChannelCap is the default spectrum-length cap of common sigproc
// readers; exceeding it is legal but worth a warning.
const sigprocChannelCap = 4096

// Result is the subbanded stream with its updated resolutions.
type Result struct {
	Intensity *core.Matrix
	Weights   *core.Matrix

	// SampleTime is the output sampling time in seconds (unchanged by
	// subbanding).
	SampleTime float64
	// ChannelWidth is the output channel width in MHz, fscrunch times
	// the native spacing.
	ChannelWidth float64
}

// DelayFromDM returns the dispersive delay in seconds accumulated in the
// interstellar medium at observing frequency fMHz, for a dispersion
// measure dm in pc cm^-3. Non-positive frequencies have no defined delay
// and return 0.
func DelayFromDM(dm, fMHz float64) float64 {
	if fMHz <= 0 {
		return 0
	}
	return dm / (0.000241 * fMHz * fMHz)
}

// Scrunch averages groups of fscrunch adjacent channels of in/weights
// (both shaped nchan x nt, channel rows ordered bottom to top of the band)
// into nchan/fscrunch subbands.
//
// fscrunch must be a power of two no greater than 16384; any other value
// is replaced with 4 and a warning is logged, a deliberately non-fatal
// policy. A power of two that cannot partition the channel count is fatal
// (ErrScrunchRange). fscrunch == 1 returns the inputs unchanged.
//
// With WithDM set, each channel is delay-corrected against its subband's
// centre frequency before averaging; in and weights are modified in place
// by that correction. The subband intensity is the weighted mean of its
// channels (0 where the group's total weight is 0), the subband weight the
// arithmetic mean of the input weights.
func Scrunch(in, weights *core.Matrix, fscrunch int, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if !validFactor(fscrunch) {
		cfg.logger.Warn().
			Int("fscrunch", fscrunch).
			Msg("fscrunch is not a power of 2 in [1, 16384], substituting 4")
		fscrunch = 4
	}

	nchan := in.Rows
	nt := in.Cols
	if fscrunch > nchan || nchan%fscrunch != 0 {
		return nil, fmt.Errorf("%w: fscrunch %d over %d channels", ErrScrunchRange, fscrunch, nchan)
	}

	if fscrunch == 1 {
		return &Result{Intensity: in, Weights: weights, SampleTime: cfg.dt, ChannelWidth: cfg.df}, nil
	}

	nsub := nchan / fscrunch
	if nsub > sigprocChannelCap {
		cfg.logger.Warn().
			Int("nchans", nsub).
			Msg("sigproc spectrum lengths are capped at 4096 channels by default; readers need a recompile for this file")
	}

	if cfg.dm != nil {
		dedisperse(in, weights, *cfg.dm, fscrunch, cfg)
	}

	outI := core.New(nsub, nt)
	outW := core.New(nsub, nt)
	prod := make([]float64, nt)

	for j := range nsub {
		acc := outI.Row(j)  // sum of value*weight
		wsum := outW.Row(j) // sum of weights
		for k := range fscrunch {
			r := j*fscrunch + k
			vecmath.MulBlock(prod, in.Row(r), weights.Row(r))
			vecmath.AddBlockInPlace(acc, prod)
			vecmath.AddBlockInPlace(wsum, weights.Row(r))
		}
		for t := range nt {
			if wsum[t] > 0 {
				acc[t] /= wsum[t]
			} else {
				acc[t] = 0
			}
			wsum[t] /= float64(fscrunch)
		}
	}

	return &Result{
		Intensity:    outI,
		Weights:      outW,
		SampleTime:   cfg.dt,
		ChannelWidth: float64(fscrunch) * cfg.df,
	}, nil
}

// dedisperse rotates every channel by its delay relative to the centre
// frequency of the subband it will join, rounded to whole samples, and
// zeroes the weights over the wrapped region.
func dedisperse(in, weights *core.Matrix, dm float64, fscrunch int, cfg config) {
	nt := in.Cols
	dfOut := float64(fscrunch) * cfg.df

	for ii := range in.Rows {
		oldCentre := cfg.fbottom + cfg.df/2 + float64(ii)*cfg.df
		newCentre := cfg.fbottom + dfOut/2 + float64(ii/fscrunch)*dfOut
		rel := DelayFromDM(dm, oldCentre) - DelayFromDM(dm, newCentre)
		bins := int(math.RoundToEven(rel / cfg.dt))
		if bins == 0 {
			continue
		}

		in.RollRow(ii, -bins)
		weights.RollRow(ii, -bins)

		wrapped := min(abs(bins), nt)
		if bins > 0 {
			weights.ZeroRowRange(ii, nt-wrapped, nt)
		} else {
			weights.ZeroRowRange(ii, 0, wrapped)
		}
	}
}

// validFactor reports whether f is a power of two in [1, 16384].
func validFactor(f int) bool {
	return f > 0 && f <= maxScrunch && f&(f-1) == 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
