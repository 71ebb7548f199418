package subband

import (
	"github.com/rs/zerolog"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/intensity"
)

type config struct {
	logger  zerolog.Logger
	dm      *float64
	dt      float64 // input sampling time, s
	df      float64 // native channel spacing, MHz
	fbottom float64 // bottom of the band, MHz
}

func defaultConfig() config {
	return config{
		logger:  zerolog.Nop(),
		dt:      intensity.SampleTimeSec,
		df:      intensity.ChannelBandwidthMHz,
		fbottom: intensity.FreqBottomMHz,
	}
}

// Option configures a scrunch.
type Option func(*config)

// WithLogger routes the non-fatal warnings (factor substitution, oversized
// channel count) to l. Discarded by default.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithDM enables intra-subband delay correction against the reference
// dispersion measure dm, in pc cm^-3. Without it channels are averaged
// as-is.
func WithDM(dm float64) Option {
	return func(cfg *config) { cfg.dm = &dm }
}

// WithSampleTime sets the input sampling time in seconds (default the
// native CHIME/FRB intensity cadence).
func WithSampleTime(dt float64) Option {
	return func(cfg *config) { cfg.dt = dt }
}

// WithBand sets the bottom of the band and the native channel spacing in
// MHz (default the CHIME/FRB band). Channel row i is centred at
// fbottom + df/2 + i*df.
func WithBand(fbottomMHz, dfMHz float64) Option {
	return func(cfg *config) {
		cfg.fbottom = fbottomMHz
		cfg.df = dfMHz
	}
}
