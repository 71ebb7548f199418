package convert

import "github.com/rs/zerolog"

type config struct {
	outfile  string
	glob     string
	fscrunch int
	subdm    *float64
	source   string
	ram      float64
	upsample bool
	logger   zerolog.Logger
}

func defaultConfig() config {
	return config{
		outfile:  "chimefrb.fil",
		glob:     "./*.msgpack",
		fscrunch: 4,
		source:   "CHIME/FRB candidate",
		ram:      8e9,
		logger:   zerolog.Nop(),
	}
}

// Option configures a conversion run.
type Option func(*config)

// WithOutfile sets the filterbank path to write; ".fil" is appended when
// missing (default "chimefrb.fil").
func WithOutfile(path string) Option {
	return func(cfg *config) { cfg.outfile = path }
}

// WithGlob sets the wildcard matching the callback msgpack files
// (default "./*.msgpack").
func WithGlob(glob string) Option {
	return func(cfg *config) { cfg.glob = glob }
}

// WithFScrunch sets the frequency scrunch factor, a power of two
// (default 4). Other values are substituted with 4 and warned about.
func WithFScrunch(f int) Option {
	return func(cfg *config) { cfg.fscrunch = f }
}

// WithSubDM dedisperses channels within each subband to dm (pc cm^-3)
// before averaging. The file itself stays at DM = 0.
func WithSubDM(dm float64) Option {
	return func(cfg *config) { cfg.subdm = &dm }
}

// WithSource sets the source name written into the header
// (default "CHIME/FRB candidate").
func WithSource(name string) Option {
	return func(cfg *config) { cfg.source = name }
}

// WithRAM sets the memory budget in bytes used to size the read batches
// (default 8e9). Half the budget is used, with a 3x allowance per file for
// the buffers alive at once.
func WithRAM(bytes float64) Option {
	return func(cfg *config) { cfg.ram = bytes }
}

// WithUpsample stretches mixed-binning chunks to the finest time
// resolution instead of failing on them.
func WithUpsample(on bool) Option {
	return func(cfg *config) { cfg.upsample = on }
}

// WithLogger routes run progress and warnings to l. Discarded by default.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}
