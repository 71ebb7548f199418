// Command msgpack2fil converts CHIME/FRB intensity callback files
// (msgpack assembled chunks) into a sigproc filterbank file.
//
// Examples:
//
//	msgpack2fil --obsglob './astro_5941664*.msgpack' -o candidate.fil
//	msgpack2fil --obsglob './*.msgpack' --fscrunch 8 --subdm 348.8
package main

import (
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chime-frb-open-data/chime-frb-open-data/frb/convert"
)

var (
	outfile  string
	obsglob  string
	fscrunch int
	subdm    float64
	source   string
	ram      float64
	upsample bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "msgpack2fil",
	Short: "Convert CHIME/FRB msgpack callback files to a filterbank file",
	Long: `msgpack2fil reads the intensity callback files matching --obsglob in
natural order, reconstructs the calibrated intensity stream, optionally
dedisperses channels within each subband to --subdm, frequency-scrunches by
--fscrunch and writes one sigproc filterbank file.

The files are processed in batches sized to the --ram budget; the output
file is created on the first batch and appended to afterwards.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()

		opts := []convert.Option{
			convert.WithOutfile(outfile),
			convert.WithGlob(obsglob),
			convert.WithFScrunch(fscrunch),
			convert.WithSource(source),
			convert.WithRAM(ram),
			convert.WithUpsample(upsample),
			convert.WithLogger(logger),
		}
		if !math.IsNaN(subdm) {
			opts = append(opts, convert.WithSubDM(subdm))
		}
		return convert.Run(opts...)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outfile, "outfile", "o", "chimefrb.fil", "filterbank file name ('.fil' appended if missing)")
	rootCmd.Flags().StringVar(&obsglob, "obsglob", "./*.msgpack", "glob for the observation msgpack files, in quotes")
	rootCmd.Flags().IntVar(&fscrunch, "fscrunch", 4, "frequency scrunch factor, a power of 2")
	rootCmd.Flags().Float64Var(&subdm, "subdm", math.NaN(), "dedisperse subband channels to this DM (pc cm^-3) before subbanding")
	rootCmd.Flags().StringVar(&source, "source", "CHIME/FRB candidate", "source name written into the header")
	rootCmd.Flags().Float64Var(&ram, "ram", 8e9, "RAM available, in bytes")
	rootCmd.Flags().BoolVar(&upsample, "upsample", false, "stretch mixed-binning chunks to the finest time resolution")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
		logger.Error().Err(err).Msg("conversion failed")
		os.Exit(1)
	}
}
