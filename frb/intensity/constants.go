// Package intensity holds the CHIME/FRB band constants and assembles
// decoded chunks from consecutive callback files into one continuous
// intensity stream.
package intensity

// Instrument parameters the band geometry derives from: an 800 MSPS ADC
// alias-sampled in the second Nyquist zone, a 2048-sample FPGA FFT, and an
// X-engine that upchannelizes each coarse channel by 16 and integrates 24
// frames per intensity sample.
const (
	adcSamplingFreqHz = 800e6
	fpgaNumSampFFT    = 2048
	fpgaNumFreq       = fpgaNumSampFFT / 2
	fpgaFreq0MHz      = adcSamplingFreqHz / 1e6
	fpgaDeltaFreqMHz  = -adcSamplingFreqHz / 2 / fpgaNumFreq / 1e6
	fpgaFrequencyHz   = adcSamplingFreqHz / fpgaNumSampFFT

	upchanFactor    = 16
	framesPerSample = 8 * 3
)

// Derived constant set for the intensity data product. Computed once here;
// everything downstream reads them.
const (
	// NumChannels is the fine channel count of the intensity stream.
	NumChannels = fpgaNumFreq * upchanFactor

	// FreqTopMHz is the top of the highest-frequency channel. The FPGA
	// channel around 800 MHz is contaminated by aliasing.
	FreqTopMHz = fpgaFreq0MHz - fpgaDeltaFreqMHz/2

	// FreqBottomMHz is the bottom of the lowest-frequency channel.
	FreqBottomMHz = FreqTopMHz - adcSamplingFreqHz/2/1e6

	// BandwidthMHz is the total band width.
	BandwidthMHz = adcSamplingFreqHz / 1e6 / 2

	// ChannelBandwidthMHz is the fine channel spacing.
	ChannelBandwidthMHz = adcSamplingFreqHz / 2 / NumChannels / 1e6

	// SampleTimeSec is the intensity sampling time at binning 1.
	SampleTimeSec = upchanFactor * framesPerSample / fpgaFrequencyHz

	// FPGACountsPerSample is the number of FPGA sample-clock ticks per
	// intensity sample.
	FPGACountsPerSample = upchanFactor * framesPerSample
)

// FreqMHz returns the bin-centre frequencies of the fine channels in MHz,
// ordered bottom to top of the band.
func FreqMHz() []float64 {
	out := make([]float64, NumChannels)
	for i := range out {
		out[i] = FreqBottomMHz + ChannelBandwidthMHz/2 + float64(i)*ChannelBandwidthMHz
	}
	return out
}
