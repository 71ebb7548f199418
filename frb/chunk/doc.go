// Package chunk reads CHIME/FRB assembled-chunk records.
//
// An assembled chunk is the per-beam callback payload of the FRB backend: a
// msgpack array whose element order is the wire contract. Element 0 is a
// format-name marker; the following elements are, in order: version,
// compressed flag, compressed size, beam, nupfreq, nt_per_packet,
// fpga_counts_per_sample, nt_coarse, nscales, ndata, fpga0, fpgaN, binning,
// scales, offsets, data. Version 2 appends frame0_nano, nrfifreq,
// has_rfi_mask and the bit-packed RFI mask. Version 1 records have 17
// elements, version 2 records 21.
//
// The data blob holds one unsigned byte per fine-channel sample, quantized
// against per-coarse-cell float32 scales and offsets. Decode reverses the
// quantization into calibrated intensities and derives sample weights from
// the two sentinel byte values (0 and 255 mark clipped or missing data).
package chunk
