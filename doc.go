// Package auhost feeds decoded audio into processing units without copying
// samples.
//
// The central type is BufferView. Before each render cycle the host calls
// Prepare, which re-points the descriptors of the list a unit reads (the
// target) at the storage described by an upstream list (the source). Units
// are free to swap their input descriptors for scratch storage while they
// render, so the refresh runs every cycle.
//
// Around the view the package provides:
//
//   - Buffer and BufferList, a fixed-capacity descriptor list
//   - PCMBuffer, a non-interleaved float32 container for decoded audio
//   - Decoder, Encoder and LoadFile for WAV and AIFF sources
//   - Host, which drives render cycles through a Unit and exposes the
//     result as an io.Reader for playback devices
package auhost
