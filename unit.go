package auhost

import (
	"errors"
	"fmt"
)

var errUnitOutputTooSmall = errors.New("unit output too small")

// Unit is a processing stage in a render cycle. Render reads frames from
// the descriptors of in and writes the result into the storage already
// attached to out. A unit may repoint the descriptors of in at its own
// scratch storage; the host restores them with BufferView.Prepare before
// the next cycle.
type Unit interface {
	Render(in, out *BufferList, frames int) error
}

// Bypass copies its input to its output.
type Bypass struct{}

// Render implements Unit.
func (Bypass) Render(in, out *BufferList, frames int) error {
	return renderEach(in, out, frames, func(dst, src []float32) {
		copy(dst, src)
	})
}

// Polarity inverts the sign of every sample.
type Polarity struct{}

// Render implements Unit.
func (Polarity) Render(in, out *BufferList, frames int) error {
	return renderEach(in, out, frames, func(dst, src []float32) {
		for i, v := range src {
			dst[i] = -v
		}
	})
}

// renderEach runs fn over matching descriptor pairs of in and out, limited
// to frames frames, and updates the out descriptors to describe the result.
func renderEach(in, out *BufferList, frames int, fn func(dst, src []float32)) error {
	if in == nil || out == nil {
		return ErrNilBufferList
	}

	if err := out.SetLen(in.Len()); err != nil {
		return err
	}

	for i := range in.Len() {
		src := in.At(i)
		dst := out.At(i)
		n := frames * int(src.NumberChannels)

		srcSamples := src.Float32s()
		if len(srcSamples) < n {
			return fmt.Errorf("%w: descriptor %d has %d samples, need %d", errShortBuffer, i, len(srcSamples), n)
		}

		dstSamples := bytesAsFloat32(dst.Data)
		if len(dstSamples) < n {
			return fmt.Errorf("%w: descriptor %d holds %d samples, need %d", errUnitOutputTooSmall, i, len(dstSamples), n)
		}

		fn(dstSamples[:n], srcSamples[:n])

		dst.NumberChannels = src.NumberChannels
		dst.DataByteSize = uint32(n * Float32SampleSize)
	}

	return nil
}
