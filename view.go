package auhost

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// ErrByteSizeOverflow is returned when MaxFrames*BytesPerSample does not fit
// a descriptor's 32-bit byte size.
var ErrByteSizeOverflow = errors.New("buffer byte size overflows uint32")

// unityGainBits is the IEEE 754 encoding of 1.0. Gain is stored XORed with it
// so the zero value reads as unity.
const unityGainBits = 0x3F800000

// BufferView connects an upstream buffer list to the list a processing unit
// reads. The view owns none of the memory it points at.
type BufferView struct {
	// Decoded is the container the source list describes, if any.
	Decoded *PCMBuffer
	// Target is rewritten by Prepare.
	Target *BufferList
	// Source supplies the storage for the current cycle and is never written.
	Source *BufferList
	// MaxFrames is the number of frames exposed per cycle.
	MaxFrames uint32
	// BytesPerSample is the sample width used to size descriptors.
	// Zero means Float32SampleSize.
	BytesPerSample uint32

	gain atomic.Uint32
}

// NewBufferView returns a view over source and target with unity gain.
func NewBufferView(source, target *BufferList, maxFrames uint32) *BufferView {
	v := &BufferView{
		Target:    target,
		Source:    source,
		MaxFrames: maxFrames,
	}
	v.SetGain(1)

	return v
}

// Gain returns the linear gain of the connection. A zero-value view reports
// unity gain.
func (v *BufferView) Gain() float32 {
	return math.Float32frombits(v.gain.Load() ^ unityGainBits)
}

// SetGain stores the linear gain of the connection. Prepare does not apply
// it; the samples behind Source are never modified by the view.
func (v *BufferView) SetGain(gain float32) {
	v.gain.Store(math.Float32bits(gain) ^ unityGainBits)
}

// Prepare points every descriptor of Target at the storage of the matching
// Source descriptor and advertises MaxFrames worth of bytes in each. It
// must run before the unit reads Target in every cycle, because a unit may
// have replaced Target's descriptors with its own scratch buffers.
//
// Prepare does not allocate or block. When Source holds more descriptors
// than Target can, Target is left untouched and ErrCapacityExceeded is
// returned.
func (v *BufferView) Prepare() error {
	if v.Source == nil || v.Target == nil {
		return ErrNilBufferList
	}

	byteSize, err := v.byteSize()
	if err != nil {
		return err
	}

	n := v.Source.Len()
	if n > v.Target.Cap() {
		return fmt.Errorf("%w: source has %d descriptors, target holds %d", ErrCapacityExceeded, n, v.Target.Cap())
	}

	v.Target.n = n

	for i := range n {
		src := &v.Source.buffers[i]
		dst := &v.Target.buffers[i]

		dst.NumberChannels = src.NumberChannels
		dst.Data = src.Data
		dst.DataByteSize = byteSize
	}

	return nil
}

func (v *BufferView) byteSize() (uint32, error) {
	width := uint64(v.BytesPerSample)
	if width == 0 {
		width = Float32SampleSize
	}

	size := uint64(v.MaxFrames) * width
	if size > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d frames of %d bytes", ErrByteSizeOverflow, v.MaxFrames, width)
	}

	return uint32(size), nil
}
