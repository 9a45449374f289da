package auhost

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-audio/audio"
)

var (
	// ErrInvalidFormat is returned for a missing format or one without channels.
	ErrInvalidFormat   = errors.New("invalid audio format")
	errMisalignedInput = errors.New("interleaved data is not a whole number of frames")
)

// PCMBuffer holds decoded audio as one float32 block per channel. The
// storage is allocated once for FrameCapacity frames; FrameLength frames of
// it are valid.
type PCMBuffer struct {
	format   *audio.Format
	channels [][]float32
	capacity int
	length   int
}

// NewPCMBuffer allocates a buffer for frameCapacity frames of format.
func NewPCMBuffer(format *audio.Format, frameCapacity int) (*PCMBuffer, error) {
	if format == nil || format.NumChannels < 1 {
		return nil, ErrInvalidFormat
	}

	if frameCapacity < 0 {
		return nil, fmt.Errorf("%w: negative frame capacity %d", ErrInvalidFormat, frameCapacity)
	}

	channels := make([][]float32, format.NumChannels)
	for i := range channels {
		channels[i] = make([]float32, frameCapacity)
	}

	return &PCMBuffer{
		format:   &audio.Format{NumChannels: format.NumChannels, SampleRate: format.SampleRate},
		channels: channels,
		capacity: frameCapacity,
	}, nil
}

// Format returns the format of the buffer.
func (b *PCMBuffer) Format() *audio.Format {
	if b == nil {
		return nil
	}

	return b.format
}

// NumChannels returns the number of channels.
func (b *PCMBuffer) NumChannels() int {
	if b == nil {
		return 0
	}

	return len(b.channels)
}

// SampleRate returns the sample rate in hertz.
func (b *PCMBuffer) SampleRate() int {
	if b == nil || b.format == nil {
		return 0
	}

	return b.format.SampleRate
}

// FrameCapacity returns the number of frames the storage can hold.
func (b *PCMBuffer) FrameCapacity() int {
	if b == nil {
		return 0
	}

	return b.capacity
}

// FrameLength returns the number of valid frames.
func (b *PCMBuffer) FrameLength() int {
	if b == nil {
		return 0
	}

	return b.length
}

// SetFrameLength marks n frames as valid.
func (b *PCMBuffer) SetFrameLength(n int) error {
	if n < 0 || n > b.capacity {
		return fmt.Errorf("%w: %d frames, capacity %d", ErrCapacityExceeded, n, b.capacity)
	}

	b.length = n

	return nil
}

// grow reallocates the storage for frameCapacity frames, keeping the valid
// frames.
func (b *PCMBuffer) grow(frameCapacity int) {
	if frameCapacity <= b.capacity {
		return
	}

	for i, ch := range b.channels {
		next := make([]float32, frameCapacity)
		copy(next, ch[:b.length])
		b.channels[i] = next
	}

	b.capacity = frameCapacity
}

// trim drops the storage past the valid frames.
func (b *PCMBuffer) trim() {
	if b.length == b.capacity {
		return
	}

	for i, ch := range b.channels {
		b.channels[i] = slices.Clone(ch[:b.length])
	}

	b.capacity = b.length
}

// Channel returns the valid samples of channel i. The slice aliases the
// buffer's storage.
func (b *PCMBuffer) Channel(i int) []float32 {
	if b == nil || i < 0 || i >= len(b.channels) {
		return nil
	}

	return b.channels[i][:b.length]
}

// BufferList returns a list with one mono descriptor per channel, each
// pointing at the channel's storage.
func (b *PCMBuffer) BufferList() *BufferList {
	list := NewBufferList(len(b.channels))
	b.fillList(list, 0, b.length)

	return list
}

// fillList points list at frames [from, from+frames) of every channel. The
// list must hold at least NumChannels descriptors.
func (b *PCMBuffer) fillList(list *BufferList, from, frames int) {
	list.n = len(b.channels)

	for i, ch := range b.channels {
		data := float32AsBytes(ch[from : from+frames])
		list.buffers[i] = Buffer{
			NumberChannels: 1,
			DataByteSize:   uint32(len(data)),
			Data:           data,
		}
	}
}

// AppendInterleaved deinterleaves buf into the free capacity and returns the
// number of frames written. Frames past the capacity are dropped.
func (b *PCMBuffer) AppendInterleaved(buf *audio.Float32Buffer) (int, error) {
	if buf == nil {
		return 0, nil
	}

	numChans := len(b.channels)
	if buf.Format != nil && buf.Format.NumChannels != numChans {
		return 0, fmt.Errorf("%w: buffer has %d channels, want %d", ErrInvalidFormat, buf.Format.NumChannels, numChans)
	}

	if len(buf.Data)%numChans != 0 {
		return 0, errMisalignedInput
	}

	frames := min(len(buf.Data)/numChans, b.capacity-b.length)
	for i := range frames {
		for c := range numChans {
			b.channels[c][b.length+i] = buf.Data[i*numChans+c]
		}
	}

	b.length += frames

	return frames, nil
}

// Interleaved copies frames [from, from+frames) into a new interleaved
// buffer. The range is clipped to the valid frames.
func (b *PCMBuffer) Interleaved(from, frames int) *audio.Float32Buffer {
	from = max(0, min(from, b.length))
	frames = max(0, min(frames, b.length-from))
	numChans := len(b.channels)

	out := &audio.Float32Buffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: b.SampleRate()},
		Data:           make([]float32, frames*numChans),
		SourceBitDepth: 32,
	}

	for i := range frames {
		for c := range numChans {
			out.Data[i*numChans+c] = b.channels[c][from+i]
		}
	}

	return out
}
