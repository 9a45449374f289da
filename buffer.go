package auhost

import (
	"errors"
	"fmt"
	"unsafe"
)

// Float32SampleSize is the width in bytes of a 32-bit float sample.
const Float32SampleSize = 4

var (
	// ErrCapacityExceeded is returned when a list would hold more descriptors
	// than it was allocated for.
	ErrCapacityExceeded = errors.New("buffer list capacity exceeded")
	// ErrNilBufferList is returned when a required buffer list is missing.
	ErrNilBufferList = errors.New("nil buffer list")
)

// Buffer describes one block of audio storage: how many interleaved
// channels it carries, how many bytes are valid and where the bytes live.
// Data is a reference, assigning it never copies samples.
type Buffer struct {
	NumberChannels uint32
	DataByteSize   uint32
	Data           []byte
}

// Bytes returns the valid part of Data, clipped to DataByteSize.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}

	if int(b.DataByteSize) < len(b.Data) {
		return b.Data[:b.DataByteSize]
	}

	return b.Data
}

// Float32s returns the valid part of the buffer as float32 samples. The
// returned slice shares storage with Data. It returns nil when the storage
// is empty or not aligned for float32 access.
func (b *Buffer) Float32s() []float32 {
	return bytesAsFloat32(b.Bytes())
}

// BufferList is a fixed-capacity list of buffer descriptors. The capacity is
// set at allocation and never grows, so a list can be handed to a render
// callback without further allocation.
type BufferList struct {
	buffers []Buffer
	n       int
}

// NewBufferList allocates a list able to hold capacity descriptors. The list
// starts with zero descriptors in use.
func NewBufferList(capacity int) *BufferList {
	if capacity < 0 {
		capacity = 0
	}

	return &BufferList{buffers: make([]Buffer, capacity)}
}

// Len returns the number of descriptors in use.
func (l *BufferList) Len() int {
	if l == nil {
		return 0
	}

	return l.n
}

// Cap returns the number of descriptors the list was allocated for.
func (l *BufferList) Cap() int {
	if l == nil {
		return 0
	}

	return len(l.buffers)
}

// SetLen changes the number of descriptors in use.
func (l *BufferList) SetLen(n int) error {
	if l == nil {
		return ErrNilBufferList
	}

	if n < 0 || n > len(l.buffers) {
		return fmt.Errorf("%w: %d descriptors, capacity %d", ErrCapacityExceeded, n, len(l.buffers))
	}

	l.n = n

	return nil
}

// At returns the descriptor at index i, or nil if i is not in use.
func (l *BufferList) At(i int) *Buffer {
	if l == nil || i < 0 || i >= l.n {
		return nil
	}

	return &l.buffers[i]
}

// Reset clears every descriptor and sets the length to zero.
func (l *BufferList) Reset() {
	if l == nil {
		return
	}

	clear(l.buffers)
	l.n = 0
}

func bytesAsFloat32(b []byte) []float32 {
	if len(b) < Float32SampleSize {
		return nil
	}

	ptr := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(ptr)%unsafe.Alignof(float32(0)) != 0 {
		return nil
	}

	return unsafe.Slice((*float32)(ptr), len(b)/Float32SampleSize)
}

func float32AsBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(f))), len(f)*Float32SampleSize)
}
