package auhost

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
)

// DefaultMaxFrames is the render cycle size used when WithMaxFrames is not
// given.
const DefaultMaxFrames = 512

var (
	errFrameCountOutOfRange = errors.New("frame count out of range")
	errNilDecodedBuffer     = errors.New("nil decoded buffer")
	errSeekOutOfRange       = errors.New("seek position out of range")
)

// Option configures a Host.
type Option func(*Host)

// WithMaxFrames sets the largest number of frames a render cycle may ask for.
func WithMaxFrames(n int) Option {
	return func(h *Host) {
		h.maxFrames = n
	}
}

// WithLoop makes the host restart at the first frame once the decoded
// buffer is exhausted.
func WithLoop(loop bool) Option {
	return func(h *Host) {
		h.loop = loop
	}
}

// WithGain sets the initial linear gain of the connection.
func WithGain(gain float32) Option {
	return func(h *Host) {
		h.initialGain = gain
	}
}

// Host plays a decoded buffer through a Unit one render cycle at a time.
// The unit reads the decoded storage in place through a BufferView.
//
// RenderCycle, Read and Reset must be called from a single goroutine.
// SetGain, Seek and Position may be called from any goroutine.
type Host struct {
	decoded *PCMBuffer
	unit    Unit
	view    *BufferView

	source *BufferList
	target *BufferList
	output *BufferList

	outStore [][]float32
	scratch  []float64
	ramp     []float64

	maxFrames   int
	loop        bool
	initialGain float32
	lastGain    float32

	cursor   int
	position atomic.Int64
	seekTo   atomic.Int64

	pending    []byte
	pendingOff int
}

// NewHost builds a host over decoded. A nil unit renders as Bypass.
func NewHost(decoded *PCMBuffer, unit Unit, opts ...Option) (*Host, error) {
	if decoded == nil {
		return nil, errNilDecodedBuffer
	}

	if unit == nil {
		unit = Bypass{}
	}

	h := &Host{
		decoded:     decoded,
		unit:        unit,
		maxFrames:   DefaultMaxFrames,
		initialGain: 1,
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.maxFrames < 1 {
		return nil, fmt.Errorf("%w: max frames %d", errFrameCountOutOfRange, h.maxFrames)
	}

	numChans := decoded.NumChannels()

	h.source = NewBufferList(numChans)
	h.target = NewBufferList(numChans)
	h.output = NewBufferList(numChans)
	h.outStore = make([][]float32, numChans)

	for i := range h.outStore {
		h.outStore[i] = make([]float32, h.maxFrames)
	}

	h.scratch = make([]float64, h.maxFrames)
	h.ramp = make([]float64, h.maxFrames)
	h.pending = make([]byte, 0, h.maxFrames*numChans*Float32SampleSize)

	h.view = NewBufferView(h.source, h.target, uint32(h.maxFrames))
	h.view.Decoded = decoded
	h.view.SetGain(h.initialGain)
	h.lastGain = h.initialGain

	return h, nil
}

// View returns the view feeding the unit.
func (h *Host) View() *BufferView {
	return h.view
}

// NumChannels returns the channel count of the rendered output.
func (h *Host) NumChannels() int {
	return h.decoded.NumChannels()
}

// SampleRate returns the sample rate of the decoded buffer.
func (h *Host) SampleRate() int {
	return h.decoded.SampleRate()
}

// MaxFrames returns the largest render cycle.
func (h *Host) MaxFrames() int {
	return h.maxFrames
}

// Gain returns the connection gain.
func (h *Host) Gain() float32 {
	return h.view.Gain()
}

// SetGain changes the connection gain. The change is ramped over the next
// render cycle.
func (h *Host) SetGain(gain float32) {
	h.view.SetGain(gain)
}

// Position returns the index of the next frame to be rendered. A seek that
// has not been applied by a render cycle yet is reported as its target.
func (h *Host) Position() int {
	if seek := h.seekTo.Load(); seek > 0 {
		return int(seek - 1)
	}

	return int(h.position.Load())
}

// Seek schedules the next render cycle to start at frame.
func (h *Host) Seek(frame int) error {
	if frame < 0 || frame > h.decoded.FrameLength() {
		return fmt.Errorf("%w: frame %d of %d", errSeekOutOfRange, frame, h.decoded.FrameLength())
	}

	h.seekTo.Store(int64(frame) + 1)

	return nil
}

// Reset rewinds to the first frame and drops any buffered Read output.
func (h *Host) Reset() {
	h.seekTo.Store(0)
	h.cursor = 0
	h.position.Store(0)
	h.pending = h.pending[:0]
	h.pendingOff = 0
}

// RenderCycle renders up to frames frames starting at the current position
// and returns the unit's output list together with the number of frames
// rendered. When fewer frames remain, the rest of the output up to frames
// is silence. Once the decoded buffer is exhausted RenderCycle returns
// io.EOF, unless the host loops.
//
// The returned list is reused by the next cycle.
func (h *Host) RenderCycle(frames int) (*BufferList, int, error) {
	if frames < 1 || frames > h.maxFrames {
		return nil, 0, fmt.Errorf("%w: %d frames, max %d", errFrameCountOutOfRange, frames, h.maxFrames)
	}

	if seek := h.seekTo.Swap(0); seek > 0 {
		h.cursor = int(seek - 1)
		h.pending = h.pending[:0]
		h.pendingOff = 0
	}

	length := h.decoded.FrameLength()
	if h.cursor >= length {
		if !h.loop || length == 0 {
			return nil, 0, io.EOF
		}

		h.cursor = 0
	}

	n := min(frames, length-h.cursor)

	h.decoded.fillList(h.source, h.cursor, n)
	h.view.MaxFrames = uint32(n)

	if err := h.view.Prepare(); err != nil {
		return nil, 0, err
	}

	h.resetOutput()

	if err := h.unit.Render(h.target, h.output, n); err != nil {
		return nil, 0, fmt.Errorf("unit render failed: %w", err)
	}

	h.applyGain(n)
	h.padOutput(n, frames)

	h.cursor += n
	h.position.Store(int64(h.cursor))

	return h.output, n, nil
}

// Read implements io.Reader. It renders cycles of MaxFrames frames and
// returns them as interleaved little-endian float32 samples.
func (h *Host) Read(p []byte) (int, error) {
	written := 0

	for written < len(p) {
		if h.pendingOff == len(h.pending) {
			out, n, err := h.RenderCycle(h.maxFrames)
			if err != nil {
				if written > 0 && errors.Is(err, io.EOF) {
					return written, nil
				}

				return written, err
			}

			h.pending = appendInterleaved(h.pending[:0], out, n)
			h.pendingOff = 0
		}

		c := copy(p[written:], h.pending[h.pendingOff:])
		h.pendingOff += c
		written += c
	}

	return written, nil
}

func (h *Host) resetOutput() {
	h.output.n = len(h.outStore)

	for i, store := range h.outStore {
		data := float32AsBytes(store)
		h.output.buffers[i] = Buffer{
			NumberChannels: 1,
			DataByteSize:   uint32(len(data)),
			Data:           data,
		}
	}
}

// applyGain scales the rendered frames, ramping linearly from the gain of
// the previous cycle to the current one.
func (h *Host) applyGain(frames int) {
	from, to := h.lastGain, h.view.Gain()
	h.lastGain = to

	if from == 1 && to == 1 {
		return
	}

	for i := range h.output.Len() {
		buf := h.output.At(i)
		nc := int(buf.NumberChannels)
		samples := buf.Float32s()

		n := min(frames*nc, len(samples), len(h.scratch))
		if n == 0 || nc == 0 {
			continue
		}

		step := (float64(to) - float64(from)) / float64(frames)
		for j := range n {
			h.ramp[j] = float64(from) + step*float64(j/nc+1)
			h.scratch[j] = float64(samples[j])
		}

		vecmath.MulBlockInPlace(h.scratch[:n], h.ramp[:n])

		for j := range n {
			samples[j] = float32(h.scratch[j])
		}
	}
}

func (h *Host) padOutput(rendered, frames int) {
	if rendered >= frames {
		return
	}

	for i := range h.output.Len() {
		buf := h.output.At(i)
		nc := int(buf.NumberChannels)
		samples := bytesAsFloat32(buf.Data)

		end := min(frames*nc, len(samples))
		if end <= rendered*nc {
			continue
		}

		clear(samples[rendered*nc : end])
		buf.DataByteSize = uint32(end * Float32SampleSize)
	}
}

// appendInterleaved appends the first frames frames of list as interleaved
// little-endian float32 samples.
func appendInterleaved(dst []byte, list *BufferList, frames int) []byte {
	for f := range frames {
		for i := range list.Len() {
			buf := list.At(i)
			nc := int(buf.NumberChannels)
			samples := buf.Float32s()

			for k := range nc {
				var v float32
				if idx := f*nc + k; idx < len(samples) {
					v = samples[idx]
				}

				dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
			}
		}
	}

	return dst
}
