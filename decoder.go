package auhost

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

var (
	// ErrPCMDataNotFound is returned when a WAV file has no data chunk.
	ErrPCMDataNotFound = errors.New("PCM data not found")
	// ErrUnsupportedSampleFormat is returned for sample encodings the decoder
	// cannot expand to float32.
	ErrUnsupportedSampleFormat = errors.New("unsupported sample format")
	errNilChunk                = errors.New("nil chunk")
	errFmtChunkMissing         = errors.New("fmt chunk missing")
	errChannelMismatch         = errors.New("channel count mismatch")
)

// readChunkFrames bounds a single read from the data chunk.
const readChunkFrames = 4096

// sampleDecoder converts one encoded sample into a normalized float32.
type sampleDecoder func(b []byte) float32

// Decoder reads WAV files into PCMBuffers.
type Decoder struct {
	r      io.ReadSeeker
	parser *riff.Parser

	NumChans       uint16
	BitDepth       uint16
	SampleRate     uint32
	WavAudioFormat uint16
	FmtChunk       *FmtChunk

	// PCMSize is the byte size of the data chunk.
	PCMSize  int
	PCMChunk *riff.Chunk

	err         error
	pcmAccessed bool
	decode      sampleDecoder
	scratch     []byte
}

// NewDecoder creates a decoder for the passed WAV reader. The reader is
// consumed forward; use Rewind to start over.
func NewDecoder(r io.ReadSeeker) *Decoder {
	return &Decoder{
		r:      r,
		parser: riff.New(r),
	}
}

// Err returns the first non-EOF error the decoder ran into.
func (d *Decoder) Err() error {
	if errors.Is(d.err, io.EOF) {
		return nil
	}

	return d.err
}

// ReadInfo reads the container up to and including the fmt chunk. It is
// safe to call multiple times.
func (d *Decoder) ReadInfo() {
	d.err = d.readHeaders()
}

// IsValidFile reports whether the reader holds a WAV file this decoder can
// expand. It reads up to the start of the PCM data.
func (d *Decoder) IsValidFile() bool {
	d.err = d.readHeaders()
	if d.err != nil || d.NumChans < 1 {
		return false
	}

	if d.decode == nil {
		return false
	}

	if !d.pcmAccessed && d.FwdToPCM() != nil {
		return false
	}

	return d.PCMSize > 0
}

// Format returns the stream format, or nil before the headers were read.
func (d *Decoder) Format() *audio.Format {
	if d == nil || d.NumChans == 0 {
		return nil
	}

	return &audio.Format{
		NumChannels: int(d.NumChans),
		SampleRate:  int(d.SampleRate),
	}
}

// FwdToPCM advances the reader to the start of the data chunk.
func (d *Decoder) FwdToPCM() error {
	if d == nil {
		return ErrPCMDataNotFound
	}

	d.err = d.readHeaders()
	if d.err != nil {
		return d.err
	}

	for {
		id, size, err := d.parser.IDnSize()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				d.err = ErrPCMDataNotFound
			} else {
				d.err = fmt.Errorf("failed to read chunk header: %w", err)
			}

			return d.err
		}

		if id == riff.DataFormatID {
			d.PCMSize = int(size)
			d.PCMChunk = &riff.Chunk{
				ID:   id,
				Size: int(size),
				R:    io.LimitReader(d.r, int64(size)),
			}
			d.pcmAccessed = true

			return nil
		}

		// chunks are word aligned, the pad byte is not part of the size.
		if size%2 == 1 {
			size++
		}

		if _, err := io.CopyN(io.Discard, d.r, int64(size)); err != nil {
			d.err = fmt.Errorf("failed to skip %s chunk: %w", id, err)
			return d.err
		}
	}
}

// Rewind moves the reader back to the start of the PCM data.
func (d *Decoder) Rewind() error {
	if _, err := d.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek back to the start: %w", err)
	}

	d.parser = riff.New(d.r)
	d.NumChans = 0
	d.FmtChunk = nil
	d.PCMChunk = nil
	d.PCMSize = 0
	d.pcmAccessed = false
	d.decode = nil
	d.err = nil

	if err := d.FwdToPCM(); err != nil {
		return fmt.Errorf("failed to seek to the PCM data: %w", err)
	}

	return nil
}

// Duration returns the playing time of the data chunk.
func (d *Decoder) Duration() (time.Duration, error) {
	if !d.pcmAccessed {
		if err := d.FwdToPCM(); err != nil {
			return 0, err
		}
	}

	return FramesDuration(d.PCMSize/d.blockAlign(), int(d.SampleRate)), nil
}

// ReadFrames decodes frames into the free capacity of buf and returns how
// many frames were added. It returns io.EOF once the data chunk is
// exhausted.
func (d *Decoder) ReadFrames(buf *PCMBuffer) (int, error) {
	if buf == nil {
		return 0, nil
	}

	if !d.pcmAccessed {
		if err := d.FwdToPCM(); err != nil {
			return 0, err
		}
	}

	if d.decode == nil {
		return 0, d.sampleFormatError()
	}

	numChans := int(d.NumChans)
	if buf.NumChannels() != numChans {
		return 0, fmt.Errorf("%w: file has %d, buffer has %d", errChannelMismatch, numChans, buf.NumChannels())
	}

	frames := min(buf.FrameCapacity()-buf.FrameLength(), readChunkFrames)
	if frames == 0 {
		return 0, nil
	}

	blockAlign := d.blockAlign()
	width := blockAlign / numChans

	size := frames * blockAlign
	if cap(d.scratch) < size {
		d.scratch = make([]byte, size)
	}

	n, err := io.ReadFull(d.PCMChunk, d.scratch[:size])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}

		return 0, fmt.Errorf("failed to read PCM data: %w", err)
	}

	// a trailing partial frame is padding
	frames = n / blockAlign
	data := d.scratch[:frames*blockAlign]
	start := buf.length

	for i := range frames {
		frame := data[i*blockAlign:]
		for c := range numChans {
			buf.channels[c][start+i] = d.decode(frame[c*width : (c+1)*width])
		}
	}

	buf.length += frames

	return frames, nil
}

// FullPCMBuffer decodes the whole data chunk into a new buffer sized to the
// frames actually present. The declared chunk size only bounds the read;
// storage grows as frames arrive.
func (d *Decoder) FullPCMBuffer() (*PCMBuffer, error) {
	if !d.pcmAccessed {
		if err := d.FwdToPCM(); err != nil {
			return nil, err
		}
	}

	if d.decode == nil {
		return nil, d.sampleFormatError()
	}

	declared := d.PCMSize / d.blockAlign()

	buf, err := NewPCMBuffer(d.Format(), min(declared, readChunkFrames))
	if err != nil {
		return nil, err
	}

	for {
		if buf.FrameLength() == buf.FrameCapacity() {
			if buf.FrameCapacity() >= declared {
				break
			}

			buf.grow(min(declared, 2*buf.FrameCapacity()))
		}

		n, err := d.ReadFrames(buf)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}

		if err != nil {
			return nil, err
		}
	}

	buf.trim()

	return buf, nil
}

func (d *Decoder) blockAlign() int {
	return int(d.NumChans) * bytesPerSample(int(d.BitDepth))
}

func (d *Decoder) sampleFormatError() error {
	return fmt.Errorf("%w: format tag %d, %d bits", ErrUnsupportedSampleFormat, d.WavAudioFormat, d.BitDepth)
}

// readHeaders is safe to call multiple times.
func (d *Decoder) readHeaders() error {
	if d == nil || d.NumChans > 0 {
		return nil
	}

	id, size, err := d.parser.IDnSize()
	if err != nil {
		return fmt.Errorf("failed to read chunk ID and size: %w", err)
	}

	if id != riff.RiffID {
		return fmt.Errorf("%s - %w", id, riff.ErrFmtNotSupported)
	}

	d.parser.ID = id
	d.parser.Size = size

	if err := binary.Read(d.r, binary.BigEndian, &d.parser.Format); err != nil {
		return fmt.Errorf("failed to read format: %w", err)
	}

	if d.parser.Format != riff.WavFormatID {
		return fmt.Errorf("%s - %w", d.parser.Format, riff.ErrFmtNotSupported)
	}

	for {
		chunk, err := d.parser.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errFmtChunkMissing
			}

			return fmt.Errorf("failed to read chunk: %w", err)
		}

		if chunk.ID != riff.FmtID {
			chunk.Drain()
			continue
		}

		fmtChunk, err := decodeFmtChunk(chunk)
		if err != nil {
			return fmt.Errorf("failed to decode fmt chunk: %w", err)
		}

		if fmtChunk.NumChannels == 0 {
			return fmt.Errorf("%w: fmt chunk declares no channels", ErrInvalidFormat)
		}

		d.FmtChunk = fmtChunk
		d.NumChans = fmtChunk.NumChannels
		d.BitDepth = fmtChunk.BitsPerSample
		d.SampleRate = fmtChunk.SampleRate
		d.WavAudioFormat = fmtChunk.EffectiveFormatTag()
		d.decode, _ = sampleDecoderFor(int(d.BitDepth), d.WavAudioFormat)

		return nil
	}
}

func decodeFmtChunk(chunk *riff.Chunk) (*FmtChunk, error) {
	if chunk == nil {
		return nil, errNilChunk
	}

	fmtChunk := &FmtChunk{}

	fields := []struct {
		name string
		dst  any
	}{
		{"wav format", &fmtChunk.FormatTag},
		{"channels", &fmtChunk.NumChannels},
		{"sample rate", &fmtChunk.SampleRate},
		{"avg bytes/sec", &fmtChunk.AvgBytesPerSec},
		{"block align", &fmtChunk.BlockAlign},
		{"bit depth", &fmtChunk.BitsPerSample},
	}

	for _, f := range fields {
		if err := chunk.ReadLE(f.dst); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
	}

	if chunk.Size <= fmtChunkBaseSize || fmtChunk.FormatTag != wavFormatExtensible {
		chunk.Drain()
		return fmtChunk, nil
	}

	var extraSize uint16
	if err := chunk.ReadLE(&extraSize); err != nil {
		return nil, fmt.Errorf("failed to read fmt extension size: %w", err)
	}

	if extraSize < fmtExtensibleDataSize {
		chunk.Drain()
		return fmtChunk, nil
	}

	ext := &FmtExtensible{}
	if err := chunk.ReadLE(&ext.ValidBitsPerSample); err != nil {
		return nil, fmt.Errorf("failed to read valid bits per sample: %w", err)
	}

	if err := chunk.ReadLE(&ext.ChannelMask); err != nil {
		return nil, fmt.Errorf("failed to read channel mask: %w", err)
	}

	if err := chunk.ReadLE(&ext.SubFormat); err != nil {
		return nil, fmt.Errorf("failed to read sub format: %w", err)
	}

	fmtChunk.Extensible = ext
	chunk.Drain()

	return fmtChunk, nil
}

func bytesPerSample(bitDepth int) int {
	return (bitDepth-1)/8 + 1
}

// sampleDecoderFor returns the decoder for one sample of the given
// encoding. WAV sample data is little endian; 8-bit PCM is unsigned.
func sampleDecoderFor(bitDepth int, wavFormat uint16) (sampleDecoder, error) {
	switch wavFormat {
	case wavFormatIEEEFloat:
		switch bitDepth {
		case 32:
			return func(b []byte) float32 {
				return clampFloat32(math.Float32frombits(binary.LittleEndian.Uint32(b)), -1, 1)
			}, nil
		case 64:
			return func(b []byte) float32 {
				return clampFloat32(float32(math.Float64frombits(binary.LittleEndian.Uint64(b))), -1, 1)
			}, nil
		}
	case wavFormatALaw:
		if bitDepth == 8 {
			return func(b []byte) float32 {
				return normalizePCMInt(int(aLawTable[b[0]]), 16)
			}, nil
		}
	case wavFormatMuLaw:
		if bitDepth == 8 {
			return func(b []byte) float32 {
				return normalizePCMInt(int(muLawTable[b[0]]), 16)
			}, nil
		}
	case wavFormatPCM:
		if bitDepth < 8 {
			break
		}

		switch bytesPerSample(bitDepth) {
		case 1:
			return func(b []byte) float32 {
				return normalizePCMInt(int(b[0]), 8)
			}, nil
		case 2:
			return func(b []byte) float32 {
				return normalizePCMInt(int(int16(binary.LittleEndian.Uint16(b))), 16)
			}, nil
		case 3:
			return func(b []byte) float32 {
				return normalizePCMInt(int(audio.Int24LETo32(b)), 24)
			}, nil
		case 4:
			return func(b []byte) float32 {
				return normalizePCMInt(int(int32(binary.LittleEndian.Uint32(b))), 32)
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: format tag %d, %d bits", ErrUnsupportedSampleFormat, wavFormat, bitDepth)
}
