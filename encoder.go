package auhost

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

var (
	errNilEncoder         = errors.New("can't write a nil encoder")
	errNilWriter          = errors.New("can't write to a nil writer")
	errNilBuffer          = errors.New("can't add a nil buffer")
	errEncoderClosed      = errors.New("encoder already closed")
	errShortBuffer        = errors.New("buffer holds fewer frames than requested")
	errUnsupportedEncoder = errors.New("unsupported output encoding")
)

// Encoder writes float32 audio into a WAV container.
type Encoder struct {
	w io.WriteSeeker

	SampleRate int
	BitDepth   int
	NumChans   int
	// WavAudioFormat is wavFormatPCM (1) or wavFormatIEEEFloat (3).
	WavAudioFormat int

	WrittenBytes int

	buf             []byte
	frames          int
	pcmChunkSizePos int
	wroteHeader     bool
	closed          bool
}

// NewEncoder creates an encoder for a new WAV file. Close must be called to
// patch the header sizes.
func NewEncoder(w io.WriteSeeker, sampleRate, bitDepth, numChans, audioFormat int) *Encoder {
	return &Encoder{
		w:              w,
		SampleRate:     sampleRate,
		BitDepth:       bitDepth,
		NumChans:       numChans,
		WavAudioFormat: audioFormat,
	}
}

// AddLE serializes and adds the passed value using little endian.
func (e *Encoder) AddLE(src any) error {
	e.WrittenBytes += binary.Size(src)

	if err := binary.Write(e.w, binary.LittleEndian, src); err != nil {
		return fmt.Errorf("failed to write little endian: %w", err)
	}

	return nil
}

// Write encodes an interleaved buffer.
func (e *Encoder) Write(buf *audio.Float32Buffer) error {
	if buf == nil {
		return errNilBuffer
	}

	if err := e.startData(); err != nil {
		return err
	}

	numChans := e.NumChans
	if buf.Format != nil && buf.Format.NumChannels != numChans {
		return fmt.Errorf("%w: buffer has %d, encoder has %d", errChannelMismatch, buf.Format.NumChannels, numChans)
	}

	frames := len(buf.Data) / numChans
	e.buf = e.buf[:0]

	for _, v := range buf.Data[:frames*numChans] {
		e.buf = e.appendSample(e.buf, v)
	}

	return e.flush(frames)
}

// WriteBufferList encodes the first frames of every descriptor in list,
// interleaving the descriptors' channels in list order.
func (e *Encoder) WriteBufferList(list *BufferList, frames int) error {
	if list == nil {
		return ErrNilBufferList
	}

	if err := e.startData(); err != nil {
		return err
	}

	total := 0
	samples := make([][]float32, list.Len())

	for i := range samples {
		b := list.At(i)
		nc := int(b.NumberChannels)
		total += nc

		samples[i] = b.Float32s()
		if len(samples[i]) < frames*nc {
			return fmt.Errorf("%w: descriptor %d has %d samples, need %d", errShortBuffer, i, len(samples[i]), frames*nc)
		}
	}

	if total != e.NumChans {
		return fmt.Errorf("%w: list has %d, encoder has %d", errChannelMismatch, total, e.NumChans)
	}

	e.buf = e.buf[:0]

	for f := range frames {
		for i := range samples {
			nc := int(list.At(i).NumberChannels)
			for _, v := range samples[i][f*nc : (f+1)*nc] {
				e.buf = e.appendSample(e.buf, v)
			}
		}
	}

	return e.flush(frames)
}

func (e *Encoder) flush(frames int) error {
	n, err := e.w.Write(e.buf)
	e.WrittenBytes += n

	if err != nil {
		return fmt.Errorf("failed to write buffer: %w", err)
	}

	e.frames += frames

	return nil
}

func (e *Encoder) appendSample(dst []byte, v float32) []byte {
	if e.WavAudioFormat == wavFormatIEEEFloat {
		v = clampFloat32(v, -1, 1)
		if e.BitDepth == 64 {
			return binary.LittleEndian.AppendUint64(dst, math.Float64bits(float64(v)))
		}

		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}

	switch e.BitDepth {
	case 8:
		return append(dst, float32ToPCMUint8(v))
	case 16:
		return binary.LittleEndian.AppendUint16(dst, uint16(float32ToPCMInt32(v, 16)))
	case 24:
		return append(dst, audio.Int32toInt24LEBytes(float32ToPCMInt32(v, 24))...)
	default:
		return binary.LittleEndian.AppendUint32(dst, uint32(float32ToPCMInt32(v, 32)))
	}
}

func (e *Encoder) validate() error {
	if e.NumChans < 1 || e.SampleRate < 1 {
		return fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFormat, e.NumChans, e.SampleRate)
	}

	switch {
	case e.WavAudioFormat == wavFormatPCM && (e.BitDepth == 8 || e.BitDepth == 16 || e.BitDepth == 24 || e.BitDepth == 32):
		return nil
	case e.WavAudioFormat == wavFormatIEEEFloat && (e.BitDepth == 32 || e.BitDepth == 64):
		return nil
	default:
		return fmt.Errorf("%w: format tag %d, %d bits", errUnsupportedEncoder, e.WavAudioFormat, e.BitDepth)
	}
}

func (e *Encoder) blockAlign() int {
	return e.NumChans * bytesPerSample(e.BitDepth)
}

// startData writes the RIFF header, the fmt chunk and the data chunk header
// on first use.
func (e *Encoder) startData() error {
	if e == nil {
		return errNilEncoder
	}

	if e.w == nil {
		return errNilWriter
	}

	if e.closed {
		return errEncoderClosed
	}

	if e.wroteHeader {
		return nil
	}

	if err := e.validate(); err != nil {
		return err
	}

	e.wroteHeader = true

	// sizes are patched on Close
	header := []any{riff.RiffID, uint32(math.MaxUint32), riff.WavFormatID}
	for _, v := range header {
		if err := e.AddLE(v); err != nil {
			return err
		}
	}

	if err := e.writeFmtChunk(); err != nil {
		return err
	}

	if err := e.AddLE(riff.DataFormatID); err != nil {
		return fmt.Errorf("error encoding sound header %w", err)
	}

	e.pcmChunkSizePos = e.WrittenBytes

	if err := e.AddLE(uint32(math.MaxUint32)); err != nil {
		return fmt.Errorf("%w when writing wav data chunk size header", err)
	}

	return nil
}

func (e *Encoder) writeFmtChunk() error {
	blockAlign := e.blockAlign()
	extensible := e.NumChans > 2

	chunkSize := uint32(fmtChunkBaseSize)
	formatTag := uint16(e.WavAudioFormat)

	if extensible {
		chunkSize += 2 + fmtExtensibleDataSize
		formatTag = wavFormatExtensible
	}

	fields := []any{
		riff.FmtID,
		chunkSize,
		formatTag,
		uint16(e.NumChans),
		uint32(e.SampleRate),
		uint32(e.SampleRate * blockAlign),
		uint16(blockAlign),
		uint16(bytesPerSample(e.BitDepth) * 8),
	}

	if extensible {
		fields = append(fields,
			uint16(fmtExtensibleDataSize),
			uint16(e.BitDepth),
			defaultChannelMask(e.NumChans),
			makeSubFormatGUID(uint16(e.WavAudioFormat)),
		)
	}

	for _, v := range fields {
		if err := e.AddLE(v); err != nil {
			return fmt.Errorf("error encoding fmt chunk - %w", err)
		}
	}

	return nil
}

// Close patches the RIFF and data chunk sizes. The underlying writer is not
// closed.
func (e *Encoder) Close() error {
	if e == nil || e.w == nil || e.closed {
		return nil
	}

	if err := e.startData(); err != nil {
		return err
	}

	e.closed = true

	dataSize := e.frames * e.blockAlign()
	if dataSize%2 == 1 {
		if err := e.AddLE(uint8(0)); err != nil {
			return fmt.Errorf("failed to write data padding: %w", err)
		}
	}

	if _, err := e.w.Seek(4, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to file size position: %w", err)
	}

	if err := binary.Write(e.w, binary.LittleEndian, uint32(e.WrittenBytes-8)); err != nil {
		return fmt.Errorf("%w when writing the total written bytes", err)
	}

	if _, err := e.w.Seek(int64(e.pcmChunkSizePos), io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to PCM chunk size position: %w", err)
	}

	if err := binary.Write(e.w, binary.LittleEndian, uint32(dataSize)); err != nil {
		return fmt.Errorf("%w when writing wav data chunk size header", err)
	}

	if _, err := e.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of file: %w", err)
	}

	if f, ok := e.w.(*os.File); ok {
		return f.Sync()
	}

	return nil
}
