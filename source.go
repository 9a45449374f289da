package auhost

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// ErrUnsupportedContainer is returned by LoadFile for files that are neither
// WAV nor AIFF.
var ErrUnsupportedContainer = errors.New("unsupported audio container")

// LoadFile decodes a WAV or AIFF file into a new PCMBuffer.
func LoadFile(path string) (*PCMBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return buf, nil
}

// Load sniffs the container in r and decodes it into a new PCMBuffer.
func Load(r io.ReadSeeker) (*PCMBuffer, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read container header: %w", err)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind: %w", err)
	}

	switch {
	case bytes.Equal(magic[:], []byte("RIFF")):
		dec := NewDecoder(r)
		if !dec.IsValidFile() {
			if err := dec.Err(); err != nil {
				return nil, err
			}

			return nil, ErrPCMDataNotFound
		}

		return dec.FullPCMBuffer()
	case bytes.Equal(magic[:], []byte("FORM")):
		return DecodeAIFF(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContainer, magic[:])
	}
}

// DecodeAIFF decodes an AIFF stream into a new PCMBuffer.
func DecodeAIFF(r io.ReadSeeker) (*PCMBuffer, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid AIFF stream", ErrUnsupportedContainer)
	}

	intBuf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode AIFF data: %w", err)
	}

	format := &audio.Format{
		NumChannels: int(dec.NumChans),
		SampleRate:  int(dec.SampleRate),
	}

	frames := len(intBuf.Data) / max(format.NumChannels, 1)

	out, err := NewPCMBuffer(format, frames)
	if err != nil {
		return nil, err
	}

	floatBuf := &audio.Float32Buffer{
		Format: format,
		Data:   make([]float32, frames*format.NumChannels),
	}

	bitDepth := int(dec.BitDepth)
	for i, v := range intBuf.Data[:len(floatBuf.Data)] {
		floatBuf.Data[i] = normalizeAIFFInt(v, bitDepth)
	}

	if _, err := out.AppendInterleaved(floatBuf); err != nil {
		return nil, err
	}

	return out, nil
}

// AIFF samples are signed at every bit depth, unlike 8-bit WAV.
func normalizeAIFFInt(sample, bitDepth int) float32 {
	if bitDepth == 8 {
		return float32(sample) / 128
	}

	return normalizePCMInt(sample, bytesPerSample(bitDepth)*8)
}
