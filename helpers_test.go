package auhost

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
)

func float32ApproxEqual(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func assertFloat32SlicesClose(t *testing.T, got, want []float32, eps float32) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if !float32ApproxEqual(got[i], want[i], eps) {
			t.Fatalf("index %d: got %v, want %v (eps %v)", i, got[i], want[i], eps)
		}
	}
}

// newRampBuffer returns a buffer whose channel c holds (c+1)*0.1 + i*0.001 at
// frame i.
func newRampBuffer(t *testing.T, numChans, frames int) *PCMBuffer {
	t.Helper()

	buf, err := NewPCMBuffer(&audio.Format{NumChannels: numChans, SampleRate: 48000}, frames)
	if err != nil {
		t.Fatalf("NewPCMBuffer: %v", err)
	}

	if err := buf.SetFrameLength(frames); err != nil {
		t.Fatalf("SetFrameLength: %v", err)
	}

	for c := range numChans {
		samples := buf.Channel(c)
		for i := range samples {
			samples[i] = float32(c+1)*0.1 + float32(i)*0.001
		}
	}

	return buf
}

// newMonoList returns a list of n mono descriptors, each backed by its own
// storage of frames float32 samples.
func newMonoList(n, frames int) (*BufferList, [][]float32) {
	list := NewBufferList(n)
	list.n = n
	stores := make([][]float32, n)

	for i := range n {
		stores[i] = make([]float32, frames)
		list.buffers[i] = Buffer{
			NumberChannels: 1,
			DataByteSize:   uint32(frames * Float32SampleSize),
			Data:           float32AsBytes(stores[i]),
		}
	}

	return list, stores
}

func writeTestWAV(t *testing.T, buf *PCMBuffer, bitDepth, audioFormat int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer file.Close()

	enc := NewEncoder(file, buf.SampleRate(), bitDepth, buf.NumChannels(), audioFormat)
	if err := enc.WriteBufferList(buf.BufferList(), buf.FrameLength()); err != nil {
		t.Fatalf("WriteBufferList: %v", err)
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	return path
}

func decodeTestWAV(t *testing.T, path string) (*Decoder, *PCMBuffer) {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { file.Close() })

	dec := NewDecoder(file)

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}

	return dec, buf
}
