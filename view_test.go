package auhost

import (
	"errors"
	"math"
	"testing"
	"unsafe"
)

func sameStorage(a, b []byte) bool {
	return len(a) == len(b) && unsafe.SliceData(a) == unsafe.SliceData(b)
}

func TestBufferViewPrepare(t *testing.T) {
	tests := []struct {
		name      string
		channels  []uint32
		maxFrames uint32
		width     uint32
		wantSize  uint32
	}{
		{"stereo mono buffers", []uint32{1, 1}, 256, 0, 1024},
		{"single interleaved", []uint32{2}, 128, 0, 512},
		{"mixed layout", []uint32{2, 1, 1}, 64, 0, 256},
		{"16-bit samples", []uint32{1, 1}, 100, 2, 200},
		{"zero frames", []uint32{1, 1, 1}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, _ := newMonoList(len(tt.channels), 512)
			for i, nc := range tt.channels {
				source.At(i).NumberChannels = nc
			}

			target, _ := newMonoList(len(tt.channels), 16)

			view := NewBufferView(source, target, tt.maxFrames)
			view.BytesPerSample = tt.width

			if err := view.Prepare(); err != nil {
				t.Fatalf("Prepare: %v", err)
			}

			if target.Len() != source.Len() {
				t.Fatalf("target len=%d, want %d", target.Len(), source.Len())
			}

			for i := range source.Len() {
				src, dst := source.At(i), target.At(i)
				if !sameStorage(dst.Data, src.Data) {
					t.Fatalf("descriptor %d does not alias the source storage", i)
				}

				if dst.NumberChannels != src.NumberChannels {
					t.Fatalf("descriptor %d channels=%d, want %d", i, dst.NumberChannels, src.NumberChannels)
				}

				if dst.DataByteSize != tt.wantSize {
					t.Fatalf("descriptor %d byte size=%d, want %d", i, dst.DataByteSize, tt.wantSize)
				}
			}
		})
	}
}

func TestBufferViewPrepareEmptySource(t *testing.T) {
	source := NewBufferList(2)
	target, stores := newMonoList(2, 8)
	before := target.buffers[0]

	view := NewBufferView(source, target, 8)
	if err := view.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if target.Len() != 0 {
		t.Fatalf("target len=%d, want 0", target.Len())
	}

	after := target.buffers[0]
	if after.NumberChannels != before.NumberChannels || after.DataByteSize != before.DataByteSize ||
		!sameStorage(after.Data, float32AsBytes(stores[0])) {
		t.Fatalf("descriptor changed: before %+v, after %+v", before, after)
	}
}

func TestBufferViewPrepareIsIdempotent(t *testing.T) {
	source, _ := newMonoList(2, 32)
	target := NewBufferList(2)
	view := NewBufferView(source, target, 32)

	if err := view.Prepare(); err != nil {
		t.Fatalf("first Prepare: %v", err)
	}

	first := [2]Buffer{*target.At(0), *target.At(1)}

	if err := view.Prepare(); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}

	for i := range 2 {
		got := target.At(i)
		if got.NumberChannels != first[i].NumberChannels || got.DataByteSize != first[i].DataByteSize ||
			!sameStorage(got.Data, first[i].Data) {
			t.Fatalf("descriptor %d changed between calls: %+v vs %+v", i, first[i], *got)
		}
	}
}

func TestBufferViewAliasesSamples(t *testing.T) {
	source, stores := newMonoList(2, 4)
	target := NewBufferList(2)
	view := NewBufferView(source, target, 4)

	if err := view.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	stores[1][2] = 0.75

	if got := target.At(1).Float32s()[2]; got != 0.75 {
		t.Fatalf("target sample=%v, want 0.75", got)
	}

	target.At(0).Float32s()[0] = -0.5
	if stores[0][0] != -0.5 {
		t.Fatalf("source sample=%v, want -0.5", stores[0][0])
	}
}

func TestBufferViewRestoresOverwrittenTarget(t *testing.T) {
	source, stores := newMonoList(1, 8)
	target := NewBufferList(1)
	view := NewBufferView(source, target, 8)

	if err := view.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	// a unit swapping in its own scratch storage
	scratch := make([]float32, 2)
	*target.At(0) = Buffer{NumberChannels: 2, DataByteSize: 8, Data: float32AsBytes(scratch)}

	if err := view.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	got := target.At(0)
	if !sameStorage(got.Data, float32AsBytes(stores[0])) || got.NumberChannels != 1 || got.DataByteSize != 32 {
		t.Fatalf("target not restored: %+v", *got)
	}
}

func TestBufferViewCapacityExceeded(t *testing.T) {
	source, _ := newMonoList(2, 8)
	target, stores := newMonoList(1, 8)
	target.n = 0

	view := NewBufferView(source, target, 8)

	err := view.Prepare()
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Prepare error=%v, want ErrCapacityExceeded", err)
	}

	if target.Len() != 0 {
		t.Fatalf("target len=%d, want 0", target.Len())
	}

	if !sameStorage(target.buffers[0].Data, float32AsBytes(stores[0])) {
		t.Fatal("target descriptor was modified")
	}
}

func TestBufferViewNilLists(t *testing.T) {
	list := NewBufferList(1)

	tests := []struct {
		name           string
		source, target *BufferList
	}{
		{"nil source", nil, list},
		{"nil target", list, nil},
		{"both nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewBufferView(tt.source, tt.target, 16)
			if err := view.Prepare(); !errors.Is(err, ErrNilBufferList) {
				t.Fatalf("Prepare error=%v, want ErrNilBufferList", err)
			}
		})
	}
}

func TestBufferViewByteSizeOverflow(t *testing.T) {
	source, _ := newMonoList(1, 1)
	target := NewBufferList(1)

	view := NewBufferView(source, target, math.MaxUint32)
	if err := view.Prepare(); !errors.Is(err, ErrByteSizeOverflow) {
		t.Fatalf("Prepare error=%v, want ErrByteSizeOverflow", err)
	}
}

func TestBufferViewGain(t *testing.T) {
	var zero BufferView
	if got := zero.Gain(); got != 1 {
		t.Fatalf("zero value gain=%v, want 1", got)
	}

	view := NewBufferView(nil, nil, 0)
	if got := view.Gain(); got != 1 {
		t.Fatalf("default gain=%v, want 1", got)
	}

	for _, gain := range []float32{0.5, 0, 2, -1} {
		view.SetGain(gain)
		if got := view.Gain(); got != gain {
			t.Fatalf("gain=%v, want %v", got, gain)
		}
	}

	view.SetGain(0)
	if got := view.Gain(); math.Signbit(float64(got)) {
		t.Fatalf("gain=%v, want +0", got)
	}

	negZero := float32(math.Copysign(0, -1))
	view.SetGain(negZero)
	if got := view.Gain(); !math.Signbit(float64(got)) {
		t.Fatalf("gain=%v, want -0", got)
	}
}

func TestBufferViewPrepareLeavesSourceUntouched(t *testing.T) {
	source, stores := newMonoList(1, 4)
	copy(stores[0], []float32{0.1, 0.2, 0.3, 0.4})

	view := NewBufferView(source, NewBufferList(1), 4)
	view.SetGain(0.5)

	if err := view.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	assertFloat32SlicesClose(t, stores[0], []float32{0.1, 0.2, 0.3, 0.4}, 0)

	if source.At(0).DataByteSize != 16 {
		t.Fatalf("source byte size=%d, want 16", source.At(0).DataByteSize)
	}
}
