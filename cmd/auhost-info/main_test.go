package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/standinga/auhost"
)

func TestRunPrintsLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")

	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := auhost.NewEncoder(file, 8000, 16, 2, 1)
	err = enc.Write(&audio.Float32Buffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 8000},
		Data:   make([]float32, 2*800),
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	file.Close()

	var out bytes.Buffer
	if err := run([]string{path}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []string{
		"Channels: 2",
		"SampleRate: 8000",
		"Frames: 800",
		"Duration: 100ms",
		"\tbuffer [0]:\tchannels=1 bytes=3200",
		"\tbuffer [1]:\tchannels=1 bytes=3200",
	}

	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), out.String())
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d=%q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunMissingPath(t *testing.T) {
	var out bytes.Buffer

	if err := run(nil, &out); !errors.Is(err, errMissingPath) {
		t.Fatalf("error=%v, want errMissingPath", err)
	}

	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not audio at all"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := run([]string{path}, &bytes.Buffer{})
	if !errors.Is(err, auhost.ErrUnsupportedContainer) {
		t.Fatalf("error=%v, want ErrUnsupportedContainer", err)
	}
}
