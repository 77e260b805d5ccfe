package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/google/go-cmp/cmp"
)

func TestWAVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	sink, err := CreateWAV(path, 48000)
	if err != nil {
		t.Fatal(err)
	}

	want := []int{0, 1000, -1000, 32767, -32768, 42}
	if err := sink.Play([]int16{0, 1000, -1000}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Play([]int16{32767, -32768, 42}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if dec.SampleRate != 48000 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("format = %d Hz, %d ch, %d bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if diff := cmp.Diff(want, buf.Data); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestNullSink(t *testing.T) {
	var s NullSink
	s.Play(make([]int16, 10))
	s.Play(nil)
	s.Play(make([]int16, 5))
	if s.Samples != 15 {
		t.Errorf("Samples = %d, want 15", s.Samples)
	}
}
