package synth

import (
	"errors"
	"testing"

	"nesapu/hw/hwdefs"
)

func TestNewRates(t *testing.T) {
	tests := []struct {
		clock, rate uint32
		wantErr     bool
	}{
		{hwdefs.NTSCClockRate, 96000, false},
		{hwdefs.PALClockRate, 44100, false},
		{hwdefs.NTSCClockRate, 0, true},
		{1000, 96000, true},
		{1 << 30, 1, true},
	}
	for _, tt := range tests {
		_, err := New(tt.clock, tt.rate)
		if tt.wantErr != (err != nil) {
			t.Errorf("New(%d, %d) error = %v, wantErr %t", tt.clock, tt.rate, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrRate) {
			t.Errorf("New(%d, %d) error = %v, want ErrRate", tt.clock, tt.rate, err)
		}
	}
}

func TestSilence(t *testing.T) {
	s, err := New(hwdefs.NTSCClockRate, 96000)
	if err != nil {
		t.Fatal(err)
	}

	s.EndFrame(29830)
	buf := make([]int16, 4096)
	n := s.ReadSamples(buf)
	if n < 1590 || n > 1610 {
		t.Errorf("read %d samples, want ~1600", n)
	}
	for i, v := range buf[:n] {
		if v != 0 {
			t.Fatalf("sample %d = %d, want 0", i, v)
		}
	}
	if s.SamplesAvailable() != 0 {
		t.Errorf("SamplesAvailable() = %d after full read", s.SamplesAvailable())
	}
}

func TestStep(t *testing.T) {
	s, err := New(hwdefs.NTSCClockRate, 96000)
	if err != nil {
		t.Fatal(err)
	}

	s.AddDelta(1000, 8000)
	s.EndFrame(10000)

	buf := make([]int16, 1024)
	n := s.ReadSamples(buf)
	if n == 0 {
		t.Fatal("no samples")
	}

	// 1000 clocks is ~53 samples at 96kHz.
	for i := range 40 {
		if buf[i] != 0 {
			t.Errorf("sample %d = %d before step, want 0", i, buf[i])
		}
	}
	var peak int16
	for _, v := range buf[50:n] {
		peak = max(peak, v)
	}
	if peak < 6000 {
		t.Errorf("peak after step = %d, want >= 6000", peak)
	}
}

func TestDeterministicCount(t *testing.T) {
	count := func() int {
		s, err := New(hwdefs.NTSCClockRate, 48000)
		if err != nil {
			t.Fatal(err)
		}
		total := 0
		buf := make([]int16, 4096)
		for range 60 {
			s.EndFrame(29780)
			total += s.ReadSamples(buf)
		}
		return total
	}

	a, b := count(), count()
	if a != b {
		t.Errorf("sample counts differ: %d vs %d", a, b)
	}
	// 60 frames of 29780 clocks is ~0.998s.
	if a < 47900 || a > 48000 {
		t.Errorf("sample count = %d, want ~47900", a)
	}
}

func TestMaxFrame(t *testing.T) {
	s, err := New(hwdefs.NTSCClockRate, 96000)
	if err != nil {
		t.Fatal(err)
	}
	maxf := s.MaxFrameCycles()
	if maxf < 37282 {
		t.Fatalf("MaxFrameCycles() = %d, shorter than a 5-step frame", maxf)
	}

	s.AddDelta(maxf, 100)
	s.EndFrame(maxf)
	buf := make([]int16, 8192)
	if n := s.ReadSamples(buf); n == 0 {
		t.Errorf("no samples for a max length frame")
	}

	s.Clear()
	if s.SamplesAvailable() != 0 {
		t.Errorf("SamplesAvailable() = %d after Clear", s.SamplesAvailable())
	}
}
