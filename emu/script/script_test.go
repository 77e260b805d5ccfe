package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nesapu/hw/hwdefs"
)

// recorder is a Target recording the calls it receives.
type recorder struct {
	calls  []string
	status uint8
	err    error
}

func (r *recorder) WriteRegister(elapsed uint32, addr uint16, val uint8) error {
	r.calls = append(r.calls, fmt.Sprintf("w %d $%04X=$%02X", elapsed, addr, val))
	return r.err
}

func (r *recorder) ReadRegister(elapsed uint32) (uint8, error) {
	r.calls = append(r.calls, fmt.Sprintf("r %d", elapsed))
	return r.status, r.err
}

func (r *recorder) RunToFrameBoundary(elapsed uint32) error {
	r.calls = append(r.calls, fmt.Sprintf("end %d", elapsed))
	return r.err
}

const testScript = `
name = "test"
region = "pal"

[[sample]]
addr = 0xC000
data = [1, 2, 3]

[[frame]]
cycles = 1000
repeat = 1

[[frame.read]]
cycle = 500

[[frame.write]]
cycle = 500
addr = 0x4015
value = 0x01

[[frame.write]]
cycle = 10
addr = 0x4000
value = 0x3F

[[frame]]
cycles = 2000

[[frame.write]]
cycle = 2000
addr = 0x4003
value = 0x08
`

func TestParse(t *testing.T) {
	s, err := Parse(testScript)
	if err != nil {
		t.Fatal(err)
	}

	want := &Script{
		Name:    "test",
		Region:  hwdefs.PAL,
		Samples: []Sample{{Addr: 0xC000, Data: []uint8{1, 2, 3}}},
		Frames: []Frame{
			{
				Cycles: 1000,
				Repeat: 1,
				Reads:  []Read{{Cycle: 500}},
				Writes: []Write{
					{Cycle: 500, Addr: 0x4015, Value: 0x01},
					{Cycle: 10, Addr: 0x4000, Value: 0x3F},
				},
			},
			{
				Cycles: 2000,
				Writes: []Write{{Cycle: 2000, Addr: 0x4003, Value: 0x08}},
			},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	if n := s.NumFrames(); n != 3 {
		t.Errorf("NumFrames() = %d, want 3", n)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.toml")
	if err := os.WriteFile(path, []byte(testScript), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "test" {
		t.Errorf("Name = %q, want %q", s.Name, "test")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("Load() on missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"zero cycles", "[[frame]]\ncycles = 0\n"},
		{"negative repeat", "[[frame]]\ncycles = 10\nrepeat = -1\n"},
		{"late write", "[[frame]]\ncycles = 10\n[[frame.write]]\ncycle = 11\naddr = 0x4015\n"},
		{"late read", "[[frame]]\ncycles = 10\n[[frame.read]]\ncycle = 11\n"},
		{"sample below rom", "[[sample]]\naddr = 0x6000\ndata = [1]\n"},
		{"sample overflow", "[[sample]]\naddr = 0xFFFF\ndata = [1, 2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse() error = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := Parse("region = \"secam\"\n"); err == nil {
		t.Errorf("Parse() with unknown region succeeded")
	}
}

func TestPlayer(t *testing.T) {
	s, err := Parse(testScript)
	if err != nil {
		t.Fatal(err)
	}

	var r recorder
	p := s.Player()
	for {
		more, err := p.Step(&r)
		if err != nil {
			t.Fatal(err)
		}
		if !more {
			break
		}
	}
	if !p.Done() || p.Frame() != 3 {
		t.Errorf("Done() = %t, Frame() = %d, want true, 3", p.Done(), p.Frame())
	}

	want := []string{
		"w 10 $4000=$3F",
		"w 500 $4015=$01",
		"r 500",
		"end 1000",
		"end 1000",
		"w 2000 $4003=$08",
		"end 2000",
	}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayerError(t *testing.T) {
	s, err := Parse(testScript)
	if err != nil {
		t.Fatal(err)
	}

	errBoom := errors.New("boom")
	r := recorder{err: errBoom}
	if err := s.Run(&r); !errors.Is(err, errBoom) {
		t.Errorf("Run() error = %v, want %v", err, errBoom)
	}
	if len(r.calls) != 1 {
		t.Errorf("got %d calls after error, want 1", len(r.calls))
	}
}

func TestMemory(t *testing.T) {
	s, err := Parse(testScript)
	if err != nil {
		t.Fatal(err)
	}
	m := s.Memory()

	for addr, want := range map[uint16]uint8{
		0x4000: 0,
		0x8000: 0,
		0xBFFF: 0,
		0xC000: 1,
		0xC001: 2,
		0xC002: 3,
		0xC003: 0,
		0xFFFF: 0,
	} {
		if got := m.ReadDMC(0, addr); got != want {
			t.Errorf("ReadDMC($%04X) = %d, want %d", addr, got, want)
		}
	}
}

func TestTone(t *testing.T) {
	s, err := Tone(hwdefs.NTSC, "square", 440, 20, 60)
	if err != nil {
		t.Fatal(err)
	}
	if n := s.NumFrames(); n != 60 {
		t.Errorf("NumFrames() = %d, want 60", n)
	}

	// 1789773 / (16 * 440) = 254.2 timer clocks.
	want := []Write{
		{Addr: hwdefs.APUStatus, Value: 0x01},
		{Addr: hwdefs.Pulse1Duty, Value: 0xBF},
		{Addr: hwdefs.Pulse1Sweep, Value: 0x08},
		{Addr: hwdefs.Pulse1Timer, Value: 253},
		{Addr: hwdefs.Pulse1Length, Value: 0},
	}
	if diff := cmp.Diff(want, s.Frames[0].Writes); diff != "" {
		t.Errorf("square writes mismatch (-want +got):\n%s", diff)
	}

	s, err = Tone(hwdefs.PAL, "noise", 1662607.0/4068, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Frames[0].Writes[2]; got.Addr != hwdefs.NoisePeriod || got.Value != 15 {
		t.Errorf("noise period write = %+v, want $%04X=15", got, hwdefs.NoisePeriod)
	}
	if s.Frames[0].Cycles != 33254 {
		t.Errorf("PAL frame = %d cycles, want 33254", s.Frames[0].Cycles)
	}

	tests := []struct {
		name    string
		channel string
		freq    float64
		frames  int
	}{
		{"too high", "square", 20000, 1},
		{"too low", "triangle", 10, 1},
		{"unknown channel", "dmc", 440, 1},
		{"no frames", "triangle", 440, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Tone(hwdefs.NTSC, tt.channel, tt.freq, 15, tt.frames); !errors.Is(err, ErrInvalid) {
				t.Errorf("Tone() error = %v, want ErrInvalid", err)
			}
		})
	}
}
