package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nesapu/hw/audio"
	"nesapu/hw/hwdefs"
)

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	want := DefaultConfig()
	want.Audio.Region = hwdefs.PAL
	want.Audio.SampleRate = 44100
	want.Audio.Policy = audio.DropOldest
	want.Audio.Backend = "oto"
	want.Audio.Channels.Noise = 0.5
	want.Rewind.Frames = 0

	if err := SaveConfigTo(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	const text = `
[audio]
sample_rate = 32000
policy = "drop-oldest"
unknown_key = 12
`
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.Audio.SampleRate = 32000
	want.Audio.Policy = audio.DropOldest
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Errorf("LoadConfig() on missing file succeeded")
	}

	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[audio]\npolicy = \"sometimes\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("LoadConfig() with unknown policy succeeded")
	}
}

func TestConfigCheck(t *testing.T) {
	cfg := Config{
		Audio: AudioConfig{
			Region:      9,
			SampleRate:  500,
			BlockSize:   -1,
			QueueBlocks: 0,
			Policy:      42,
			Backend:     "pulseaudio",
			LatencyMs:   0,
			Volume:      10,
			Channels:    ChannelVolumes{Square1: -1, Square2: 0.25, Triangle: 5, Noise: 1, DMC: 0},
		},
		Rewind: RewindConfig{Frames: -3, Interval: 0},
	}
	cfg.Check()

	want := DefaultConfig()
	want.Audio.Channels = ChannelVolumes{Square1: 1, Square2: 0.25, Triangle: 1, Noise: 1, DMC: 0}
	want.Rewind.Frames = 0
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("checked config mismatch (-want +got):\n%s", diff)
	}
}
