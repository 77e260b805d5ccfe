package emu

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"

	"nesapu/emu/log"
	"nesapu/hw/audio"
	"nesapu/hw/hwdefs"
)

type Config struct {
	Audio  AudioConfig  `toml:"audio"`
	Rewind RewindConfig `toml:"rewind"`
}

type AudioConfig struct {
	Region      hwdefs.Region  `toml:"region"`
	SampleRate  uint32         `toml:"sample_rate"`
	BlockSize   int            `toml:"block_size"`
	QueueBlocks int            `toml:"queue_blocks"`
	Policy      audio.Policy   `toml:"policy"`
	Backend     string         `toml:"backend"` // sdl, oto or null
	LatencyMs   int            `toml:"latency_ms"`
	Volume      float64        `toml:"volume"`
	Channels    ChannelVolumes `toml:"channels"`
}

type ChannelVolumes struct {
	Square1  float64 `toml:"square1"`
	Square2  float64 `toml:"square2"`
	Triangle float64 `toml:"triangle"`
	Noise    float64 `toml:"noise"`
	DMC      float64 `toml:"dmc"`
}

func (cv *ChannelVolumes) volumes() [hwdefs.NumAudioChannels]*float64 {
	return [...]*float64{&cv.Square1, &cv.Square2, &cv.Triangle, &cv.Noise, &cv.DMC}
}

type RewindConfig struct {
	Frames   int `toml:"frames"`   // number of snapshots kept, 0 disables rewind
	Interval int `toml:"interval"` // frames between snapshots
}

var Backends = []string{"sdl", "oto", "null"}

const (
	minSampleRate = 8000
	maxSampleRate = 192000
	maxVolume     = 4
)

func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			Region:      hwdefs.NTSC,
			SampleRate:  48000,
			BlockSize:   audio.DefaultBlockSize,
			QueueBlocks: audio.DefaultCapacity,
			Policy:      audio.Block,
			Backend:     "sdl",
			LatencyMs:   60,
			Volume:      1,
			Channels: ChannelVolumes{
				Square1:  1,
				Square2:  1,
				Triangle: 1,
				Noise:    1,
				DMC:      1,
			},
		},
		Rewind: RewindConfig{
			Frames:   120,
			Interval: 5,
		},
	}
}

// Check replaces invalid values with their defaults.
func (cfg *Config) Check() {
	def := DefaultConfig()

	acfg := &cfg.Audio
	if !acfg.Region.Valid() {
		log.ModEmu.Warnf("Invalid region %d, fallback to %s", acfg.Region, def.Audio.Region)
		acfg.Region = def.Audio.Region
	}
	if acfg.SampleRate < minSampleRate || acfg.SampleRate > maxSampleRate {
		log.ModEmu.Warnf("Invalid sample rate %d, fallback to %d", acfg.SampleRate, def.Audio.SampleRate)
		acfg.SampleRate = def.Audio.SampleRate
	}
	if acfg.BlockSize <= 0 {
		log.ModEmu.Warnf("Invalid block size %d, fallback to %d", acfg.BlockSize, def.Audio.BlockSize)
		acfg.BlockSize = def.Audio.BlockSize
	}
	if acfg.QueueBlocks <= 0 {
		log.ModEmu.Warnf("Invalid queue size %d, fallback to %d", acfg.QueueBlocks, def.Audio.QueueBlocks)
		acfg.QueueBlocks = def.Audio.QueueBlocks
	}
	if acfg.Policy > audio.DropOldest {
		log.ModEmu.Warnf("Invalid queue policy %d, fallback to %s", acfg.Policy, def.Audio.Policy)
		acfg.Policy = def.Audio.Policy
	}
	if !slices.Contains(Backends, acfg.Backend) {
		log.ModEmu.Warnf("Invalid audio backend %q, fallback to %q", acfg.Backend, def.Audio.Backend)
		acfg.Backend = def.Audio.Backend
	}
	if acfg.LatencyMs <= 0 {
		acfg.LatencyMs = def.Audio.LatencyMs
	}
	if acfg.Volume < 0 || acfg.Volume > maxVolume {
		log.ModEmu.Warnf("Invalid volume %f, fallback to %f", acfg.Volume, def.Audio.Volume)
		acfg.Volume = def.Audio.Volume
	}
	for i, v := range acfg.Channels.volumes() {
		if *v < 0 || *v > maxVolume {
			log.ModEmu.Warnf("Invalid channel %d volume %f, fallback to 1", i, *v)
			*v = 1
		}
	}

	if cfg.Rewind.Frames < 0 {
		cfg.Rewind.Frames = 0
	}
	if cfg.Rewind.Interval <= 0 {
		cfg.Rewind.Interval = def.Rewind.Interval
	}
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "nesapu")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// ConfigPath is the path of the configuration file in the nesapu config
// directory.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

// LoadConfig reads the configuration at path. Values missing from the file
// keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("load config: %w", err)
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.Warnf("Unknown config key %q in %s", key, path)
	}
	cfg.Check()
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the nesapu config
// directory, or provide a default one.
func LoadConfigOrDefault() Config {
	cfg, err := LoadConfig(ConfigPath())
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig into nesapu config directory.
func SaveConfig(cfg Config) error {
	return SaveConfigTo(ConfigPath(), cfg)
}

func SaveConfigTo(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}
