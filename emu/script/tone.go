package script

import (
	"fmt"
	"math"
	"strings"

	"nesapu/hw/hwdefs"
)

// frame lengths in CPU cycles, rounded.
var frameCycles = [...]uint32{
	hwdefs.NTSC: 29830,
	hwdefs.PAL:  33254,
}

// Tone returns a script playing a constant tone of the given frequency on the
// named channel (square, triangle or noise) for the given number of frames.
// Volume ranges from 0 to 15 and is ignored by the triangle channel.
func Tone(region hwdefs.Region, channel string, freq float64, volume uint8, frames int) (*Script, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("%w: region %d", ErrInvalid, region)
	}
	if frames <= 0 {
		return nil, fmt.Errorf("%w: %d frames", ErrInvalid, frames)
	}
	volume = min(volume, 15)
	clock := float64(region.ClockRate())

	var writes []Write
	w := func(addr uint16, val uint8) {
		writes = append(writes, Write{Addr: addr, Value: val})
	}

	switch strings.ToLower(channel) {
	case "square", "pulse", "square1":
		period, err := timerPeriod(clock/(16*freq), 8)
		if err != nil {
			return nil, err
		}
		w(hwdefs.APUStatus, 0x01)
		w(hwdefs.Pulse1Duty, 0xB0|volume) // 50% duty, halt, constant volume
		w(hwdefs.Pulse1Sweep, 0x08)       // sweep disabled, negate so it never mutes
		w(hwdefs.Pulse1Timer, uint8(period))
		w(hwdefs.Pulse1Length, uint8(period>>8))
	case "triangle":
		period, err := timerPeriod(clock/(32*freq), 2)
		if err != nil {
			return nil, err
		}
		w(hwdefs.APUStatus, 0x04)
		w(hwdefs.TriangleLinear, 0xFF) // control, max linear counter
		w(hwdefs.TriangleTimer, uint8(period))
		w(hwdefs.TriangleLength, uint8(period>>8))
	case "noise":
		w(hwdefs.APUStatus, 0x08)
		w(hwdefs.NoiseVolume, 0x30|volume)
		w(hwdefs.NoisePeriod, noisePeriodIndex(region, clock/freq))
		w(hwdefs.NoiseLength, 0x00)
	default:
		return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalid, channel)
	}

	s := &Script{
		Name:   fmt.Sprintf("%s %.1fHz", channel, freq),
		Region: region,
		Frames: []Frame{{
			Cycles: frameCycles[region],
			Repeat: frames - 1,
			Writes: writes,
		}},
	}
	return s, s.Validate()
}

// timerPeriod converts a number of timer clocks to a period register value.
func timerPeriod(clocks float64, minPeriod int) (uint16, error) {
	period := int(math.Round(clocks)) - 1
	if period < minPeriod || period > 0x7FF {
		return 0, fmt.Errorf("%w: frequency out of range (period %d)", ErrInvalid, period)
	}
	return uint16(period), nil
}

var noisePeriods = [2][16]float64{
	hwdefs.NTSC: {4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068},
	hwdefs.PAL:  {4, 8, 14, 30, 60, 88, 118, 148, 188, 236, 354, 472, 708, 944, 1890, 3778},
}

// noisePeriodIndex returns the noise period closest to clocks.
func noisePeriodIndex(region hwdefs.Region, clocks float64) uint8 {
	var best uint8
	for i, p := range noisePeriods[region] {
		if math.Abs(p-clocks) < math.Abs(noisePeriods[region][best]-clocks) {
			best = uint8(i)
		}
	}
	return best
}
