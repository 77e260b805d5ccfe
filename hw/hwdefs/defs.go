package hwdefs

import (
	"fmt"
	"strings"
)

type IRQSource uint8

const (
	FrameCounter IRQSource = 1 << iota
	DMC

	numSources = 2
)

var irqSrcNames = [numSources]string{
	"fcnt",
	"dmc",
}

func (irq IRQSource) String() string {
	var names []string
	for i := range numSources {
		if irq&(1<<i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}

const (
	SoftReset = true
	HardReset = false
)

const NumAudioChannels = 5 // Square1, Square2, Triangle, Noise, DMC

// Region selects the console timing (CPU clock and APU tables).
type Region uint8

const (
	NTSC Region = iota
	PAL

	numRegions
)

// Clock rates, in CPU cycles per second.
const (
	NTSCClockRate = 1789773
	PALClockRate  = 1662607
)

func (r Region) Valid() bool { return r < numRegions }

func (r Region) ClockRate() uint32 {
	if r == PAL {
		return PALClockRate
	}
	return NTSCClockRate
}

// FrameRate is the number of video frames per second.
func (r Region) FrameRate() float64 {
	if r == PAL {
		return 50.0070
	}
	return 60.0988
}

func (r Region) String() string {
	switch r {
	case NTSC:
		return "ntsc"
	case PAL:
		return "pal"
	}
	return fmt.Sprintf("Region(%d)", r)
}

func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(s) {
	case "ntsc", "":
		return NTSC, nil
	case "pal":
		return PAL, nil
	}
	return 0, fmt.Errorf("unknown region %q", s)
}

func (r Region) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid region %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Region) UnmarshalText(text []byte) error {
	reg, err := ParseRegion(string(text))
	if err != nil {
		return err
	}
	*r = reg
	return nil
}

// APU register map.
const (
	APUBase = 0x4000

	Pulse1Duty   = 0x4000
	Pulse1Sweep  = 0x4001
	Pulse1Timer  = 0x4002
	Pulse1Length = 0x4003

	Pulse2Duty   = 0x4004
	Pulse2Sweep  = 0x4005
	Pulse2Timer  = 0x4006
	Pulse2Length = 0x4007

	TriangleLinear = 0x4008
	TriangleUnused = 0x4009
	TriangleTimer  = 0x400A
	TriangleLength = 0x400B

	NoiseVolume = 0x400C
	NoiseUnused = 0x400D
	NoisePeriod = 0x400E
	NoiseLength = 0x400F

	DMCFlags      = 0x4010
	DMCLoad       = 0x4011
	DMCSampleAddr = 0x4012
	DMCSampleLen  = 0x4013

	APUStatus       = 0x4015
	FrameCounterReg = 0x4017

	DAC0 = 0x4018
	DAC1 = 0x4019
	DAC2 = 0x401A

	APUEnd = 0x401F
)
