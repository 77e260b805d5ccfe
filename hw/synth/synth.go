// Package synth converts timestamped amplitude steps, expressed in CPU
// clocks, into band-limited 16-bit PCM at the output sample rate.
package synth

import (
	"errors"
	"fmt"

	"github.com/arl/blip"

	"nesapu/emu/log"
)

var ErrRate = errors.New("unsupported clock/sample rate")

// MaxFrameSamples is the maximum number of samples produced by a frame.
const MaxFrameSamples = blip.MaxFrame

// Synth is a mono band-limited step synthesizer. Amplitude deltas are added
// at clock times relative to the start of the current frame. EndFrame makes
// the samples of the elapsed frame available for reading and starts a new
// frame.
type Synth struct {
	buf *blip.Buffer

	clockRate  uint32
	sampleRate uint32
	maxFrame   uint32
}

// New creates a synthesizer converting clockRate input clocks per second to
// sampleRate output samples per second.
func New(clockRate, sampleRate uint32) (*Synth, error) {
	if sampleRate == 0 || clockRate < sampleRate {
		return nil, fmt.Errorf("%w: %d Hz clock, %d Hz output", ErrRate, clockRate, sampleRate)
	}
	if clockRate/sampleRate > blip.MaxRatio {
		return nil, fmt.Errorf("%w: ratio %d exceeds %d", ErrRate, clockRate/sampleRate, blip.MaxRatio)
	}

	s := &Synth{
		buf:        blip.NewBuffer(blip.MaxFrame),
		clockRate:  clockRate,
		sampleRate: sampleRate,
		// Keep a sample of margin for the rounding of the clocks to samples
		// conversion.
		maxFrame: uint32(uint64(blip.MaxFrame-1) * uint64(clockRate) / uint64(sampleRate)),
	}
	s.buf.SetRates(float64(clockRate), float64(sampleRate))

	log.ModSound.InfoZ("synth ready").
		Uint32("clock", clockRate).
		Uint32("rate", sampleRate).
		Uint32("max frame", s.maxFrame).
		End()
	return s, nil
}

func (s *Synth) ClockRate() uint32  { return s.clockRate }
func (s *Synth) SampleRate() uint32 { return s.sampleRate }

// MaxFrameCycles is the longest frame, in clocks, that EndFrame accepts.
func (s *Synth) MaxFrameCycles() uint32 { return s.maxFrame }

// AddDelta adds an amplitude step at the given clock time of the current
// frame. Time must be lower or equal to MaxFrameCycles.
func (s *Synth) AddDelta(time uint32, delta int32) {
	if delta == 0 {
		return
	}
	s.buf.AddDelta(uint64(time), delta)
}

// EndFrame ends the current frame, cycles clocks long.
func (s *Synth) EndFrame(cycles uint32) {
	s.buf.EndFrame(int(cycles))
}

// SamplesAvailable returns the number of samples that can be read.
func (s *Synth) SamplesAvailable() int {
	return s.buf.SamplesAvailable()
}

// ReadSamples reads up to len(dst) samples into dst and returns the number of
// samples read.
func (s *Synth) ReadSamples(dst []int16) int {
	n := min(len(dst), s.buf.SamplesAvailable())
	if n == 0 {
		return 0
	}
	return s.buf.ReadSamples(dst, n, blip.Mono)
}

// Clear discards all buffered samples and the residual high-pass energy.
func (s *Synth) Clear() {
	s.buf.Clear()
}
