package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrVersion = errors.New("unsupported snapshot version")
	ErrCorrupt = errors.New("corrupt snapshot")
	ErrRegion  = errors.New("snapshot region mismatch")
)

var magic = [4]byte{'A', 'P', 'U', 'S'}

// header: magic, version (u16), payload size (u32).
const headerSize = 4 + 2 + 4

// PayloadSize is the size in bytes of an encoded APU state.
var PayloadSize = binary.Size(APU{})

// MarshalBinary encodes the state as a versioned little-endian blob.
func (s *APU) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize, headerSize+PayloadSize)
	copy(buf, magic[:])
	binary.LittleEndian.PutUint16(buf[4:], Version)
	binary.LittleEndian.PutUint32(buf[6:], uint32(PayloadSize))

	buf, err := binary.Append(buf, binary.LittleEndian, s)
	if err != nil {
		return nil, fmt.Errorf("encode apu state: %w", err)
	}
	return buf, nil
}

// UnmarshalBinary decodes and validates a blob produced by MarshalBinary.
// The receiver is only modified if the whole blob is valid.
func (s *APU) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic[:]) {
		return fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != Version {
		return fmt.Errorf("%w: got %d, want %d", ErrVersion, v, Version)
	}
	size := binary.LittleEndian.Uint32(data[6:])
	if int(size) != PayloadSize || len(data)-headerSize != PayloadSize {
		return fmt.Errorf("%w: payload is %d bytes (header says %d), want %d",
			ErrCorrupt, len(data)-headerSize, size, PayloadSize)
	}

	var tmp APU
	if _, err := binary.Decode(data[headerSize:], binary.LittleEndian, &tmp); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := tmp.Validate(); err != nil {
		return err
	}
	*s = tmp
	return nil
}

type checker struct{ errs []error }

func (c *checker) check(ok bool, format string, args ...any) {
	if !ok {
		c.errs = append(c.errs, fmt.Errorf(format, args...))
	}
}

func (c *checker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrCorrupt, errors.Join(c.errs...))
}

const maxFrameCounterCycle = 41566

// Validate checks that every bounded field holds a value the hardware can
// reach. It returns an error wrapping ErrRegion or ErrCorrupt.
func (s *APU) Validate() error {
	if !s.Region.Valid() {
		return fmt.Errorf("%w: unknown region %d", ErrRegion, s.Region)
	}

	var c checker
	s.Square1.validate(&c, "square1")
	s.Square2.validate(&c, "square2")

	tri := &s.Triangle
	tri.LengthCounter.validate(&c, "triangle")
	c.check(tri.Pos < 32, "triangle: position %d", tri.Pos)
	c.check(tri.LinearCounter < 0x80, "triangle: linear counter %d", tri.LinearCounter)
	c.check(tri.LinearCounterReload < 0x80, "triangle: linear reload %d", tri.LinearCounterReload)
	c.check(tri.Timer.Period <= 0x7FF, "triangle: period %d", tri.Timer.Period)
	c.check(tri.Timer.LastOutput >= 0 && tri.Timer.LastOutput <= 15, "triangle: output %d", tri.Timer.LastOutput)

	noise := &s.Noise
	noise.Envelope.validate(&c, "noise")
	c.check(noise.ShiftReg != 0 && noise.ShiftReg < 1<<15, "noise: shift register %04x", noise.ShiftReg)
	c.check(noise.Timer.LastOutput >= 0 && noise.Timer.LastOutput <= 15, "noise: output %d", noise.Timer.LastOutput)

	dmc := &s.DMC
	c.check(dmc.OutputLevel < 0x80, "dmc: output level %d", dmc.OutputLevel)
	c.check(dmc.Last4011 < 0x80, "dmc: $4011 value %d", dmc.Last4011)
	c.check(dmc.BitsLeft >= 1 && dmc.BitsLeft <= 8, "dmc: bits left %d", dmc.BitsLeft)
	c.check(dmc.SampleAddr >= 0xC000, "dmc: sample address %04x", dmc.SampleAddr)
	c.check(dmc.SampleLen <= 0xFF1, "dmc: sample length %d", dmc.SampleLen)
	c.check(dmc.Remaining <= 0xFF1, "dmc: remaining %d", dmc.Remaining)
	c.check(dmc.Remaining == 0 || dmc.CurrentAddr >= 0x8000, "dmc: current address %04x", dmc.CurrentAddr)
	c.check(dmc.Timer.LastOutput >= 0, "dmc: output %d", dmc.Timer.LastOutput)

	fc := &s.FrameCounter
	c.check(fc.CurStep < 6, "frame counter: step %d", fc.CurStep)
	c.check(fc.StepMode < 2, "frame counter: mode %d", fc.StepMode)
	c.check(fc.BlockTick <= 2, "frame counter: block tick %d", fc.BlockTick)
	c.check(fc.NewValue >= -1 && fc.NewValue <= 0xFF, "frame counter: pending value %d", fc.NewValue)
	c.check(fc.WriteDelayCounter >= -1 && fc.WriteDelayCounter <= 4, "frame counter: write delay %d", fc.WriteDelayCounter)
	c.check(fc.PrevCycle >= 0 && fc.PrevCycle <= maxFrameCounterCycle, "frame counter: cycle %d", fc.PrevCycle)

	c.check(s.PrevCycle <= s.CurCycle, "cycles: prev %d > cur %d", s.PrevCycle, s.CurCycle)

	// Channels are always run up to the same cycle, and the mixer levels
	// follow the channel outputs.
	timers := [...]*Timer{&s.Square1.Timer, &s.Square2.Timer, &s.Triangle.Timer, &s.Noise.Timer, &s.DMC.Timer}
	mix := &s.Mixer
	c.check(mix.ClockRate != 0 && mix.SampleRate != 0, "mixer: rates %d/%d", mix.ClockRate, mix.SampleRate)
	for i, t := range timers {
		c.check(t.PreviousCycle == s.PrevCycle, "channel %d: cycle %d, want %d", i, t.PreviousCycle, s.PrevCycle)
		c.check(mix.CurrentOutput[i] == int16(t.LastOutput), "mixer: channel %d level %d, channel output %d",
			i, mix.CurrentOutput[i], t.LastOutput)
	}
	return c.err()
}

func (sq *APUSquare) validate(c *checker, name string) {
	sq.Envelope.validate(c, name)
	c.check(sq.Duty < 4, "%s: duty %d", name, sq.Duty)
	c.check(sq.DutyPos < 8, "%s: duty position %d", name, sq.DutyPos)
	c.check(sq.SweepShift < 8, "%s: sweep shift %d", name, sq.SweepShift)
	c.check(sq.SweepPeriod <= 8, "%s: sweep period %d", name, sq.SweepPeriod)
	c.check(sq.RealPeriod <= 0x7FF, "%s: period %d", name, sq.RealPeriod)
	c.check(sq.Timer.LastOutput >= 0 && sq.Timer.LastOutput <= 15, "%s: output %d", name, sq.Timer.LastOutput)
}

func (env *Envelope) validate(c *checker, name string) {
	env.LengthCounter.validate(c, name)
	c.check(env.Volume <= 15, "%s: envelope volume %d", name, env.Volume)
	c.check(env.Counter <= 15, "%s: envelope counter %d", name, env.Counter)
	c.check(env.Divider >= -1 && env.Divider <= 15, "%s: envelope divider %d", name, env.Divider)
}

func (lc *LengthCounter) validate(c *checker, name string) {
	c.check(lc.Counter <= 254, "%s: length counter %d", name, lc.Counter)
	c.check(lc.ReloadValue <= 254, "%s: length reload %d", name, lc.ReloadValue)
}
