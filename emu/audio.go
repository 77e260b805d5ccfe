package emu

import (
	"errors"
	"fmt"
	"slices"

	"nesapu/emu/log"
	"nesapu/hw/apu"
	"nesapu/hw/audio"
	"nesapu/hw/hwdefs"
	"nesapu/hw/snapshot"
	"nesapu/hw/synth"
)

var ErrNotInitialized = errors.New("audio core not initialized")

// Audio is the sound core of the console: the APU, the synthesizer turning
// its output into PCM samples, and the queue handing fixed-size sample blocks
// to the player.
//
// Audio is driven by a single goroutine, the emulation, except for the
// queue which is drained concurrently by the player.
type Audio struct {
	apu      *apu.APU
	mixer    *apu.Mixer
	synth    *synth.Synth
	queue    *audio.Queue
	rewinder *Rewinder

	block   []int16 // block being filled, up to the queue block size
	scratch []int16
	frames  uint64
}

// New creates a sound core in its power-up state. DMC samples are read from
// rd, which may be nil if the DMC isn't used.
func New(cfg Config, rd apu.MemReader) (*Audio, error) {
	acfg := cfg.Audio
	if !acfg.Region.Valid() {
		return nil, fmt.Errorf("new audio: invalid region %d", acfg.Region)
	}
	s, err := synth.New(acfg.Region.ClockRate(), acfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("new audio: %w", err)
	}

	mixer := apu.NewMixer(s)
	mixer.SetMasterVolume(acfg.Volume)
	for i, v := range acfg.Channels.volumes() {
		mixer.SetVolume(apu.Channel(i), *v)
	}

	a := &Audio{
		apu:   apu.New(acfg.Region, mixer, rd),
		mixer: mixer,
		synth: s,
		queue: audio.NewQueue(audio.QueueConfig{
			BlockSize: acfg.BlockSize,
			Capacity:  acfg.QueueBlocks,
			Policy:    acfg.Policy,
		}),
	}
	a.block = make([]int16, 0, a.queue.Config().BlockSize)
	if cfg.Rewind.Frames > 0 {
		a.rewinder = NewRewinder(cfg.Rewind.Frames, cfg.Rewind.Interval)
	}

	log.ModEmu.InfoZ("audio core created").
		Stringer("region", acfg.Region).
		Uint32("sample rate", acfg.SampleRate).
		Int("block size", cap(a.block)).
		Stringer("policy", a.queue.Config().Policy).
		End()
	return a, nil
}

func (a *Audio) ready() error {
	if a == nil || a.apu == nil {
		return ErrNotInitialized
	}
	return nil
}

// Reset power-cycles the APU and clears the synthesizer. Blocks already in
// the queue are left for the player.
func (a *Audio) Reset() {
	if a.ready() != nil {
		return
	}
	a.apu.Reset(hwdefs.HardReset)
	a.block = a.block[:0]
	a.frames = 0
	if a.rewinder != nil {
		a.rewinder.Reset()
	}
}

// SoftReset is the console reset button: the APU is silenced, but the
// triangle length counter and the frame counter mode are kept.
func (a *Audio) SoftReset() {
	if a.ready() != nil {
		return
	}
	a.apu.Reset(hwdefs.SoftReset)
	a.block = a.block[:0]
}

// WriteRegister writes val to the APU register at addr, elapsed CPU cycles
// after the start of the current frame.
func (a *Audio) WriteRegister(elapsed uint32, addr uint16, val uint8) error {
	if err := a.ready(); err != nil {
		return err
	}
	if err := a.apu.WriteRegister(elapsed, addr, val); err != nil {
		return fmt.Errorf("write $%04X: %w", addr, err)
	}
	return nil
}

// ReadRegister reads the status register ($4015), elapsed CPU cycles after
// the start of the current frame. Reading it acknowledges the frame
// interrupt.
func (a *Audio) ReadRegister(elapsed uint32) (uint8, error) {
	if err := a.ready(); err != nil {
		return 0, err
	}
	val, err := a.apu.ReadRegister(elapsed, hwdefs.APUStatus)
	if err != nil {
		return 0, fmt.Errorf("read $4015: %w", err)
	}
	return val, nil
}

// IRQ reports the interrupt sources asserted by the APU, elapsed CPU cycles
// after the start of the current frame.
func (a *Audio) IRQ(elapsed uint32) (hwdefs.IRQSource, error) {
	if err := a.ready(); err != nil {
		return 0, err
	}
	irq, err := a.apu.IRQ(elapsed)
	if err != nil {
		return 0, fmt.Errorf("irq: %w", err)
	}
	return irq, nil
}

// Peek reads an APU register without side effects.
func (a *Audio) Peek(addr uint16) uint8 {
	if a.ready() != nil {
		return 0
	}
	return a.apu.Peek(addr)
}

// RunToFrameBoundary runs the APU up to elapsed, which becomes the start of
// the next frame, and queues every complete block of samples. It only blocks
// if the queue is full and its policy is audio.Block.
func (a *Audio) RunToFrameBoundary(elapsed uint32) error {
	if err := a.ready(); err != nil {
		return err
	}
	if err := a.apu.EndFrame(elapsed); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	a.frames++

	if err := a.drain(); err != nil {
		return err
	}

	if a.rewinder != nil && a.rewinder.EndFrame() {
		blob, err := a.TakeSnapshot()
		if err != nil {
			return err
		}
		a.rewinder.Push(blob)
	}
	return nil
}

// drain moves the synthesized samples into blocks, and complete blocks into
// the queue.
func (a *Audio) drain() error {
	n := a.synth.SamplesAvailable()
	a.scratch = slices.Grow(a.scratch[:0], n)[:n]
	samples := a.scratch[:a.synth.ReadSamples(a.scratch)]

	for len(samples) > 0 {
		k := min(cap(a.block)-len(a.block), len(samples))
		a.block = append(a.block, samples[:k]...)
		samples = samples[k:]

		if len(a.block) == cap(a.block) {
			if err := a.queue.Write(a.block); err != nil {
				return fmt.Errorf("queue audio block: %w", err)
			}
			a.block = a.block[:0]
		}
	}
	return nil
}

// Flush queues the samples of the incomplete block, as a shorter block.
func (a *Audio) Flush() error {
	if err := a.ready(); err != nil {
		return err
	}
	if len(a.block) == 0 {
		return nil
	}
	if err := a.queue.Write(a.block); err != nil {
		return fmt.Errorf("flush audio block: %w", err)
	}
	a.block = a.block[:0]
	return nil
}

// Frames is the number of frames run since power-up or the last reset.
func (a *Audio) Frames() uint64 { return a.frames }

// AddLogContext tags log lines with the current frame. Only register it when
// the core is driven by the logging goroutine.
func (a *Audio) AddLogContext(z *log.EntryZ) { z.Uint64("frame", a.frames) }

// Pending is the number of samples waiting for their block to be complete.
func (a *Audio) Pending() int { return len(a.block) }

func (a *Audio) Queue() *audio.Queue { return a.queue }

func (a *Audio) Region() hwdefs.Region { return a.apu.Region() }

// MaxFrameCycles is the longest frame accepted by RunToFrameBoundary.
func (a *Audio) MaxFrameCycles() uint32 { return a.apu.MaxFrameCycles() }

// State returns the current APU state.
func (a *Audio) State() (*snapshot.APU, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.apu.State(), nil
}

// TakeSnapshot serializes the APU state. It can be taken in the middle of a
// frame. The queue, the DMC memory reader and samples not yet queued are not
// part of the snapshot.
func (a *Audio) TakeSnapshot() ([]byte, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	blob, err := a.apu.State().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("take snapshot: %w", err)
	}

	log.ModSnap.DebugZ("snapshot taken").
		Int("size", len(blob)).
		Uint64("frame", a.frames).
		End()
	return blob, nil
}

// LoadSnapshot restores a snapshot taken with TakeSnapshot. The snapshot is
// fully validated first and the core is left untouched if it's rejected.
func (a *Audio) LoadSnapshot(blob []byte) error {
	if err := a.ready(); err != nil {
		return err
	}

	var state snapshot.APU
	if err := state.UnmarshalBinary(blob); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := a.apu.SetState(&state); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	a.block = a.block[:0]
	return nil
}

// Rewind restores the state of the core as it was about frames frames ago,
// rounded to the rewind interval.
func (a *Audio) Rewind(frames int) error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.rewinder == nil {
		return fmt.Errorf("rewind: %w: rewind disabled", ErrNoHistory)
	}

	// The most recent snapshot is from the last multiple of the interval.
	steps := max(0, frames)/a.rewinder.Interval() + 1
	blob, err := a.rewinder.Back(steps)
	if err != nil {
		return fmt.Errorf("rewind %d frames: %w", frames, err)
	}
	if err := a.LoadSnapshot(blob); err != nil {
		return err
	}

	log.ModEmu.InfoZ("rewind").
		Int("frames", frames).
		Int("steps", steps).
		End()
	return nil
}

// Close closes the queue, the player stops once the queued blocks are played.
func (a *Audio) Close() {
	if a.ready() == nil {
		a.queue.Close()
	}
}
