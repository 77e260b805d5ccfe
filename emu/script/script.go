// Package script drives the sound core from TOML register scripts, without a
// CPU. A script is a list of frames, each made of timestamped register writes
// and status reads.
//
//	region = "ntsc"
//
//	[[sample]]
//	addr = 0xC000
//	data = [0xAA, 0x55]
//
//	[[frame]]
//	cycles = 29830
//	repeat = 60
//
//	[[frame.write]]
//	cycle = 0
//	addr = 0x4015
//	value = 0x01
package script

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"

	"nesapu/emu/log"
	"nesapu/hw/hwdefs"
)

var ErrInvalid = errors.New("invalid script")

type Script struct {
	Name    string        `toml:"name"`
	Region  hwdefs.Region `toml:"region"`
	Samples []Sample      `toml:"sample"`
	Frames  []Frame       `toml:"frame"`
}

// Sample is DMC sample data, mapped at Addr.
type Sample struct {
	Addr uint16  `toml:"addr"`
	Data []uint8 `toml:"data"`
}

type Frame struct {
	Cycles uint32  `toml:"cycles"`
	Repeat int     `toml:"repeat"` // run the frame 1+Repeat times, writes only happen the first time
	Writes []Write `toml:"write"`
	Reads  []Read  `toml:"read"`
}

type Write struct {
	Cycle uint32 `toml:"cycle"`
	Addr  uint16 `toml:"addr"`
	Value uint8  `toml:"value"`
}

// Read reads the status register.
type Read struct {
	Cycle uint32 `toml:"cycle"`
}

// Load reads and validates the script at path.
func Load(path string) (*Script, error) {
	var s Script
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Parse decodes and validates a script.
func Parse(text string) (*Script, error) {
	var s Script
	if _, err := toml.Decode(text, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the events of each frame happen within the frame.
func (s *Script) Validate() error {
	if !s.Region.Valid() {
		return fmt.Errorf("%w: region %d", ErrInvalid, s.Region)
	}
	for i, f := range s.Frames {
		if f.Cycles == 0 {
			return fmt.Errorf("%w: frame %d: zero cycles", ErrInvalid, i)
		}
		if f.Repeat < 0 {
			return fmt.Errorf("%w: frame %d: negative repeat", ErrInvalid, i)
		}
		for _, w := range f.Writes {
			if w.Cycle > f.Cycles {
				return fmt.Errorf("%w: frame %d: write at cycle %d, frame is %d cycles", ErrInvalid, i, w.Cycle, f.Cycles)
			}
		}
		for _, r := range f.Reads {
			if r.Cycle > f.Cycles {
				return fmt.Errorf("%w: frame %d: read at cycle %d, frame is %d cycles", ErrInvalid, i, r.Cycle, f.Cycles)
			}
		}
	}
	for i, smp := range s.Samples {
		if smp.Addr < 0x8000 || int(smp.Addr)+len(smp.Data) > 0x10000 {
			return fmt.Errorf("%w: sample %d out of $8000-$FFFF", ErrInvalid, i)
		}
	}
	return nil
}

// NumFrames is the number of frames the script runs.
func (s *Script) NumFrames() int {
	var n int
	for _, f := range s.Frames {
		n += 1 + f.Repeat
	}
	return n
}

// Target is what a script drives, an emu.Audio.
type Target interface {
	WriteRegister(elapsed uint32, addr uint16, val uint8) error
	ReadRegister(elapsed uint32) (uint8, error)
	RunToFrameBoundary(elapsed uint32) error
}

type event struct {
	cycle uint32
	write bool
	addr  uint16
	val   uint8
}

func (f *Frame) events() []event {
	evs := make([]event, 0, len(f.Writes)+len(f.Reads))
	for _, w := range f.Writes {
		evs = append(evs, event{cycle: w.Cycle, write: true, addr: w.Addr, val: w.Value})
	}
	for _, r := range f.Reads {
		evs = append(evs, event{cycle: r.Cycle, addr: hwdefs.APUStatus})
	}
	// Keep the file order for events happening on the same cycle, writes first.
	slices.SortStableFunc(evs, func(a, b event) int {
		return cmp.Compare(a.cycle, b.cycle)
	})
	return evs
}

// Player runs a script frame by frame.
type Player struct {
	s      *Script
	frame  int // index in s.Frames
	repeat int // number of times the current frame has run
	done   int // total frames run
}

func (s *Script) Player() *Player {
	return &Player{s: s}
}

func (p *Player) Done() bool { return p.frame >= len(p.s.Frames) }

// Frame is the number of frames run.
func (p *Player) Frame() int { return p.done }

// Step runs the next frame of the script on t. It returns false once the
// script is over.
func (p *Player) Step(t Target) (bool, error) {
	if p.Done() {
		return false, nil
	}

	f := &p.s.Frames[p.frame]
	if p.repeat == 0 {
		for _, ev := range f.events() {
			if ev.write {
				if err := t.WriteRegister(ev.cycle, ev.addr, ev.val); err != nil {
					return false, fmt.Errorf("frame %d: %w", p.done, err)
				}
				continue
			}
			status, err := t.ReadRegister(ev.cycle)
			if err != nil {
				return false, fmt.Errorf("frame %d: %w", p.done, err)
			}
			log.ModEmu.InfoZ("script status read").
				Int("frame", p.done).
				Uint32("cycle", ev.cycle).
				Hex8("status", status).
				End()
		}
	}
	if err := t.RunToFrameBoundary(f.Cycles); err != nil {
		return false, fmt.Errorf("frame %d: %w", p.done, err)
	}

	p.done++
	p.repeat++
	if p.repeat > f.Repeat {
		p.frame++
		p.repeat = 0
	}
	return true, nil
}

// Run plays the whole script on t.
func (s *Script) Run(t Target) error {
	p := s.Player()
	for {
		more, err := p.Step(t)
		if err != nil || !more {
			return err
		}
	}
}
