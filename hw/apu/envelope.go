package apu

import "nesapu/hw/snapshot"

// envelope produces the volume of the pulse and noise channels: either the
// constant volume from the register, or a sawtooth decaying from 15 to 0
// every volume+1 quarter frames, optionally looping. The length counter
// sharing the loop flag gates its output.
type envelope struct {
	length lengthCounter

	constant bool
	volume   uint8 // constant volume, or divider period

	start   bool
	divider int8
	decay   uint8
}

// init handles the --LC VVVV bits of the channel control register.
func (e *envelope) init(val uint8) {
	e.length.init(val&0x20 != 0)
	e.constant = val&0x10 != 0
	e.volume = val & 0x0F
}

func (e *envelope) restart() { e.start = true }

func (e *envelope) output() uint32 {
	switch {
	case !e.length.status():
		return 0
	case e.constant:
		return uint32(e.volume)
	}
	return uint32(e.decay)
}

// tick is clocked by quarter frames.
func (e *envelope) tick() {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider = int8(e.volume)
		return
	}

	if e.divider--; e.divider >= 0 {
		return
	}
	e.divider = int8(e.volume)
	switch {
	case e.decay > 0:
		e.decay--
	case e.length.isHalted():
		e.decay = 15
	}
}

func (e *envelope) reset(soft bool) {
	e.length.reset(soft)
	e.constant, e.volume = false, 0
	e.start, e.divider, e.decay = false, 0, 0
}

func (e *envelope) saveState(state *snapshot.Envelope) {
	e.length.saveState(&state.LengthCounter)
	state.ConstantVolume = e.constant
	state.Volume = e.volume
	state.Start = e.start
	state.Divider = e.divider
	state.Counter = e.decay
}

func (e *envelope) setState(state *snapshot.Envelope) {
	e.length.setState(&state.LengthCounter)
	e.constant = state.ConstantVolume
	e.volume = state.Volume
	e.start = state.Start
	e.divider = state.Divider
	e.decay = state.Counter
}
