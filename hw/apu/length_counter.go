package apu

import "nesapu/hw/snapshot"

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// lengthCounter silences its channel once clocked down to 0 by half frames.
// Loads and halt flag changes are latched, and only applied by reload at the
// next APU step, after the frame counter had a chance to clock the counter.
type lengthCounter struct {
	channel Channel

	enabled bool
	halt    bool
	counter uint8

	nextHalt bool
	pending  uint8 // value to load, 0 if none
	before   uint8 // counter when the load was requested
}

// init latches the halt flag.
func (lc *lengthCounter) init(halt bool) { lc.nextHalt = halt }

// load latches a counter load from a 5-bit table index. It's ignored while the
// channel is disabled.
func (lc *lengthCounter) load(index uint8) {
	if !lc.enabled {
		return
	}
	lc.pending = lengthTable[index&0x1F]
	lc.before = lc.counter
}

// reload applies latched changes. A load is dropped if the counter was
// clocked since it was requested.
func (lc *lengthCounter) reload() {
	if lc.pending != 0 && lc.counter == lc.before {
		lc.counter = lc.pending
	}
	lc.pending = 0
	lc.halt = lc.nextHalt
}

func (lc *lengthCounter) tick() {
	if !lc.halt && lc.counter > 0 {
		lc.counter--
	}
}

func (lc *lengthCounter) setEnabled(enabled bool) {
	lc.enabled = enabled
	if !enabled {
		lc.counter = 0
	}
}

func (lc *lengthCounter) status() bool   { return lc.counter > 0 }
func (lc *lengthCounter) isHalted() bool { return lc.halt }

func (lc *lengthCounter) reset(soft bool) {
	lc.enabled = false
	// The triangle keeps counting through a soft reset.
	if soft && lc.channel == Triangle {
		return
	}
	*lc = lengthCounter{channel: lc.channel}
}

func (lc *lengthCounter) saveState(state *snapshot.LengthCounter) {
	*state = snapshot.LengthCounter{
		Enabled:       lc.enabled,
		Halt:          lc.halt,
		NewHalt:       lc.nextHalt,
		Counter:       lc.counter,
		ReloadValue:   lc.pending,
		PreviousValue: lc.before,
	}
}

func (lc *lengthCounter) setState(state *snapshot.LengthCounter) {
	*lc = lengthCounter{
		channel:  lc.channel,
		enabled:  state.Enabled,
		halt:     state.Halt,
		nextHalt: state.NewHalt,
		counter:  state.Counter,
		pending:  state.ReloadValue,
		before:   state.PreviousValue,
	}
}
