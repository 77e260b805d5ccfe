package apu

import (
	"nesapu/emu/log"
	"nesapu/hw/hwio"
	"nesapu/hw/snapshot"
)

// linearCounter is the triangle's second gate, clocked by quarter frames.
type linearCounter struct {
	counter uint8
	value   uint8 // reload value
	reload  bool
	control bool // also halts the length counter
}

func (lc *linearCounter) tick() {
	switch {
	case lc.reload:
		lc.counter = lc.value
	case lc.counter > 0:
		lc.counter--
	}
	if !lc.control {
		lc.reload = false
	}
}

// triangle is the triangle wave channel, mapped at $4008. Its 32-step
// sequencer only moves while both the linear counter and the length counter
// are non zero, otherwise the DAC holds the last level.
type triangle struct {
	apu    *APU
	timer  timer
	length lengthCounter
	linear linearCounter
	step   uint8

	Linear hwio.Reg8 `hwio:"offset=0x08,writeonly,wcb"`
	Unused hwio.Reg8 `hwio:"offset=0x09,writeonly,wcb"`
	Timer  hwio.Reg8 `hwio:"offset=0x0A,writeonly,wcb"`
	Length hwio.Reg8 `hwio:"offset=0x0B,writeonly,wcb"`
}

func newTriangle(apu *APU, mixer mixer) triangle {
	return triangle{
		apu:    apu,
		timer:  timer{channel: Triangle, mixer: mixer},
		length: lengthCounter{channel: Triangle},
	}
}

// triangleLevel returns the level at a step of the 15..0 0..15 sequence.
func triangleLevel(step uint8) int8 {
	if step < 16 {
		return int8(15 - step)
	}
	return int8(step - 16)
}

// WriteLINEAR handles $4008: CRRR RRRR.
func (t *triangle) WriteLINEAR(_, val uint8) {
	t.apu.Run()
	t.linear.control = val&0x80 != 0
	t.linear.value = val & 0x7F
	t.length.init(t.linear.control)

	log.ModSound.InfoZ("triangle linear").
		Hex8("val", val).
		Bool("control", t.linear.control).
		Uint8("reload", t.linear.value).
		End()
}

func (t *triangle) WriteUNUSED(_, _ uint8) { t.apu.Run() }

// WriteTIMER handles $400A, the low 8 bits of the period.
func (t *triangle) WriteTIMER(_, val uint8) {
	t.apu.Run()
	t.timer.period = t.timer.period&0x700 | uint16(val)

	log.ModSound.InfoZ("triangle period lo").
		Hex8("val", val).
		Uint16("period", t.timer.period).
		End()
}

// WriteLENGTH handles $400B: LLLL LHHH. It also requests a reload of the
// linear counter.
func (t *triangle) WriteLENGTH(_, val uint8) {
	t.apu.Run()
	t.length.load(val >> 3)
	t.timer.period = t.timer.period&0xFF | uint16(val&0x07)<<8
	t.linear.reload = true

	log.ModSound.InfoZ("triangle period hi").
		Hex8("val", val).
		Uint8("length", val>>3).
		Uint16("period", t.timer.period).
		End()
}

func (t *triangle) run(target uint32) {
	for t.timer.run(target) {
		if !t.length.status() || t.linear.counter == 0 {
			continue
		}
		t.step = (t.step + 1) & 31
		// Periods of 0 and 1 are ultrasonic, the level is left as is rather
		// than producing pops.
		if t.timer.period >= 2 {
			t.timer.addOutput(triangleLevel(t.step))
		}
	}
}

func (t *triangle) tickLinearCounter()   { t.linear.tick() }
func (t *triangle) tickLengthCounter()   { t.length.tick() }
func (t *triangle) reloadLengthCounter() { t.length.reload() }
func (t *triangle) endFrame()            { t.timer.endFrame() }
func (t *triangle) setEnabled(on bool)   { t.length.setEnabled(on) }
func (t *triangle) status() bool         { return t.length.status() }
func (t *triangle) output() uint8        { return uint8(t.timer.lastOutput) }

func (t *triangle) reset(soft bool) {
	t.timer.reset(soft)
	t.length.reset(soft)
	t.linear = linearCounter{}
	t.step = 0
}

func (t *triangle) saveState(state *snapshot.APUTriangle) {
	t.timer.saveState(&state.Timer)
	t.length.saveState(&state.LengthCounter)
	state.LinearCounter = t.linear.counter
	state.LinearCounterReload = t.linear.value
	state.LinearReload = t.linear.reload
	state.LinearCtrl = t.linear.control
	state.Pos = t.step
}

func (t *triangle) setState(state *snapshot.APUTriangle) {
	t.timer.setState(&state.Timer)
	t.length.setState(&state.LengthCounter)
	t.linear = linearCounter{
		counter: state.LinearCounter,
		value:   state.LinearCounterReload,
		reload:  state.LinearReload,
		control: state.LinearCtrl,
	}
	t.step = state.Pos
}
