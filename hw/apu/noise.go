package apu

import (
	"nesapu/emu/log"
	"nesapu/hw/hwdefs"
	"nesapu/hw/hwio"
	"nesapu/hw/snapshot"
)

var noiseRates = [2][16]uint16{
	hwdefs.NTSC: {4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068},
	hwdefs.PAL:  {4, 8, 14, 30, 60, 88, 118, 148, 188, 236, 354, 472, 708, 944, 1890, 3778},
}

// lfsr is the 15-bit linear feedback shift register of the noise channel.
type lfsr uint16

// shift clocks the register. In short mode, the feedback taps bit 6 instead
// of bit 1, giving a 93-step sequence.
func (r lfsr) shift(short bool) lfsr {
	tap := 1
	if short {
		tap = 6
	}
	fb := (r ^ r>>tap) & 1
	return r>>1 | fb<<14
}

// noise is the noise channel, mapped at $400C. The envelope volume is output
// while bit 0 of the shift register is clear.
type noise struct {
	apu   *APU
	env   envelope
	timer timer
	rates *[16]uint16

	reg   lfsr
	short bool

	Volume hwio.Reg8 `hwio:"offset=0x0C,writeonly,wcb"`
	Unused hwio.Reg8 `hwio:"offset=0x0D,writeonly,wcb"`
	Period hwio.Reg8 `hwio:"offset=0x0E,writeonly,wcb"`
	Length hwio.Reg8 `hwio:"offset=0x0F,writeonly,wcb"`
}

func newNoise(apu *APU, mixer mixer, region hwdefs.Region) noise {
	return noise{
		apu:   apu,
		env:   envelope{length: lengthCounter{channel: Noise}},
		timer: timer{channel: Noise, mixer: mixer},
		rates: &noiseRates[region],
	}
}

// WriteVOLUME handles $400C: --LC VVVV.
func (n *noise) WriteVOLUME(_, val uint8) {
	n.apu.Run()
	n.env.init(val)
	n.updateOutput()

	log.ModSound.InfoZ("noise volume").Hex8("val", val).End()
}

func (n *noise) WriteUNUSED(_, _ uint8) { n.apu.Run() }

// WritePERIOD handles $400E: M--- PPPP.
func (n *noise) WritePERIOD(_, val uint8) {
	n.apu.Run()
	n.timer.period = n.rates[val&0x0F] - 1
	n.short = val&0x80 != 0

	log.ModSound.InfoZ("noise period").
		Hex8("val", val).
		Uint16("period", n.timer.period).
		Bool("short", n.short).
		End()
}

// WriteLENGTH handles $400F: LLLL L---. It also restarts the envelope.
func (n *noise) WriteLENGTH(_, val uint8) {
	n.apu.Run()
	n.env.length.load(val >> 3)
	n.env.restart()
	n.updateOutput()

	log.ModSound.InfoZ("noise length").Hex8("val", val).Uint8("length", val>>3).End()
}

func (n *noise) run(target uint32) {
	for n.timer.run(target) {
		n.reg = n.reg.shift(n.short)
		n.updateOutput()
	}
}

func (n *noise) updateOutput() {
	var level int8
	if n.reg&1 == 0 {
		level = int8(n.env.output())
	}
	n.timer.addOutput(level)
}

func (n *noise) tickEnvelope()        { n.env.tick() }
func (n *noise) tickLengthCounter()   { n.env.length.tick() }
func (n *noise) reloadLengthCounter() { n.env.length.reload() }
func (n *noise) endFrame()            { n.timer.endFrame() }
func (n *noise) status() bool         { return n.env.length.status() }
func (n *noise) output() uint8        { return uint8(n.timer.lastOutput) }

func (n *noise) setEnabled(enabled bool) {
	n.env.length.setEnabled(enabled)
	n.updateOutput()
}

func (n *noise) reset(soft bool) {
	n.env.reset(soft)
	n.timer.reset(soft)
	n.timer.period = n.rates[0] - 1
	n.reg = 1
	n.short = false
}

func (n *noise) saveState(state *snapshot.APUNoise) {
	n.timer.saveState(&state.Timer)
	n.env.saveState(&state.Envelope)
	state.ShiftReg = uint16(n.reg)
	state.Mode = n.short
}

func (n *noise) setState(state *snapshot.APUNoise) {
	n.timer.setState(&state.Timer)
	n.env.setState(&state.Envelope)
	n.reg = lfsr(state.ShiftReg)
	n.short = state.Mode
}
