package apu

import (
	"nesapu/emu/log"
	"nesapu/hw/hwio"
	"nesapu/hw/snapshot"
)

// pulse is one of the two square wave channels, mapped at $4000 and $4004.
//
//	sweep --> timer/2 --> sequencer --+
//	                                  |
//	envelope ---------------> gate <--+-- length counter --> DAC
//
// The timer runs at half the CPU clock, so its period is twice the 11-bit
// period written by the program, plus one.
type pulse struct {
	apu   *APU
	env   envelope
	timer timer
	sweep sweep

	duty   uint8  // index in pulseWaves
	seqPos uint8  // sequencer step, counting down
	period uint16 // 11-bit period, as written

	Duty   hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
	Sweep  hwio.Reg8 `hwio:"offset=0x01,writeonly,wcb"`
	Timer  hwio.Reg8 `hwio:"offset=0x02,writeonly,wcb"`
	Length hwio.Reg8 `hwio:"offset=0x03,writeonly,wcb"`
}

var pulseWaves = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{0, 0, 0, 0, 0, 0, 1, 1}, // 25%
	{0, 0, 0, 0, 1, 1, 1, 1}, // 50%
	{1, 1, 1, 1, 1, 1, 0, 0}, // 25% negated
}

func newPulse(apu *APU, mixer mixer, ch Channel) pulse {
	return pulse{
		apu:   apu,
		env:   envelope{length: lengthCounter{channel: ch}},
		timer: timer{channel: ch, mixer: mixer},
		sweep: sweep{onesComplement: ch == Square1},
	}
}

func (p *pulse) ch() Channel { return p.timer.channel }

func (p *pulse) setPeriod(period uint16) {
	p.period = period
	p.timer.period = period*2 + 1
	p.sweep.retarget(period)
}

// WriteDUTY handles $4000/$4004: DDLC VVVV.
func (p *pulse) WriteDUTY(_, val uint8) {
	p.apu.Run()
	p.duty = val >> 6
	p.env.init(val)
	p.updateOutput()

	log.ModSound.InfoZ("pulse duty").
		Stringer("ch", p.ch()).
		Hex8("val", val).
		Uint8("duty", p.duty).
		End()
}

// WriteSWEEP handles $4001/$4005: EPPP NSSS.
func (p *pulse) WriteSWEEP(_, val uint8) {
	p.apu.Run()
	p.sweep.write(val, p.period)
	p.updateOutput()

	log.ModSound.InfoZ("pulse sweep").
		Stringer("ch", p.ch()).
		Hex8("val", val).
		Bool("enabled", p.sweep.enabled).
		Uint32("target", p.sweep.target).
		End()
}

// WriteTIMER handles $4002/$4006, the low 8 bits of the period.
func (p *pulse) WriteTIMER(_, val uint8) {
	p.apu.Run()
	p.setPeriod(p.period&0x700 | uint16(val))
	p.updateOutput()

	log.ModSound.InfoZ("pulse period lo").
		Stringer("ch", p.ch()).
		Hex8("val", val).
		Uint16("period", p.period).
		End()
}

// WriteLENGTH handles $4003/$4007: LLLL LHHH. It also restarts the envelope
// and the sequencer.
func (p *pulse) WriteLENGTH(_, val uint8) {
	p.apu.Run()
	p.env.length.load(val >> 3)
	p.setPeriod(p.period&0xFF | uint16(val&0x07)<<8)
	p.seqPos = 0
	p.env.restart()
	p.updateOutput()

	log.ModSound.InfoZ("pulse period hi").
		Stringer("ch", p.ch()).
		Hex8("val", val).
		Uint8("length", val>>3).
		Uint16("period", p.period).
		End()
}

func (p *pulse) updateOutput() {
	var level int8
	if !p.sweep.mutes(p.period) {
		level = int8(pulseWaves[p.duty][p.seqPos] * uint8(p.env.output()))
	}
	p.timer.addOutput(level)
}

func (p *pulse) run(target uint32) {
	for p.timer.run(target) {
		p.seqPos = (p.seqPos - 1) & 7
		p.updateOutput()
	}
}

func (p *pulse) tickSweep() {
	if period, ok := p.sweep.tick(p.period); ok {
		p.setPeriod(period)
	}
}

func (p *pulse) tickEnvelope()        { p.env.tick() }
func (p *pulse) tickLengthCounter()   { p.env.length.tick() }
func (p *pulse) reloadLengthCounter() { p.env.length.reload() }
func (p *pulse) endFrame()            { p.timer.endFrame() }
func (p *pulse) status() bool         { return p.env.length.status() }
func (p *pulse) output() uint8        { return uint8(p.timer.lastOutput) }

func (p *pulse) setEnabled(enabled bool) {
	p.env.length.setEnabled(enabled)
	p.updateOutput()
}

func (p *pulse) reset(soft bool) {
	p.env.reset(soft)
	p.timer.reset(soft)
	p.sweep.reset()
	p.duty, p.seqPos, p.period = 0, 0, 0
}

func (p *pulse) saveState(state *snapshot.APUSquare) {
	p.timer.saveState(&state.Timer)
	p.env.saveState(&state.Envelope)
	p.sweep.saveState(state)
	state.RealPeriod = p.period
	state.Duty = p.duty
	state.DutyPos = p.seqPos
}

func (p *pulse) setState(state *snapshot.APUSquare) {
	p.timer.setState(&state.Timer)
	p.env.setState(&state.Envelope)
	p.sweep.setState(state)
	p.period = state.RealPeriod
	p.duty = state.Duty
	p.seqPos = state.DutyPos
}
