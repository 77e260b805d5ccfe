package apu

import (
	"nesapu/emu/log"
	"nesapu/hw/hwdefs"
	"nesapu/hw/hwio"
	"nesapu/hw/snapshot"
)

var dmcRates = [2][16]uint16{
	hwdefs.NTSC: {428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54},
	hwdefs.PAL:  {398, 354, 316, 298, 276, 236, 210, 198, 176, 148, 132, 118, 98, 78, 66, 50},
}

// sampleReader is the DMA side of the DMC: it walks the sample in memory and
// keeps a one byte buffer filled.
type sampleReader struct {
	start  uint16 // $C000 + 64*A
	length uint16 // 16*L + 1
	addr   uint16
	left   uint16

	buf      uint8
	bufEmpty bool
}

func (r *sampleReader) restart() {
	r.addr = r.start
	r.left = r.length
}

// next advances past the byte just read. It returns true when it was the last
// byte of the sample.
func (r *sampleReader) next() bool {
	r.addr++
	if r.addr == 0 {
		r.addr = 0x8000
	}
	r.left--
	return r.left == 0
}

// dmc is the delta modulation channel, mapped at $4010. Each timer clock
// shifts one bit out of the current byte and moves the 7-bit output level up
// or down by 2. The level can also be set directly through $4011.
type dmc struct {
	apu   *APU
	mem   MemReader
	timer timer
	rates *[16]uint16
	smp   sampleReader

	irqEnabled bool
	loop       bool

	level    uint8
	shift    uint8
	bitsLeft uint8
	silence  bool
	direct   uint8 // last $4011 write

	FLAGS      hwio.Reg8 `hwio:"offset=0x10,writeonly,wcb"`
	LOAD       hwio.Reg8 `hwio:"offset=0x11,writeonly,wcb"`
	SAMPLEADDR hwio.Reg8 `hwio:"offset=0x12,writeonly,wcb"`
	SAMPLELEN  hwio.Reg8 `hwio:"offset=0x13,writeonly,wcb"`
}

func newDMC(apu *APU, mem MemReader, mixer mixer, region hwdefs.Region) dmc {
	return dmc{
		apu:     apu,
		mem:     mem,
		rates:   &dmcRates[region],
		timer:   timer{channel: DMC, mixer: mixer},
		silence: true,
	}
}

// WriteFLAGS handles $4010: IL-- RRRR.
func (d *dmc) WriteFLAGS(_, val uint8) {
	d.apu.Run()
	d.irqEnabled = val&0x80 != 0
	d.loop = val&0x40 != 0
	d.timer.period = d.rates[val&0x0F] - 1
	if !d.irqEnabled {
		d.apu.clearIRQSource(hwdefs.DMC)
	}

	log.ModSound.InfoZ("dmc flags").
		Hex8("val", val).
		Bool("irq", d.irqEnabled).
		Bool("loop", d.loop).
		Uint16("period", d.timer.period).
		End()
}

// WriteLOAD handles $4011, the direct load of the output level. Large jumps
// are halved to soften the pop.
func (d *dmc) WriteLOAD(_, val uint8) {
	d.apu.Run()

	d.direct = val & 0x7F
	prev, next := int(d.level), int(d.direct)
	if diff := next - prev; diff > 50 || diff < -50 {
		next -= diff / 2
	}
	d.level = uint8(next)

	// The new level is heard right away, not at the next timer clock.
	d.timer.addOutput(int8(d.level))

	log.ModSound.InfoZ("dmc load").
		Hex8("val", val).
		Uint8("level", d.level).
		End()
}

// WriteSAMPLEADDR handles $4012.
func (d *dmc) WriteSAMPLEADDR(_, val uint8) {
	d.apu.Run()
	d.smp.start = 0xC000 | uint16(val)<<6

	log.ModSound.InfoZ("dmc sample addr").
		Hex8("val", val).
		Hex16("addr", d.smp.start).
		End()
}

// WriteSAMPLELEN handles $4013.
func (d *dmc) WriteSAMPLELEN(_, val uint8) {
	d.apu.Run()
	d.smp.length = uint16(val)<<4 | 1

	log.ModSound.InfoZ("dmc sample len").
		Hex8("val", val).
		Uint16("len", d.smp.length).
		End()
}

// fetch fills the sample buffer if it is empty and the sample isn't over.
// cycle is the frame-relative cycle of the memory read.
func (d *dmc) fetch(cycle uint32) {
	if !d.smp.bufEmpty || d.smp.left == 0 {
		return
	}

	var val uint8
	if d.mem != nil {
		val = d.mem.ReadDMC(cycle, d.smp.addr)
	}
	log.ModSound.DebugZ("dmc fetch").
		Uint32("cycle", cycle).
		Hex16("addr", d.smp.addr).
		Hex8("val", val).
		End()

	d.smp.buf = val
	d.smp.bufEmpty = false

	if !d.smp.next() {
		return
	}
	switch {
	case d.loop:
		// No interrupt for looping samples.
		d.smp.restart()
	case d.irqEnabled:
		d.apu.setIRQSource(hwdefs.DMC)
	}
}

// clockOutput shifts one bit out of the shift register into the output
// level, and starts a new output cycle every 8 bits.
func (d *dmc) clockOutput() {
	if !d.silence {
		switch bit := d.shift & 1; {
		case bit == 1 && d.level <= 125:
			d.level += 2
		case bit == 0 && d.level >= 2:
			d.level -= 2
		}
		d.shift >>= 1
	}

	if d.bitsLeft--; d.bitsLeft > 0 {
		return
	}
	d.bitsLeft = 8
	if d.smp.bufEmpty {
		d.silence = true
		return
	}
	// Without a memory reader the sample bytes carry no data, and the output
	// level stays where it is.
	d.silence = d.mem == nil
	d.shift = d.smp.buf
	d.smp.bufEmpty = true
}

func (d *dmc) run(target uint32) {
	for d.timer.run(target) {
		d.clockOutput()
		d.fetch(d.timer.previousCycle)
		d.timer.addOutput(int8(d.level))
	}
}

// setEnabled starts or stops the sample playback. cycle is the frame-relative
// cycle of the $4015 write.
func (d *dmc) setEnabled(enabled bool, cycle uint32) {
	switch {
	case !enabled:
		d.smp.left = 0
	case d.smp.left == 0:
		d.smp.restart()
		d.fetch(cycle)
	}
}

func (d *dmc) status() bool  { return d.smp.left > 0 }
func (d *dmc) endFrame()     { d.timer.endFrame() }
func (d *dmc) output() uint8 { return uint8(d.timer.lastOutput) }

func (d *dmc) reset(soft bool) {
	d.timer.reset(soft)

	smp := sampleReader{bufEmpty: true}
	if soft {
		smp.start, smp.length = d.smp.start, d.smp.length
	} else {
		smp.start, smp.length = 0xC000, 1
	}
	d.smp = smp

	d.irqEnabled, d.loop = false, false
	d.level, d.shift, d.direct = 0, 0, 0
	d.bitsLeft = 8
	d.silence = true

	d.timer.period = d.rates[0] - 1
	d.timer.timer = d.timer.period
}

func (d *dmc) saveState(state *snapshot.APUDMC) {
	d.timer.saveState(&state.Timer)
	*state = snapshot.APUDMC{
		Timer:       state.Timer,
		SampleAddr:  d.smp.start,
		SampleLen:   d.smp.length,
		CurrentAddr: d.smp.addr,
		Remaining:   d.smp.left,
		ReadBuf:     d.smp.buf,
		BufEmpty:    d.smp.bufEmpty,
		OutputLevel: d.level,
		IRQEnabled:  d.irqEnabled,
		Loop:        d.loop,
		ShiftReg:    d.shift,
		BitsLeft:    d.bitsLeft,
		Silence:     d.silence,
		Last4011:    d.direct,
	}
}

func (d *dmc) setState(state *snapshot.APUDMC) {
	d.timer.setState(&state.Timer)
	d.smp = sampleReader{
		start:    state.SampleAddr,
		length:   state.SampleLen,
		addr:     state.CurrentAddr,
		left:     state.Remaining,
		buf:      state.ReadBuf,
		bufEmpty: state.BufEmpty,
	}
	d.level = state.OutputLevel
	d.irqEnabled = state.IRQEnabled
	d.loop = state.Loop
	d.shift = state.ShiftReg
	d.bitsLeft = state.BitsLeft
	d.silence = state.Silence
	d.direct = state.Last4011
}
