package apu

import (
	"nesapu/emu/log"
	"nesapu/hw/hwdefs"
	"nesapu/hw/hwio"
	"nesapu/hw/snapshot"
)

// cycles at which each step of the sequence happens, per region and mode.
var stepCycles = [2][2][6]int32{
	hwdefs.NTSC: {
		{7457, 14913, 22371, 29828, 29829, 29830},
		{7457, 14913, 22371, 29829, 37281, 37282},
	},
	hwdefs.PAL: {
		{8313, 16627, 24939, 33252, 33253, 33254},
		{8313, 16627, 24939, 33253, 41565, 41566},
	},
}

var frameType = [2][6]FrameType{
	{QuarterFrame, HalfFrame, QuarterFrame, NoFrame, HalfFrame, NoFrame},
	{QuarterFrame, HalfFrame, QuarterFrame, NoFrame, HalfFrame, NoFrame},
}

type frameCounter struct {
	apu        *APU
	stepCycles *[2][6]int32

	prevCycle         int32
	curStep           uint32
	stepMode          uint32 //0: 4-step mode, 1: 5-step mode
	inhibitIRQ        bool
	blockTick         uint8
	newval            int16
	writeDelayCounter int8

	FRAMECOUNTER hwio.Reg8 `hwio:"offset=0x17,writeonly,wcb"`
}

func (fc *frameCounter) init(apu *APU, region hwdefs.Region) {
	fc.apu = apu
	fc.stepCycles = &stepCycles[region]
}

func (fc *frameCounter) reset(soft bool) {
	fc.prevCycle = 0

	// After reset: APU mode in $4017 was unchanged, so we need to keep
	// whatever value stepMode has for soft resets
	if !soft {
		fc.stepMode = 0
	}

	fc.curStep = 0

	// After reset or power-up, APU acts as if $4017 were written with $00
	// shortly before the first instruction.
	fc.newval = 0
	if fc.stepMode != 0 {
		fc.newval = 0x80
	}
	fc.writeDelayCounter = 3
	fc.inhibitIRQ = false

	fc.blockTick = 0
}

func (fc *frameCounter) WriteFRAMECOUNTER(old, val uint8) {
	log.ModSound.InfoZ("write framecounter").Uint8("val", val).End()
	fc.apu.Run()
	fc.newval = int16(val)

	// Reset sequence after $4017 is written to
	if fc.apu.totalCycles()&0x01 != 0 {
		// If the write occurs between APU cycles, the effects occur 4 CPU
		// cycles after the write cycle.
		fc.writeDelayCounter = 4
	} else {
		// If the write occurs during an APU cycle, the effects occur 3 CPU
		// cycles after the $4017 write cycle
		fc.writeDelayCounter = 3
	}

	fc.inhibitIRQ = (val & 0x40) == 0x40
	if fc.inhibitIRQ {
		fc.apu.clearIRQSource(hwdefs.FrameCounter)
	}
}

// run advances the sequencer by at most cyclesToRun cycles, stopping at the
// next step. It returns the number of cycles it ran and the frame clock to
// generate at the end of them, if any.
func (fc *frameCounter) run(cyclesToRun *int32) (uint32, FrameType) {
	var cyclesRan int32
	ftyp := NoFrame

	n := *cyclesToRun
	if fc.newval >= 0 || fc.blockTick > 0 {
		// A $4017 write is pending or ticks are blocked, go cycle by cycle.
		n = 1
	}

	target := fc.stepCycles[fc.stepMode][fc.curStep]
	if fc.prevCycle+n >= target {
		if !fc.inhibitIRQ && fc.stepMode == 0 && fc.curStep >= 3 {
			// Set irq on the last 3 cycles for 4-step mode
			fc.apu.setIRQSource(hwdefs.FrameCounter)
		}

		if ft := frameType[fc.stepMode][fc.curStep]; ft != NoFrame && fc.blockTick == 0 {
			ftyp = ft

			// Do not allow writes to 4017 to clock the frame counter for the
			// next cycle (i.e this odd cycle + the following even cycle)
			fc.blockTick = 2
		}

		cyclesRan = max(target-fc.prevCycle, 0)

		fc.curStep++
		if fc.curStep == 6 {
			fc.curStep = 0
			fc.prevCycle = 0
		} else {
			fc.prevCycle += cyclesRan
		}
	} else {
		cyclesRan = n
		fc.prevCycle += cyclesRan
	}
	*cyclesToRun -= cyclesRan

	if cyclesRan == 0 {
		return 0, ftyp
	}

	if fc.newval >= 0 {
		fc.writeDelayCounter--
		if fc.writeDelayCounter == 0 {
			// Apply new value after the appropriate number of cycles has elapsed
			if (fc.newval & 0x80) == 0x80 {
				fc.stepMode = 1
			} else {
				fc.stepMode = 0
			}

			fc.writeDelayCounter = -1
			fc.curStep = 0
			fc.prevCycle = 0
			fc.newval = -1

			if fc.stepMode != 0 && fc.blockTick == 0 {
				// Writing to $4017 with bit 7 set will immediately generate
				// a clock for both the quarter frame and the half frame
				// units, regardless of what the sequencer is doing.
				ftyp = HalfFrame
				fc.blockTick = 2
			}
		}
	}

	if fc.blockTick > 0 {
		fc.blockTick--
	}

	return uint32(cyclesRan), ftyp
}

func (fc *frameCounter) saveState(state *snapshot.APUFrameCounter) {
	state.PrevCycle = fc.prevCycle
	state.CurStep = fc.curStep
	state.StepMode = fc.stepMode
	state.InhibitIRQ = fc.inhibitIRQ
	state.BlockTick = fc.blockTick
	state.NewValue = fc.newval
	state.WriteDelayCounter = fc.writeDelayCounter
}

func (fc *frameCounter) setState(state *snapshot.APUFrameCounter) {
	fc.prevCycle = state.PrevCycle
	fc.curStep = state.CurStep
	fc.stepMode = state.StepMode
	fc.inhibitIRQ = state.InhibitIRQ
	fc.blockTick = state.BlockTick
	fc.newval = state.NewValue
	fc.writeDelayCounter = state.WriteDelayCounter
}
