// Package apu emulates the 2A03/2A07 audio processing unit: two square
// channels, a triangle channel, a noise channel, the delta modulation channel
// and the frame counter that sequences them.
//
// The APU is lazily clocked: register accesses carry the CPU cycle, relative
// to the start of the current frame, at which they happen, and the channels
// are only brought up to date when needed.
package apu

import (
	"fmt"

	"nesapu/emu/log"
	"nesapu/hw/hwdefs"
	"nesapu/hw/hwio"
	"nesapu/hw/snapshot"
)

type APU struct {
	mixer  *Mixer
	bus    *hwio.Table
	region hwdefs.Region

	pulse1   pulse
	pulse2   pulse
	triangle triangle
	noise    noise
	dmc      dmc

	frameCounter frameCounter

	irq       hwdefs.IRQSource
	cycles    uint64 // total cycles since power-up
	prevCycle uint32 // cycle up to which the channels have been run
	curCycle  uint32 // cycle of the last access

	STATUS hwio.Reg8 `hwio:"offset=0x15,pcb,rcb,wcb"`
	DAC0   hwio.Reg8 `hwio:"offset=0x18,rcb,pcb,readonly"` // current instant DAC value of B=pulse2 and A=pulse1 (either 0 or current volume)
	DAC1   hwio.Reg8 `hwio:"offset=0x19,rcb,pcb,readonly"` // current instant DAC value of N=noise (either 0 or current volume) and T=triangle (anywhere from 0 to 15)
	DAC2   hwio.Reg8 `hwio:"offset=0x1A,rcb,pcb,readonly"` // current instant DAC value of DPCM channel (same as value written to $4011)
}

// New creates an APU in its power-up state. DMC sample bytes are read from
// rd, which may be nil.
func New(region hwdefs.Region, mixer *Mixer, rd MemReader) *APU {
	a := &APU{
		mixer:  mixer,
		region: region,
	}
	a.pulse1 = newPulse(a, mixer, Square1)
	a.pulse2 = newPulse(a, mixer, Square2)
	a.triangle = newTriangle(a, mixer)
	a.noise = newNoise(a, mixer, region)
	a.dmc = newDMC(a, rd, mixer, region)
	a.frameCounter.init(a, region)

	hwio.MustInitRegs(a)
	hwio.MustInitRegs(&a.pulse1)
	hwio.MustInitRegs(&a.pulse2)
	hwio.MustInitRegs(&a.triangle)
	hwio.MustInitRegs(&a.noise)
	hwio.MustInitRegs(&a.dmc)
	hwio.MustInitRegs(&a.frameCounter)

	a.bus = hwio.NewTable("apu", hwdefs.APUBase, 0x20)
	a.bus.MapBank(hwdefs.APUBase, &a.pulse1, 0)
	a.bus.MapBank(hwdefs.Pulse2Duty, &a.pulse2, 0)
	a.bus.MapBank(hwdefs.APUBase, &a.triangle, 0)
	a.bus.MapBank(hwdefs.APUBase, &a.noise, 0)
	a.bus.MapBank(hwdefs.APUBase, &a.dmc, 0)
	a.bus.MapBank(hwdefs.APUBase, &a.frameCounter, 0)
	a.bus.MapBank(hwdefs.APUBase, a, 0)

	a.Reset(hwdefs.HardReset)
	return a
}

func (a *APU) Region() hwdefs.Region { return a.region }

// MaxFrameCycles is the longest frame, in CPU cycles, the APU accepts.
func (a *APU) MaxFrameCycles() uint32 { return a.mixer.MaxFrameCycles() }

// advanceTo moves the current cycle to elapsed.
func (a *APU) advanceTo(elapsed uint32) error {
	if elapsed < a.curCycle {
		return fmt.Errorf("%w: cycle %d, previous %d", ErrTimeOrder, elapsed, a.curCycle)
	}
	if maxc := a.mixer.MaxFrameCycles(); elapsed > maxc {
		return fmt.Errorf("%w: cycle %d, max %d", ErrFrameTooLong, elapsed, maxc)
	}
	a.cycles += uint64(elapsed - a.curCycle)
	a.curCycle = elapsed
	return nil
}

func (a *APU) totalCycles() uint64 { return a.cycles }

// WriteRegister writes val to the register at addr, at the given cycle of the
// current frame. Writes to unmapped addresses are ignored.
func (a *APU) WriteRegister(elapsed uint32, addr uint16, val uint8) error {
	if err := a.advanceTo(elapsed); err != nil {
		return err
	}
	a.bus.Write8(addr, val)
	return nil
}

// ReadRegister reads the register at addr, at the given cycle of the current
// frame. Reading unmapped or write-only registers returns 0.
func (a *APU) ReadRegister(elapsed uint32, addr uint16) (uint8, error) {
	if err := a.advanceTo(elapsed); err != nil {
		return 0, err
	}
	return a.bus.Read8(addr), nil
}

// Peek returns the value of the register at addr, as of the last processed
// access, without side effects.
func (a *APU) Peek(addr uint16) uint8 {
	return a.bus.Peek8(addr)
}

// IRQ returns the interrupt sources asserted at the given cycle of the current
// frame.
func (a *APU) IRQ(elapsed uint32) (hwdefs.IRQSource, error) {
	if err := a.advanceTo(elapsed); err != nil {
		return 0, err
	}
	a.Run()
	return a.irq, nil
}

func (a *APU) setIRQSource(src hwdefs.IRQSource)      { a.irq |= src }
func (a *APU) clearIRQSource(src hwdefs.IRQSource)    { a.irq &^= src }
func (a *APU) hasIRQSource(src hwdefs.IRQSource) bool { return a.irq&src != 0 }

func (a *APU) Status() uint8 {
	var status uint8

	if a.pulse1.status() {
		status |= 0x01
	}
	if a.pulse2.status() {
		status |= 0x02
	}
	if a.triangle.status() {
		status |= 0x04
	}
	if a.noise.status() {
		status |= 0x08
	}
	if a.dmc.status() {
		status |= 0x10
	}

	if a.hasIRQSource(hwdefs.FrameCounter) {
		status |= 0x40
	}
	if a.hasIRQSource(hwdefs.DMC) {
		status |= 0x80
	}

	return status
}

// STATUS: $4015
func (a *APU) PeekSTATUS(val uint8) uint8 {
	return a.Status()
}

func (a *APU) ReadSTATUS(val uint8) uint8 {
	a.Run()
	status := a.Status()

	// Reading $4015 clears the Frame Counter interrupt flag.
	a.clearIRQSource(hwdefs.FrameCounter)

	log.ModSound.InfoZ("read status").Hex8("status", status).End()
	return status
}

func (a *APU) WriteSTATUS(old, val uint8) {
	log.ModSound.InfoZ("write status").Hex8("val", val).End()

	a.Run()

	// Writing to $4015 clears the DMC interrupt flag. This needs to be done
	// before setting the enabled flag for the DMC (because doing so can trigger
	// an IRQ).
	a.clearIRQSource(hwdefs.DMC)

	a.pulse1.setEnabled((val & 0x01) == 0x01)
	a.pulse2.setEnabled((val & 0x02) == 0x02)
	a.triangle.setEnabled((val & 0x04) == 0x04)
	a.noise.setEnabled((val & 0x08) == 0x08)
	a.dmc.setEnabled((val&0x10) == 0x10, a.curCycle)
}

func (a *APU) ReadDAC0(val uint8) uint8 {
	a.Run()
	return a.PeekDAC0(val)
}

func (a *APU) ReadDAC1(val uint8) uint8 {
	a.Run()
	return a.PeekDAC1(val)
}

func (a *APU) ReadDAC2(val uint8) uint8 {
	a.Run()
	return a.PeekDAC2(val)
}

func (a *APU) PeekDAC0(uint8) uint8 { return a.pulse1.output() | a.pulse2.output()<<4 }
func (a *APU) PeekDAC1(uint8) uint8 { return a.triangle.output() | a.noise.output()<<4 }
func (a *APU) PeekDAC2(uint8) uint8 { return a.dmc.output() }

func (a *APU) frameCounterTick(ftyp FrameType) {
	// Quarter & half frame clock envelope & linear counter
	a.pulse1.tickEnvelope()
	a.pulse2.tickEnvelope()
	a.triangle.tickLinearCounter()
	a.noise.tickEnvelope()

	if ftyp == HalfFrame {
		// Half frames clock length counter & sweep
		a.pulse1.tickLengthCounter()
		a.pulse2.tickLengthCounter()
		a.triangle.tickLengthCounter()
		a.noise.tickLengthCounter()

		a.pulse1.tickSweep()
		a.pulse2.tickSweep()
	}

	// Make volume and length changes audible right away.
	a.pulse1.updateOutput()
	a.pulse2.updateOutput()
	a.noise.updateOutput()
}

func (a *APU) Reset(soft bool) {
	a.curCycle = 0
	a.prevCycle = 0
	a.irq = 0
	if !soft {
		a.cycles = 0
	}

	a.pulse1.reset(soft)
	a.pulse2.reset(soft)
	a.triangle.reset(soft)
	a.noise.reset(soft)
	a.dmc.reset(soft)
	a.frameCounter.reset(soft)
	a.mixer.Reset()

	log.ModSound.InfoZ("reset").Bool("soft", soft).Stringer("region", a.region).End()
}

// EndFrame runs the APU up to the given cycle, which becomes the start of the
// next frame, and makes the audio of the frame available in the synthesizer.
func (a *APU) EndFrame(elapsed uint32) error {
	if err := a.advanceTo(elapsed); err != nil {
		return err
	}
	a.Run()

	a.pulse1.endFrame()
	a.pulse2.endFrame()
	a.triangle.endFrame()
	a.noise.endFrame()
	a.dmc.endFrame()

	a.mixer.EndFrame(a.curCycle)

	a.curCycle = 0
	a.prevCycle = 0
	return nil
}

// Run updates the frame counter and all channels up to the current cycle.
// This is called:
//   - At the end of a frame
//   - Before APU registers are read/written to
//   - Before the interrupt line is sampled
func (a *APU) Run() {
	cyclesToRun := int32(a.curCycle - a.prevCycle)

	for cyclesToRun > 0 {
		ran, ftyp := a.frameCounter.run(&cyclesToRun)
		a.prevCycle += ran

		// Reload counters set by writes to 4003/4008/400B/400F before running
		// the channels, the frame clock of the previous step has already
		// been applied.
		a.pulse1.reloadLengthCounter()
		a.pulse2.reloadLengthCounter()
		a.noise.reloadLengthCounter()
		a.triangle.reloadLengthCounter()

		a.pulse1.run(a.prevCycle)
		a.pulse2.run(a.prevCycle)
		a.noise.run(a.prevCycle)
		a.triangle.run(a.prevCycle)
		a.dmc.run(a.prevCycle)

		if ftyp != NoFrame {
			a.frameCounterTick(ftyp)
		}
	}
}

// State returns a snapshot of the APU state, as of the current cycle.
func (a *APU) State() *snapshot.APU {
	a.Run()

	var state snapshot.APU
	state.Region = a.region
	a.pulse1.saveState(&state.Square1)
	a.pulse2.saveState(&state.Square2)
	a.triangle.saveState(&state.Triangle)
	a.noise.saveState(&state.Noise)
	a.dmc.saveState(&state.DMC)
	a.frameCounter.saveState(&state.FrameCounter)
	a.mixer.saveState(&state.Mixer)

	state.FrameIRQ = a.hasIRQSource(hwdefs.FrameCounter)
	state.DMCIRQ = a.hasIRQSource(hwdefs.DMC)
	state.Cycles = a.cycles
	state.PrevCycle = a.prevCycle
	state.CurCycle = a.curCycle
	return &state
}

// SetState restores a state returned by State. The state is validated first
// and the APU is left untouched if it is not valid.
func (a *APU) SetState(state *snapshot.APU) error {
	if err := state.Validate(); err != nil {
		return err
	}
	if state.Region != a.region {
		return fmt.Errorf("%w: snapshot is %s, apu is %s", snapshot.ErrRegion, state.Region, a.region)
	}
	if maxc := a.mixer.MaxFrameCycles(); state.CurCycle > maxc {
		return fmt.Errorf("%w: cycle %d past max frame length %d", snapshot.ErrCorrupt, state.CurCycle, maxc)
	}
	if err := a.mixer.checkRates(&state.Mixer); err != nil {
		return err
	}

	a.pulse1.setState(&state.Square1)
	a.pulse2.setState(&state.Square2)
	a.triangle.setState(&state.Triangle)
	a.noise.setState(&state.Noise)
	a.dmc.setState(&state.DMC)
	a.frameCounter.setState(&state.FrameCounter)
	a.mixer.setState(&state.Mixer, state.CurCycle)

	a.irq = 0
	if state.FrameIRQ {
		a.setIRQSource(hwdefs.FrameCounter)
	}
	if state.DMCIRQ {
		a.setIRQSource(hwdefs.DMC)
	}
	a.cycles = state.Cycles
	a.prevCycle = state.PrevCycle
	a.curCycle = state.CurCycle

	log.ModSnap.InfoZ("apu state restored").
		Uint64("cycles", a.cycles).
		Uint32("cycle", a.curCycle).
		End()
	return nil
}
