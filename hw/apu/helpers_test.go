package apu

import (
	"testing"

	"nesapu/hw/hwdefs"
	"nesapu/hw/synth"
)

func newTestAPU(tb testing.TB, region hwdefs.Region, rd MemReader) *APU {
	tb.Helper()

	s, err := synth.New(region.ClockRate(), 96000)
	if err != nil {
		tb.Fatal(err)
	}
	return New(region, NewMixer(s), rd)
}

type regWrite struct {
	cycle uint32
	addr  uint16
	val   uint8
}

func writeRegs(tb testing.TB, a *APU, writes ...regWrite) {
	tb.Helper()

	for _, w := range writes {
		if err := a.WriteRegister(w.cycle, w.addr, w.val); err != nil {
			tb.Fatalf("WriteRegister(%d, %04X, %02X): %v", w.cycle, w.addr, w.val, err)
		}
	}
}

func readStatus(tb testing.TB, a *APU, cycle uint32) uint8 {
	tb.Helper()

	val, err := a.ReadRegister(cycle, hwdefs.APUStatus)
	if err != nil {
		tb.Fatalf("ReadRegister(%d, $4015): %v", cycle, err)
	}
	return val
}

func irqAt(tb testing.TB, a *APU, cycle uint32) hwdefs.IRQSource {
	tb.Helper()

	irq, err := a.IRQ(cycle)
	if err != nil {
		tb.Fatalf("IRQ(%d): %v", cycle, err)
	}
	return irq
}

// pulse A, constant volume 15, length counter 2.
var pulseA = []regWrite{
	{0, hwdefs.APUStatus, 0x01},
	{0, hwdefs.Pulse1Duty, 0x1F},
	{0, hwdefs.Pulse1Timer, 0x40},
	{0, hwdefs.Pulse1Length, 0x18},
}

type memLog struct {
	val    uint8
	addrs  []uint16
	cycles []uint32
}

func (m *memLog) ReadDMC(elapsed uint32, addr uint16) uint8 {
	m.addrs = append(m.addrs, addr)
	m.cycles = append(m.cycles, elapsed)
	return m.val
}
