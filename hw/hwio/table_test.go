package hwio_test

import (
	"testing"

	"nesapu/hw/hwio"
)

// envelopeBank mimics a channel bank, mapped at $4000.
type envelopeBank struct {
	Ctrl   hwio.Reg8 `hwio:"bank=1,offset=0x0,reset=0x30"`
	Sweep  hwio.Reg8 `hwio:"bank=1,offset=0x1,rwmask=0x0F,rcb,reset=0x80"`
	Status hwio.Reg8 `hwio:"bank=1,offset=0x2,readonly,pcb=PeekState"`
	Length hwio.Reg8 `hwio:"bank=1,offset=0x3,writeonly,wcb"`

	length []uint8
}

func (b *envelopeBank) ReadSWEEP(val uint8) uint8 { return val ^ 0xFF }
func (b *envelopeBank) PeekState(uint8) uint8     { return 0x5A }
func (b *envelopeBank) WriteLENGTH(_, val uint8)  { b.length = append(b.length, val) }

func newBus(tb testing.TB) (*hwio.Table, *envelopeBank) {
	tb.Helper()

	bank := &envelopeBank{}
	if err := hwio.InitRegs(bank); err != nil {
		tb.Fatal(err)
	}
	bus := hwio.NewTable("test", 0x4000, 0x20)
	bus.MapBank(0x4000, bank, 1)
	return bus, bank
}

func TestTableAccess(t *testing.T) {
	bus, bank := newBus(t)

	steps := []struct {
		name  string
		write bool
		addr  uint16
		val   uint8 // written or expected
		peek  bool
	}{
		{name: "reset value", addr: 0x4000, val: 0x30},
		{name: "overwrite", write: true, addr: 0x4000, val: 0xBF},
		{name: "read back", addr: 0x4000, val: 0xBF},
		{name: "read callback", addr: 0x4001, val: 0x7F},
		{name: "masked write", write: true, addr: 0x4001, val: 0xFF},
		{name: "high bits kept", addr: 0x4001, val: 0x70},
		{name: "read-only write", write: true, addr: 0x4002, val: 0x12},
		{name: "read-only", addr: 0x4002, val: 0x00},
		{name: "peek callback", addr: 0x4002, val: 0x5A, peek: true},
		{name: "write-only write", write: true, addr: 0x4003, val: 0x08},
		{name: "write-only read", addr: 0x4003, val: 0x00},
		{name: "write-only peek", addr: 0x4003, val: 0x00, peek: true},
		{name: "unmapped write", write: true, addr: 0x4010, val: 0xFF},
		{name: "unmapped", addr: 0x4010, val: 0x00},
		{name: "outside window", addr: 0x4020, val: 0x00},
		{name: "outside window peek", addr: 0x3FFF, val: 0x00, peek: true},
	}
	for _, s := range steps {
		switch {
		case s.write:
			bus.Write8(s.addr, s.val)
		case s.peek:
			if got := bus.Peek8(s.addr); got != s.val {
				t.Errorf("%s: Peek8(%04X) = %02X, want %02X", s.name, s.addr, got, s.val)
			}
		default:
			if got := bus.Read8(s.addr); got != s.val {
				t.Errorf("%s: Read8(%04X) = %02X, want %02X", s.name, s.addr, got, s.val)
			}
		}
	}

	if len(bank.length) != 1 || bank.length[0] != 0x08 {
		t.Errorf("length writes = %v, want [8]", bank.length)
	}
	if !bus.Mapped(0x4003) || bus.Mapped(0x4004) || bus.Mapped(0x5000) {
		t.Errorf("Mapped reports wrong addresses")
	}
}

func TestTableMapPanics(t *testing.T) {
	tests := []struct {
		name string
		addr uint16
	}{
		{"twice", 0x4000},
		{"outside", 0x4020},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, bank := newBus(t)
			defer func() {
				if recover() == nil {
					t.Errorf("MapReg8(%04X) should panic", tt.addr)
				}
			}()
			bus.MapReg8(tt.addr, &bank.Sweep)
		})
	}
}
