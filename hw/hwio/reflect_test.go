package hwio

import (
	"strings"
	"testing"
)

type statusBank struct {
	Status Reg8 `hwio:"offset=0x15,reset=0x1F,rwmask=0x1F,wcb,rcb"`
	Frame  Reg8 `hwio:"offset=0x17,bank=1,wcb=WriteFrameCounter"`
	NoAddr Reg8 `hwio:"reset=0x01"`

	enabled uint8
	mode    uint8
}

func (b *statusBank) WriteSTATUS(_, val uint8)       { b.enabled = val }
func (b *statusBank) ReadSTATUS(val uint8) uint8     { return val | 0x40 }
func (b *statusBank) WriteFrameCounter(_, val uint8) { b.mode = val >> 7 }

func (b *statusBank) WrongSignature(uint8) (int, bool) { return 0, false }

func TestInitRegs(t *testing.T) {
	b := &statusBank{}
	if err := InitRegs(b); err != nil {
		t.Fatal(err)
	}

	if b.Status.Name != "Status" || b.Frame.Name != "Frame" {
		t.Errorf("names: %v %v", b.Status, b.Frame)
	}
	if got := b.Status.String(); got != "Status{1f,r!,w!}" {
		t.Errorf("String() = %q", got)
	}
	if got := b.Status.Read8(0x4015); got != 0x5F {
		t.Errorf("Read8 = %02X, want 5F", got)
	}

	b.Status.Write8(0x4015, 0xE3)
	if b.Status.Value != 0x03 || b.enabled != 0x03 {
		t.Errorf("after write: value %02X, callback got %02X, want 03", b.Status.Value, b.enabled)
	}

	b.Frame.Write8(0x4017, 0x80)
	if b.mode != 1 {
		t.Errorf("named callback not called")
	}
	if b.NoAddr.Value != 1 {
		t.Errorf("reset value of untagged offset = %d", b.NoAddr.Value)
	}
}

func TestBankRegs(t *testing.T) {
	b := &statusBank{}
	for bank, want := range []struct {
		offset uint16
		reg    *Reg8
	}{
		{0x15, &b.Status},
		{0x17, &b.Frame},
	} {
		regs, err := bankGetRegs(b, bank)
		if err != nil {
			t.Fatal(err)
		}
		if len(regs) != 1 || regs[0].offset != want.offset || regs[0].regPtr != want.reg {
			t.Errorf("bank %d: got %+v", bank, regs)
		}
	}
}

func TestInitRegsErrors(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"not a pointer", statusBank{}, "pointer to struct"},
		{"reset overflow", &struct {
			R Reg8 `hwio:"reset=0x123"`
		}{}, "reset"},
		{"mask overflow", &struct {
			R Reg8 `hwio:"rwmask=0x100"`
		}{}, "rwmask"},
		{"both directions", &struct {
			R Reg8 `hwio:"readonly,writeonly"`
		}{}, "both"},
		{"missing callback", &struct {
			R Reg8 `hwio:"rcb"`
		}{}, "cannot find method ReadR"},
		{"bad signature", &struct {
			statusBank
			R Reg8 `hwio:"wcb=WrongSignature"`
		}{}, "invalid write callback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitRegs(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("InitRegs() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestAccess(t *testing.T) {
	type bank struct {
		RO Reg8 `hwio:"reset=0x23,readonly"`
		WO Reg8 `hwio:"writeonly"`
	}
	b := &bank{}
	MustInitRegs(b)

	b.RO.Write8(0, 0)
	if got := b.RO.Read8(0); got != 0x23 {
		t.Errorf("read-only register changed to %02X", got)
	}
	b.WO.Write8(0, 0x23)
	if b.WO.Value != 0x23 || b.WO.Read8(0) != 0 || b.WO.Peek8(0) != 0 {
		t.Errorf("write-only register: value %02X", b.WO.Value)
	}
}
