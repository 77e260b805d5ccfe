package hwio

import (
	"fmt"
	"strings"

	"nesapu/emu/log"
)

// Access restricts the direction of register accesses.
type Access uint8

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

// Reg8 is an 8-bit memory mapped register. Its behaviour is set up by
// InitRegs from the field tag.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8 // bits kept on writes
	Access Access

	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old, val uint8)
}

func (reg Reg8) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s{%02x", reg.Name, reg.Value)
	for _, cb := range []struct {
		set  bool
		flag string
	}{
		{reg.ReadCb != nil, ",r!"},
		{reg.PeekCb != nil, ",p!"},
		{reg.WriteCb != nil, ",w!"},
	} {
		if cb.set {
			sb.WriteString(cb.flag)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if reg.Access == ReadOnly {
		log.ModHwIo.DebugZ("write to read-only register").
			String("reg", reg.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}

	old := reg.Value
	reg.Value = old&reg.RoMask | val&^reg.RoMask
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg8) Read8(addr uint16) uint8 {
	switch {
	case reg.Access == WriteOnly:
		log.ModHwIo.DebugZ("read from write-only register").
			String("reg", reg.Name).
			Hex16("addr", addr).
			End()
		return 0
	case reg.ReadCb != nil:
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

// Peek8 reads the register without side effects. The peek callback, if any,
// takes precedence over the access restriction.
func (reg *Reg8) Peek8(addr uint16) uint8 {
	switch {
	case reg.PeekCb != nil:
		return reg.PeekCb(reg.Value)
	case reg.Access == WriteOnly:
		return 0
	}
	return reg.Value
}
