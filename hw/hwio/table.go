package hwio

import "fmt"

// Table maps a window of consecutive addresses to registers. Writes to
// unmapped addresses are dropped and reads return 0.
type Table struct {
	Name string
	base uint16
	regs []*Reg8
}

// NewTable returns an empty table covering [base, base+size).
func NewTable(name string, base uint16, size int) *Table {
	return &Table{Name: name, base: base, regs: make([]*Reg8, size)}
}

func (t *Table) slot(addr uint16) **Reg8 {
	if addr < t.base || int(addr-t.base) >= len(t.regs) {
		return nil
	}
	return &t.regs[addr-t.base]
}

// MapBank maps all registers of a bank, that is the Reg8 fields of the struct
// pointed to by bank whose tag has bank=bankNum (0 when absent). Each register
// is mapped at addr plus its offset tag, registers without offset are skipped.
// MapBank panics if a register falls outside the table or on an already
// mapped address.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}
	for _, r := range regs {
		t.MapReg8(addr+r.offset, r.regPtr)
	}
}

func (t *Table) MapReg8(addr uint16, reg *Reg8) {
	p := t.slot(addr)
	switch {
	case p == nil:
		panic(fmt.Errorf("%s: address %04X outside of table", t.Name, addr))
	case *p != nil:
		panic(fmt.Errorf("%s: address %04X already mapped to %v", t.Name, addr, *p))
	}
	*p = reg
}

// Mapped reports whether a register is mapped at addr.
func (t *Table) Mapped(addr uint16) bool {
	p := t.slot(addr)
	return p != nil && *p != nil
}

func (t *Table) lookup(addr uint16) *Reg8 {
	if p := t.slot(addr); p != nil {
		return *p
	}
	return nil
}

func (t *Table) Read8(addr uint16) uint8 {
	if reg := t.lookup(addr); reg != nil {
		return reg.Read8(addr)
	}
	return 0
}

func (t *Table) Peek8(addr uint16) uint8 {
	if reg := t.lookup(addr); reg != nil {
		return reg.Peek8(addr)
	}
	return 0
}

func (t *Table) Write8(addr uint16, val uint8) {
	if reg := t.lookup(addr); reg != nil {
		reg.Write8(addr, val)
	}
}
