package script

// Memory is the $8000-$FFFF address range the DMC reads its samples from.
// Unmapped bytes read as 0.
type Memory struct {
	rom [0x8000]uint8
}

// Memory returns the script samples mapped in memory.
func (s *Script) Memory() *Memory {
	m := &Memory{}
	for _, smp := range s.Samples {
		copy(m.rom[smp.Addr-0x8000:], smp.Data)
	}
	return m
}

func (m *Memory) ReadDMC(_ uint32, addr uint16) uint8 {
	if addr < 0x8000 {
		return 0
	}
	return m.rom[addr-0x8000]
}
