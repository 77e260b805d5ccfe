package apu

import "testing"

func TestSweepTarget(t *testing.T) {
	tests := []struct {
		name      string
		pulse1    bool
		val       uint8
		period    uint16
		target    uint32
		wantMuted bool
	}{
		{"up", false, 0x81, 0x100, 0x180, false},
		{"down pulse 2", false, 0x89, 0x100, 0x80, false},
		{"down pulse 1", true, 0x89, 0x100, 0x7F, false},
		{"overflow", false, 0x81, 0x600, 0x900, true},
		{"overflow while disabled", false, 0x01, 0x600, 0x900, true},
		{"no overflow when negated", true, 0x09, 0x7FF, 0x3FF, false},
		{"period too short", false, 0x00, 7, 14, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sweep{onesComplement: tt.pulse1}
			s.write(tt.val, tt.period)
			if s.target != tt.target {
				t.Errorf("target = %#x, want %#x", s.target, tt.target)
			}
			if got := s.mutes(tt.period); got != tt.wantMuted {
				t.Errorf("mutes = %t, want %t", got, tt.wantMuted)
			}
		})
	}
}

func TestSweepTick(t *testing.T) {
	var s sweep
	s.write(0x81, 0x100) // enabled, divider period 1, shift 1

	// The first half frame only reloads the divider.
	if _, ok := s.tick(0x100); ok {
		t.Fatalf("period changed on reload")
	}
	period, ok := s.tick(0x100)
	if !ok || period != 0x180 {
		t.Fatalf("tick = %#x, %t, want 0x180, true", period, ok)
	}

	s.write(0x80, 0x100) // shift 0 never changes the period
	for range 4 {
		if _, ok := s.tick(0x100); ok {
			t.Fatalf("period changed with shift 0")
		}
	}
}

func TestLFSRPeriod(t *testing.T) {
	for _, tt := range []struct {
		short bool
		want  int
	}{
		{false, 32767},
		{true, 93},
	} {
		r := lfsr(1)
		n := 0
		for {
			r = r.shift(tt.short)
			n++
			if r == 1 || n > 40000 {
				break
			}
		}
		if n != tt.want {
			t.Errorf("short=%t: period %d, want %d", tt.short, n, tt.want)
		}
	}
}

func TestTriangleLevel(t *testing.T) {
	var seq []int8
	for step := range uint8(32) {
		seq = append(seq, triangleLevel(step))
	}
	if seq[0] != 15 || seq[15] != 0 || seq[16] != 0 || seq[31] != 15 {
		t.Errorf("sequence = %v", seq)
	}
}

func TestLengthCounterReloadDropped(t *testing.T) {
	lc := lengthCounter{channel: Square1}
	lc.setEnabled(true)
	lc.load(1) // 254
	lc.reload()
	if lc.counter != 254 {
		t.Fatalf("counter = %d, want 254", lc.counter)
	}

	// A load racing with a clock is dropped.
	lc.load(0) // 10
	lc.tick()
	lc.reload()
	if lc.counter != 253 {
		t.Errorf("counter = %d, want 253", lc.counter)
	}
}
