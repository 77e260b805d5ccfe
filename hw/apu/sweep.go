package apu

import "nesapu/hw/snapshot"

// sweep periodically adjusts the period of a pulse channel. It computes its
// target period continuously, even when disabled, since the target alone can
// mute the channel.
type sweep struct {
	onesComplement bool // pulse 1 negates with one's complement

	enabled bool
	negate  bool
	shift   uint8
	period  uint8 // divider period, P+1
	divider uint8
	reload  bool
	target  uint32
}

// write handles a write to $4001/$4005, cur is the current channel period.
func (s *sweep) write(val uint8, cur uint16) {
	s.enabled = val&0x80 != 0
	s.period = (val>>4)&0x07 + 1
	s.negate = val&0x08 != 0
	s.shift = val & 0x07
	s.reload = true
	s.retarget(cur)
}

func (s *sweep) retarget(cur uint16) {
	delta := uint32(cur >> s.shift)
	switch {
	case !s.negate:
		s.target = uint32(cur) + delta
	case s.onesComplement:
		s.target = uint32(cur) - delta - 1
	default:
		s.target = uint32(cur) - delta
	}
}

// mutes reports whether the channel must be silent, either because its period
// is too short or because the sweep would overflow it.
func (s *sweep) mutes(cur uint16) bool {
	return cur < 8 || (!s.negate && s.target > 0x7FF)
}

// tick is clocked by half frames. It returns the new channel period and true
// when the period must be changed.
func (s *sweep) tick(cur uint16) (uint16, bool) {
	var (
		next    uint16
		changed bool
	)

	s.divider--
	if s.divider == 0 {
		if s.enabled && s.shift > 0 && !s.mutes(cur) {
			next, changed = uint16(s.target), true
		}
		s.divider = s.period
	}
	if s.reload {
		s.divider = s.period
		s.reload = false
	}
	return next, changed
}

func (s *sweep) reset() {
	*s = sweep{onesComplement: s.onesComplement}
}

func (s *sweep) saveState(state *snapshot.APUSquare) {
	state.SweepEnabled = s.enabled
	state.SweepNegate = s.negate
	state.SweepShift = s.shift
	state.SweepPeriod = s.period
	state.SweepDivider = s.divider
	state.ReloadSweep = s.reload
	state.SweepTargetPeriod = s.target
}

func (s *sweep) setState(state *snapshot.APUSquare) {
	s.enabled = state.SweepEnabled
	s.negate = state.SweepNegate
	s.shift = state.SweepShift
	s.period = state.SweepPeriod
	s.divider = state.SweepDivider
	s.reload = state.ReloadSweep
	s.target = state.SweepTargetPeriod
}
