package apu

import "nesapu/hw/snapshot"

// timer clocks a channel waveform generator. It is reloaded with period each
// time it reaches 0, i.e every period+1 CPU cycles.
type timer struct {
	previousCycle uint32
	timer         uint16
	period        uint16
	lastOutput    int8

	channel Channel
	mixer   mixer
}

func (t *timer) reset(_ bool) {
	t.timer = 0
	t.period = 0
	t.previousCycle = 0
	t.lastOutput = 0
}

// addOutput sends the level change, if any, to the mixer.
func (t *timer) addOutput(output int8) {
	if output != t.lastOutput {
		t.mixer.AddDelta(t.channel, t.previousCycle, int16(output)-int16(t.lastOutput))
		t.lastOutput = output
	}
}

// run advances the timer toward targetCycle and reports whether it reached 0
// before that, in which case previousCycle is the cycle at which the clock
// happened and run must be called again.
func (t *timer) run(targetCycle uint32) bool {
	cyclesToRun := targetCycle - t.previousCycle

	if cyclesToRun > uint32(t.timer) {
		t.previousCycle += uint32(t.timer) + 1
		t.timer = t.period
		return true
	}

	t.timer -= uint16(cyclesToRun)
	t.previousCycle = targetCycle
	return false
}

func (t *timer) endFrame() {
	t.previousCycle = 0
}

func (t *timer) saveState(state *snapshot.Timer) {
	state.PreviousCycle = t.previousCycle
	state.Timer = t.timer
	state.Period = t.period
	state.LastOutput = t.lastOutput
}

func (t *timer) setState(state *snapshot.Timer) {
	t.previousCycle = state.PreviousCycle
	t.timer = state.Timer
	t.period = state.Period
	t.lastOutput = state.LastOutput
}
