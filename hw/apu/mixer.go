package apu

import (
	"cmp"
	"fmt"
	"slices"

	"nesapu/hw/hwdefs"
	"nesapu/hw/snapshot"
	"nesapu/hw/synth"
)

// outputScale converts the mixer output (0.0 to ~1.0) to 16-bit PCM.
const outputScale = 5000.0 * 4

// Mix returns the output level of the analog mixer, roughly 0 to 1, for the
// given channel DAC values (0-15 for square, triangle and noise, 0-127 for
// the DMC).
func Mix(sq1, sq2, tri, noise, dmc float64) float64 {
	var out float64
	if sq := sq1 + sq2; sq != 0 {
		out += 95.88 / (8128.0/sq + 100.0)
	}
	if tnd := tri/8227.0 + noise/12241.0 + dmc/22638.0; tnd != 0 {
		out += 159.79 / (1.0/tnd + 100.0)
	}
	return out
}

type mixEvent struct {
	time  uint32
	ch    Channel
	delta int16
}

// Mixer collects the level changes of all channels during a frame, mixes
// them, and feeds the amplitude steps to the synthesizer.
type Mixer struct {
	synth *synth.Synth

	events []mixEvent

	curOutput [hwdefs.NumAudioChannels]int16
	prevOut   int16

	volumes [hwdefs.NumAudioChannels]float64
	master  float64
}

func NewMixer(s *synth.Synth) *Mixer {
	m := &Mixer{
		synth:  s,
		events: make([]mixEvent, 0, 1024),
		master: 1.0,
	}
	for i := range m.volumes {
		m.volumes[i] = 1.0
	}
	return m
}

func (m *Mixer) Reset() {
	m.events = m.events[:0]
	m.prevOut = 0
	clear(m.curOutput[:])
	m.synth.Clear()
}

// SetVolume sets the volume of a channel, 1.0 being the nominal level.
func (m *Mixer) SetVolume(ch Channel, vol float64) {
	m.volumes[ch] = vol
}

// SetMasterVolume sets the global volume, 1.0 being the nominal level.
func (m *Mixer) SetMasterVolume(vol float64) {
	m.master = vol
}

// MaxFrameCycles is the longest frame the mixer accepts.
func (m *Mixer) MaxFrameCycles() uint32 {
	return m.synth.MaxFrameCycles()
}

func (m *Mixer) AddDelta(ch Channel, time uint32, delta int16) {
	if delta != 0 {
		m.events = append(m.events, mixEvent{time: time, ch: ch, delta: delta})
	}
}

func (m *Mixer) channelOutput(ch Channel) float64 {
	return float64(m.curOutput[ch]) * m.volumes[ch]
}

func (m *Mixer) outputVolume() int16 {
	out := Mix(
		m.channelOutput(Square1),
		m.channelOutput(Square2),
		m.channelOutput(Triangle),
		m.channelOutput(Noise),
		m.channelOutput(DMC),
	)
	return int16(min(out*outputScale*m.master, 32767))
}

// flush feeds the pending level changes to the synthesizer. All deltas added
// afterwards must not be earlier than the last flushed one.
func (m *Mixer) flush() {
	if len(m.events) == 0 {
		return
	}

	slices.SortStableFunc(m.events, func(a, b mixEvent) int {
		return cmp.Compare(a.time, b.time)
	})

	for i := 0; i < len(m.events); {
		stamp := m.events[i].time
		for ; i < len(m.events) && m.events[i].time == stamp; i++ {
			m.curOutput[m.events[i].ch] += m.events[i].delta
		}

		out := m.outputVolume()
		m.synth.AddDelta(stamp, int32(out)-int32(m.prevOut))
		m.prevOut = out
	}
	m.events = m.events[:0]
}

// EndFrame mixes the frame and makes its samples available in the
// synthesizer.
func (m *Mixer) EndFrame(time uint32) {
	m.flush()
	m.synth.EndFrame(time)
}

func (m *Mixer) saveState(state *snapshot.APUMixer) {
	m.flush()
	state.ClockRate = m.synth.ClockRate()
	state.SampleRate = m.synth.SampleRate()
	state.PreviousOutput = m.prevOut
	state.CurrentOutput = m.curOutput
}

// checkRates reports whether a mixer state was saved by a mixer running at
// the same clock and sample rates.
func (m *Mixer) checkRates(state *snapshot.APUMixer) error {
	clock, rate := m.synth.ClockRate(), m.synth.SampleRate()
	if state.ClockRate != clock || state.SampleRate != rate {
		return fmt.Errorf("%w: snapshot mixed %d Hz to %d Hz, core mixes %d Hz to %d Hz",
			snapshot.ErrCorrupt, state.ClockRate, state.SampleRate, clock, rate)
	}
	return nil
}

// setState restores the channel levels at the given cycle of the current
// frame. The synthesizer is cleared, then brought back to the mixed level of
// the restored channels, so that the next deltas start from the right level.
// The saved PreviousOutput is not used: it depends on the volumes of the core
// that took the snapshot.
func (m *Mixer) setState(state *snapshot.APUMixer, cycle uint32) {
	m.Reset()
	m.curOutput = state.CurrentOutput
	m.prevOut = m.outputVolume()
	m.synth.AddDelta(cycle, int32(m.prevOut))
}
