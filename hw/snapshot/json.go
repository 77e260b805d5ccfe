package snapshot

import (
	"io"

	"github.com/go-faster/jx"
)

// WriteJSON writes a human-readable dump of the state to w.
func (s *APU) WriteJSON(w io.Writer) error {
	var e jx.Encoder
	e.SetIdent(2)
	s.Encode(&e)
	if _, err := w.Write(e.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Encode writes the state as a JSON object.
func (s *APU) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("version")
	e.Int(Version)
	e.FieldStart("region")
	e.Str(s.Region.String())

	e.FieldStart("square1")
	s.Square1.encode(e)
	e.FieldStart("square2")
	s.Square2.encode(e)

	e.FieldStart("triangle")
	e.ObjStart()
	encodeTimer(e, &s.Triangle.Timer)
	e.FieldStart("length")
	encodeLength(e, &s.Triangle.LengthCounter)
	e.FieldStart("linear_counter")
	e.UInt8(s.Triangle.LinearCounter)
	e.FieldStart("linear_reload_value")
	e.UInt8(s.Triangle.LinearCounterReload)
	e.FieldStart("linear_reload")
	e.Bool(s.Triangle.LinearReload)
	e.FieldStart("linear_ctrl")
	e.Bool(s.Triangle.LinearCtrl)
	e.FieldStart("pos")
	e.UInt8(s.Triangle.Pos)
	e.ObjEnd()

	e.FieldStart("noise")
	e.ObjStart()
	encodeTimer(e, &s.Noise.Timer)
	e.FieldStart("envelope")
	encodeEnvelope(e, &s.Noise.Envelope)
	e.FieldStart("shift_reg")
	e.UInt16(s.Noise.ShiftReg)
	e.FieldStart("mode")
	e.Bool(s.Noise.Mode)
	e.ObjEnd()

	e.FieldStart("dmc")
	s.DMC.encode(e)

	fc := &s.FrameCounter
	e.FieldStart("frame_counter")
	e.ObjStart()
	e.FieldStart("cycle")
	e.Int32(fc.PrevCycle)
	e.FieldStart("step")
	e.UInt32(fc.CurStep)
	e.FieldStart("mode")
	e.UInt32(fc.StepMode)
	e.FieldStart("inhibit_irq")
	e.Bool(fc.InhibitIRQ)
	e.FieldStart("block_tick")
	e.UInt8(fc.BlockTick)
	e.FieldStart("pending_write")
	e.Int16(fc.NewValue)
	e.FieldStart("write_delay")
	e.Int8(fc.WriteDelayCounter)
	e.ObjEnd()

	e.FieldStart("mixer")
	e.ObjStart()
	e.FieldStart("clock_rate")
	e.UInt32(s.Mixer.ClockRate)
	e.FieldStart("sample_rate")
	e.UInt32(s.Mixer.SampleRate)
	e.FieldStart("previous_output")
	e.Int16(s.Mixer.PreviousOutput)
	e.FieldStart("current_output")
	e.ArrStart()
	for _, out := range s.Mixer.CurrentOutput {
		e.Int16(out)
	}
	e.ArrEnd()
	e.ObjEnd()

	e.FieldStart("frame_irq")
	e.Bool(s.FrameIRQ)
	e.FieldStart("dmc_irq")
	e.Bool(s.DMCIRQ)
	e.FieldStart("cycles")
	e.UInt64(s.Cycles)
	e.FieldStart("prev_cycle")
	e.UInt32(s.PrevCycle)
	e.FieldStart("cur_cycle")
	e.UInt32(s.CurCycle)
	e.ObjEnd()
}

func (sq *APUSquare) encode(e *jx.Encoder) {
	e.ObjStart()
	encodeTimer(e, &sq.Timer)
	e.FieldStart("envelope")
	encodeEnvelope(e, &sq.Envelope)
	e.FieldStart("duty")
	e.UInt8(sq.Duty)
	e.FieldStart("duty_pos")
	e.UInt8(sq.DutyPos)
	e.FieldStart("real_period")
	e.UInt16(sq.RealPeriod)
	e.FieldStart("sweep")
	e.ObjStart()
	e.FieldStart("enabled")
	e.Bool(sq.SweepEnabled)
	e.FieldStart("period")
	e.UInt8(sq.SweepPeriod)
	e.FieldStart("negate")
	e.Bool(sq.SweepNegate)
	e.FieldStart("shift")
	e.UInt8(sq.SweepShift)
	e.FieldStart("reload")
	e.Bool(sq.ReloadSweep)
	e.FieldStart("divider")
	e.UInt8(sq.SweepDivider)
	e.FieldStart("target_period")
	e.UInt32(sq.SweepTargetPeriod)
	e.ObjEnd()
	e.ObjEnd()
}

func (dmc *APUDMC) encode(e *jx.Encoder) {
	e.ObjStart()
	encodeTimer(e, &dmc.Timer)
	e.FieldStart("sample_addr")
	e.UInt16(dmc.SampleAddr)
	e.FieldStart("sample_len")
	e.UInt16(dmc.SampleLen)
	e.FieldStart("cur_addr")
	e.UInt16(dmc.CurrentAddr)
	e.FieldStart("remaining")
	e.UInt16(dmc.Remaining)
	e.FieldStart("output_level")
	e.UInt8(dmc.OutputLevel)
	e.FieldStart("irq_enabled")
	e.Bool(dmc.IRQEnabled)
	e.FieldStart("loop")
	e.Bool(dmc.Loop)
	e.FieldStart("read_buf")
	e.UInt8(dmc.ReadBuf)
	e.FieldStart("buf_empty")
	e.Bool(dmc.BufEmpty)
	e.FieldStart("shift_reg")
	e.UInt8(dmc.ShiftReg)
	e.FieldStart("bits_left")
	e.UInt8(dmc.BitsLeft)
	e.FieldStart("silence")
	e.Bool(dmc.Silence)
	e.ObjEnd()
}

// Timer fields are inlined in the channel object.
func encodeTimer(e *jx.Encoder, t *Timer) {
	e.FieldStart("timer")
	e.UInt16(t.Timer)
	e.FieldStart("period")
	e.UInt16(t.Period)
	e.FieldStart("output")
	e.Int8(t.LastOutput)
}

func encodeEnvelope(e *jx.Encoder, env *Envelope) {
	e.ObjStart()
	e.FieldStart("constant")
	e.Bool(env.ConstantVolume)
	e.FieldStart("volume")
	e.UInt8(env.Volume)
	e.FieldStart("start")
	e.Bool(env.Start)
	e.FieldStart("divider")
	e.Int8(env.Divider)
	e.FieldStart("counter")
	e.UInt8(env.Counter)
	e.FieldStart("length")
	encodeLength(e, &env.LengthCounter)
	e.ObjEnd()
}

func encodeLength(e *jx.Encoder, lc *LengthCounter) {
	e.ObjStart()
	e.FieldStart("enabled")
	e.Bool(lc.Enabled)
	e.FieldStart("halt")
	e.Bool(lc.Halt)
	e.FieldStart("counter")
	e.UInt8(lc.Counter)
	e.FieldStart("reload")
	e.UInt8(lc.ReloadValue)
	e.ObjEnd()
}
