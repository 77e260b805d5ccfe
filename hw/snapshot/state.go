package snapshot

import "nesapu/hw/hwdefs"

// Version of the APU snapshot layout. Bump it whenever a field is added,
// removed or resized.
const Version = 1

type Timer struct {
	PreviousCycle uint32
	Timer         uint16
	Period        uint16
	LastOutput    int8
}

type LengthCounter struct {
	Enabled       bool
	Halt          bool
	NewHalt       bool
	Counter       uint8
	ReloadValue   uint8
	PreviousValue uint8
}

type Envelope struct {
	ConstantVolume bool
	Volume         uint8
	Start          bool
	Divider        int8
	Counter        uint8
	LengthCounter  LengthCounter
}

type APUSquare struct {
	Timer    Timer
	Envelope Envelope

	Duty    uint8
	DutyPos uint8

	SweepEnabled      bool
	SweepPeriod       uint8
	SweepNegate       bool
	SweepShift        uint8
	ReloadSweep       bool
	SweepDivider      uint8
	SweepTargetPeriod uint32
	RealPeriod        uint16
}

type APUTriangle struct {
	Timer         Timer
	LengthCounter LengthCounter

	LinearCounter       uint8
	LinearCounterReload uint8
	LinearReload        bool
	LinearCtrl          bool
	Pos                 uint8
}

type APUNoise struct {
	Timer    Timer
	Envelope Envelope

	ShiftReg uint16
	Mode     bool
}

type APUDMC struct {
	Timer Timer

	SampleAddr  uint16
	SampleLen   uint16
	CurrentAddr uint16
	Remaining   uint16
	OutputLevel uint8
	IRQEnabled  bool
	Loop        bool

	ReadBuf  uint8
	BufEmpty bool
	ShiftReg uint8
	BitsLeft uint8
	Silence  bool
	Last4011 uint8
}

type APUFrameCounter struct {
	PrevCycle         int32
	CurStep           uint32
	StepMode          uint32
	InhibitIRQ        bool
	BlockTick         uint8
	NewValue          int16
	WriteDelayCounter int8
}

type APUMixer struct {
	ClockRate      uint32
	SampleRate     uint32
	PreviousOutput int16
	CurrentOutput  [hwdefs.NumAudioChannels]int16
}

// APU holds the complete sound core state. All fields have a fixed size so
// that the struct maps directly onto the binary blob payload.
type APU struct {
	Region hwdefs.Region

	Square1      APUSquare
	Square2      APUSquare
	Triangle     APUTriangle
	Noise        APUNoise
	DMC          APUDMC
	FrameCounter APUFrameCounter
	Mixer        APUMixer

	FrameIRQ bool
	DMCIRQ   bool

	// Total CPU cycles since power-up, used for $4017 write parity.
	Cycles uint64
	// Position within the current frame.
	PrevCycle uint32
	CurCycle  uint32
}
