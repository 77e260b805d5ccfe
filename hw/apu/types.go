package apu

import "errors"

//go:generate go tool stringer -type=Channel

type Channel uint8

const (
	Square1 Channel = iota
	Square2
	Triangle
	Noise
	DMC
)

type FrameType uint8

const (
	NoFrame FrameType = iota
	QuarterFrame
	HalfFrame
)

var (
	// ErrTimeOrder is returned when a timestamp lies before the previous one
	// of the same frame.
	ErrTimeOrder = errors.New("timestamp before previous event")

	// ErrFrameTooLong is returned when a timestamp lies past the longest
	// frame the synthesizer can hold.
	ErrFrameTooLong = errors.New("frame too long")
)

// MemReader provides DMC sample bytes. ReadDMC is called once per fetched
// byte, at the frame-relative cycle the fetch happens.
type MemReader interface {
	ReadDMC(elapsed uint32, addr uint16) uint8
}

// MemReaderFunc adapts a function to the MemReader interface.
type MemReaderFunc func(elapsed uint32, addr uint16) uint8

func (f MemReaderFunc) ReadDMC(elapsed uint32, addr uint16) uint8 {
	return f(elapsed, addr)
}

type mixer interface {
	AddDelta(ch Channel, time uint32, delta int16)
}
