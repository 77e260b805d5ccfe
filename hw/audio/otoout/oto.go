// Package otoout plays audio with oto, without any cgo dependency on most
// platforms.
package otoout

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"nesapu/emu/log"
)

// Sink streams samples to an oto player through a pipe. Play blocks until the
// player has consumed the samples, which paces the caller at the device rate.
type Sink struct {
	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter
	buf    []byte
}

// Open creates the oto context. Only one context may exist per process, so
// Open can only succeed once.
func Open(sampleRate int, latency time.Duration) (*Sink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	pr, pw := io.Pipe()
	s := &Sink{
		ctx:    ctx,
		player: ctx.NewPlayer(pr),
		pw:     pw,
	}
	s.player.Play()

	log.ModAudio.InfoZ("oto player started").
		Int("freq", sampleRate).
		Duration("latency", latency).
		End()
	return s, nil
}

func (s *Sink) Play(samples []int16) error {
	s.buf = s.buf[:0]
	for _, v := range samples {
		s.buf = binary.LittleEndian.AppendUint16(s.buf, uint16(v))
	}
	if _, err := s.pw.Write(s.buf); err != nil {
		return fmt.Errorf("oto write: %w", err)
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("oto: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.pw.Close()
	return s.player.Close()
}
