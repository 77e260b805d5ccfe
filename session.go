package main

import (
	"context"
	"errors"
	"time"

	"nesapu/emu"
	"nesapu/emu/log"
	"nesapu/emu/script"
	"nesapu/hw/audio"
)

var errStopped = errors.New("session stopped")

// session is the emulation actor: it runs a script on a sound core, frame
// after frame. Remote commands are run by the session goroutine, between two
// frames.
type session struct {
	a *emu.Audio
	p *script.Player

	cmds    chan func()
	stop    chan struct{}
	done    chan struct{}
	paused  bool
	stopped bool
}

func newSession(a *emu.Audio, sc *script.Script) *session {
	return &session{
		a:    a,
		p:    sc.Player(),
		cmds: make(chan func()),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// run plays the script until it's over, the session is stopped or ctx is
// canceled. If tick is not nil, a frame is run on each tick. The queue is
// closed on return.
func (s *session) run(ctx context.Context, tick <-chan time.Time) error {
	defer close(s.done)
	defer s.a.Close()

	for {
		if !s.commands(ctx) {
			return nil
		}

		more, err := s.p.Step(s.a)
		if errors.Is(err, audio.ErrClosed) {
			// Playback has stopped, it reports why.
			return nil
		}
		if err != nil {
			return err
		}
		if !more {
			return s.a.Flush()
		}

		if tick != nil {
			select {
			case <-tick:
			case <-s.stop:
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// commands runs the pending commands, waiting for more while the session is
// paused. It reports whether the session should go on.
func (s *session) commands(ctx context.Context) bool {
	for {
		if s.paused {
			select {
			case f := <-s.cmds:
				f()
			case <-s.stop:
				return false
			case <-ctx.Done():
				return false
			}
			continue
		}

		select {
		case f := <-s.cmds:
			f()
		case <-s.stop:
			return false
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
}

// do runs f on the session goroutine and waits for it.
func (s *session) do(f func() error) error {
	errc := make(chan error, 1)
	select {
	case s.cmds <- func() { errc <- f() }:
		return <-errc
	case <-s.done:
		return errStopped
	}
}

func (s *session) Reset() {
	s.do(func() error {
		s.a.Reset()
		return nil
	})
}

func (s *session) SetPause(pause bool) {
	s.do(func() error {
		s.paused = pause
		log.ModEmu.InfoZ("pause").Bool("paused", pause).End()
		return nil
	})
}

func (s *session) Rewind(frames int) error {
	return s.do(func() error { return s.a.Rewind(frames) })
}

func (s *session) TakeSnapshot() (blob []byte, err error) {
	err = s.do(func() error {
		blob, err = s.a.TakeSnapshot()
		return err
	})
	return blob, err
}

func (s *session) LoadSnapshot(blob []byte) error {
	return s.do(func() error { return s.a.LoadSnapshot(blob) })
}

func (s *session) Stop() {
	s.do(func() error {
		if !s.stopped {
			s.stopped = true
			close(s.stop)
		}
		return nil
	})
}
