package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"

	"nesapu/emu"
	"nesapu/emu/log"
	"nesapu/emu/rpc"
	"nesapu/emu/script"
	"nesapu/hw/audio"
	"nesapu/hw/audio/otoout"
	"nesapu/hw/audio/sdlout"
	"nesapu/hw/synth"
)

func openSink(cfg emu.AudioConfig) (audio.Sink, error) {
	latency := time.Duration(cfg.LatencyMs) * time.Millisecond

	switch cfg.Backend {
	case "sdl":
		return sdlout.Open(int(cfg.SampleRate), latency)
	case "oto":
		return otoout.Open(int(cfg.SampleRate), latency)
	case "null":
		return &audio.NullSink{}, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
}

func playMain(args Play, cfg emu.Config) error {
	if args.Backend != "" {
		if !slices.Contains(emu.Backends, args.Backend) {
			return fmt.Errorf("unknown audio backend %q", args.Backend)
		}
		cfg.Audio.Backend = args.Backend
	}

	sc, err := script.Load(args.ScriptPath)
	if err != nil {
		return err
	}
	return playScript(sc, cfg, args.Port)
}

// playScript runs the script on a new sound core while playing its output.
// The emulation and the playback run concurrently. If port is not 0, the core
// can be remote controlled.
func playScript(sc *script.Script, cfg emu.Config, port int) error {
	cfg.Audio.Region = sc.Region
	a, err := emu.New(cfg, sc.Memory())
	if err != nil {
		return err
	}

	sink, err := openSink(cfg.Audio)
	if err != nil {
		return err
	}
	defer sink.Close()

	log.ModEmu.InfoZ("playing script").
		String("name", sc.Name).
		Int("frames", sc.NumFrames()).
		String("backend", cfg.Audio.Backend).
		End()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess := newSession(a, sc)
	if port != 0 {
		server, err := rpc.NewServer(port, sess)
		if err != nil {
			return fmt.Errorf("rpc server: %w", err)
		}
		defer server.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	// Emulation. Without backpressure from the queue, it's paced at the
	// console frame rate.
	g.Go(func() error {
		var tick <-chan time.Time
		if cfg.Audio.Policy == audio.DropOldest {
			ticker := time.NewTicker(time.Duration(float64(time.Second) / sc.Region.FrameRate()))
			defer ticker.Stop()
			tick = ticker.C
		}
		return sess.run(ctx, tick)
	})

	// Playback.
	g.Go(func() error {
		defer a.Close()
		return a.Queue().Play(ctx, sink)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if d := a.Queue().Dropped(); d > 0 {
		log.ModAudio.Warnf("%d audio blocks dropped", d)
	}
	return err
}

// renderScript runs at most maxFrames frames of the script (all of them if
// maxFrames is 0) and plays the produced samples into sink, as fast as
// possible.
func renderScript(sc *script.Script, cfg emu.Config, sink audio.Sink, maxFrames int) (*emu.Audio, error) {
	cfg.Audio.Region = sc.Region
	// The queue is drained after each frame, make sure a frame never fills it.
	cfg.Audio.QueueBlocks = max(cfg.Audio.QueueBlocks, synth.MaxFrameSamples/cfg.Audio.BlockSize+2)
	cfg.Audio.Policy = audio.Block

	a, err := emu.New(cfg, sc.Memory())
	if err != nil {
		return nil, err
	}
	defer a.Close()
	defer log.AddContext(a)()

	q := a.Queue()
	buf := make([]int16, q.Config().BlockSize)
	play := func() error {
		for {
			n, _ := q.Pop(buf)
			if n < 0 {
				return nil
			}
			if err := sink.Play(buf[:n]); err != nil {
				return fmt.Errorf("audio sink: %w", err)
			}
		}
	}

	p := sc.Player()
	for maxFrames <= 0 || p.Frame() < maxFrames {
		more, err := p.Step(a)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		if err := play(); err != nil {
			return nil, err
		}
	}
	if err := a.Flush(); err != nil {
		return nil, err
	}
	return a, play()
}

func renderMain(args Render, cfg emu.Config) error {
	sc, err := script.Load(args.ScriptPath)
	if err != nil {
		return err
	}
	return renderWAV(sc, cfg, args.Out)
}

func renderWAV(sc *script.Script, cfg emu.Config, path string) error {
	sink, err := audio.CreateWAV(path, int(cfg.Audio.SampleRate))
	if err != nil {
		return err
	}

	start := time.Now()
	if _, err := renderScript(sc, cfg, sink, 0); err != nil {
		sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	log.ModEmu.InfoZ("script rendered").
		String("path", path).
		Int("frames", sc.NumFrames()).
		Duration("took", time.Since(start)).
		End()
	return nil
}

func toneMain(args Tone, cfg emu.Config) error {
	region := cfg.Audio.Region
	frames := int(math.Ceil(args.Seconds * region.FrameRate()))
	sc, err := script.Tone(region, args.Channel, args.Freq, args.Volume, frames)
	if err != nil {
		return err
	}

	if args.Out != "" {
		return renderWAV(sc, cfg, args.Out)
	}
	return playScript(sc, cfg, 0)
}

func stateMain(args State, cfg emu.Config) error {
	sc, err := script.Load(args.ScriptPath)
	if err != nil {
		return err
	}

	a, err := renderScript(sc, cfg, &audio.NullSink{}, args.Frames)
	if err != nil {
		return err
	}

	if args.Save != "" {
		blob, err := a.TakeSnapshot()
		if err != nil {
			return err
		}
		if err := os.WriteFile(args.Save, blob, 0644); err != nil {
			return err
		}
	}

	state, err := a.State()
	if err != nil {
		return err
	}
	out := args.Out
	if out == nil {
		out = &outfile{WriteCloser: nopCloser{os.Stdout}, name: "stdout"}
	}
	defer out.Close()
	return state.WriteJSON(out)
}

func configMain(args ConfigCmd, cfg emu.Config, path string) error {
	if args.Save {
		if err := emu.SaveConfigTo(path, cfg); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "configuration written to", path)
	}

	fmt.Printf("# %s\n", path)
	return toml.NewEncoder(os.Stdout).Encode(cfg)
}
