package emu

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"nesapu/hw/audio"
)

var updateGolden = flag.Bool("update", false, "update golden files")

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Audio.SampleRate = 96000
	cfg.Audio.QueueBlocks = 256
	cfg.Rewind.Frames = 0
	return cfg
}

func newTestAudio(tb testing.TB, cfg Config) *Audio {
	tb.Helper()

	a, err := New(cfg, nil)
	if err != nil {
		tb.Fatal(err)
	}
	return a
}

func mustWrite(tb testing.TB, a *Audio, elapsed uint32, addr uint16, val uint8) {
	tb.Helper()

	if err := a.WriteRegister(elapsed, addr, val); err != nil {
		tb.Fatal(err)
	}
}

func runFrames(tb testing.TB, a *Audio, n int, cycles uint32) {
	tb.Helper()

	for range n {
		if err := a.RunToFrameBoundary(cycles); err != nil {
			tb.Fatal(err)
		}
	}
}

// drain returns all the blocks in the queue, without waiting.
func drain(q *audio.Queue) [][]int16 {
	var blocks [][]int16
	for {
		buf := make([]int16, q.Config().BlockSize)
		n, _ := q.Pop(buf)
		if n < 0 {
			return blocks
		}
		blocks = append(blocks, buf[:n])
	}
}

// playAll closes the queue and plays all queued blocks into sink.
func playAll(tb testing.TB, q *audio.Queue, sink audio.Sink) {
	tb.Helper()

	q.Close()
	if err := q.Play(context.Background(), sink); err != nil {
		tb.Fatal(err)
	}
}

// diffGolden compares got with the content of testdata/name.golden. The golden
// file is rewritten when -update is set.
func diffGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")
	if *updateGolden {
		if err := os.MkdirAll("testdata", 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, got, 0644); err != nil {
			t.Fatal(err)
		}
		t.Logf("golden file %s written", path)
		return
	}
	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("golden file %s is missing, run the tests with -update", path)
	}
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("output differs from %s", path)
	}
}
