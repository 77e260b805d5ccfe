package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// recordSink stores every played block.
type recordSink struct {
	mu     sync.Mutex
	blocks [][]int16
}

func (s *recordSink) Play(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, append([]int16(nil), samples...))
	return nil
}

func (s *recordSink) Close() error { return nil }

func (s *recordSink) played() [][]int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks
}

func block(v int16, n int) []int16 {
	b := make([]int16, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func TestQueueBlockPolicy(t *testing.T) {
	q := NewQueue(QueueConfig{BlockSize: 4, Capacity: 2, Policy: Block})
	sink := &recordSink{}

	var want [][]int16
	done := make(chan error, 1)
	go func() {
		defer q.Close()
		for i := range int16(20) {
			want = append(want, block(i, 4))
			if err := q.Write(block(i, 4)); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	if err := q.Play(context.Background(), sink); err != nil {
		t.Fatalf("Play() = %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Write() = %v", err)
	}
	if diff := cmp.Diff(want, sink.played()); diff != "" {
		t.Errorf("played blocks mismatch (-want +got):\n%s", diff)
	}
	if q.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", q.Dropped())
	}
}

func TestQueueBlockWaits(t *testing.T) {
	q := NewQueue(QueueConfig{BlockSize: 4, Capacity: 1})

	if err := q.Write(block(1, 4)); err != nil {
		t.Fatal(err)
	}

	wrote := make(chan error, 1)
	go func() { wrote <- q.Write(block(2, 4)) }()

	select {
	case err := <-wrote:
		t.Fatalf("Write() on a full queue returned %v, want it to block", err)
	case <-time.After(20 * time.Millisecond):
	}

	// Free a slot.
	var buf [4]int16
	if n, _ := q.Pop(buf[:]); n != 4 {
		t.Fatalf("Pop() = %d, want 4", n)
	}
	if err := <-wrote; err != nil {
		t.Fatalf("Write() = %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

func TestQueueDropOldest(t *testing.T) {
	q := NewQueue(QueueConfig{BlockSize: 2, Capacity: 3, Policy: DropOldest})

	for i := range int16(5) {
		if err := q.Write(block(i, 2)); err != nil {
			t.Fatal(err)
		}
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	if q.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", q.Dropped())
	}

	q.Close()
	sink := &recordSink{}
	if err := q.Play(context.Background(), sink); err != nil {
		t.Fatal(err)
	}
	want := [][]int16{block(2, 2), block(3, 2), block(4, 2)}
	if diff := cmp.Diff(want, sink.played()); diff != "" {
		t.Errorf("played blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestQueueSplitsBlocks(t *testing.T) {
	q := NewQueue(QueueConfig{BlockSize: 4, Capacity: 4})
	if err := q.Write([]int16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}); err != nil {
		t.Fatal(err)
	}
	q.Close()

	sink := &recordSink{}
	if err := q.Play(context.Background(), sink); err != nil {
		t.Fatal(err)
	}
	want := [][]int16{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10}}
	if diff := cmp.Diff(want, sink.played()); diff != "" {
		t.Errorf("played blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(QueueConfig{BlockSize: 4, Capacity: 1})
	if err := q.Write(block(1, 4)); err != nil {
		t.Fatal(err)
	}

	wrote := make(chan error, 1)
	go func() { wrote <- q.Write(block(2, 4)) }()
	time.Sleep(10 * time.Millisecond)

	q.Close()
	if err := <-wrote; !errors.Is(err, ErrClosed) {
		t.Errorf("blocked Write() = %v, want ErrClosed", err)
	}
	if err := q.Write(block(3, 4)); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after Close = %v, want ErrClosed", err)
	}
	q.Close() // no-op
}

func TestQueuePlayCancel(t *testing.T) {
	q := NewQueue(QueueConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	played := make(chan error, 1)
	go func() { played <- q.Play(ctx, &NullSink{}) }()

	cancel()
	select {
	case err := <-played:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Play() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Play() did not return after cancel")
	}
}

func TestQueueSinkError(t *testing.T) {
	q := NewQueue(QueueConfig{BlockSize: 2, Capacity: 2})
	if err := q.Write([]int16{1, 2}); err != nil {
		t.Fatal(err)
	}

	errSink := errors.New("device lost")
	err := q.Play(context.Background(), sinkFunc(func([]int16) error { return errSink }))
	if !errors.Is(err, errSink) {
		t.Errorf("Play() = %v, want %v", err, errSink)
	}
}

type sinkFunc func([]int16) error

func (f sinkFunc) Play(samples []int16) error { return f(samples) }
func (f sinkFunc) Close() error               { return nil }

func TestPolicyText(t *testing.T) {
	for _, p := range []Policy{Block, DropOldest} {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Policy
		if err := got.UnmarshalText(text); err != nil {
			t.Fatal(err)
		}
		if got != p {
			t.Errorf("policy %v round trip gave %v", p, got)
		}
	}
	if _, err := ParsePolicy("lifo"); err == nil {
		t.Errorf("ParsePolicy(lifo) should fail")
	}
}
