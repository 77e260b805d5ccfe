// Package audio carries the samples produced by the emulation to a playback
// device. The emulation side writes fixed-size blocks to a bounded Queue, the
// playback side drains it into a Sink.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"nesapu/emu/log"
)

var ErrClosed = errors.New("audio queue closed")

const (
	DefaultBlockSize = 1024
	DefaultCapacity  = 8
)

type QueueConfig struct {
	BlockSize int    // samples per block
	Capacity  int    // blocks
	Policy    Policy // what to do when full
}

// Queue is a bounded FIFO of sample blocks shared by one writer (the
// emulation) and one player. Blocks are copied into a pool of buffers
// allocated once by NewQueue.
type Queue struct {
	cfg QueueConfig

	mu      sync.Mutex
	slots   [][]int16
	lens    []int
	head    int
	n       int
	dropped uint64
	closed  bool

	space chan struct{} // a slot has been freed
	data  chan struct{} // a block has been queued
	done  chan struct{} // closed by Close
}

func NewQueue(cfg QueueConfig) *Queue {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}

	q := &Queue{
		cfg:   cfg,
		slots: make([][]int16, cfg.Capacity),
		lens:  make([]int, cfg.Capacity),
		space: make(chan struct{}, 1),
		data:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	for i := range q.slots {
		q.slots[i] = make([]int16, cfg.BlockSize)
	}
	return q
}

func (q *Queue) Config() QueueConfig { return q.cfg }

func signal(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}

// Write queues samples, split in blocks of at most BlockSize samples. When the
// queue is full, Write either waits for the player or drops the oldest block,
// depending on the queue policy. Write returns ErrClosed once the queue has
// been closed.
func (q *Queue) Write(samples []int16) error {
	for len(samples) > 0 {
		n := min(len(samples), q.cfg.BlockSize)
		if err := q.writeBlock(samples[:n]); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return nil
}

func (q *Queue) writeBlock(block []int16) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		if q.n == len(q.slots) && q.cfg.Policy == DropOldest {
			q.lens[q.head] = 0
			q.head = (q.head + 1) % len(q.slots)
			q.n--
			q.dropped++
			log.ModAudio.DebugZ("queue full, dropped oldest block").
				Uint64("dropped", q.dropped).
				End()
		}
		if q.n < len(q.slots) {
			tail := (q.head + q.n) % len(q.slots)
			q.lens[tail] = copy(q.slots[tail], block)
			q.n++
			q.mu.Unlock()
			signal(q.data)
			return nil
		}
		q.mu.Unlock()

		select {
		case <-q.space:
		case <-q.done:
			return ErrClosed
		}
	}
}

// Pop copies the oldest block into dst and returns its length, or -1 if the
// queue is empty.
func (q *Queue) Pop(dst []int16) (n int, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.n == 0 {
		return -1, q.closed
	}
	n = copy(dst, q.slots[q.head][:q.lens[q.head]])
	q.head = (q.head + 1) % len(q.slots)
	q.n--
	signal(q.space)
	return n, q.closed
}

// Play feeds the queued blocks to sink until the context is canceled, or until
// the queue is closed and drained. The sink is not closed.
func (q *Queue) Play(ctx context.Context, sink Sink) error {
	buf := make([]int16, q.cfg.BlockSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, closed := q.Pop(buf)
		if n >= 0 {
			if err := sink.Play(buf[:n]); err != nil {
				return fmt.Errorf("audio sink: %w", err)
			}
			continue
		}
		if closed {
			return nil
		}

		select {
		case <-q.data:
		case <-q.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len returns the number of queued blocks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Dropped returns the number of blocks discarded by the DropOldest policy.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close wakes up blocked writers, which return ErrClosed. Blocks still queued
// are played before Play returns.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.done)
	}
}
