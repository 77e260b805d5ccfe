package emu

import (
	"errors"
	"fmt"
)

var ErrNoHistory = errors.New("not enough rewind history")

// Rewinder keeps the most recent snapshots in a ring, taking one every
// interval frames. Snapshot buffers are reused once the ring is full.
type Rewinder struct {
	ring     [][]byte
	head     int // index of the oldest snapshot
	n        int
	interval int
	frame    uint64
}

func NewRewinder(depth, interval int) *Rewinder {
	if interval <= 0 {
		interval = 1
	}
	return &Rewinder{
		ring:     make([][]byte, depth),
		interval: interval,
	}
}

// Interval is the number of frames between two snapshots.
func (r *Rewinder) Interval() int { return r.interval }

// Len is the number of snapshots available.
func (r *Rewinder) Len() int { return r.n }

// EndFrame counts a frame and reports whether a snapshot should be pushed.
func (r *Rewinder) EndFrame() bool {
	if len(r.ring) == 0 {
		return false
	}
	r.frame++
	return r.frame%uint64(r.interval) == 0
}

// Push records a copy of blob, evicting the oldest snapshot if the ring is
// full.
func (r *Rewinder) Push(blob []byte) {
	if len(r.ring) == 0 {
		return
	}
	var idx int
	if r.n == len(r.ring) {
		idx = r.head
		r.head = (r.head + 1) % len(r.ring)
	} else {
		idx = (r.head + r.n) % len(r.ring)
		r.n++
	}
	r.ring[idx] = append(r.ring[idx][:0], blob...)
}

// Back returns the snapshot taken steps snapshots ago (1 is the most recent)
// and forgets all the more recent ones. The returned snapshot stays in the
// ring so that rewinding can be repeated from the same point.
func (r *Rewinder) Back(steps int) ([]byte, error) {
	if steps <= 0 || steps > r.n {
		return nil, fmt.Errorf("%w: want %d snapshots, have %d", ErrNoHistory, steps, r.n)
	}
	r.n -= steps - 1
	idx := (r.head + r.n - 1) % len(r.ring)
	return r.ring[idx], nil
}

func (r *Rewinder) Reset() {
	r.head = 0
	r.n = 0
	r.frame = 0
}
