package emu

import (
	"errors"
	"testing"
)

func TestRewinder(t *testing.T) {
	r := NewRewinder(3, 2)

	var pushed int
	for range 10 {
		if r.EndFrame() {
			pushed++
			r.Push([]byte{byte(pushed)})
		}
	}
	if pushed != 5 {
		t.Fatalf("pushed %d snapshots, want 5", pushed)
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	if _, err := r.Back(4); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("Back(4) error = %v, want ErrNoHistory", err)
	}
	if _, err := r.Back(0); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("Back(0) error = %v, want ErrNoHistory", err)
	}

	blob, err := r.Back(2)
	if err != nil {
		t.Fatal(err)
	}
	if blob[0] != 4 {
		t.Errorf("Back(2) = snapshot %d, want 4", blob[0])
	}
	if r.Len() != 2 {
		t.Errorf("Len() after Back(2) = %d, want 2", r.Len())
	}

	// The restored snapshot is kept.
	blob, err = r.Back(1)
	if err != nil {
		t.Fatal(err)
	}
	if blob[0] != 4 {
		t.Errorf("Back(1) = snapshot %d, want 4", blob[0])
	}

	r.Push([]byte{9})
	r.Push([]byte{10})
	for _, step := range []struct {
		back int
		want byte
	}{{1, 10}, {2, 9}, {2, 4}} {
		blob, err := r.Back(step.back)
		if err != nil {
			t.Fatal(err)
		}
		if blob[0] != step.want {
			t.Errorf("Back(%d) = snapshot %d, want %d", step.back, blob[0], step.want)
		}
	}

	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", r.Len())
	}
}

func TestRewinderDisabled(t *testing.T) {
	r := NewRewinder(0, 1)
	for range 5 {
		if r.EndFrame() {
			t.Fatal("disabled rewinder asked for a snapshot")
		}
	}
	r.Push([]byte{1})
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
