package audio

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Policy

// Policy decides what Write does when the queue is full.
type Policy uint8

const (
	// Block waits for the player to free a slot.
	Block Policy = iota
	// DropOldest discards the oldest queued block.
	DropOldest
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "block", "":
		return Block, nil
	case "dropoldest", "drop-oldest", "drop_oldest":
		return DropOldest, nil
	}
	return Block, fmt.Errorf("unknown queue policy %q", s)
}

func (p Policy) MarshalText() ([]byte, error) {
	switch p {
	case Block:
		return []byte("block"), nil
	case DropOldest:
		return []byte("drop-oldest"), nil
	}
	return nil, fmt.Errorf("unknown queue policy %d", p)
}

func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
