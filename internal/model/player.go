package model

import (
	"slices"
	"time"
)

// PlayerID identifies a player. It is supplied by the client and not validated.
type PlayerID string

// BoardType selects which win-pattern label family applies to a claim
type BoardType string

const (
	BoardType75Ball  BoardType = "75ball"
	BoardType50Ball  BoardType = "50ball"
	BoardType90Ball  BoardType = "90ball"
	BoardTypePattern BoardType = "pattern"
)

// Player is a participant tracked by the connection registry
type Player struct {
	ID         PlayerID
	Name       string
	Phone      string
	Stake      int64
	BoardType  BoardType
	BoardID    string
	Registered bool
	Connected  bool

	// MarkedNumbers keeps insertion order with set semantics
	MarkedNumbers []int

	LastPing    time.Time
	ConnectedAt time.Time
}

// HasMarked returns true if the number is already marked
func (p *Player) HasMarked(number int) bool {
	return slices.Contains(p.MarkedNumbers, number)
}

// Mark records a number, ignoring duplicates. Returns true if it was added.
func (p *Player) Mark(number int) bool {
	if p.HasMarked(number) {
		return false
	}
	p.MarkedNumbers = append(p.MarkedNumbers, number)
	return true
}

// ClearMarks removes all marked numbers
func (p *Player) ClearMarks() {
	p.MarkedNumbers = []int{}
}

// Clone returns a copy that shares no mutable state with p
func (p *Player) Clone() Player {
	c := *p
	c.MarkedNumbers = slices.Clone(p.MarkedNumbers)
	if c.MarkedNumbers == nil {
		c.MarkedNumbers = []int{}
	}
	return c
}
