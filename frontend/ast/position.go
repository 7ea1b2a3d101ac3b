package ast

import (
	"fmt"
)

// Positioner allows finding the location in the original source file.
type Positioner interface {
	Pos() Position
}

// Position is a line/column pair inside a compilation unit.
// The zero Position means the location is unknown.
type Position struct {
	Unit string
	Line int
	Col  int
}

func (p Position) Pos() Position { return p }

func (p Position) IsKnown() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsKnown() {
		return "<unknown>"
	}
	if p.Unit == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.Unit, p.Line, p.Col)
}

// PosOf returns the Position of p, or the zero Position when p is nil
func PosOf(p Positioner) Position {
	if p == nil {
		return Position{}
	}
	return p.Pos()
}
