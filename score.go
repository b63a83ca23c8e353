package groove

import (
	"errors"
	"fmt"
	"slices"
)

type (
	// Score is a melodic line played by a sequencer device: a list of
	// patterns and the order in which they are played. The score is
	// RowsPerPattern * len(Order) rows long and advances RowsPerBeat rows
	// every beat of the clock.
	Score struct {
		RowsPerPattern int
		RowsPerBeat    int
		Order          Order     `yaml:",flow"`
		Patterns       []Pattern `yaml:",flow"`
	}

	// ScorePos is a position in a score, in terms of order row and pattern
	// row. The order row is the index of the pattern in the order list, and
	// the pattern row is the index of the row in the pattern.
	ScorePos struct {
		OrderRow   int
		PatternRow int
	}
)

// Pos converts a row counted from the start of the score into a ScorePos.
func (s *Score) Pos(row int) ScorePos {
	if s.RowsPerPattern == 0 {
		return ScorePos{}
	}
	patternRow := (row%s.RowsPerPattern + s.RowsPerPattern) % s.RowsPerPattern
	orderRow := (row - patternRow) / s.RowsPerPattern
	return ScorePos{OrderRow: orderRow, PatternRow: patternRow}
}

func (s *Score) Row(pos ScorePos) int {
	return pos.OrderRow*s.RowsPerPattern + pos.PatternRow
}

// LengthInRows returns RowsPerPattern * len(Order).
func (s *Score) LengthInRows() int {
	return s.RowsPerPattern * len(s.Order)
}

// Note returns the note at pos. Positions outside the score, or pointing
// to missing patterns, hold.
func (s *Score) Note(pos ScorePos) byte {
	pat := s.Order.Get(pos.OrderRow)
	if pat < 0 || pat >= len(s.Patterns) {
		return NoteHold
	}
	return s.Patterns[pat].Get(pos.PatternRow)
}

// SetNote sets the note at pos. If the order row has no pattern yet, a new
// pattern is appended for it.
func (s *Score) SetNote(pos ScorePos, note byte) {
	if pos.OrderRow < 0 || pos.PatternRow < 0 {
		return
	}
	pat := s.Order.Get(pos.OrderRow)
	if pat < 0 || pat >= len(s.Patterns) {
		pat = len(s.Patterns)
		s.Patterns = append(s.Patterns, nil)
		s.Order.Set(pos.OrderRow, pat)
	}
	s.Patterns[pat].Set(pos.PatternRow, note)
}

// Copy makes a deep copy of a Score.
func (s Score) Copy() Score {
	patterns := make([]Pattern, len(s.Patterns))
	for i, p := range s.Patterns {
		patterns[i] = slices.Clone(p)
	}
	s.Order = slices.Clone(s.Order)
	s.Patterns = patterns
	return s
}

func (s *Score) Validate() error {
	if s.RowsPerPattern <= 0 {
		return errors.New("score: RowsPerPattern should be positive")
	}
	if s.RowsPerBeat <= 0 {
		return errors.New("score: RowsPerBeat should be positive")
	}
	for i, p := range s.Patterns {
		for j, n := range p {
			if n > 127 {
				return fmt.Errorf("score: pattern %d row %d: note %d out of range", i, j, n)
			}
		}
	}
	return nil
}
