package entities

import (
	"github.com/vsariola/groove"
	"gitlab.com/gomidi/midi/v2"
)

const (
	SequencerChannel = iota
	SequencerVelocity
	SequencerLoop
)

var sequencerParams = []groove.ParamSpec{
	SequencerChannel:  {Name: "channel", Min: 0, Max: 15},
	SequencerVelocity: {Name: "velocity", Min: 1, Max: 127},
	SequencerLoop:     {Name: "loop", Min: 0, Max: 1},
}

// Sequencer plays its score row by row on its output channel, RowsPerBeat
// rows per beat of the clock. After the last row it releases the sounding
// note, or starts over if loop is set.
type Sequencer struct {
	params
	score   groove.Score
	row     int
	key     uint8
	keyOn   bool
	channel groove.Channel
}

func NewSequencer(sampleRate int) *Sequencer {
	return &Sequencer{
		params: newParams(sequencerParams, 0, 100, 0),
		score:  groove.Score{RowsPerPattern: 16, RowsPerBeat: 4},
		row:    -1,
	}
}

func (s *Sequencer) Kind() string                      { return "sequencer" }
func (s *Sequencer) SetParam(index int, value float64) { s.set(index, value) }
func (s *Sequencer) Score() groove.Score               { return s.score.Copy() }

// SetScore replaces the score. The row at the current position is played
// again on the next frame.
func (s *Sequencer) SetScore(score groove.Score) {
	s.score = score.Copy()
	s.row = -1
}

func (s *Sequencer) Work(clock *groove.Clock, emit groove.Emitter) {
	row := int(clock.Beats() * float64(max(s.score.RowsPerBeat, 1)))
	if row == s.row {
		return
	}
	s.row = row
	length := s.score.LengthInRows()
	if length == 0 {
		return
	}
	if row >= length {
		if s.intParam(SequencerLoop) == 0 {
			s.release(emit)
			return
		}
		row %= length
	}
	switch n := s.score.Note(s.score.Pos(row)); {
	case n == groove.NoteRelease:
		s.release(emit)
	case n > groove.NoteHold:
		s.release(emit)
		s.channel = groove.Channel(s.intParam(SequencerChannel))
		s.key, s.keyOn = n&127, true
		emit.EmitMIDI(s.channel, midi.NoteOn(uint8(s.channel), s.key, uint8(s.intParam(SequencerVelocity))))
	}
}

func (s *Sequencer) release(emit groove.Emitter) {
	if s.keyOn {
		emit.EmitMIDI(s.channel, midi.NoteOff(uint8(s.channel), s.key))
		s.keyOn = false
	}
}
