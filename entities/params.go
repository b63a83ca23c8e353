package entities

import (
	"math"

	"github.com/vsariola/groove"
	"gitlab.com/gomidi/midi/v2"
)

// params stores the parameter values of a device, clamped to their specs.
// Devices embed it for Params and Param and implement SetParam on top of
// set.
type params struct {
	specs  []groove.ParamSpec
	values []float64
}

func newParams(specs []groove.ParamSpec, defaults ...float64) params {
	values := make([]float64, len(specs))
	copy(values, defaults)
	return params{specs: specs, values: values}
}

func (p *params) Params() []groove.ParamSpec { return p.specs }

func (p *params) Param(index int) float64 {
	if index < 0 || index >= len(p.values) {
		return 0
	}
	return p.values[index]
}

// set stores the clamped value and reports whether it changed.
func (p *params) set(index int, value float64) bool {
	if index < 0 || index >= len(p.values) {
		return false
	}
	v := p.specs[index].Clamp(value)
	if v == p.values[index] {
		return false
	}
	p.values[index] = v
	return true
}

func (p *params) intParam(index int) int {
	return int(math.Round(p.values[index]))
}

// noteEvent classifies msg as a note start or a note end. A note on with
// zero velocity ends the note.
func noteEvent(msg midi.Message) (key, velocity uint8, on, off bool) {
	var ch uint8
	if msg.GetNoteOn(&ch, &key, &velocity) {
		if velocity > 0 {
			return key, velocity, true, false
		}
		return key, 0, false, true
	}
	if msg.GetNoteOff(&ch, &key, &velocity) {
		return key, velocity, false, true
	}
	return 0, 0, false, false
}

const (
	ccAllSoundOff = 120
	ccAllNotesOff = 123
)

// channelMode reports the channel mode controllers that silence voices.
func channelMode(msg midi.Message) (soundOff, notesOff bool) {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		return false, false
	}
	return cc == ccAllSoundOff, cc == ccAllNotesOff
}
