package entities

import (
	"github.com/vsariola/groove"
	"gitlab.com/gomidi/midi/v2"
)

const (
	ArpeggiatorChannel = iota
	ArpeggiatorRate
)

var arpeggiatorParams = []groove.ParamSpec{
	ArpeggiatorChannel: {Name: "channel", Min: 0, Max: 15},
	ArpeggiatorRate:    {Name: "rate", Min: 1.0 / 16, Max: 4},
}

// major scale, in semitones above the held key
var arpeggio = [...]uint8{0, 2, 4, 5, 7, 9, 11}

// Arpeggiator plays a major scale upwards from the held key, one note every
// rate beats, on its output channel. Overlapping held notes keep it running
// until the last one is released; the newest note sets the root.
type Arpeggiator struct {
	params
	held     int
	root     uint8
	velocity uint8
	start    int
	next     int

	sounding    bool
	soundingKey uint8
}

func NewArpeggiator(sampleRate int) *Arpeggiator {
	return &Arpeggiator{params: newParams(arpeggiatorParams, 1, 0.25)}
}

func (a *Arpeggiator) Kind() string { return "arpeggiator" }

func (a *Arpeggiator) SetParam(index int, value float64) {
	a.set(index, value)
}

func (a *Arpeggiator) channel() groove.Channel {
	return groove.Channel(a.intParam(ArpeggiatorChannel))
}

func (a *Arpeggiator) HandleMIDI(clock *groove.Clock, channel groove.Channel, msg midi.Message, respond func(groove.Channel, midi.Message)) {
	key, vel, on, off := noteEvent(msg)
	switch {
	case on:
		a.held++
		a.root, a.velocity = key, vel
		a.start = clock.Frames
		a.next = 0
	case off:
		a.held = max(a.held-1, 0)
	}
}

func (a *Arpeggiator) Work(clock *groove.Clock, emit groove.Emitter) {
	ch := a.channel()
	if a.held == 0 {
		if a.sounding {
			emit.EmitMIDI(ch, midi.NoteOff(uint8(ch), a.soundingKey))
			a.sounding = false
		}
		return
	}
	stepFrames := a.values[ArpeggiatorRate] * clock.FramesPerBeat()
	step := int(float64(clock.Frames-a.start) / stepFrames)
	if step < a.next {
		return
	}
	if a.sounding {
		emit.EmitMIDI(ch, midi.NoteOff(uint8(ch), a.soundingKey))
	}
	key := min(int(a.root)+int(arpeggio[step%len(arpeggio)]), 127)
	a.soundingKey = uint8(key)
	a.sounding = true
	emit.EmitMIDI(ch, midi.NoteOn(uint8(ch), a.soundingKey, a.velocity))
	a.next = step + 1
}
