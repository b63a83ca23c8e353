package entities

import (
	"github.com/vsariola/groove"
	"gitlab.com/gomidi/midi/v2"
)

// Toy devices have outputs that are easy to compute by hand.

var toyInstrumentParams = []groove.ParamSpec{{Name: "level", Min: -1, Max: 1, Bipolar: true}}

// ToyInstrument outputs a constant level and counts the MIDI messages it
// receives.
type ToyInstrument struct {
	params
	received int
}

func NewToyInstrument(sampleRate int) *ToyInstrument {
	return &ToyInstrument{params: newParams(toyInstrumentParams, 0.5)}
}

func (t *ToyInstrument) Kind() string                      { return "toy-instrument" }
func (t *ToyInstrument) SetParam(index int, value float64) { t.set(index, value) }
func (t *ToyInstrument) Received() int                     { return t.received }

func (t *ToyInstrument) Generate(clock *groove.Clock) groove.StereoSample {
	return groove.Mono(t.values[0])
}

func (t *ToyInstrument) HandleMIDI(clock *groove.Clock, channel groove.Channel, msg midi.Message, respond func(groove.Channel, midi.Message)) {
	t.received++
}

var toyEffectParams = []groove.ParamSpec{{Name: "scale", Min: -2, Max: 2}}

// ToyEffect multiplies its input by scale.
type ToyEffect struct {
	params
}

func NewToyEffect(sampleRate int) *ToyEffect {
	return &ToyEffect{params: newParams(toyEffectParams, 1)}
}

func (t *ToyEffect) Kind() string                      { return "toy-effect" }
func (t *ToyEffect) SetParam(index int, value float64) { t.set(index, value) }

func (t *ToyEffect) Transform(clock *groove.Clock, input groove.StereoSample) groove.StereoSample {
	return input.Scale(t.values[0])
}

var toyEchoParams = []groove.ParamSpec{{Name: "channel", Min: 0, Max: 15}}

// ToyEcho restates every message it receives on its output channel.
type ToyEcho struct {
	params
	received int
}

func NewToyEcho(sampleRate int) *ToyEcho {
	return &ToyEcho{params: newParams(toyEchoParams, 1)}
}

func (t *ToyEcho) Kind() string                      { return "toy-echo" }
func (t *ToyEcho) SetParam(index int, value float64) { t.set(index, value) }
func (t *ToyEcho) Received() int                     { return t.received }

func (t *ToyEcho) HandleMIDI(clock *groove.Clock, channel groove.Channel, msg midi.Message, respond func(groove.Channel, midi.Message)) {
	t.received++
	respond(groove.Channel(t.intParam(0)), msg)
}
