package entities

import (
	"github.com/vsariola/groove"
	"github.com/vsariola/groove/generators"
)

const (
	LFOWaveform = iota
	LFOFrequency
)

var lfoParams = []groove.ParamSpec{
	LFOWaveform:  {Name: "waveform", Min: 0, Max: float64(generators.DebugMin)},
	LFOFrequency: {Name: "frequency", Min: 0.01, Max: 100},
}

// LFO emits the value of a slow oscillator, mapped to [0, 1], as a control
// signal every frame.
type LFO struct {
	params
	osc *generators.Oscillator
}

func NewLFO(sampleRate int) *LFO {
	l := &LFO{
		params: newParams(lfoParams, float64(generators.Sine), 1),
		osc:    generators.NewOscillator(sampleRate, generators.Sine),
	}
	l.osc.SetFrequency(1)
	return l
}

func (l *LFO) Kind() string { return "lfo" }

func (l *LFO) SetParam(index int, value float64) {
	if !l.set(index, value) {
		return
	}
	switch index {
	case LFOWaveform:
		l.osc.SetWaveform(generators.Waveform(l.intParam(LFOWaveform)))
	case LFOFrequency:
		l.osc.SetFrequency(l.values[LFOFrequency])
	}
}

func (l *LFO) Reset(sampleRate int) {
	l.osc.Reset(sampleRate)
}

func (l *LFO) Work(clock *groove.Clock, emit groove.Emitter) {
	l.osc.Tick()
	emit.EmitControl((l.osc.Value() + 1) / 2)
}
