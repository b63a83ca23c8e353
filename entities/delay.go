package entities

import (
	"github.com/vsariola/groove"
)

const (
	DelaySeconds = iota
	DelayFeedback
	DelayWet
)

var delayParams = []groove.ParamSpec{
	DelaySeconds:  {Name: "seconds", Min: 0, Max: 5},
	DelayFeedback: {Name: "feedback", Min: 0, Max: 0.99},
	DelayWet:      {Name: "wet", Min: 0, Max: 1},
}

// Delay plays its input back after a number of seconds. With feedback the
// delayed signal recirculates into the line, decaying by the feedback
// factor on every pass. Wet mixes the delayed signal with the dry input;
// the default is fully wet. A zero delay passes the input through.
type Delay struct {
	params
	sampleRate int
	left       delayLine
	right      delayLine
}

func NewDelay(sampleRate int) *Delay {
	d := &Delay{params: newParams(delayParams, 0.5, 0, 1), sampleRate: sampleRate}
	d.resize()
	return d
}

func (d *Delay) Kind() string { return "delay" }

func (d *Delay) SetParam(index int, value float64) {
	if d.set(index, value) && index == DelaySeconds {
		d.resize()
	}
}

func (d *Delay) Reset(sampleRate int) {
	d.sampleRate = sampleRate
	d.left.buf, d.right.buf = nil, nil
	d.resize()
}

// resize keeps the lines when the length in frames stays the same.
func (d *Delay) resize() {
	n := int(d.values[DelaySeconds] * float64(d.sampleRate))
	d.left.resize(n)
	d.right.resize(n)
}

func (d *Delay) Transform(clock *groove.Clock, input groove.StereoSample) groove.StereoSample {
	if len(d.left.buf) == 0 {
		return input
	}
	fb, wet := d.values[DelayFeedback], d.values[DelayWet]
	l := d.left.pop(input.Left, fb)
	r := d.right.pop(input.Right, fb)
	return groove.StereoSample{
		Left:  input.Left*(1-wet) + l*wet,
		Right: input.Right*(1-wet) + r*wet,
	}
}

type delayLine struct {
	buf []float64
	pos int
}

func (l *delayLine) resize(n int) {
	if n == len(l.buf) {
		return
	}
	l.buf = make([]float64, n)
	l.pos = 0
}

// pop returns the delayed sample and stores the input, plus the delayed
// sample scaled by feedback, in its place.
func (l *delayLine) pop(input, feedback float64) float64 {
	out := l.buf[l.pos]
	l.buf[l.pos] = input + out*feedback
	l.pos++
	if l.pos == len(l.buf) {
		l.pos = 0
	}
	return out
}
