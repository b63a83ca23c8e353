package voices

import (
	"math"

	"github.com/vsariola/groove"
	"github.com/vsariola/groove/generators"
)

// Voice sounds exactly one note at a time.
type Voice interface {
	Tick()
	Value() groove.StereoSample
	IsPlaying() bool
	NoteOn(key, velocity uint8)
	NoteOff(velocity uint8)
	// Shutdown ramps the voice to silence quickly, e.g. when it is stolen.
	Shutdown()
	SetPan(pan float64)
}

type pendingNote struct {
	key, velocity uint8
	set           bool
}

// SimpleVoice is an oscillator shaped by an envelope. An optional
// sub-oscillator, tuned at a ratio of the main one, can be hard synced to
// it. A NoteOn while the voice is still sounding ramps it down through the
// envelope's shutdown state before the new note starts.
type SimpleVoice struct {
	osc *generators.Oscillator
	sub *generators.Oscillator
	env *generators.Envelope

	subRatio float64
	hardSync bool
	pan      float64
	gain     float64
	key      uint8

	pending pendingNote
	value   groove.StereoSample
}

func NewSimpleVoice(sampleRate int, waveform generators.Waveform, env generators.EnvelopeParams) *SimpleVoice {
	return &SimpleVoice{
		osc:  generators.NewOscillator(sampleRate, waveform),
		env:  generators.NewEnvelope(sampleRate, env),
		gain: 1,
	}
}

// SetSub adds (ratio > 0) or removes (ratio <= 0) the sub-oscillator.
func (v *SimpleVoice) SetSub(waveform generators.Waveform, ratio float64, hardSync bool) {
	if ratio <= 0 {
		v.sub = nil
		return
	}
	if v.sub == nil {
		v.sub = generators.NewOscillator(v.osc.SampleRate(), waveform)
	}
	v.sub.SetWaveform(waveform)
	v.subRatio = ratio
	v.hardSync = hardSync
	v.sub.SetFrequency(v.osc.Frequency() * ratio)
}

func (v *SimpleVoice) SetWaveform(w generators.Waveform) { v.osc.SetWaveform(w) }
func (v *SimpleVoice) SetEnvelope(p generators.EnvelopeParams) {
	v.env.SetParams(p)
}
func (v *SimpleVoice) Envelope() *generators.Envelope     { return v.env }
func (v *SimpleVoice) Oscillator() *generators.Oscillator { return v.osc }
func (v *SimpleVoice) Key() uint8                         { return v.key }

func (v *SimpleVoice) SetPan(pan float64) {
	v.pan = math.Max(-1, math.Min(1, pan))
}

func (v *SimpleVoice) IsPlaying() bool {
	return !v.env.IsIdle() || v.pending.set
}

func (v *SimpleVoice) NoteOn(key, velocity uint8) {
	if !v.env.IsIdle() {
		v.pending = pendingNote{key: key, velocity: velocity, set: true}
		v.env.TriggerShutdown()
		return
	}
	v.start(key, velocity)
}

func (v *SimpleVoice) NoteOff(velocity uint8) {
	if v.pending.set {
		// released before the stolen voice finished its ramp; the note never
		// starts
		v.pending = pendingNote{}
		return
	}
	v.env.TriggerRelease()
}

// Shutdown also drops a note waiting for the voice to become free.
func (v *SimpleVoice) Shutdown() {
	v.pending = pendingNote{}
	v.env.TriggerShutdown()
}

func (v *SimpleVoice) Reset(sampleRate int) {
	v.osc.Reset(sampleRate)
	if v.sub != nil {
		v.sub.Reset(sampleRate)
	}
	v.env.Reset(sampleRate)
}

func (v *SimpleVoice) start(key, velocity uint8) {
	v.key = key
	v.gain = float64(velocity) / 127
	f := groove.NoteToFrequency(key)
	v.osc.SetFrequency(f)
	if v.sub != nil {
		v.sub.SetFrequency(f * v.subRatio)
	}
	v.env.TriggerAttack()
}

func (v *SimpleVoice) Tick() {
	if v.pending.set && v.env.IsIdle() {
		p := v.pending
		v.pending = pendingNote{}
		v.start(p.key, p.velocity)
	}
	v.osc.Tick()
	s := v.osc.Value()
	if v.sub != nil {
		if v.hardSync && v.osc.ShouldSync() {
			v.sub.Sync()
		}
		v.sub.Tick()
		s = (s + v.sub.Value()) / 2
	}
	s *= v.env.Tick() * v.gain
	v.value = groove.StereoSample{
		Left:  s * math.Min(1, 1-v.pan),
		Right: s * math.Min(1, 1+v.pan),
	}
}

func (v *SimpleVoice) Value() groove.StereoSample {
	return v.value
}
