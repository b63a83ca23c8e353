package entities

import (
	"github.com/vsariola/groove"
	"github.com/vsariola/groove/generators"
	"github.com/vsariola/groove/voices"
	"gitlab.com/gomidi/midi/v2"
)

const (
	SynthWaveform = iota
	SynthVoices
	SynthStrategy
	SynthAttack
	SynthDecay
	SynthSustain
	SynthRelease
	SynthPan
	SynthGain
	SynthTune
	SynthSubRatio
	SynthSync
)

const (
	StrategyReuse = 0
	StrategySteal = 1
)

var synthParams = []groove.ParamSpec{
	SynthWaveform: {Name: "waveform", Min: 0, Max: float64(generators.DebugMin)},
	SynthVoices:   {Name: "voices", Min: 1, Max: 64},
	SynthStrategy: {Name: "strategy", Min: StrategyReuse, Max: StrategySteal},
	SynthAttack:   {Name: "attack", Min: 0, Max: 10},
	SynthDecay:    {Name: "decay", Min: 0, Max: 10},
	SynthSustain:  {Name: "sustain", Min: 0, Max: 1},
	SynthRelease:  {Name: "release", Min: 0, Max: 10},
	SynthPan:      {Name: "pan", Min: -1, Max: 1, Bipolar: true},
	SynthGain:     {Name: "gain", Min: 0, Max: 2},
	SynthTune:     {Name: "tune", Min: 0.25, Max: 4},
	SynthSubRatio: {Name: "sub-ratio", Min: 0, Max: 4},
	SynthSync:     {Name: "sync", Min: 0, Max: 1},
}

// Synth is a polyphonic synthesizer. Every voice is an oscillator,
// optionally with a sub-oscillator, shaped by an ADSR envelope.
// Changing the number of voices or the allocation strategy rebuilds the
// voices and silences what was playing.
type Synth struct {
	params
	sampleRate int
	store      voices.Store
	voices     []*voices.SimpleVoice
}

func NewSynth(sampleRate int) *Synth {
	s := &Synth{
		params: newParams(synthParams,
			float64(generators.Sawtooth), 8, StrategySteal,
			0.005, 0.1, 0.7, 0.2,
			0, 1, 1, 0, 0),
		sampleRate: sampleRate,
	}
	s.rebuild()
	return s
}

func (s *Synth) Kind() string { return "synth" }

func (s *Synth) SetParam(index int, value float64) {
	n, strategy := s.intParam(SynthVoices), s.intParam(SynthStrategy)
	if !s.set(index, value) {
		return
	}
	switch index {
	case SynthVoices, SynthStrategy:
		if s.intParam(SynthVoices) != n || s.intParam(SynthStrategy) != strategy {
			s.rebuild()
		}
	case SynthPan:
		s.store.SetPan(s.values[SynthPan])
	default:
		for _, v := range s.voices {
			s.apply(v)
		}
	}
}

func (s *Synth) Reset(sampleRate int) {
	s.sampleRate = sampleRate
	if r, ok := s.store.(groove.Resetter); ok {
		r.Reset(sampleRate)
	}
}

// Store exposes the voice store, mainly for inspection.
func (s *Synth) Store() voices.Store { return s.store }

func (s *Synth) Generate(clock *groove.Clock) groove.StereoSample {
	s.store.Tick()
	return s.store.Value().Scale(s.values[SynthGain])
}

func (s *Synth) HandleMIDI(clock *groove.Clock, channel groove.Channel, msg midi.Message, respond func(groove.Channel, midi.Message)) {
	if key, vel, on, off := noteEvent(msg); on {
		v, err := s.store.Voice(key)
		if err != nil {
			return // out of voices: the note is dropped
		}
		v.NoteOn(key, vel)
		return
	} else if off {
		if v, ok := s.store.Lookup(key); ok {
			v.NoteOff(vel)
		}
		return
	}
	soundOff, notesOff := channelMode(msg)
	for _, v := range s.store.Voices() {
		switch {
		case soundOff:
			v.Shutdown()
		case notesOff && v.IsPlaying():
			v.NoteOff(0)
		}
	}
}

func (s *Synth) rebuild() {
	n := s.intParam(SynthVoices)
	s.voices = make([]*voices.SimpleVoice, n)
	all := make([]voices.Voice, n)
	for i := range s.voices {
		v := voices.NewSimpleVoice(s.sampleRate, generators.None, generators.EnvelopeParams{})
		s.apply(v)
		s.voices[i] = v
		all[i] = v
	}
	if s.intParam(SynthStrategy) == StrategyReuse {
		s.store = voices.NewReuseStore(all)
	} else {
		s.store = voices.NewStealingStore(all)
	}
	s.store.SetPan(s.values[SynthPan])
}

func (s *Synth) apply(v *voices.SimpleVoice) {
	w := generators.Waveform(s.intParam(SynthWaveform))
	v.SetWaveform(w)
	v.Oscillator().SetTune(s.values[SynthTune])
	v.SetEnvelope(generators.EnvelopeParams{
		Attack:  s.values[SynthAttack],
		Decay:   s.values[SynthDecay],
		Sustain: s.values[SynthSustain],
		Release: s.values[SynthRelease],
	})
	v.SetSub(w, s.values[SynthSubRatio], s.values[SynthSync] >= 0.5)
}
