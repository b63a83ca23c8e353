package groove

import (
	"math"

	"gitlab.com/gomidi/midi/v2"
)

type (
	// Uid identifies an entity inside an engine. Uids are handed out by the
	// engine's store and are never reused; 0 is never a valid Uid.
	Uid int

	// Channel is a MIDI channel, 0-15.
	Channel uint8

	// Entity is the minimal contract of every device in a graph. The
	// parameters returned by Params double as the persisted state of the
	// device and as the targets of control links: parameter i is read with
	// Param(i) and written with SetParam(i, v), v in the native range of the
	// parameter.
	Entity interface {
		Kind() string
		Params() []ParamSpec
		Param(index int) float64
		SetParam(index int, value float64)
	}

	// Instrument is an entity that produces audio. Generate advances the
	// instrument by exactly one frame and returns that frame.
	Instrument interface {
		Generate(clock *Clock) StereoSample
	}

	// Effect is an entity that transforms audio. Transform is called once
	// per frame with the sum of everything patched into the effect.
	Effect interface {
		Transform(clock *Clock, input StereoSample) StereoSample
	}

	// MIDIHandler receives MIDI messages. Messages produced while handling
	// (e.g. an arpeggiator restating notes) are passed to respond and routed
	// further by the caller.
	MIDIHandler interface {
		HandleMIDI(clock *Clock, channel Channel, msg midi.Message, respond func(Channel, midi.Message))
	}

	// Controller is an entity that drives other entities. Work is called
	// once per frame, before audio is generated.
	Controller interface {
		Work(clock *Clock, emit Emitter)
	}

	// Emitter collects the output of a Controller. Control values are
	// normalized: [0, 1], or [-1, 1] for bipolar parameters.
	Emitter interface {
		EmitControl(value float64)
		EmitMIDI(channel Channel, msg midi.Message)
	}

	// Resetter is implemented by entities that need to know about sample
	// rate changes.
	Resetter interface {
		Reset(sampleRate int)
	}

	// SampleLoader is implemented by entities that play sample files. The
	// files are persisted with the project by key, e.g. drum pad to path.
	SampleLoader interface {
		LoadSample(key, path string) error
		Samples() map[string]string
	}

	// Scored is implemented by entities that play a Score, e.g. a step
	// sequencer. The score is persisted with the project.
	Scored interface {
		Score() Score
		SetScore(score Score)
	}

	// Tripped is implemented by entities that play an automation Trip. The
	// trip is persisted with the project.
	Tripped interface {
		Trip() Trip
		SetTrip(trip Trip)
	}

	// ParamSpec documents one parameter of an entity.
	ParamSpec struct {
		Name     string
		Min, Max float64
		// Bipolar parameters take control values in [-1, 1] instead of
		// [0, 1].
		Bipolar bool
	}
)

// FromNormal maps a normalized control value into the range of the
// parameter. Values outside the normalized range are clamped.
func (p ParamSpec) FromNormal(v float64) float64 {
	if p.Bipolar {
		v = (v + 1) / 2
	}
	v = math.Max(0, math.Min(1, v))
	return p.Min + v*(p.Max-p.Min)
}

// Clamp limits a native value to the range of the parameter.
func (p ParamSpec) Clamp(v float64) float64 {
	return math.Max(p.Min, math.Min(p.Max, v))
}

// ParamIndex finds the index of the named parameter of e.
func ParamIndex(e Entity, name string) (int, bool) {
	for i, p := range e.Params() {
		if p.Name == name {
			return i, true
		}
	}
	return -1, false
}

// NoteToFrequency converts a MIDI key to Hz, A4 (69) = 440 Hz.
func NoteToFrequency(key uint8) float64 {
	return 440 * math.Pow(2, (float64(key)-69)/12)
}
