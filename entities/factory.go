package entities

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/vsariola/groove"
)

var ErrUnknownKind = errors.New("unknown device kind")

var constructors = map[string]func(sampleRate int) groove.Entity{
	"synth":          func(sr int) groove.Entity { return NewSynth(sr) },
	"drumkit":        func(sr int) groove.Entity { return NewDrumkit(sr) },
	"gain":           func(sr int) groove.Entity { return NewGain(sr) },
	"bitcrusher":     func(sr int) groove.Entity { return NewBitcrusher(sr) },
	"limiter":        func(sr int) groove.Entity { return NewLimiter(sr) },
	"delay":          func(sr int) groove.Entity { return NewDelay(sr) },
	"filter":         func(sr int) groove.Entity { return NewFilter(sr) },
	"control-trip":   func(sr int) groove.Entity { return NewControlTrip(sr) },
	"arpeggiator":    func(sr int) groove.Entity { return NewArpeggiator(sr) },
	"lfo":            func(sr int) groove.Entity { return NewLFO(sr) },
	"sequencer":      func(sr int) groove.Entity { return NewSequencer(sr) },
	"toy-instrument": func(sr int) groove.Entity { return NewToyInstrument(sr) },
	"toy-effect":     func(sr int) groove.Entity { return NewToyEffect(sr) },
	"toy-echo":       func(sr int) groove.Entity { return NewToyEcho(sr) },
}

// Factory builds the devices of this package by kind.
type Factory struct{}

func (Factory) New(kind string, sampleRate int) (groove.Entity, error) {
	c, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	if sampleRate <= 0 {
		sampleRate = groove.DefaultSampleRate
	}
	return c(sampleRate), nil
}

// Kinds lists the kinds the factory knows, sorted.
func Kinds() []string {
	return slices.Sorted(maps.Keys(constructors))
}
