package player

import "strings"

type (
	// MIDIContext is a source of MIDI input for the player, e.g. the
	// hardware ports of the machine.
	MIDIContext interface {
		ProcessContext
		Inputs(yield func(input MIDIInputDevice) bool)
		Close()
		Support() MIDISupport
	}

	MIDIInputDevice interface {
		Open() error
		Close() error
		IsOpen() bool
		String() string
	}

	MIDISupport int
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

func (s MIDISupport) String() string {
	switch s {
	case MIDISupportNotCompiled:
		return "not compiled"
	case MIDISupportNoDriver:
		return "no driver"
	case MIDISupported:
		return "supported"
	}
	return "unknown"
}

// OpenInput opens the first input whose name starts with prefix, or the
// first input at all if prefix is empty. It returns the opened device.
func OpenInput(c MIDIContext, prefix string) (MIDIInputDevice, bool) {
	for input := range c.Inputs {
		if strings.HasPrefix(input.String(), prefix) {
			if err := input.Open(); err != nil {
				return nil, false
			}
			return input, true
		}
	}
	return nil, false
}

// NullMIDIContext is a MIDIContext without any inputs, used when the
// program is built without MIDI support.
type NullMIDIContext struct{ NullContext }

func (m NullMIDIContext) Inputs(yield func(input MIDIInputDevice) bool) {}
func (m NullMIDIContext) Close()                                        {}
func (m NullMIDIContext) Support() MIDISupport                          { return MIDISupportNotCompiled }
