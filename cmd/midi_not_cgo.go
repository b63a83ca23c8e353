//go:build !cgo

package cmd

import (
	"github.com/vsariola/groove/player"
)

func NewMidiContext(sampleRate int) player.MIDIContext {
	// with no cgo, we cannot use MIDI, so return a null context
	return player.NullMIDIContext{}
}
