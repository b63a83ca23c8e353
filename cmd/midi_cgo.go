//go:build cgo

package cmd

import (
	"github.com/vsariola/groove/player"
	"github.com/vsariola/groove/player/gomidi"
)

func NewMidiContext(sampleRate int) player.MIDIContext {
	return gomidi.NewContext(sampleRate)
}
