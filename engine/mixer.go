package engine

import "github.com/vsariola/groove"

var mixerParams = []groove.ParamSpec{{Name: "gain", Min: 0, Max: 2}}

// Mixer is the root of every graph: the sum of everything patched into it,
// scaled by its gain.
type Mixer struct {
	gain float64
}

func NewMixer() *Mixer {
	return &Mixer{gain: 1}
}

func (m *Mixer) Kind() string                  { return "mixer" }
func (m *Mixer) Params() []groove.ParamSpec    { return mixerParams }
func (m *Mixer) Param(index int) float64       { return m.gain }
func (m *Mixer) SetParam(index int, v float64) { m.gain = mixerParams[0].Clamp(v) }
func (m *Mixer) Gain() float64                 { return m.gain }
func (m *Mixer) SetGain(v float64)             { m.SetParam(0, v) }

func (m *Mixer) Transform(clock *groove.Clock, input groove.StereoSample) groove.StereoSample {
	return input.Scale(m.gain)
}
