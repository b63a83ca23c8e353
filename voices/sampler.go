package voices

import (
	"math"

	"github.com/vsariola/groove"
	"github.com/vsariola/groove/generators"
)

// SamplerVoice plays a sample once from the start on every NoteOn. Samples
// recorded at another rate are resampled with linear interpolation.
type SamplerVoice struct {
	data       []groove.StereoSample
	dataRate   int
	sampleRate int

	pos     float64
	step    float64
	playing bool
	gain    float64
	pan     float64

	fade, fadeLength int
	value            groove.StereoSample
}

func NewSamplerVoice(sampleRate int, data []groove.StereoSample, dataRate int) *SamplerVoice {
	v := &SamplerVoice{data: data, dataRate: dataRate, gain: 1}
	v.Reset(sampleRate)
	return v
}

func (v *SamplerVoice) Reset(sampleRate int) {
	v.sampleRate = sampleRate
	v.step = 1
	if v.dataRate > 0 && sampleRate > 0 {
		v.step = float64(v.dataRate) / float64(sampleRate)
	}
	v.fadeLength = max(1, int(generators.ShutdownSeconds*float64(sampleRate)))
}

// Len returns the length of the sample in frames at its own rate.
func (v *SamplerVoice) Len() int { return len(v.data) }

func (v *SamplerVoice) IsPlaying() bool { return v.playing }

func (v *SamplerVoice) NoteOn(key, velocity uint8) {
	v.pos = 0
	v.fade = 0
	v.gain = float64(velocity) / 127
	v.playing = len(v.data) > 0
}

// NoteOff is ignored: the sample plays to its end.
func (v *SamplerVoice) NoteOff(velocity uint8) {}

func (v *SamplerVoice) Shutdown() {
	if v.playing && v.fade == 0 {
		v.fade = v.fadeLength
	}
}

func (v *SamplerVoice) SetPan(pan float64) {
	v.pan = math.Max(-1, math.Min(1, pan))
}

func (v *SamplerVoice) Tick() {
	if !v.playing {
		v.value = groove.Silence
		return
	}
	i := int(v.pos)
	frac := v.pos - float64(i)
	s := v.data[i]
	if frac > 0 && i+1 < len(v.data) {
		s = s.Scale(1 - frac).Add(v.data[i+1].Scale(frac))
	}
	g := v.gain
	if v.fade > 0 {
		g *= float64(v.fade) / float64(v.fadeLength)
		if v.fade--; v.fade == 0 {
			v.playing = false
		}
	}
	v.value = groove.StereoSample{
		Left:  s.Left * g * math.Min(1, 1-v.pan),
		Right: s.Right * g * math.Min(1, 1+v.pan),
	}
	v.pos += v.step
	if int(v.pos) >= len(v.data) {
		v.playing = false
	}
}

func (v *SamplerVoice) Value() groove.StereoSample { return v.value }
