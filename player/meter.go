package player

import (
	"math"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/groove"
)

type (
	// Decibel is a level relative to full scale.
	Decibel float32

	// Level is the peak and RMS level of the last block, per channel.
	Level struct {
		Peak [2]Decibel
		RMS  [2]Decibel
	}

	// Meter measures the blocks the player renders. It reuses its
	// scratch buffers between blocks.
	Meter struct {
		level    Level
		channels [2][]float32
	}
)

// Silent is the floor reported for digital silence.
const Silent Decibel = -120

func (m *Meter) Level() Level { return m.level }

// Update measures buf and returns the new level.
func (m *Meter) Update(buf groove.AudioBuffer) Level {
	n := buf.Frames()
	for c := range m.channels {
		if cap(m.channels[c]) < n {
			m.channels[c] = make([]float32, n)
		}
		m.channels[c] = m.channels[c][:n]
	}
	for i := range n {
		m.channels[0][i] = buf[2*i]
		m.channels[1][i] = buf[2*i+1]
	}
	for c, x := range m.channels {
		if n == 0 {
			m.level.Peak[c], m.level.RMS[c] = Silent, Silent
			continue
		}
		power := vek32.Dot(x, x) / float32(n)
		vek32.Abs_Inplace(x)
		m.level.Peak[c] = amplitudeToDecibel(vek32.Max(x))
		m.level.RMS[c] = amplitudeToDecibel(float32(math.Sqrt(float64(power))))
	}
	return m.level
}

func amplitudeToDecibel(a float32) Decibel {
	if a <= 0 {
		return Silent
	}
	return max(Decibel(20*math.Log10(float64(a))), Silent)
}
