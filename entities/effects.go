package entities

import (
	"math"

	"github.com/vsariola/groove"
)

var gainParams = []groove.ParamSpec{{Name: "ceiling", Min: 0, Max: 1}}

// Gain scales its input by the ceiling.
type Gain struct {
	params
}

func NewGain(sampleRate int) *Gain {
	return &Gain{params: newParams(gainParams, 1)}
}

func (g *Gain) Kind() string                      { return "gain" }
func (g *Gain) SetParam(index int, value float64) { g.set(index, value) }

func (g *Gain) Transform(clock *groove.Clock, input groove.StereoSample) groove.StereoSample {
	return input.Scale(g.values[0])
}

var bitcrusherParams = []groove.ParamSpec{{Name: "bits", Min: 0, Max: 15}}

// Bitcrusher quantizes its input to 16 bits and then throws away the
// lowest bits.
type Bitcrusher struct {
	params
}

func NewBitcrusher(sampleRate int) *Bitcrusher {
	return &Bitcrusher{params: newParams(bitcrusherParams, 8)}
}

func (b *Bitcrusher) Kind() string { return "bitcrusher" }

func (b *Bitcrusher) SetParam(index int, value float64) {
	if b.set(index, value) {
		b.values[index] = math.Round(b.values[index])
	}
}

func (b *Bitcrusher) Transform(clock *groove.Clock, input groove.StereoSample) groove.StereoSample {
	bits := b.intParam(0)
	return groove.StereoSample{Left: crush(input.Left, bits), Right: crush(input.Right, bits)}
}

func crush(v float64, bits int) float64 {
	sign := 1.0
	if v < 0 {
		sign = -1
	}
	i := int16(math.Min(math.Abs(v), 1) * math.MaxInt16)
	i = i >> bits << bits
	return float64(i) / math.MaxInt16 * sign
}

const (
	LimiterMinimum = iota
	LimiterMaximum
)

var limiterParams = []groove.ParamSpec{
	LimiterMinimum: {Name: "minimum", Min: 0, Max: 1},
	LimiterMaximum: {Name: "maximum", Min: 0, Max: 1},
}

// Limiter clamps the magnitude of its input into [minimum, maximum],
// keeping the sign. Silence stays silent. If the bounds cross, maximum
// wins.
type Limiter struct {
	params
}

func NewLimiter(sampleRate int) *Limiter {
	return &Limiter{params: newParams(limiterParams, 0, 1)}
}

func (l *Limiter) Kind() string                      { return "limiter" }
func (l *Limiter) SetParam(index int, value float64) { l.set(index, value) }

func (l *Limiter) Transform(clock *groove.Clock, input groove.StereoSample) groove.StereoSample {
	return groove.StereoSample{Left: l.limit(input.Left), Right: l.limit(input.Right)}
}

func (l *Limiter) limit(v float64) float64 {
	if v == 0 {
		return 0
	}
	m := math.Min(math.Max(math.Abs(v), l.values[LimiterMinimum]), l.values[LimiterMaximum])
	return math.Copysign(m, v)
}
