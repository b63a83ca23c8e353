package entities

import (
	"math"

	"github.com/vsariola/groove"
)

type FilterType int

const (
	LowPass FilterType = iota
	HighPass
	BandPass
	Notch
	AllPass
)

const (
	FilterResponse = iota
	FilterCutoff
	FilterQ
)

var filterParams = []groove.ParamSpec{
	FilterResponse: {Name: "type", Min: 0, Max: float64(AllPass)},
	FilterCutoff:   {Name: "cutoff", Min: 20, Max: 20000},
	FilterQ:        {Name: "q", Min: 0.1, Max: 20},
}

// Filter is a 12 dB/octave biquad filter. The coefficients follow the RBJ
// audio EQ cookbook and are recomputed whenever a parameter changes. The
// cutoff is kept below the Nyquist frequency of the sample rate.
type Filter struct {
	params
	sampleRate  int
	b0, b1, b2  float64
	a1, a2      float64
	left, right biquadState
}

type biquadState struct {
	x1, x2, y1, y2 float64
}

func NewFilter(sampleRate int) *Filter {
	f := &Filter{
		params:     newParams(filterParams, float64(LowPass), 1000, math.Sqrt2/2),
		sampleRate: sampleRate,
	}
	f.update()
	return f
}

func (f *Filter) Kind() string { return "filter" }

func (f *Filter) SetParam(index int, value float64) {
	if !f.set(index, value) {
		return
	}
	if index == FilterResponse {
		f.values[index] = math.Round(f.values[index])
	}
	f.update()
}

func (f *Filter) Reset(sampleRate int) {
	f.sampleRate = sampleRate
	f.left, f.right = biquadState{}, biquadState{}
	f.update()
}

func (f *Filter) update() {
	cutoff := math.Min(f.values[FilterCutoff], 0.49*float64(f.sampleRate))
	w0 := 2 * math.Pi * cutoff / float64(f.sampleRate)
	cos, sin := math.Cos(w0), math.Sin(w0)
	alpha := sin / (2 * f.values[FilterQ])
	var b0, b1, b2 float64
	switch FilterType(f.intParam(FilterResponse)) {
	case LowPass:
		b0, b1, b2 = (1-cos)/2, 1-cos, (1-cos)/2
	case HighPass:
		b0, b1, b2 = (1+cos)/2, -(1 + cos), (1+cos)/2
	case BandPass:
		b0, b1, b2 = alpha, 0, -alpha
	case Notch:
		b0, b1, b2 = 1, -2*cos, 1
	case AllPass:
		b0, b1, b2 = 1-alpha, -2*cos, 1+alpha
	}
	a0 := 1 + alpha
	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = -2*cos/a0, (1-alpha)/a0
}

func (f *Filter) Transform(clock *groove.Clock, input groove.StereoSample) groove.StereoSample {
	return groove.StereoSample{Left: f.tick(&f.left, input.Left), Right: f.tick(&f.right, input.Right)}
}

func (f *Filter) tick(s *biquadState, x float64) float64 {
	y := f.b0*x + f.b1*s.x1 + f.b2*s.x2 - f.a1*s.y1 - f.a2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}
