package generators

import (
	"fmt"
	"math"
)

type Waveform int

const (
	None Waveform = iota
	Sine
	Square
	PulseWidth
	Triangle
	Sawtooth
	Noise
	DebugZero
	DebugMax
	DebugMin
)

var waveformNames = [...]string{"none", "sine", "square", "pulse", "triangle", "sawtooth", "noise", "debug-zero", "debug-max", "debug-min"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform is the inverse of Waveform.String.
func ParseWaveform(s string) (Waveform, error) {
	for i, n := range waveformNames {
		if n == s {
			return Waveform(i), nil
		}
	}
	return None, fmt.Errorf("unknown waveform %q", s)
}

// wrapThreshold is slightly below 1.0 so that a cycle that should end
// exactly on a sample boundary is not pushed one sample late by rounding.
const wrapThreshold = 1.0 - 1e-9

// Oscillator produces one bipolar sample per Tick. The cycle position is
// accumulated from per-sample deltas, never recomputed from a sample count,
// so frequency changes do not cause phase jumps.
type Oscillator struct {
	waveform Waveform
	duty     float64

	frequency      float64
	fixedFrequency float64
	hasFixed       bool
	tune           float64
	fm             float64 // bipolar, exponential
	linearFM       float64

	sampleRate int
	position   kahanSum
	delta      float64
	value      float64

	resetPending bool
	deltaDirty   bool
	shouldSync   bool
	syncPending  bool

	noiseX1, noiseX2 uint32
}

func NewOscillator(sampleRate int, waveform Waveform) *Oscillator {
	return &Oscillator{
		waveform:     waveform,
		duty:         0.5,
		frequency:    440,
		tune:         1,
		sampleRate:   sampleRate,
		resetPending: true,
		noiseX1:      0x70f4f854,
		noiseX2:      0xe1e9f0a7,
	}
}

// Reset must be called when the sample rate changes. The next Tick
// recomputes the phase delta without advancing and raises ShouldSync.
func (o *Oscillator) Reset(sampleRate int) {
	o.sampleRate = sampleRate
	o.resetPending = true
}

func (o *Oscillator) Waveform() Waveform { return o.waveform }
func (o *Oscillator) Frequency() float64 { return o.frequency }
func (o *Oscillator) Tune() float64      { return o.tune }
func (o *Oscillator) FM() float64        { return o.fm }
func (o *Oscillator) Duty() float64      { return o.duty }
func (o *Oscillator) SampleRate() int    { return o.sampleRate }

func (o *Oscillator) SetWaveform(w Waveform) {
	o.waveform = w
}

// SetDuty sets the duty cycle of the PulseWidth waveform, clamped to (0, 1).
func (o *Oscillator) SetDuty(d float64) {
	o.duty = math.Max(1e-3, math.Min(1-1e-3, d))
}

func (o *Oscillator) SetFrequency(f float64) {
	o.frequency = f
	o.deltaDirty = true
}

// SetFixedFrequency makes the oscillator ignore SetFrequency and tune.
func (o *Oscillator) SetFixedFrequency(f float64) {
	o.fixedFrequency = f
	o.hasFixed = true
	o.deltaDirty = true
}

func (o *Oscillator) ClearFixedFrequency() {
	o.hasFixed = false
	o.deltaDirty = true
}

func (o *Oscillator) SetTune(t float64) {
	o.tune = t
	o.deltaDirty = true
}

// SetFM sets the exponential frequency modulation input: +1 doubles the
// frequency, -1 halves it.
func (o *Oscillator) SetFM(v float64) {
	o.fm = v
	o.deltaDirty = true
}

// SetLinearFM sets an offset added to the exponential FM multiplier.
func (o *Oscillator) SetLinearFM(v float64) {
	o.linearFM = v
	o.deltaDirty = true
}

// Sync requests the phase to restart at zero on the next Tick. Used to hard
// sync this oscillator to another one's ShouldSync.
func (o *Oscillator) Sync() {
	o.syncPending = true
}

// ShouldSync reports whether the oscillator started a new cycle on the
// latest Tick.
func (o *Oscillator) ShouldSync() bool {
	return o.shouldSync
}

// AdjustedFrequency is the frequency after tuning and modulation.
func (o *Oscillator) AdjustedFrequency() float64 {
	f := o.frequency * o.tune
	if o.hasFixed {
		f = o.fixedFrequency
	}
	return f * (math.Exp2(o.fm) + o.linearFM)
}

func (o *Oscillator) Value() float64 {
	return o.value
}

func (o *Oscillator) Tick() {
	o.shouldSync = false
	if o.resetPending {
		o.resetPending = false
		o.deltaDirty = false
		o.delta = o.AdjustedFrequency() / float64(o.sampleRate)
		o.position.set(o.position.value())
		o.shouldSync = true
	} else {
		if o.deltaDirty {
			o.deltaDirty = false
			o.delta = o.AdjustedFrequency() / float64(o.sampleRate)
			o.position.set(o.position.value())
		}
		o.position.add(o.delta)
		if o.syncPending {
			o.position.set(0)
		}
		if p := o.position.value(); p >= wrapThreshold {
			o.position.set(p - 1)
			o.shouldSync = true
		}
	}
	o.syncPending = false
	o.value = o.amplitude(o.position.value())
}

func (o *Oscillator) amplitude(p float64) float64 {
	switch o.waveform {
	case Sine:
		return math.Sin(2 * math.Pi * p)
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case PulseWidth:
		if p < o.duty {
			return 1
		}
		return -1
	case Triangle:
		return 4*math.Abs(p-math.Floor(p+0.75)+0.25) - 1
	case Sawtooth:
		return 2 * (p - math.Floor(p+0.5))
	case Noise:
		// stateful, so the output depends on how many values were drawn,
		// not on the position
		o.noiseX1 ^= o.noiseX2
		v := 2 * (float64(o.noiseX2) - math.MaxUint32/2) / math.MaxUint32
		o.noiseX2 += o.noiseX1
		return v
	case DebugMax:
		return 1
	case DebugMin:
		return -1
	default:
		return 0
	}
}
