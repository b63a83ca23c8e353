package generators

import (
	"fmt"
	"math"
)

type EnvelopeState int

const (
	Idle EnvelopeState = iota
	Attack
	Decay
	Sustain
	Release
	Shutdown
)

func (s EnvelopeState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	case Shutdown:
		return "shutdown"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ShutdownSeconds is the length of the forced ramp to silence used when a
// voice is stolen or retriggered.
const ShutdownSeconds = 0.001

// EnvelopeParams are the ADSR settings. Attack, Decay and Release are in
// seconds, Sustain is a level in [0, 1]. Decay and Release set the slope of
// a full 1.0 -> 0.0 ramp, so the actual segments are usually shorter.
type EnvelopeParams struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Envelope is an ADSR envelope generator. Attack is shaped with a convex
// curve, Decay and Release with a concave one, to avoid clicks.
type Envelope struct {
	params     EnvelopeParams
	sampleRate int

	state     EnvelopeState
	wasReset  bool
	ticks     int
	time      float64
	amplitude kahanSum
	value     float64

	delta           float64
	amplitudeTarget float64
	timeTarget      float64
	amplitudeWasSet bool

	convex, concave curve
	solver          *curveSolver
}

func NewEnvelope(sampleRate int, params EnvelopeParams) *Envelope {
	e := &Envelope{sampleRate: sampleRate, wasReset: true, solver: newCurveSolver()}
	e.SetParams(params)
	return e
}

func (e *Envelope) Params() EnvelopeParams { return e.params }

// SetParams changes the settings. Negative times are treated as zero and
// the sustain level is clamped to [0, 1]. The new values take effect at the
// next segment.
func (e *Envelope) SetParams(p EnvelopeParams) {
	p.Attack = math.Max(0, p.Attack)
	p.Decay = math.Max(0, p.Decay)
	p.Release = math.Max(0, p.Release)
	p.Sustain = math.Max(0, math.Min(1, p.Sustain))
	e.params = p
}

func (e *Envelope) Reset(sampleRate int) {
	e.sampleRate = sampleRate
	e.wasReset = true
}

func (e *Envelope) State() EnvelopeState { return e.state }
func (e *Envelope) IsIdle() bool         { return e.state == Idle }

// Value is the shaped amplitude computed by the latest Tick.
func (e *Envelope) Value() float64 { return e.value }

func (e *Envelope) TriggerAttack()   { e.setState(Attack) }
func (e *Envelope) TriggerRelease()  { e.setState(Release) }
func (e *Envelope) TriggerShutdown() { e.setState(Shutdown) }

// Tick advances the envelope by one sample and returns the new value.
func (e *Envelope) Tick() float64 {
	pre := e.amplitude.value()
	if e.wasReset {
		e.wasReset = false
	} else {
		e.ticks++
		e.amplitude.add(e.delta)
	}
	e.time = float64(e.ticks) / float64(e.sampleRate)
	e.handleState()
	linear := e.amplitude.value()
	if e.amplitudeWasSet {
		// an explicit set is observed exactly once, before any update
		e.amplitudeWasSet = false
		linear = pre
	}
	switch e.state {
	case Attack:
		e.value = e.convex.apply(linear)
	case Decay, Release:
		e.value = e.concave.apply(linear)
	default:
		e.value = linear
	}
	e.value = math.Max(0, math.Min(1, e.value))
	return e.value
}

func (e *Envelope) handleState() {
	var next EnvelopeState
	switch e.state {
	case Attack:
		next = Decay
	case Decay:
		next = Sustain
	case Release, Shutdown:
		next = Idle
	default:
		return
	}
	if e.hasReachedTarget() {
		e.setState(next)
	}
}

func (e *Envelope) hasReachedTarget() bool {
	reached := e.delta == 0 ||
		(e.timeTarget != 0 && e.time >= e.timeTarget) ||
		math.Abs(e.amplitude.value()-e.amplitudeTarget) < math.Abs(e.delta)
	if reached {
		e.amplitude.set(e.amplitudeTarget)
	}
	return reached
}

// setState assumes the previous state actually happened, e.g. a zero attack
// jumps to full amplitude before decaying.
func (e *Envelope) setState(s EnvelopeState) {
	switch s {
	case Idle:
		e.state = Idle
		e.amplitude.set(0)
		e.delta = 0
	case Attack:
		if e.params.Attack == 0 {
			e.setExplicitAmplitude(1)
			e.setState(Decay)
			return
		}
		e.state = Attack
		e.setTarget(1, e.params.Attack, false, false)
		cur := e.amplitude.value()
		e.convex = e.solver.solve(
			cur, cur,
			(1-cur)/2+cur, (1-cur)/1.5+cur,
			1, 1,
		)
	case Decay:
		if e.params.Decay == 0 {
			e.setExplicitAmplitude(e.params.Sustain)
			e.setState(Sustain)
			return
		}
		e.state = Decay
		e.setTarget(e.params.Sustain, e.params.Decay, true, false)
		e.concave = e.concaveTo(e.amplitude.value(), e.params.Sustain)
	case Sustain:
		e.state = Sustain
		e.amplitudeTarget = e.params.Sustain
		e.timeTarget = math.Inf(1)
		e.delta = 0
	case Release:
		// nothing to release from: a release ramp would only run below zero
		if e.params.Release == 0 || e.amplitude.value() <= 0 {
			e.setExplicitAmplitude(0)
			e.setState(Idle)
			return
		}
		e.state = Release
		e.setTarget(0, e.params.Release, true, false)
		e.concave = e.concaveTo(e.amplitude.value(), 0)
	case Shutdown:
		e.state = Shutdown
		e.setTarget(0, ShutdownSeconds, false, true)
	}
}

func (e *Envelope) concaveTo(cur, target float64) curve {
	return e.solver.solve(
		cur, cur,
		(cur-target)/2+target, (cur-target)/3+target,
		target, target,
	)
}

func (e *Envelope) setExplicitAmplitude(v float64) {
	e.amplitude.set(v)
	e.amplitudeWasSet = true
}

// setTarget aims the linear ramp at target over seconds. With fullRange the
// slope is that of a complete 1.0 -> 0.0 ramp. fast takes the first step
// immediately, for the shutdown ramp.
func (e *Envelope) setTarget(target, seconds float64, fullRange, fast bool) {
	e.amplitudeTarget = target
	extra := 0.0
	if fast {
		extra = 1
	}
	rng := target - e.amplitude.value()
	if fullRange {
		rng = -1
	}
	e.timeTarget = e.time + seconds
	e.delta = rng / (seconds*float64(e.sampleRate) + extra)
	if fast {
		e.amplitude.add(e.delta)
	}
}
