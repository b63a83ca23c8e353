package entities

import (
	"math"

	"github.com/vsariola/groove"
)

const ControlTripLoop = 0

var controlTripParams = []groove.ParamSpec{
	ControlTripLoop: {Name: "loop", Min: 0, Max: 1},
}

// ControlTrip plays an automation trip as a control signal, following the
// beats of the clock. A value is emitted only when it changes. After the
// last step the final value is held, or the trip starts over if loop is
// set.
type ControlTrip struct {
	params
	trip groove.Trip
	last float64
}

func NewControlTrip(sampleRate int) *ControlTrip {
	return &ControlTrip{params: newParams(controlTripParams, 0), last: math.NaN()}
}

func (c *ControlTrip) Kind() string                      { return "control-trip" }
func (c *ControlTrip) SetParam(index int, value float64) { c.set(index, value) }
func (c *ControlTrip) Trip() groove.Trip                 { return c.trip.Copy() }

// SetTrip replaces the trip. The value at the current position is emitted
// on the next frame.
func (c *ControlTrip) SetTrip(trip groove.Trip) {
	c.trip = trip.Copy()
	c.last = math.NaN()
}

func (c *ControlTrip) Reset(sampleRate int) {
	c.last = math.NaN()
}

func (c *ControlTrip) Work(clock *groove.Clock, emit groove.Emitter) {
	if len(c.trip.Steps) == 0 {
		return
	}
	beat := clock.Beats()
	if c.intParam(ControlTripLoop) != 0 {
		beat = math.Mod(beat, c.trip.LengthInBeats())
	}
	v := c.trip.Value(beat)
	if v == c.last {
		return
	}
	c.last = v
	emit.EmitControl(v)
}
